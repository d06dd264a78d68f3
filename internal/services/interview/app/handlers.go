package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/tokhirov-007/ai-hr-cv/internal/platform/errors"
	"github.com/tokhirov-007/ai-hr-cv/internal/services/interview/domain"
	"github.com/tokhirov-007/ai-hr-cv/internal/services/interview/filter"
	"github.com/tokhirov-007/ai-hr-cv/internal/services/interview/storage"
)

const (
	defaultListPageSize = 20
	maxListPageSize     = 100
)

// Handler serves the interview HTTP API.
type Handler struct {
	manager  *domain.Manager
	sessions storage.SessionStore
	audit    storage.AuditStore
	grant    AccessGrantConfig
}

// NewHandler builds the HTTP API handler.
func NewHandler(manager *domain.Manager, sessions storage.SessionStore, audit storage.AuditStore, grant AccessGrantConfig) *Handler {
	return &Handler{
		manager:  manager,
		sessions: sessions,
		audit:    audit,
		grant:    grant,
	}
}

// RegisterRoutes mounts the API routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/sessions", h.handleCreateSession)
	mux.HandleFunc("GET /v1/sessions", h.handleListSessions)
	mux.HandleFunc("GET /v1/sessions/{id}", h.handleGetSession)
	mux.HandleFunc("GET /v1/sessions/{id}/question", h.handleCurrentQuestion)
	mux.HandleFunc("POST /v1/sessions/{id}/answers", h.handleSubmitAnswer)
	mux.HandleFunc("GET /v1/sessions/{id}/summary", h.handleSummary)
	mux.HandleFunc("POST /v1/sessions/{id}/status", h.handleUpdateStatus)
	mux.HandleFunc("GET /v1/sessions/{id}/audit", h.handleAuditTrail)
	mux.HandleFunc("GET /healthz", h.handleHealthz)
}

type candidatePayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Language string `json:"language,omitempty"`
	CVPath   string `json:"cv_path,omitempty"`
}

type questionPayload struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	Skill          string   `json:"skill,omitempty"`
	Difficulty     string   `json:"difficulty"`
	ExpectedTopics []string `json:"expected_topics,omitempty"`
}

type createSessionRequest struct {
	Candidate candidatePayload  `json:"candidate"`
	Questions []questionPayload `json:"questions"`
}

type questionProgressPayload struct {
	QuestionID           string `json:"question_id"`
	Text                 string `json:"text"`
	Skill                string `json:"skill,omitempty"`
	Difficulty           string `json:"difficulty"`
	TimeLimitSeconds     int64  `json:"time_limit_seconds"`
	StartedAt            string `json:"started_at"`
	TimeRemainingSeconds int64  `json:"time_remaining_seconds"`
}

type answerPayload struct {
	QuestionID       string `json:"question_id"`
	Text             string `json:"text"`
	TimeSpentSeconds int64  `json:"time_spent_seconds"`
	TimedOut         bool   `json:"timed_out"`
	SubmittedAt      string `json:"submitted_at"`
}

type sessionPayload struct {
	ID                   string                   `json:"id"`
	CandidateID          string                   `json:"candidate_id"`
	CandidateName        string                   `json:"candidate_name"`
	CandidateEmail       string                   `json:"candidate_email"`
	CandidatePhone       string                   `json:"candidate_phone,omitempty"`
	Language             string                   `json:"language"`
	Status               string                   `json:"status"`
	InternalStatus       string                   `json:"internal_status"`
	PublicStatus         string                   `json:"public_status"`
	TotalQuestions       int                      `json:"total_questions"`
	CurrentQuestionIndex int                      `json:"current_question_index"`
	CurrentQuestion      *questionProgressPayload `json:"current_question,omitempty"`
	Answers              []answerPayload          `json:"answers"`
	StartedAt            string                   `json:"started_at"`
	EndedAt              string                   `json:"ended_at,omitempty"`
}

type submitAnswerRequest struct {
	Text string `json:"text"`
}

type submitAnswerResponse struct {
	Answer        answerPayload            `json:"answer"`
	SessionStatus string                   `json:"session_status"`
	NextQuestion  *questionProgressPayload `json:"next_question,omitempty"`
}

type summaryPayload struct {
	SessionID             string          `json:"session_id"`
	Status                string          `json:"status"`
	TotalQuestions        int             `json:"total_questions"`
	AnsweredQuestions     int             `json:"answered_questions"`
	TotalTimeSpentSeconds int64           `json:"total_time_spent_seconds"`
	Answers               []answerPayload `json:"answers"`
}

type updateStatusRequest struct {
	InternalStatus string `json:"internal_status"`
	PublicStatus   string `json:"public_status,omitempty"`
	Actor          string `json:"actor,omitempty"`
}

type statusChangePayload struct {
	OldValue  string `json:"old_value"`
	NewValue  string `json:"new_value"`
	Actor     string `json:"actor"`
	CreatedAt string `json:"created_at"`
}

type listSessionsResponse struct {
	Sessions      []sessionPayload `json:"sessions"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

type errorPayload struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	questions := make([]domain.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, domain.Question{
			ID:             q.ID,
			Text:           q.Text,
			Skill:          q.Skill,
			Difficulty:     domain.NormalizeDifficulty(q.Difficulty),
			ExpectedTopics: q.ExpectedTopics,
		})
	}

	session, err := h.manager.CreateSession(r.Context(), domain.CreateSessionInput{
		CandidateID:    req.Candidate.ID,
		CandidateName:  req.Candidate.Name,
		CandidateEmail: req.Candidate.Email,
		CandidatePhone: req.Candidate.Phone,
		Language:       req.Candidate.Language,
		CVPath:         req.Candidate.CVPath,
		Questions:      questions,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionPayload(session))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.GetSession(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionPayload(session))
}

func (h *Handler) handleCurrentQuestion(w http.ResponseWriter, r *http.Request) {
	progress, err := h.manager.CurrentQuestion(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if progress == nil {
		writeError(w, domain.ErrNoActiveQuestion)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionProgressPayload(progress))
}

func (h *Handler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sessionID := r.PathValue("id")
	answer, err := h.manager.SubmitAnswer(r.Context(), sessionID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := submitAnswerResponse{Answer: toAnswerPayload(answer)}
	if session, err := h.manager.GetSession(sessionID); err == nil {
		resp.SessionStatus = string(session.Status)
	}
	if next, err := h.manager.CurrentQuestion(sessionID); err == nil && next != nil {
		resp.NextQuestion = toQuestionProgressPayload(next)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.manager.GetSummary(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	answers := make([]answerPayload, 0, len(summary.Answers))
	for _, answer := range summary.Answers {
		answers = append(answers, toAnswerPayload(answer))
	}
	writeJSON(w, http.StatusOK, summaryPayload{
		SessionID:             summary.SessionID,
		Status:                string(summary.Status),
		TotalQuestions:        summary.TotalQuestions,
		AnsweredQuestions:     summary.AnsweredQuestions,
		TotalTimeSpentSeconds: int64(summary.TotalTimeSpent / time.Second),
		Answers:               answers,
	})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	// A verified grant names the actor; the body only fills in when the
	// HR surface runs without grant checks.
	if actor == "" {
		actor = req.Actor
	}

	sessionID := r.PathValue("id")
	if err := h.manager.UpdateStatus(r.Context(), sessionID, req.InternalStatus, domain.PublicStatus(req.PublicStatus), actor); err != nil {
		writeError(w, err)
		return
	}

	// The live cache only holds sessions created in this process; a session
	// updated through the durable fallback is read back from the store.
	session, err := h.manager.GetSession(sessionID)
	if err == nil {
		writeJSON(w, http.StatusOK, toSessionPayload(session))
		return
	}
	if !errors.Is(err, domain.ErrSessionNotFound) || h.sessions == nil {
		writeError(w, err)
		return
	}
	record, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStoredSessionPayload(record))
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorize(r); err != nil {
		writeError(w, err)
		return
	}
	if h.audit == nil {
		writeError(w, errors.New("audit store is not configured"))
		return
	}

	records, err := h.audit.ListStatusChanges(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	changes := make([]statusChangePayload, 0, len(records))
	for _, record := range records {
		changes = append(changes, statusChangePayload{
			OldValue:  record.OldValue,
			NewValue:  record.NewValue,
			Actor:     record.Actor,
			CreatedAt: record.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string][]statusChangePayload{"changes": changes})
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorize(r); err != nil {
		writeError(w, err)
		return
	}
	if h.sessions == nil {
		writeError(w, errors.New("session store is not configured"))
		return
	}

	query := storage.SessionQuery{
		PageSize:  defaultListPageSize,
		PageToken: r.URL.Query().Get("page_token"),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			writeError(w, apperrors.New(apperrors.CodeInvalidFilter, "page_size must be a positive integer"))
			return
		}
		if size > maxListPageSize {
			size = maxListPageSize
		}
		query.PageSize = size
	}
	if raw := r.URL.Query().Get("filter"); strings.TrimSpace(raw) != "" {
		condition, err := filter.ParseSessionFilter(raw)
		if err != nil {
			writeError(w, apperrors.Wrap(apperrors.CodeInvalidFilter, "parse filter", err))
			return
		}
		query.FilterSQL = condition.Clause
		query.FilterArgs = condition.Params
	}

	page, err := h.sessions.ListSessions(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	sessions := make([]sessionPayload, 0, len(page.Sessions))
	for _, record := range page.Sessions {
		sessions = append(sessions, toStoredSessionPayload(record))
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{
		Sessions:      sessions,
		NextPageToken: page.NextPageToken,
	})
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authorize verifies the HR access grant when grant checks are configured.
// It returns the actor named by the grant, or "" when checks are disabled.
func (h *Handler) authorize(r *http.Request) (string, error) {
	if !h.grant.Enabled() {
		return "", nil
	}
	claims, err := ValidateAccessGrant(bearerToken(r), h.grant)
	if err != nil {
		return "", err
	}
	return claims.Actor, nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func decodeJSON(r *http.Request, target any) error {
	defer func() { _ = r.Body.Close() }()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		return apperrors.Wrap(apperrors.CodeSessionInvalidInput, "decode request body", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("interview: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	payload := errorPayload{
		Code:    string(apperrors.CodeOf(err)),
		Message: err.Error(),
	}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		payload.Metadata = domainErr.Metadata
	}
	writeJSON(w, status, errorResponse{Error: payload})
}

func toSessionPayload(session domain.Session) sessionPayload {
	answers := make([]answerPayload, 0, len(session.Answers))
	for _, answer := range session.Answers {
		answers = append(answers, toAnswerPayload(answer))
	}
	payload := sessionPayload{
		ID:                   session.ID,
		CandidateID:          session.CandidateID,
		CandidateName:        session.CandidateName,
		CandidateEmail:       session.CandidateEmail,
		CandidatePhone:       session.CandidatePhone,
		Language:             session.Language,
		Status:               string(session.Status),
		InternalStatus:       session.InternalStatus,
		PublicStatus:         string(session.PublicStatus),
		TotalQuestions:       len(session.Questions),
		CurrentQuestionIndex: session.CurrentQuestionIndex,
		Answers:              answers,
		StartedAt:            session.StartedAt.UTC().Format(time.RFC3339),
	}
	if session.CurrentQuestion != nil {
		payload.CurrentQuestion = toQuestionProgressPayload(session.CurrentQuestion)
	}
	if session.EndedAt != nil {
		payload.EndedAt = session.EndedAt.UTC().Format(time.RFC3339)
	}
	return payload
}

func toStoredSessionPayload(record storage.SessionRecord) sessionPayload {
	totalQuestions := 0
	if questions, err := decodeQuestions(record.QuestionsJSON); err == nil {
		totalQuestions = len(questions)
	}
	payload := sessionPayload{
		ID:                   record.ID,
		CandidateID:          record.CandidateID,
		CandidateName:        record.CandidateName,
		CandidateEmail:       record.CandidateEmail,
		CandidatePhone:       record.CandidatePhone,
		Language:             record.Language,
		Status:               record.Status,
		InternalStatus:       record.InternalStatus,
		PublicStatus:         record.PublicStatus,
		TotalQuestions:       totalQuestions,
		CurrentQuestionIndex: record.CurrentQuestionIndex,
		Answers:              []answerPayload{},
		StartedAt:            record.StartedAt.UTC().Format(time.RFC3339),
	}
	if record.EndedAt != nil {
		payload.EndedAt = record.EndedAt.UTC().Format(time.RFC3339)
	}
	return payload
}

func toQuestionProgressPayload(progress *domain.QuestionProgress) *questionProgressPayload {
	return &questionProgressPayload{
		QuestionID:           progress.QuestionID,
		Text:                 progress.Text,
		Skill:                progress.Skill,
		Difficulty:           string(progress.Difficulty),
		TimeLimitSeconds:     int64(progress.TimeLimit / time.Second),
		StartedAt:            progress.StartedAt.UTC().Format(time.RFC3339),
		TimeRemainingSeconds: int64(progress.TimeRemaining / time.Second),
	}
}

func toAnswerPayload(answer domain.Answer) answerPayload {
	return answerPayload{
		QuestionID:       answer.QuestionID,
		Text:             answer.Text,
		TimeSpentSeconds: int64(answer.TimeSpent / time.Second),
		TimedOut:         answer.TimedOut,
		SubmittedAt:      answer.SubmittedAt.UTC().Format(time.RFC3339),
	}
}
