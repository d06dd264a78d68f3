package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tokhirov-007/ai-hr-cv/internal/services/interview/domain"
	"github.com/tokhirov-007/ai-hr-cv/internal/services/interview/storage"
)

// domainStoreAdapter exposes a storage.SessionStore through the manager's
// durable-store contract, translating between domain aggregates and flat
// storage records.
type domainStoreAdapter struct {
	store storage.SessionStore
	clock func() time.Time
}

func newDomainStoreAdapter(store storage.SessionStore, clock func() time.Time) *domainStoreAdapter {
	if clock == nil {
		clock = time.Now
	}
	return &domainStoreAdapter{store: store, clock: clock}
}

type questionJSON struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	Skill          string   `json:"skill,omitempty"`
	Difficulty     string   `json:"difficulty"`
	ExpectedTopics []string `json:"expected_topics,omitempty"`
}

func encodeQuestions(questions []domain.Question) (string, error) {
	out := make([]questionJSON, 0, len(questions))
	for _, question := range questions {
		out = append(out, questionJSON{
			ID:             question.ID,
			Text:           question.Text,
			Skill:          question.Skill,
			Difficulty:     string(question.Difficulty),
			ExpectedTopics: question.ExpectedTopics,
		})
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode question snapshot: %w", err)
	}
	return string(raw), nil
}

func decodeQuestions(raw string) ([]domain.Question, error) {
	if raw == "" {
		return nil, nil
	}
	var decoded []questionJSON
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("decode question snapshot: %w", err)
	}
	questions := make([]domain.Question, 0, len(decoded))
	for _, question := range decoded {
		questions = append(questions, domain.Question{
			ID:             question.ID,
			Text:           question.Text,
			Skill:          question.Skill,
			Difficulty:     domain.Difficulty(question.Difficulty),
			ExpectedTopics: question.ExpectedTopics,
		})
	}
	return questions, nil
}

// CreateSession implements domain.DurableStore.
func (a *domainStoreAdapter) CreateSession(ctx context.Context, session domain.Session, cvPath string) error {
	if a == nil || a.store == nil {
		return errors.New("session store is not configured")
	}
	questionsJSON, err := encodeQuestions(session.Questions)
	if err != nil {
		return err
	}

	now := a.clock().UTC()
	candidate := storage.CandidateRecord{
		ID:        session.CandidateID,
		Name:      session.CandidateName,
		Email:     session.CandidateEmail,
		Phone:     session.CandidatePhone,
		Language:  session.Language,
		CVPath:    cvPath,
		CreatedAt: now,
		UpdatedAt: now,
	}
	record := storage.SessionRecord{
		ID:                   session.ID,
		CandidateID:          session.CandidateID,
		CandidateName:        session.CandidateName,
		CandidateEmail:       session.CandidateEmail,
		CandidatePhone:       session.CandidatePhone,
		Language:             session.Language,
		Status:               string(session.Status),
		InternalStatus:       session.InternalStatus,
		PublicStatus:         string(session.PublicStatus),
		QuestionsJSON:        questionsJSON,
		CurrentQuestionIndex: session.CurrentQuestionIndex,
		StartedAt:            session.StartedAt,
		EndedAt:              session.EndedAt,
	}
	if session.CurrentQuestion != nil {
		startedAt := session.CurrentQuestion.StartedAt
		record.CurrentQuestionStartedAt = &startedAt
	}
	return a.store.CreateSessionWithCandidate(ctx, candidate, record)
}

// GetSession implements domain.DurableStore. The returned aggregate carries
// no in-progress view: live timers do not survive outside the manager's
// cache, only the persisted question start instant does.
func (a *domainStoreAdapter) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	if a == nil || a.store == nil {
		return domain.Session{}, errors.New("session store is not configured")
	}
	record, err := a.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	answers, err := a.store.ListAnswers(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	return toDomainSession(record, answers)
}

// AppendAnswer implements domain.DurableStore.
func (a *domainStoreAdapter) AppendAnswer(ctx context.Context, sessionID string, answer domain.Answer, newIndex int, nextQuestionStartedAt *time.Time) error {
	if a == nil || a.store == nil {
		return errors.New("session store is not configured")
	}
	record := storage.AnswerRecord{
		SessionID:   sessionID,
		Position:    newIndex - 1,
		QuestionID:  answer.QuestionID,
		Text:        answer.Text,
		TimeSpent:   answer.TimeSpent,
		TimedOut:    answer.TimedOut,
		SubmittedAt: answer.SubmittedAt,
	}
	return a.store.AppendAnswer(ctx, record, newIndex, nextQuestionStartedAt)
}

// FinishSession implements domain.DurableStore.
func (a *domainStoreAdapter) FinishSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	if a == nil || a.store == nil {
		return errors.New("session store is not configured")
	}
	return a.store.FinishSession(ctx, sessionID, endedAt)
}

// UpdateStatuses implements domain.DurableStore.
func (a *domainStoreAdapter) UpdateStatuses(ctx context.Context, sessionID string, internalStatus string, publicStatus domain.PublicStatus) error {
	if a == nil || a.store == nil {
		return errors.New("session store is not configured")
	}
	return a.store.UpdateSessionStatuses(ctx, sessionID, internalStatus, string(publicStatus))
}

func toDomainSession(record storage.SessionRecord, answerRecords []storage.AnswerRecord) (domain.Session, error) {
	questions, err := decodeQuestions(record.QuestionsJSON)
	if err != nil {
		return domain.Session{}, err
	}
	answers := make([]domain.Answer, 0, len(answerRecords))
	for _, answer := range answerRecords {
		answers = append(answers, domain.Answer{
			QuestionID:  answer.QuestionID,
			Text:        answer.Text,
			TimeSpent:   answer.TimeSpent,
			TimedOut:    answer.TimedOut,
			SubmittedAt: answer.SubmittedAt,
		})
	}
	return domain.Session{
		ID:                   record.ID,
		CandidateID:          record.CandidateID,
		CandidateName:        record.CandidateName,
		CandidateEmail:       record.CandidateEmail,
		CandidatePhone:       record.CandidatePhone,
		Language:             record.Language,
		Status:               domain.Status(record.Status),
		InternalStatus:       record.InternalStatus,
		PublicStatus:         domain.PublicStatus(record.PublicStatus),
		Questions:            questions,
		CurrentQuestionIndex: record.CurrentQuestionIndex,
		Answers:              answers,
		StartedAt:            record.StartedAt,
		EndedAt:              record.EndedAt,
	}, nil
}

// auditStoreAdapter exposes a storage.AuditStore through the manager's
// audit boundary.
type auditStoreAdapter struct {
	store storage.AuditStore
	clock func() time.Time
}

func newAuditStoreAdapter(store storage.AuditStore, clock func() time.Time) *auditStoreAdapter {
	if clock == nil {
		clock = time.Now
	}
	return &auditStoreAdapter{store: store, clock: clock}
}

// RecordStatusChange implements the interview domain Auditor.
func (a *auditStoreAdapter) RecordStatusChange(ctx context.Context, sessionID, oldValue, newValue, actor string) error {
	if a == nil || a.store == nil {
		return errors.New("audit store is not configured")
	}
	return a.store.AppendStatusChange(ctx, storage.StatusChangeRecord{
		SessionID: sessionID,
		OldValue:  oldValue,
		NewValue:  newValue,
		Actor:     actor,
		CreatedAt: a.clock().UTC(),
	})
}
