package domain

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	apperrors "github.com/tokhirov-007/ai-hr-cv/internal/platform/errors"
	"github.com/tokhirov-007/ai-hr-cv/internal/platform/id"
)

// Sentinel errors surfaced by manager operations. They match by code, so
// errors.Is works across wrapping.
var (
	ErrSessionNotFound    = apperrors.New(apperrors.CodeSessionNotFound, "session not found")
	ErrSessionNotActive   = apperrors.New(apperrors.CodeSessionNotActive, "session is not active")
	ErrNoActiveQuestion   = apperrors.New(apperrors.CodeSessionNoActiveQuestion, "session has no active question")
	ErrTimerNotRegistered = apperrors.New(apperrors.CodeSessionTimerMissing, "no timer registered for session")
	ErrEmptyInternal      = apperrors.New(apperrors.CodeStatusEmptyInternal, "internal status must not be empty")
	ErrStoreNotConfigured = apperrors.New(apperrors.CodePersistenceFailure, "durable store is not configured")
)

// DurableStore is the persistence boundary for sessions. Memory stays
// authoritative for active sessions; the store is the system of record
// across restarts.
type DurableStore interface {
	// CreateSession persists the candidate snapshot and the session record
	// in one transaction.
	CreateSession(ctx context.Context, session Session, cvPath string) error
	// GetSession loads a session by id, ErrSessionNotFound when absent.
	GetSession(ctx context.Context, sessionID string) (Session, error)
	// AppendAnswer stores one answer, advances the stored cursor, and
	// records when the next question started (nil when none follows).
	AppendAnswer(ctx context.Context, sessionID string, answer Answer, newIndex int, nextQuestionStartedAt *time.Time) error
	// FinishSession marks the session finished and stamps its end time.
	FinishSession(ctx context.Context, sessionID string, endedAt time.Time) error
	// UpdateStatuses persists the internal label and, when publicStatus is
	// non-empty, the public label, in one transaction.
	UpdateStatuses(ctx context.Context, sessionID string, internalStatus string, publicStatus PublicStatus) error
}

// Decision is the payload handed to the notification boundary when a
// public status transition fires.
type Decision struct {
	SessionID      string
	CandidateName  string
	CandidateEmail string
	CandidatePhone string
	PublicStatus   PublicStatus
	Language       string
}

// Notifier delivers candidate-facing decision notifications. Delivery
// failures are the boundary's concern; the manager logs and moves on.
type Notifier interface {
	NotifyDecision(ctx context.Context, decision Decision) error
}

// Auditor appends immutable status-transition records.
type Auditor interface {
	RecordStatusChange(ctx context.Context, sessionID, oldValue, newValue, actor string) error
}

// sessionState is the live in-memory representation of one session. Its
// mutex serializes lifecycle operations per session id.
type sessionState struct {
	mu       sync.Mutex
	session  Session
	timer    *Timer
	recorder *AnswerRecorder
}

// Manager orchestrates the interview lifecycle over a write-through
// in-memory cache backed by a durable store.
type Manager struct {
	store    DurableStore
	notifier Notifier
	auditor  Auditor
	clock    func() time.Time
	newID    func() (string, error)

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// NewManager builds a manager. A nil clock defaults to time.Now and a nil
// id generator to the platform generator; notifier and auditor may be nil
// when the caller wants a silent boundary.
func NewManager(store DurableStore, notifier Notifier, auditor Auditor, clock func() time.Time, newID func() (string, error)) *Manager {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Manager{
		store:    store,
		notifier: notifier,
		auditor:  auditor,
		clock:    clock,
		newID:    newID,
		sessions: make(map[string]*sessionState),
	}
}

// CreateSession opens a session, starts the first question, and registers
// the session in the live cache. Persistence failures degrade durability,
// not availability: they are logged and the session proceeds in memory.
func (m *Manager) CreateSession(ctx context.Context, input CreateSessionInput) (Session, error) {
	session, err := NewSession(input, m.clock, m.newID)
	if err != nil {
		return Session{}, err
	}

	state := &sessionState{session: session, recorder: NewAnswerRecorder()}
	state.startNextQuestion(m.clock)

	if m.store != nil {
		if err := m.store.CreateSession(ctx, state.session.clone(), input.CVPath); err != nil {
			log.Printf("interview: create session %s: durable write failed: %v", session.ID, err)
		}
	}

	snapshot := state.session.clone()

	m.mu.Lock()
	m.sessions[snapshot.ID] = state
	m.mu.Unlock()

	return snapshot, nil
}

// CurrentQuestion returns the question in progress with a freshly computed
// time remaining, or nil when the session is finished or exhausted.
func (m *Manager) CurrentQuestion(sessionID string) (*QuestionProgress, error) {
	state := m.state(sessionID)
	if state == nil {
		return nil, ErrSessionNotFound
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.session.Status != StatusActive || state.session.CurrentQuestion == nil {
		return nil, nil
	}
	if state.timer != nil {
		state.session.CurrentQuestion.TimeRemaining = state.timer.Remaining()
	}
	progress := *state.session.CurrentQuestion
	return &progress, nil
}

// SubmitAnswer stops the active question's timer, records the answer, and
// advances the session to the next question or to completion. Durable
// writes are best-effort.
func (m *Manager) SubmitAnswer(ctx context.Context, sessionID, text string) (Answer, error) {
	state := m.state(sessionID)
	if state == nil {
		return Answer{}, ErrSessionNotFound
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.session.Status != StatusActive {
		return Answer{}, ErrSessionNotActive
	}
	if state.session.CurrentQuestion == nil {
		return Answer{}, ErrNoActiveQuestion
	}
	if state.timer == nil {
		return Answer{}, ErrTimerNotRegistered
	}

	timeSpent, err := state.timer.Stop()
	if err != nil {
		return Answer{}, fmt.Errorf("stop question timer: %w", err)
	}
	timedOut := state.timer.TimedOut()

	answer := state.recorder.Record(state.session.CurrentQuestion.QuestionID, text, timeSpent, timedOut, m.clock())
	state.session.Answers = append(state.session.Answers, answer)
	state.session.CurrentQuestionIndex++
	newIndex := state.session.CurrentQuestionIndex

	var nextStartedAt *time.Time
	if newIndex >= len(state.session.Questions) {
		m.finishSession(ctx, state)
	} else {
		state.session.CurrentQuestion = nil
		state.timer = nil
		state.startNextQuestion(m.clock)
		if state.session.CurrentQuestion != nil {
			startedAt := state.session.CurrentQuestion.StartedAt
			nextStartedAt = &startedAt
		}
	}

	if m.store != nil {
		if err := m.store.AppendAnswer(ctx, sessionID, answer, newIndex, nextStartedAt); err != nil {
			log.Printf("interview: session %s: durable answer write failed: %v", sessionID, err)
		}
	}

	return answer, nil
}

// GetSession returns a snapshot of the live session with a refreshed time
// remaining on the current question.
func (m *Manager) GetSession(sessionID string) (Session, error) {
	state := m.state(sessionID)
	if state == nil {
		return Session{}, ErrSessionNotFound
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.session.CurrentQuestion != nil && state.timer != nil {
		state.session.CurrentQuestion.TimeRemaining = state.timer.Remaining()
	}
	return state.session.clone(), nil
}

// GetSummary aggregates the session's progress for reporting.
func (m *Manager) GetSummary(sessionID string) (SessionSummary, error) {
	state := m.state(sessionID)
	if state == nil {
		return SessionSummary{}, ErrSessionNotFound
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	return SessionSummary{
		SessionID:         state.session.ID,
		Status:            state.session.Status,
		TotalQuestions:    len(state.session.Questions),
		AnsweredQuestions: state.recorder.AnsweredQuestions(),
		TotalTimeSpent:    state.recorder.TotalTimeSpent(),
		Answers:           append([]Answer(nil), state.session.Answers...),
	}, nil
}

// UpdateStatus persists a new internal label and, optionally, a new public
// label. The internal transition is always audited. A public transition is
// audited under the public actor tag and dispatched to the notification
// boundary exactly once, and only when the new public label differs from
// the old one. Persistence errors propagate: status drives candidate-facing
// communication and must not be silently lost.
func (m *Manager) UpdateStatus(ctx context.Context, sessionID, newInternal string, newPublic PublicStatus, actor string) error {
	newInternal = strings.TrimSpace(newInternal)
	if newInternal == "" {
		return ErrEmptyInternal
	}
	newPublic = PublicStatus(strings.ToUpper(strings.TrimSpace(string(newPublic))))
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = DefaultActor
	}
	if m.store == nil {
		return ErrStoreNotConfigured
	}

	// The per-session lock covers reading the old labels, the durable
	// write, and the memory mirror, so concurrent updates serialize their
	// transition decisions. It is released before the audit and
	// notification boundaries: a slow transport must not block the
	// candidate's answer flow on the same session.
	state := m.state(sessionID)
	var current Session
	if state != nil {
		state.mu.Lock()
		current = state.session
	} else {
		durable, err := m.store.GetSession(ctx, sessionID)
		if err != nil {
			if apperrors.CodeOf(err) == apperrors.CodeSessionNotFound {
				return ErrSessionNotFound
			}
			return apperrors.Wrap(apperrors.CodePersistenceFailure, "load session for status update", err)
		}
		current = durable
	}

	oldInternal := current.InternalStatus
	oldPublic := current.PublicStatus

	if err := m.store.UpdateStatuses(ctx, sessionID, newInternal, newPublic); err != nil {
		if state != nil {
			state.mu.Unlock()
		}
		return apperrors.Wrap(apperrors.CodePersistenceFailure, "persist status update", err)
	}

	if state != nil {
		state.session.InternalStatus = newInternal
		if newPublic != "" {
			state.session.PublicStatus = newPublic
		}
		state.mu.Unlock()
	}

	if m.auditor != nil {
		if err := m.auditor.RecordStatusChange(ctx, sessionID, oldInternal, newInternal, actor); err != nil {
			return fmt.Errorf("audit internal status change: %w", err)
		}
	}

	if newPublic == "" || newPublic == oldPublic {
		return nil
	}

	if m.auditor != nil {
		if err := m.auditor.RecordStatusChange(ctx, sessionID, string(oldPublic), string(newPublic), actor+PublicActorSuffix); err != nil {
			return fmt.Errorf("audit public status change: %w", err)
		}
	}
	if m.notifier != nil {
		decision := Decision{
			SessionID:      sessionID,
			CandidateName:  current.CandidateName,
			CandidateEmail: current.CandidateEmail,
			CandidatePhone: current.CandidatePhone,
			PublicStatus:   newPublic,
			Language:       current.Language,
		}
		if err := m.notifier.NotifyDecision(ctx, decision); err != nil {
			log.Printf("interview: session %s: decision notification failed: %v", sessionID, err)
		}
	}

	return nil
}

// finishSession completes the session under the state lock: it stamps the
// end time, clears the in-progress view, and drops the timer. The durable
// write is best-effort.
func (m *Manager) finishSession(ctx context.Context, state *sessionState) {
	state.session.Status = StatusFinished
	endedAt := m.clock().UTC()
	state.session.EndedAt = &endedAt
	state.session.CurrentQuestion = nil
	state.timer = nil

	if m.store != nil {
		if err := m.store.FinishSession(ctx, state.session.ID, endedAt); err != nil {
			log.Printf("interview: session %s: durable finish failed: %v", state.session.ID, err)
		}
	}
}

func (m *Manager) state(sessionID string) *sessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sessionID]
}

// startNextQuestion seeds the in-progress view and timer for the question
// at the current cursor. No-op when the cursor is past the last question.
func (s *sessionState) startNextQuestion(clock func() time.Time) {
	if s.session.CurrentQuestionIndex >= len(s.session.Questions) {
		return
	}
	question := s.session.Questions[s.session.CurrentQuestionIndex]
	timer := NewTimer(question.Difficulty, clock)
	timer.Start()
	s.timer = timer
	s.session.CurrentQuestion = &QuestionProgress{
		QuestionID:    question.ID,
		Text:          question.Text,
		Skill:         question.Skill,
		Difficulty:    question.Difficulty,
		TimeLimit:     timer.Limit(),
		StartedAt:     timer.StartedAt(),
		TimeRemaining: timer.Limit(),
	}
}
