// Package storage defines the persistence contracts for interview state.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested candidate, session, or audit record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a requested write conflicts with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
)

// CandidateRecord stores one candidate, keyed by contact identity (email).
type CandidateRecord struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Language  string
	CVPath    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionRecord stores one interview session. Candidate contact fields are
// a snapshot taken at creation time; the questions column holds the
// immutable question set as JSON.
type SessionRecord struct {
	ID                       string
	CandidateID              string
	CandidateName            string
	CandidateEmail           string
	CandidatePhone           string
	Language                 string
	Status                   string
	InternalStatus           string
	PublicStatus             string
	QuestionsJSON            string
	CurrentQuestionIndex     int
	CurrentQuestionStartedAt *time.Time
	StartedAt                time.Time
	EndedAt                  *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// AnswerRecord stores one submitted answer at its position in the session.
type AnswerRecord struct {
	SessionID   string
	Position    int
	QuestionID  string
	Text        string
	TimeSpent   time.Duration
	TimedOut    bool
	SubmittedAt time.Time
}

// StatusChangeRecord stores one append-only audit trail entry.
type StatusChangeRecord struct {
	SessionID string
	OldValue  string
	NewValue  string
	Actor     string
	CreatedAt time.Time
}

// SessionPage stores a paged session listing result.
type SessionPage struct {
	Sessions      []SessionRecord
	NextPageToken string
}

// SessionQuery narrows and pages a session listing. FilterSQL is a WHERE
// fragment with placeholder args, typically produced by the filter package.
type SessionQuery struct {
	FilterSQL  string
	FilterArgs []any
	PageSize   int
	PageToken  string
}

// SessionStore persists candidates, sessions, and answers.
type SessionStore interface {
	// CreateSessionWithCandidate upserts the candidate by email and inserts
	// the session in one transaction.
	CreateSessionWithCandidate(ctx context.Context, candidate CandidateRecord, session SessionRecord) error
	GetSession(ctx context.Context, sessionID string) (SessionRecord, error)
	ListAnswers(ctx context.Context, sessionID string) ([]AnswerRecord, error)
	// AppendAnswer stores the answer and advances the session cursor in one
	// transaction. nextQuestionStartedAt is nil when no question follows.
	AppendAnswer(ctx context.Context, answer AnswerRecord, newIndex int, nextQuestionStartedAt *time.Time) error
	FinishSession(ctx context.Context, sessionID string, endedAt time.Time) error
	// UpdateSessionStatuses writes the internal label and, when publicStatus
	// is non-empty, the public label.
	UpdateSessionStatuses(ctx context.Context, sessionID string, internalStatus string, publicStatus string) error
	ListSessions(ctx context.Context, query SessionQuery) (SessionPage, error)
}

// AuditStore persists the append-only status transition trail.
type AuditStore interface {
	AppendStatusChange(ctx context.Context, record StatusChangeRecord) error
	ListStatusChanges(ctx context.Context, sessionID string) ([]StatusChangeRecord, error)
}
