package domain

import (
	"strings"
	"time"

	apperrors "github.com/tokhirov-007/ai-hr-cv/internal/platform/errors"
	"github.com/tokhirov-007/ai-hr-cv/internal/platform/id"
)

// Status is the lifecycle state of a session.
type Status string

const (
	// StatusActive marks a session with unanswered questions remaining.
	StatusActive Status = "ACTIVE"
	// StatusFinished marks a session whose question list is exhausted.
	StatusFinished Status = "FINISHED"
)

// PublicStatus is the candidate-visible decision label. The set below is
// what the notification copy understands; transitions to any label are
// accepted and audited.
type PublicStatus string

const (
	// PublicStatusUnderReview is the initial public status of every session.
	PublicStatusUnderReview PublicStatus = "UNDER_REVIEW"
	// PublicStatusInvite means the candidate advances to the next stage.
	PublicStatusInvite PublicStatus = "INVITE"
	// PublicStatusReject means the candidate is declined.
	PublicStatusReject PublicStatus = "REJECT"
)

// InternalStatusPending is the initial HR workflow label. The internal
// vocabulary is open; any non-empty label is legal.
const InternalStatusPending = "PENDING"

// DefaultActor attributes status changes made without an explicit actor.
const DefaultActor = "HR_SYSTEM"

// PublicActorSuffix is appended to the actor on public-transition audit
// entries so the trail distinguishes candidate-visible changes.
const PublicActorSuffix = "_PUBLIC"

// Difficulty is the question difficulty tier that determines the time limit.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

const (
	easyTimeLimit   = 60 * time.Second
	mediumTimeLimit = 120 * time.Second
	hardTimeLimit   = 180 * time.Second
)

// NormalizeDifficulty lowercases and trims a raw difficulty label.
func NormalizeDifficulty(raw string) Difficulty {
	return Difficulty(strings.ToLower(strings.TrimSpace(raw)))
}

// TimeLimit resolves the answering window for the tier. Unknown tiers get
// the medium limit.
func (d Difficulty) TimeLimit() time.Duration {
	switch d {
	case DifficultyEasy:
		return easyTimeLimit
	case DifficultyHard:
		return hardTimeLimit
	default:
		return mediumTimeLimit
	}
}

// Question is one entry of a session's immutable question snapshot.
type Question struct {
	ID             string
	Text           string
	Skill          string
	Difficulty     Difficulty
	ExpectedTopics []string
}

// Answer records one submitted answer. Immutable once created.
type Answer struct {
	QuestionID  string
	Text        string
	TimeSpent   time.Duration
	TimedOut    bool
	SubmittedAt time.Time
}

// QuestionProgress is the transient view of the question currently being
// answered. TimeRemaining is recomputed from the live timer on each read.
type QuestionProgress struct {
	QuestionID    string
	Text          string
	Skill         string
	Difficulty    Difficulty
	TimeLimit     time.Duration
	StartedAt     time.Time
	TimeRemaining time.Duration
}

// Session is the aggregate root of one candidate's interview attempt.
// Candidate contact fields are snapshotted at creation and deliberately
// decoupled from later candidate-record edits.
type Session struct {
	ID             string
	CandidateID    string
	CandidateName  string
	CandidateEmail string
	CandidatePhone string
	Language       string

	Status         Status
	InternalStatus string
	PublicStatus   PublicStatus

	Questions            []Question
	CurrentQuestionIndex int
	CurrentQuestion      *QuestionProgress
	Answers              []Answer

	StartedAt time.Time
	EndedAt   *time.Time
}

// SessionSummary aggregates a session's progress for reporting.
type SessionSummary struct {
	SessionID         string
	Status            Status
	TotalQuestions    int
	AnsweredQuestions int
	TotalTimeSpent    time.Duration
	Answers           []Answer
}

// CreateSessionInput carries everything needed to open a session.
type CreateSessionInput struct {
	CandidateID    string
	CandidateName  string
	CandidateEmail string
	CandidatePhone string
	Language       string
	CVPath         string
	Questions      []Question
}

// NewSession builds a session aggregate from the input. The question set is
// deep-copied so later edits to the source slice cannot affect the session.
func NewSession(input CreateSessionInput, clock func() time.Time, newID func() (string, error)) (Session, error) {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}

	candidateID := strings.TrimSpace(input.CandidateID)
	if candidateID == "" {
		return Session{}, apperrors.New(apperrors.CodeSessionInvalidInput, "candidate id is required")
	}
	name := strings.TrimSpace(input.CandidateName)
	if name == "" {
		return Session{}, apperrors.New(apperrors.CodeSessionInvalidInput, "candidate name is required")
	}
	email := strings.TrimSpace(input.CandidateEmail)
	if email == "" {
		return Session{}, apperrors.New(apperrors.CodeSessionInvalidInput, "candidate email is required")
	}

	language := strings.ToLower(strings.TrimSpace(input.Language))
	if language == "" {
		language = "en"
	}

	id, err := newID()
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeUnknown, "generate session id", err)
	}

	questions := make([]Question, len(input.Questions))
	for i, q := range input.Questions {
		questions[i] = Question{
			ID:         strings.TrimSpace(q.ID),
			Text:       q.Text,
			Skill:      q.Skill,
			Difficulty: NormalizeDifficulty(string(q.Difficulty)),
		}
		if questions[i].ID == "" {
			return Session{}, apperrors.New(apperrors.CodeSessionInvalidInput, "question id is required")
		}
		if len(q.ExpectedTopics) > 0 {
			questions[i].ExpectedTopics = append([]string(nil), q.ExpectedTopics...)
		}
	}

	return Session{
		ID:             id,
		CandidateID:    candidateID,
		CandidateName:  name,
		CandidateEmail: email,
		CandidatePhone: strings.TrimSpace(input.CandidatePhone),
		Language:       language,
		Status:         StatusActive,
		InternalStatus: InternalStatusPending,
		PublicStatus:   PublicStatusUnderReview,
		Questions:      questions,
		StartedAt:      clock().UTC(),
	}, nil
}

// clone returns a deep copy safe to hand to callers and stores.
func (s Session) clone() Session {
	out := s

	out.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		out.Questions[i] = q
		if len(q.ExpectedTopics) > 0 {
			out.Questions[i].ExpectedTopics = append([]string(nil), q.ExpectedTopics...)
		}
	}

	if len(s.Answers) > 0 {
		out.Answers = append([]Answer(nil), s.Answers...)
	}
	if s.CurrentQuestion != nil {
		progress := *s.CurrentQuestion
		out.CurrentQuestion = &progress
	}
	if s.EndedAt != nil {
		endedAt := *s.EndedAt
		out.EndedAt = &endedAt
	}
	return out
}
