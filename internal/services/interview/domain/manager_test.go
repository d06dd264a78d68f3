package domain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/tokhirov-007/ai-hr-cv/internal/platform/errors"
)

type appendCall struct {
	sessionID     string
	answer        Answer
	newIndex      int
	nextStartedAt *time.Time
}

type statusCall struct {
	sessionID      string
	internalStatus string
	publicStatus   PublicStatus
}

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]Session

	created  []Session
	cvPaths  []string
	appends  []appendCall
	finishes []string
	statuses []statusCall

	failCreate error
	failAppend error
	failUpdate error
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]Session)}
}

func (s *fakeStore) CreateSession(_ context.Context, session Session, cvPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return s.failCreate
	}
	s.created = append(s.created, session)
	s.cvPaths = append(s.cvPaths, cvPath)
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeStore) GetSession(_ context.Context, sessionID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *fakeStore) AppendAnswer(_ context.Context, sessionID string, answer Answer, newIndex int, nextStartedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppend != nil {
		return s.failAppend
	}
	s.appends = append(s.appends, appendCall{sessionID, answer, newIndex, nextStartedAt})
	return nil
}

func (s *fakeStore) FinishSession(_ context.Context, sessionID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishes = append(s.finishes, sessionID)
	return nil
}

func (s *fakeStore) UpdateStatuses(_ context.Context, sessionID string, internalStatus string, publicStatus PublicStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate != nil {
		return s.failUpdate
	}
	s.statuses = append(s.statuses, statusCall{sessionID, internalStatus, publicStatus})
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	decisions []Decision
	err       error
}

func (n *fakeNotifier) NotifyDecision(_ context.Context, decision Decision) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.decisions = append(n.decisions, decision)
	return nil
}

// blockingNotifier parks inside NotifyDecision until released, to observe
// what the manager keeps locked during dispatch.
type blockingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (n *blockingNotifier) NotifyDecision(_ context.Context, _ Decision) error {
	close(n.entered)
	<-n.release
	return nil
}

type auditEntry struct {
	sessionID string
	oldValue  string
	newValue  string
	actor     string
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *fakeAuditor) RecordStatusChange(_ context.Context, sessionID, oldValue, newValue, actor string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{sessionID, oldValue, newValue, actor})
	return nil
}

type managerFixture struct {
	manager  *Manager
	store    *fakeStore
	notifier *fakeNotifier
	auditor  *fakeAuditor
	clock    *fakeClock
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()

	store := newFakeStore()
	notifier := &fakeNotifier{}
	auditor := &fakeAuditor{}
	clock := newFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	manager := NewManager(store, notifier, auditor, clock.Now, sequentialIDs("sess"))
	return &managerFixture{manager: manager, store: store, notifier: notifier, auditor: auditor, clock: clock}
}

func TestCreateSessionStartsFirstQuestion(t *testing.T) {
	t.Parallel()

	fx := newManagerFixture(t)
	session, err := fx.manager.CreateSession(context.Background(), twoQuestionInput())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if session.CurrentQuestion == nil {
		t.Fatal("expected a current question")
	}
	if session.CurrentQuestion.QuestionID != "q1" {
		t.Fatalf("current question = %q, want q1", session.CurrentQuestion.QuestionID)
	}
	if session.CurrentQuestion.TimeLimit != 60*time.Second {
		t.Fatalf("time limit = %s, want 60s", session.CurrentQuestion.TimeLimit)
	}

	if len(fx.store.created) != 1 {
		t.Fatalf("durable creates = %d, want 1", len(fx.store.created))
	}
	if fx.store.cvPaths[0] != "cv/cand-1.pdf" {
		t.Fatalf("cv path = %q", fx.store.cvPaths[0])
	}
	if fx.store.created[0].CurrentQuestion == nil {
		t.Fatal("expected durable record to carry the first question start")
	}
}

func TestCreateSessionSurvivesPersistenceFailure(t *testing.T) {
	t.Parallel()

	fx := newManagerFixture(t)
	fx.store.failCreate = errors.New("disk full")

	session, err := fx.manager.CreateSession(context.Background(), twoQuestionInput())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	// The session must be live in memory even though the durable write failed.
	progress, err := fx.manager.CurrentQuestion(session.ID)
	if err != nil {
		t.Fatalf("current question: %v", err)
	}
	if progress == nil || progress.QuestionID != "q1" {
		t.Fatalf("unexpected progress: %+v", progress)
	}
}

func TestSubmitAnswerAdvancesThenFinishes(t *testing.T) {
	t.Parallel()

	fx := newManagerFixture(t)
	ctx := context.Background()
	session, err := fx.manager.CreateSession(ctx, twoQuestionInput())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	fx.clock.Advance(10 * time.Second)
	first, err := fx.manager.SubmitAnswer(ctx, session.ID, "answer A")
	if err != nil {
		t.Fatalf("submit first answer: %v", err)
	}
	if first.QuestionID != "q1" || first.TimeSpent != 10*time.Second || first.TimedOut {
		t.Fatalf("unexpected first answer: %+v", first)
	}

	snapshot, err := fx.manager.GetSession(session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if snapshot.CurrentQuestionIndex != 1 {
		t.Fatalf("cursor = %d, want 1", snapshot.CurrentQuestionIndex)
	}
	if snapshot.CurrentQuestion == nil || snapshot.CurrentQuestion.QuestionID != "q2" {
		t.Fatalf("expected q2 in progress, got %+v", snapshot.CurrentQuestion)
	}
	if len(snapshot.Answers) != snapshot.CurrentQuestionIndex {
		t.Fatalf("answers (%d) out of step with cursor (%d)", len(snapshot.Answers), snapshot.CurrentQuestionIndex)
	}

	// Second question has a 120s limit; overrun it.
	fx.clock.Advance(130 * time.Second)
	second, err := fx.manager.SubmitAnswer(ctx, session.ID, "answer B")
	if err != nil {
		t.Fatalf("submit second answer: %v", err)
	}
	if !second.TimedOut || second.TimeSpent != 130*time.Second {
		t.Fatalf("unexpected second answer: %+v", second)
	}

	snapshot, err = fx.manager.GetSession(session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if snapshot.Status != StatusFinished {
		t.Fatalf("status = %q, want FINISHED", snapshot.Status)
	}
	if snapshot.EndedAt == nil {
		t.Fatal("expected end time to be set")
	}
	if snapshot.CurrentQuestion != nil {
		t.Fatal("expected no current question after completion")
	}

	summary, err := fx.manager.GetSummary(session.ID)
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if summary.AnsweredQuestions != 2 || summary.TotalQuestions != 2 {
		t.Fatalf("unexpected summary counts: %+v", summary)
	}
	if summary.TotalTimeSpent != 140*time.Second {
		t.Fatalf("total time spent = %s, want 140s", summary.TotalTimeSpent)
	}

	if len(fx.store.appends) != 2 {
		t.Fatalf("durable answer writes = %d, want 2", len(fx.store.appends))
	}
	if fx.store.appends[0].nextStartedAt == nil {
		t.Fatal("expected next question start on first append")
	}
	if fx.store.appends[1].nextStartedAt != nil {
		t.Fatal("expected no next question start on last append")
	}
	if len(fx.store.finishes) != 1 {
		t.Fatalf("durable finishes = %d, want 1", len(fx.store.finishes))
	}
}

func TestSubmitAnswerRejectsWrongState(t *testing.T) {
	t.Parallel()

	fx := newManagerFixture(t)
	ctx := context.Background()

	if _, err := fx.manager.SubmitAnswer(ctx, "missing", "answer"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}

	input := twoQuestionInput()
	input.Questions = input.Questions[:1]
	session, err := fx.manager.CreateSession(ctx, input)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := fx.manager.SubmitAnswer(ctx, session.ID, "only answer"); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if _, err := fx.manager.SubmitAnswer(ctx, session.ID, "extra"); !errors.Is(err, ErrSessionNotActive) {
		t.Fatalf("error = %v, want ErrSessionNotActive", err)
	}
}

func TestCurrentQuestionRefreshesRemaining(t *testing.T) {
	t.Parallel()

	fx := newManagerFixture(t)
	session, err := fx.manager.CreateSession(context.Background(), twoQuestionInput())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	previous := 61 * time.Second
	for i := 0; i < 4; i++ {
		progress, err := fx.manager.CurrentQuestion(session.ID)
		if err != nil {
			t.Fatalf("current question: %v", err)
		}
		if progress.TimeRemaining > previous {
			t.Fatalf("remaining increased from %s to %s", previous, progress.TimeRemaining)
		}
		if progress.TimeRemaining < 0 {
			t.Fatalf("remaining went negative: %s", progress.TimeRemaining)
		}
		previous = progress.TimeRemaining
		fx.clock.Advance(25 * time.Second)
	}

	if _, err := fx.manager.CurrentQuestion("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestUpdateStatusNotifiesOncePerPublicTransition(t *testing.T) {
	t.Parallel()

	fx := newManagerFixture(t)
	ctx := context.Background()
	session, err := fx.manager.CreateSession(ctx, twoQuestionInput())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	// Internal-only change: audited, never notified.
	if err := fx.manager.UpdateStatus(ctx, session.ID, "PENDING_REVIEW", "", "HR1"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if len(fx.auditor.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(fx.auditor.entries))
	}
	if got := fx.auditor.entries[0]; got.oldValue != InternalStatusPending || got.newValue != "PENDING_REVIEW" || got.actor != "HR1" {
		t.Fatalf("unexpected audit entry: %+v", got)
	}
	if len(fx.notifier.decisions) != 0 {
		t.Fatalf("notifications = %d, want 0", len(fx.notifier.decisions))
	}

	// Public transition: one public audit entry plus exactly one notification.
	if err := fx.manager.UpdateStatus(ctx, session.ID, "ACCEPTED", PublicStatusInvite, "HR1"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if len(fx.auditor.entries) != 3 {
		t.Fatalf("audit entries = %d, want 3", len(fx.auditor.entries))
	}
	public := fx.auditor.entries[2]
	if public.actor != "HR1"+PublicActorSuffix {
		t.Fatalf("public audit actor = %q, want HR1_PUBLIC", public.actor)
	}
	if public.oldValue != string(PublicStatusUnderReview) || public.newValue != string(PublicStatusInvite) {
		t.Fatalf("unexpected public audit entry: %+v", public)
	}
	if len(fx.notifier.decisions) != 1 {
		t.Fatalf("notifications = %d, want 1", len(fx.notifier.decisions))
	}
	decision := fx.notifier.decisions[0]
	if decision.PublicStatus != PublicStatusInvite || decision.CandidateEmail != "dana@example.com" {
		t.Fatalf("unexpected decision: %+v", decision)
	}

	// Repeating the same public value audits the internal transition only.
	if err := fx.manager.UpdateStatus(ctx, session.ID, "ACCEPTED", PublicStatusInvite, "HR1"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if len(fx.auditor.entries) != 4 {
		t.Fatalf("audit entries = %d, want 4", len(fx.auditor.entries))
	}
	if len(fx.notifier.decisions) != 1 {
		t.Fatalf("notifications after duplicate = %d, want 1", len(fx.notifier.decisions))
	}
}

func TestUpdateStatusSamePublicAsInitialDoesNotNotify(t *testing.T) {
	t.Parallel()

	fx := newManagerFixture(t)
	ctx := context.Background()
	session, err := fx.manager.CreateSession(ctx, twoQuestionInput())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := fx.manager.UpdateStatus(ctx, session.ID, "SCREENING", PublicStatusUnderReview, "HR2"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if len(fx.notifier.decisions) != 0 {
		t.Fatalf("notifications = %d, want 0", len(fx.notifier.decisions))
	}
	if len(fx.auditor.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(fx.auditor.entries))
	}
}

func TestUpdateStatusFallsBackToDurableRecord(t *testing.T) {
	t.Parallel()

	fx := newManagerFixture(t)
	ctx := context.Background()

	// Simulate a session known only to the durable store (post-restart).
	fx.store.sessions["sess-durable"] = Session{
		ID:             "sess-durable",
		CandidateName:  "Ilya Petrov",
		CandidateEmail: "ilya@example.com",
		Language:       "ru",
		Status:         StatusFinished,
		InternalStatus: "SCORED",
		PublicStatus:   PublicStatusUnderReview,
	}

	if err := fx.manager.UpdateStatus(ctx, "sess-durable", "ACCEPTED", PublicStatusInvite, "HR3"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if len(fx.notifier.decisions) != 1 {
		t.Fatalf("notifications = %d, want 1", len(fx.notifier.decisions))
	}
	decision := fx.notifier.decisions[0]
	if decision.CandidateEmail != "ilya@example.com" || decision.Language != "ru" {
		t.Fatalf("expected durable-sourced contact details, got %+v", decision)
	}
	if got := fx.auditor.entries[0].oldValue; got != "SCORED" {
		t.Fatalf("old internal = %q, want SCORED", got)
	}
}

func TestUpdateStatusValidation(t *testing.T) {
	t.Parallel()

	fx := newManagerFixture(t)
	ctx := context.Background()

	if err := fx.manager.UpdateStatus(ctx, "sess-any", "  ", "", "HR1"); !errors.Is(err, ErrEmptyInternal) {
		t.Fatalf("error = %v, want ErrEmptyInternal", err)
	}
	if err := fx.manager.UpdateStatus(ctx, "missing", "REVIEWED", "", "HR1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestUpdateStatusPersistenceFailurePropagates(t *testing.T) {
	t.Parallel()

	fx := newManagerFixture(t)
	ctx := context.Background()
	session, err := fx.manager.CreateSession(ctx, twoQuestionInput())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	fx.store.failUpdate = errors.New("db locked")
	err = fx.manager.UpdateStatus(ctx, session.ID, "ACCEPTED", PublicStatusInvite, "HR1")
	if apperrors.CodeOf(err) != apperrors.CodePersistenceFailure {
		t.Fatalf("error = %v, want persistence failure", err)
	}
	if len(fx.auditor.entries) != 0 || len(fx.notifier.decisions) != 0 {
		t.Fatal("expected no audit or notification after failed persist")
	}

	// Memory must not have mirrored the failed write.
	snapshot, err := fx.manager.GetSession(session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if snapshot.PublicStatus != PublicStatusUnderReview {
		t.Fatalf("public status = %q, want UNDER_REVIEW", snapshot.PublicStatus)
	}
}

func TestUpdateStatusReleasesSessionLockBeforeDispatch(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := &blockingNotifier{entered: make(chan struct{}), release: make(chan struct{})}
	auditor := &fakeAuditor{}
	clock := newFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	manager := NewManager(store, notifier, auditor, clock.Now, sequentialIDs("sess"))

	ctx := context.Background()
	session, err := manager.CreateSession(ctx, twoQuestionInput())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	updateDone := make(chan error, 1)
	go func() {
		updateDone <- manager.UpdateStatus(ctx, session.ID, "SCORED", PublicStatusInvite, "hr-1")
	}()

	select {
	case <-notifier.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("notification dispatch never started")
	}

	// With the dispatch parked, the candidate's answer flow on the same
	// session must still make progress.
	answered := make(chan error, 1)
	go func() {
		_, err := manager.SubmitAnswer(ctx, session.ID, "Scheduler multiplexes goroutines.")
		answered <- err
	}()
	select {
	case err := <-answered:
		if err != nil {
			t.Fatalf("submit answer: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("submit answer blocked behind notification dispatch")
	}

	close(notifier.release)
	if err := <-updateDone; err != nil {
		t.Fatalf("update status: %v", err)
	}
}

func TestUpdateStatusNotificationFailureDoesNotFail(t *testing.T) {
	t.Parallel()

	fx := newManagerFixture(t)
	ctx := context.Background()
	session, err := fx.manager.CreateSession(ctx, twoQuestionInput())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	fx.notifier.err = errors.New("smtp down")
	if err := fx.manager.UpdateStatus(ctx, session.ID, "ACCEPTED", PublicStatusReject, "HR1"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	// The status change itself sticks despite the delivery failure.
	snapshot, err := fx.manager.GetSession(session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if snapshot.PublicStatus != PublicStatusReject {
		t.Fatalf("public status = %q, want REJECT", snapshot.PublicStatus)
	}
}

func TestGetSessionReturnsIsolatedSnapshot(t *testing.T) {
	t.Parallel()

	fx := newManagerFixture(t)
	session, err := fx.manager.CreateSession(context.Background(), twoQuestionInput())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	snapshot, err := fx.manager.GetSession(session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	snapshot.Questions[0].Text = "mutated"
	snapshot.CurrentQuestion.QuestionID = "mutated"

	fresh, err := fx.manager.GetSession(session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if fresh.Questions[0].Text == "mutated" || fresh.CurrentQuestion.QuestionID == "mutated" {
		t.Fatal("snapshot mutation leaked into live session")
	}
}
