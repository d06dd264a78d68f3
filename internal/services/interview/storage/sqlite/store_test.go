package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/tokhirov-007/ai-hr-cv/internal/platform/errors"
	"github.com/tokhirov-007/ai-hr-cv/internal/services/interview/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "interview.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testCandidate(id, email string) storage.CandidateRecord {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return storage.CandidateRecord{
		ID:        id,
		Name:      "Dana Reyes",
		Email:     email,
		Phone:     "+1-555-0100",
		Language:  "en",
		CVPath:    "cv/" + id + ".pdf",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testSession(id, candidateID string, startedAt time.Time) storage.SessionRecord {
	questionStartedAt := startedAt
	return storage.SessionRecord{
		ID:                       id,
		CandidateID:              candidateID,
		CandidateName:            "Dana Reyes",
		CandidateEmail:           "dana@example.com",
		Language:                 "en",
		Status:                   "ACTIVE",
		InternalStatus:           "PENDING",
		PublicStatus:             "UNDER_REVIEW",
		QuestionsJSON:            `[{"id":"q1","difficulty":"easy"}]`,
		CurrentQuestionStartedAt: &questionStartedAt,
		StartedAt:                startedAt,
	}
}

func TestCreateSessionUpsertsCandidateByEmail(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	startedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := store.CreateSessionWithCandidate(ctx, testCandidate("cand-1", "dana@example.com"), testSession("sess-1", "cand-1", startedAt)); err != nil {
		t.Fatalf("create first session: %v", err)
	}

	// Same email under a new candidate id must reuse the stored identity.
	returning := testCandidate("cand-2", "dana@example.com")
	returning.Name = "Dana R. Reyes"
	if err := store.CreateSessionWithCandidate(ctx, returning, testSession("sess-2", "cand-2", startedAt.Add(time.Hour))); err != nil {
		t.Fatalf("create second session: %v", err)
	}

	second, err := store.GetSession(ctx, "sess-2")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if second.CandidateID != "cand-1" {
		t.Fatalf("candidate id = %q, want cand-1", second.CandidateID)
	}
}

func TestCreateSessionRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	startedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := store.CreateSessionWithCandidate(ctx, testCandidate("cand-1", "dana@example.com"), testSession("sess-1", "cand-1", startedAt)); err != nil {
		t.Fatalf("create session: %v", err)
	}
	err := store.CreateSessionWithCandidate(ctx, testCandidate("cand-1", "dana@example.com"), testSession("sess-1", "cand-1", startedAt))
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if _, err := store.GetSession(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestAppendAnswerAdvancesCursor(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	startedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := store.CreateSessionWithCandidate(ctx, testCandidate("cand-1", "dana@example.com"), testSession("sess-1", "cand-1", startedAt)); err != nil {
		t.Fatalf("create session: %v", err)
	}

	nextStartedAt := startedAt.Add(30 * time.Second)
	answer := storage.AnswerRecord{
		SessionID:   "sess-1",
		Position:    0,
		QuestionID:  "q1",
		Text:        "an answer",
		TimeSpent:   30 * time.Second,
		TimedOut:    false,
		SubmittedAt: nextStartedAt,
	}
	if err := store.AppendAnswer(ctx, answer, 1, &nextStartedAt); err != nil {
		t.Fatalf("append answer: %v", err)
	}

	session, err := store.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.CurrentQuestionIndex != 1 {
		t.Fatalf("cursor = %d, want 1", session.CurrentQuestionIndex)
	}
	if session.CurrentQuestionStartedAt == nil || !session.CurrentQuestionStartedAt.Equal(nextStartedAt) {
		t.Fatalf("question started at = %v, want %s", session.CurrentQuestionStartedAt, nextStartedAt)
	}

	answers, err := store.ListAnswers(ctx, "sess-1")
	if err != nil {
		t.Fatalf("list answers: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("answers = %d, want 1", len(answers))
	}
	got := answers[0]
	if got.QuestionID != "q1" || got.Text != "an answer" || got.TimeSpent != 30*time.Second || got.TimedOut {
		t.Fatalf("unexpected answer: %+v", got)
	}

	// Re-submitting the same position must not silently duplicate.
	if err := store.AppendAnswer(ctx, answer, 1, nil); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestFinishSession(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	startedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := store.CreateSessionWithCandidate(ctx, testCandidate("cand-1", "dana@example.com"), testSession("sess-1", "cand-1", startedAt)); err != nil {
		t.Fatalf("create session: %v", err)
	}

	endedAt := startedAt.Add(5 * time.Minute)
	if err := store.FinishSession(ctx, "sess-1", endedAt); err != nil {
		t.Fatalf("finish session: %v", err)
	}

	session, err := store.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.Status != "FINISHED" {
		t.Fatalf("status = %q, want FINISHED", session.Status)
	}
	if session.EndedAt == nil || !session.EndedAt.Equal(endedAt) {
		t.Fatalf("ended at = %v, want %s", session.EndedAt, endedAt)
	}
	if session.CurrentQuestionStartedAt != nil {
		t.Fatal("expected question start to be cleared")
	}

	if err := store.FinishSession(ctx, "missing", endedAt); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdateSessionStatuses(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	startedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := store.CreateSessionWithCandidate(ctx, testCandidate("cand-1", "dana@example.com"), testSession("sess-1", "cand-1", startedAt)); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := store.UpdateSessionStatuses(ctx, "sess-1", "PENDING_REVIEW", ""); err != nil {
		t.Fatalf("update internal status: %v", err)
	}
	session, err := store.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.InternalStatus != "PENDING_REVIEW" || session.PublicStatus != "UNDER_REVIEW" {
		t.Fatalf("unexpected statuses: %+v", session)
	}

	if err := store.UpdateSessionStatuses(ctx, "sess-1", "ACCEPTED", "INVITE"); err != nil {
		t.Fatalf("update both statuses: %v", err)
	}
	session, err = store.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.InternalStatus != "ACCEPTED" || session.PublicStatus != "INVITE" {
		t.Fatalf("unexpected statuses: %+v", session)
	}
}

func TestListSessionsPaginatesNewestFirst(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	startedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"sess-1", "sess-2", "sess-3"} {
		session := testSession(id, "cand-1", startedAt.Add(time.Duration(i)*time.Hour))
		if err := store.CreateSessionWithCandidate(ctx, testCandidate("cand-1", "dana@example.com"), session); err != nil {
			t.Fatalf("create session %s: %v", id, err)
		}
	}

	page, err := store.ListSessions(ctx, storage.SessionQuery{PageSize: 2})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(page.Sessions) != 2 || page.Sessions[0].ID != "sess-3" || page.Sessions[1].ID != "sess-2" {
		t.Fatalf("unexpected first page: %+v", page.Sessions)
	}
	if page.NextPageToken != "sess-2" {
		t.Fatalf("next page token = %q, want sess-2", page.NextPageToken)
	}

	page, err = store.ListSessions(ctx, storage.SessionQuery{PageSize: 2, PageToken: page.NextPageToken})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(page.Sessions) != 1 || page.Sessions[0].ID != "sess-1" {
		t.Fatalf("unexpected second page: %+v", page.Sessions)
	}
	if page.NextPageToken != "" {
		t.Fatalf("next page token = %q, want empty", page.NextPageToken)
	}
}

func TestListSessionsRejectsUnknownPageToken(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	startedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := store.CreateSessionWithCandidate(ctx, testCandidate("cand-1", "dana@example.com"), testSession("sess-1", "cand-1", startedAt)); err != nil {
		t.Fatalf("create session: %v", err)
	}

	_, err := store.ListSessions(ctx, storage.SessionQuery{PageSize: 2, PageToken: "no-such-session"})
	if apperrors.CodeOf(err) != apperrors.CodeInvalidPageToken {
		t.Fatalf("code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeInvalidPageToken)
	}
}

func TestListSessionsAppliesFilterFragment(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	startedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := store.CreateSessionWithCandidate(ctx, testCandidate("cand-1", "dana@example.com"), testSession("sess-1", "cand-1", startedAt)); err != nil {
		t.Fatalf("create session: %v", err)
	}
	second := testSession("sess-2", "cand-1", startedAt.Add(time.Hour))
	second.PublicStatus = "INVITE"
	if err := store.CreateSessionWithCandidate(ctx, testCandidate("cand-1", "dana@example.com"), second); err != nil {
		t.Fatalf("create second session: %v", err)
	}

	page, err := store.ListSessions(ctx, storage.SessionQuery{
		FilterSQL:  "status_public = ?",
		FilterArgs: []any{"INVITE"},
		PageSize:   10,
	})
	if err != nil {
		t.Fatalf("list filtered sessions: %v", err)
	}
	if len(page.Sessions) != 1 || page.Sessions[0].ID != "sess-2" {
		t.Fatalf("unexpected filtered page: %+v", page.Sessions)
	}
}

func TestStatusChangesAppendInOrder(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	entries := []storage.StatusChangeRecord{
		{SessionID: "sess-1", OldValue: "PENDING", NewValue: "PENDING_REVIEW", Actor: "HR1", CreatedAt: createdAt},
		{SessionID: "sess-1", OldValue: "PENDING_REVIEW", NewValue: "ACCEPTED", Actor: "HR1", CreatedAt: createdAt.Add(time.Minute)},
		{SessionID: "sess-1", OldValue: "UNDER_REVIEW", NewValue: "INVITE", Actor: "HR1_PUBLIC", CreatedAt: createdAt.Add(time.Minute)},
	}
	for _, entry := range entries {
		if err := store.AppendStatusChange(ctx, entry); err != nil {
			t.Fatalf("append status change: %v", err)
		}
	}

	trail, err := store.ListStatusChanges(ctx, "sess-1")
	if err != nil {
		t.Fatalf("list status changes: %v", err)
	}
	if len(trail) != 3 {
		t.Fatalf("trail entries = %d, want 3", len(trail))
	}
	for i, entry := range trail {
		if entry.NewValue != entries[i].NewValue || entry.Actor != entries[i].Actor {
			t.Fatalf("entry %d = %+v, want %+v", i, entry, entries[i])
		}
	}
}
