package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	interviewdomain "github.com/tokhirov-007/ai-hr-cv/internal/services/interview/domain"
	"github.com/tokhirov-007/ai-hr-cv/internal/services/notifications/domain"
	notifsqlite "github.com/tokhirov-007/ai-hr-cv/internal/services/notifications/storage/sqlite"
)

func newTestNotifier(t *testing.T) (*DecisionNotifier, *notifsqlite.Store) {
	t.Helper()

	store, err := notifsqlite.Open(filepath.Join(t.TempDir(), "notifications.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	clock := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	dispatcher := domain.NewDispatcher(NewStoreAdapter(store), nil, nil, clock, nil)
	return NewDecisionNotifier(dispatcher), store
}

func TestDecisionNotifierPersistsDispatch(t *testing.T) {
	t.Parallel()

	notifier, store := newTestNotifier(t)
	ctx := context.Background()

	decision := interviewdomain.Decision{
		SessionID:      "sess-1",
		CandidateName:  "Dana Reyes",
		CandidateEmail: "dana@example.com",
		PublicStatus:   interviewdomain.PublicStatusInvite,
		Language:       "en",
	}
	if err := notifier.NotifyDecision(ctx, decision); err != nil {
		t.Fatalf("notify decision: %v", err)
	}

	record, err := store.GetNotificationByDedupeKey(ctx, domain.DedupeKey("sess-1", "INVITE"))
	if err != nil {
		t.Fatalf("get notification: %v", err)
	}
	if record.PublicStatus != "INVITE" || record.RecipientEmail != "dana@example.com" {
		t.Fatalf("unexpected record: %+v", record)
	}

	deliveries, err := store.ListDeliveries(ctx, record.ID)
	if err != nil {
		t.Fatalf("list deliveries: %v", err)
	}
	// No transports configured; both channels are recorded as skipped.
	if len(deliveries) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(deliveries))
	}
	for _, delivery := range deliveries {
		if delivery.Status != domain.StatusSkipped {
			t.Fatalf("delivery %s = %q, want skipped", delivery.Channel, delivery.Status)
		}
	}

	// Re-dispatching the same decision must be a quiet no-op.
	if err := notifier.NotifyDecision(ctx, decision); err != nil {
		t.Fatalf("repeat notify: %v", err)
	}
}

func TestStoreAdapterMapsNotFound(t *testing.T) {
	t.Parallel()

	_, store := newTestNotifier(t)
	adapter := NewStoreAdapter(store)
	if _, err := adapter.GetByDedupeKey(context.Background(), "decision/none/INVITE"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want domain.ErrNotFound", err)
	}
}
