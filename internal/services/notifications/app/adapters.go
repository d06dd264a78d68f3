// Package app wires the notification dispatcher to its storage backend and
// to the interview lifecycle.
package app

import (
	"context"
	"errors"

	interviewdomain "github.com/tokhirov-007/ai-hr-cv/internal/services/interview/domain"
	"github.com/tokhirov-007/ai-hr-cv/internal/services/notifications/domain"
	"github.com/tokhirov-007/ai-hr-cv/internal/services/notifications/storage"
)

// StoreAdapter exposes a storage.NotificationStore through the dispatcher's
// domain contract.
type StoreAdapter struct {
	store storage.NotificationStore
}

// NewStoreAdapter wraps a notification store for the dispatcher.
func NewStoreAdapter(store storage.NotificationStore) *StoreAdapter {
	return &StoreAdapter{store: store}
}

// GetByDedupeKey implements domain.Store.
func (a *StoreAdapter) GetByDedupeKey(ctx context.Context, dedupeKey string) (domain.Notification, error) {
	if a == nil || a.store == nil {
		return domain.Notification{}, domain.ErrNotFound
	}
	record, err := a.store.GetNotificationByDedupeKey(ctx, dedupeKey)
	if err != nil {
		return domain.Notification{}, mapStorageError(err)
	}
	return toDomainNotification(record), nil
}

// Put implements domain.Store.
func (a *StoreAdapter) Put(ctx context.Context, notification domain.Notification, outcomes []domain.DeliveryOutcome) error {
	if a == nil || a.store == nil {
		return errors.New("notification store is not configured")
	}
	deliveries := make([]storage.DeliveryRecord, 0, len(outcomes))
	for _, outcome := range outcomes {
		deliveries = append(deliveries, storage.DeliveryRecord{
			NotificationID: notification.ID,
			Channel:        outcome.Channel,
			Status:         outcome.Status,
			Detail:         outcome.Detail,
			AttemptedAt:    outcome.AttemptedAt,
		})
	}
	if err := a.store.PutNotificationWithDeliveries(ctx, toStorageNotification(notification), deliveries); err != nil {
		return mapStorageError(err)
	}
	return nil
}

// DecisionNotifier adapts the dispatcher to the interview manager's
// notification boundary.
type DecisionNotifier struct {
	dispatcher *domain.Dispatcher
}

// NewDecisionNotifier wraps a dispatcher for the interview manager.
func NewDecisionNotifier(dispatcher *domain.Dispatcher) *DecisionNotifier {
	return &DecisionNotifier{dispatcher: dispatcher}
}

// NotifyDecision implements the interview domain Notifier.
func (n *DecisionNotifier) NotifyDecision(ctx context.Context, decision interviewdomain.Decision) error {
	if n == nil || n.dispatcher == nil {
		return errors.New("notification dispatcher is not configured")
	}
	return n.dispatcher.DispatchDecision(ctx, domain.Decision{
		SessionID:      decision.SessionID,
		CandidateName:  decision.CandidateName,
		CandidateEmail: decision.CandidateEmail,
		CandidatePhone: decision.CandidatePhone,
		PublicStatus:   string(decision.PublicStatus),
		Language:       decision.Language,
	})
}

func toStorageNotification(notification domain.Notification) storage.NotificationRecord {
	return storage.NotificationRecord{
		ID:             notification.ID,
		SessionID:      notification.SessionID,
		RecipientEmail: notification.RecipientEmail,
		RecipientPhone: notification.RecipientPhone,
		PublicStatus:   notification.PublicStatus,
		Language:       notification.Language,
		DedupeKey:      notification.DedupeKey,
		CreatedAt:      notification.CreatedAt,
		UpdatedAt:      notification.CreatedAt,
	}
}

func toDomainNotification(record storage.NotificationRecord) domain.Notification {
	return domain.Notification{
		ID:             record.ID,
		SessionID:      record.SessionID,
		RecipientEmail: record.RecipientEmail,
		RecipientPhone: record.RecipientPhone,
		PublicStatus:   record.PublicStatus,
		Language:       record.Language,
		DedupeKey:      record.DedupeKey,
		CreatedAt:      record.CreatedAt,
	}
}

func mapStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, storage.ErrConflict):
		return domain.ErrConflict
	default:
		return err
	}
}
