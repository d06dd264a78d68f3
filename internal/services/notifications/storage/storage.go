// Package storage defines the persistence contracts for dispatched decision
// notifications.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested notification record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a requested write conflicts with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
)

// NotificationRecord stores one dispatched decision notification.
type NotificationRecord struct {
	ID             string
	SessionID      string
	RecipientEmail string
	RecipientPhone string
	PublicStatus   string
	Language       string
	DedupeKey      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DeliveryRecord stores the outcome of one channel delivery attempt.
type DeliveryRecord struct {
	NotificationID string
	Channel        string
	Status         string
	Detail         string
	AttemptedAt    time.Time
}

// NotificationStore persists dispatched notifications with their channel
// delivery outcomes.
type NotificationStore interface {
	GetNotificationByDedupeKey(ctx context.Context, dedupeKey string) (NotificationRecord, error)
	// PutNotificationWithDeliveries atomically persists one notification and
	// its delivery outcomes; ErrConflict when the dedupe key already exists.
	PutNotificationWithDeliveries(ctx context.Context, notification NotificationRecord, deliveries []DeliveryRecord) error
	ListDeliveries(ctx context.Context, notificationID string) ([]DeliveryRecord, error)
}
