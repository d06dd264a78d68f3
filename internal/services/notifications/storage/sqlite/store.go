// Package sqlite provides SQLite-backed persistence for dispatched decision
// notifications.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/tokhirov-007/ai-hr-cv/internal/platform/storage/sqlitemigrate"
	"github.com/tokhirov-007/ai-hr-cv/internal/services/notifications/storage"
	"github.com/tokhirov-007/ai-hr-cv/internal/services/notifications/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for notifications state.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a notifications SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS, "")
}

// GetNotificationByDedupeKey loads one notification by dedupe key.
func (s *Store) GetNotificationByDedupeKey(ctx context.Context, dedupeKey string) (storage.NotificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.NotificationRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.NotificationRecord{}, fmt.Errorf("storage is not configured")
	}
	dedupeKey = strings.TrimSpace(dedupeKey)
	if dedupeKey == "" {
		return storage.NotificationRecord{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, session_id, recipient_email, recipient_phone, public_status, language, dedupe_key, created_at, updated_at
FROM notifications
WHERE dedupe_key = ?
`, dedupeKey)
	var record storage.NotificationRecord
	var createdAt int64
	var updatedAt int64
	if err := row.Scan(
		&record.ID,
		&record.SessionID,
		&record.RecipientEmail,
		&record.RecipientPhone,
		&record.PublicStatus,
		&record.Language,
		&record.DedupeKey,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.NotificationRecord{}, storage.ErrNotFound
		}
		return storage.NotificationRecord{}, fmt.Errorf("get notification by dedupe key: %w", err)
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

// PutNotificationWithDeliveries atomically persists one notification with its
// channel delivery outcomes.
func (s *Store) PutNotificationWithDeliveries(ctx context.Context, notification storage.NotificationRecord, deliveries []storage.DeliveryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeNotificationRecord(notification)
	if err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notification write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback notification write: %v", cause, rollbackErr)
		}
		return cause
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO notifications (
		id, session_id, recipient_email, recipient_phone, public_status, language, dedupe_key, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		normalized.ID,
		normalized.SessionID,
		normalized.RecipientEmail,
		normalized.RecipientPhone,
		normalized.PublicStatus,
		normalized.Language,
		normalized.DedupeKey,
		toMillis(normalized.CreatedAt),
		toMillis(normalized.UpdatedAt),
	); err != nil {
		if isUniqueConstraintError(err) {
			return rollbackWith(storage.ErrConflict)
		}
		return rollbackWith(fmt.Errorf("insert notification: %w", err))
	}

	for _, delivery := range deliveries {
		delivery.NotificationID = normalized.ID
		if strings.TrimSpace(delivery.Channel) == "" {
			return rollbackWith(fmt.Errorf("delivery channel is required"))
		}
		if strings.TrimSpace(delivery.Status) == "" {
			return rollbackWith(fmt.Errorf("delivery status is required"))
		}
		if delivery.AttemptedAt.IsZero() {
			delivery.AttemptedAt = normalized.CreatedAt
		}
		if _, err := tx.ExecContext(ctx, `
	INSERT INTO notification_deliveries (notification_id, channel, status, detail, attempted_at)
	VALUES (?, ?, ?, ?, ?)
	`,
			delivery.NotificationID,
			delivery.Channel,
			delivery.Status,
			delivery.Detail,
			toMillis(delivery.AttemptedAt),
		); err != nil {
			return rollbackWith(fmt.Errorf("insert delivery: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit notification write: %w", err)
	}
	return nil
}

// ListDeliveries loads the channel delivery outcomes for one notification.
func (s *Store) ListDeliveries(ctx context.Context, notificationID string) ([]storage.DeliveryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return nil, fmt.Errorf("notification id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT notification_id, channel, status, detail, attempted_at
FROM notification_deliveries
WHERE notification_id = ?
ORDER BY channel ASC
`, notificationID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var results []storage.DeliveryRecord
	for rows.Next() {
		var record storage.DeliveryRecord
		var attemptedAt int64
		if err := rows.Scan(
			&record.NotificationID,
			&record.Channel,
			&record.Status,
			&record.Detail,
			&attemptedAt,
		); err != nil {
			return nil, fmt.Errorf("scan delivery row: %w", err)
		}
		record.AttemptedAt = fromMillis(attemptedAt)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery rows: %w", err)
	}
	return results, nil
}

func normalizeNotificationRecord(record storage.NotificationRecord) (storage.NotificationRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.SessionID = strings.TrimSpace(record.SessionID)
	record.RecipientEmail = strings.TrimSpace(record.RecipientEmail)
	record.RecipientPhone = strings.TrimSpace(record.RecipientPhone)
	record.PublicStatus = strings.TrimSpace(record.PublicStatus)
	record.Language = strings.ToLower(strings.TrimSpace(record.Language))
	record.DedupeKey = strings.TrimSpace(record.DedupeKey)
	if record.ID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("notification id is required")
	}
	if record.SessionID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("session id is required")
	}
	if record.RecipientEmail == "" {
		return storage.NotificationRecord{}, fmt.Errorf("recipient email is required")
	}
	if record.PublicStatus == "" {
		return storage.NotificationRecord{}, fmt.Errorf("public status is required")
	}
	if record.DedupeKey == "" {
		return storage.NotificationRecord{}, fmt.Errorf("dedupe key is required")
	}
	if record.Language == "" {
		record.Language = "en"
	}
	if record.CreatedAt.IsZero() {
		return storage.NotificationRecord{}, fmt.Errorf("created_at is required")
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "unique constraint failed")
}
