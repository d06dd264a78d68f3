// Package sqlite provides SQLite-backed persistence for interview state.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/tokhirov-007/ai-hr-cv/internal/platform/errors"
	sqlitemigrate "github.com/tokhirov-007/ai-hr-cv/internal/platform/storage/sqlitemigrate"
	"github.com/tokhirov-007/ai-hr-cv/internal/services/interview/storage"
	"github.com/tokhirov-007/ai-hr-cv/internal/services/interview/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for interview sessions, the
// candidate registry, and the status audit trail.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens an interview SQLite store at the provided path.
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
	if err := ensureForeignKeysEnabled(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
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

func ensureForeignKeysEnabled(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("sqlite db is required")
	}
	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("check sqlite foreign key pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("sqlite foreign keys are disabled")
	}
	return nil
}

// CreateSessionWithCandidate upserts the candidate keyed by email and
// inserts the session row in one transaction. The session's candidate id is
// resolved to the stored candidate, so a returning candidate keeps one
// durable identity across sessions.
func (s *Store) CreateSessionWithCandidate(ctx context.Context, candidate storage.CandidateRecord, session storage.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalizedCandidate, err := normalizeCandidateRecord(candidate)
	if err != nil {
		return err
	}
	normalizedSession, err := normalizeSessionRecord(session)
	if err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session bootstrap write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback session bootstrap write: %v", cause, rollbackErr)
		}
		return cause
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO candidates (
		id, name, email, phone, language, cv_path, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(email) DO UPDATE SET
		name = excluded.name,
		phone = excluded.phone,
		language = excluded.language,
		cv_path = excluded.cv_path,
		updated_at = excluded.updated_at
	`,
		normalizedCandidate.ID,
		normalizedCandidate.Name,
		normalizedCandidate.Email,
		normalizedCandidate.Phone,
		normalizedCandidate.Language,
		normalizedCandidate.CVPath,
		toMillis(normalizedCandidate.CreatedAt),
		toMillis(normalizedCandidate.UpdatedAt),
	); err != nil {
		return rollbackWith(fmt.Errorf("upsert candidate: %w", err))
	}

	var candidateID string
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM candidates WHERE email = ?", normalizedCandidate.Email,
	).Scan(&candidateID); err != nil {
		return rollbackWith(fmt.Errorf("resolve candidate id: %w", err))
	}
	normalizedSession.CandidateID = candidateID

	if err := insertSessionExec(ctx, tx, normalizedSession); err != nil {
		return rollbackWith(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session bootstrap write: %w", err)
	}
	return nil
}

// GetSession loads one session row by id.
func (s *Store) GetSession(ctx context.Context, sessionID string) (storage.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SessionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SessionRecord{}, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return storage.SessionRecord{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, candidate_id, candidate_name, candidate_email, candidate_phone, language,
       status, status_internal, status_public, questions_json,
       current_question_index, current_question_started_at, started_at, ended_at,
       created_at, updated_at
FROM sessions
WHERE id = ?
`, sessionID)
	record, err := scanSession(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SessionRecord{}, storage.ErrNotFound
		}
		return storage.SessionRecord{}, fmt.Errorf("get session: %w", err)
	}
	return record, nil
}

// ListAnswers loads a session's answers in submission order.
func (s *Store) ListAnswers(ctx context.Context, sessionID string) ([]storage.AnswerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT session_id, position, question_id, answer_text, time_spent_ms, timed_out, submitted_at
FROM session_answers
WHERE session_id = ?
ORDER BY position ASC
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var results []storage.AnswerRecord
	for rows.Next() {
		var record storage.AnswerRecord
		var timeSpentMillis int64
		var timedOut int
		var submittedAt int64
		if err := rows.Scan(
			&record.SessionID,
			&record.Position,
			&record.QuestionID,
			&record.Text,
			&timeSpentMillis,
			&timedOut,
			&submittedAt,
		); err != nil {
			return nil, fmt.Errorf("scan answer row: %w", err)
		}
		record.TimeSpent = time.Duration(timeSpentMillis) * time.Millisecond
		record.TimedOut = timedOut != 0
		record.SubmittedAt = fromMillis(submittedAt)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answer rows: %w", err)
	}
	return results, nil
}

// AppendAnswer stores one answer row and advances the session cursor in one
// transaction.
func (s *Store) AppendAnswer(ctx context.Context, answer storage.AnswerRecord, newIndex int, nextQuestionStartedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	answer.SessionID = strings.TrimSpace(answer.SessionID)
	answer.QuestionID = strings.TrimSpace(answer.QuestionID)
	if answer.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if answer.QuestionID == "" {
		return fmt.Errorf("question id is required")
	}
	if answer.Position < 0 {
		return fmt.Errorf("answer position must be non-negative")
	}
	if answer.SubmittedAt.IsZero() {
		return fmt.Errorf("submitted_at is required")
	}
	if newIndex < 0 {
		return fmt.Errorf("new index must be non-negative")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin answer write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback answer write: %v", cause, rollbackErr)
		}
		return cause
	}

	timedOut := 0
	if answer.TimedOut {
		timedOut = 1
	}
	if _, err := tx.ExecContext(ctx, `
	INSERT INTO session_answers (
		session_id, position, question_id, answer_text, time_spent_ms, timed_out, submitted_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		answer.SessionID,
		answer.Position,
		answer.QuestionID,
		answer.Text,
		answer.TimeSpent.Milliseconds(),
		timedOut,
		toMillis(answer.SubmittedAt),
	); err != nil {
		if isUniqueConstraintError(err) || isForeignKeyConstraintError(err) {
			return rollbackWith(storage.ErrConflict)
		}
		return rollbackWith(fmt.Errorf("insert answer: %w", err))
	}

	var nextStartedAt sql.NullInt64
	if nextQuestionStartedAt != nil {
		nextStartedAt = sql.NullInt64{Int64: toMillis(*nextQuestionStartedAt), Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `
	UPDATE sessions
	SET current_question_index = ?, current_question_started_at = ?, updated_at = ?
	WHERE id = ?
	`, newIndex, nextStartedAt, toMillis(answer.SubmittedAt), answer.SessionID); err != nil {
		return rollbackWith(fmt.Errorf("advance session cursor: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit answer write: %w", err)
	}
	return nil
}

// FinishSession marks the session finished and stamps its end time.
func (s *Store) FinishSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if endedAt.IsZero() {
		return fmt.Errorf("ended_at is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
	UPDATE sessions
	SET status = 'FINISHED', ended_at = ?, current_question_started_at = NULL, updated_at = ?
	WHERE id = ?
	`, toMillis(endedAt), toMillis(endedAt), sessionID)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish session rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateSessionStatuses writes the internal label and, when publicStatus is
// non-empty, the public label. A missing session row is not an error here:
// memory stays authoritative for sessions whose best-effort create never
// reached the store.
func (s *Store) UpdateSessionStatuses(ctx context.Context, sessionID string, internalStatus string, publicStatus string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	internalStatus = strings.TrimSpace(internalStatus)
	publicStatus = strings.TrimSpace(publicStatus)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if internalStatus == "" {
		return fmt.Errorf("internal status is required")
	}

	now := toMillis(time.Now())
	if publicStatus == "" {
		if _, err := s.sqlDB.ExecContext(ctx, `
	UPDATE sessions SET status_internal = ?, updated_at = ? WHERE id = ?
	`, internalStatus, now, sessionID); err != nil {
			return fmt.Errorf("update internal status: %w", err)
		}
		return nil
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
	UPDATE sessions SET status_internal = ?, status_public = ?, updated_at = ? WHERE id = ?
	`, internalStatus, publicStatus, now, sessionID); err != nil {
		return fmt.Errorf("update statuses: %w", err)
	}
	return nil
}

// ListSessions lists sessions newest-first with cursor pagination and an
// optional WHERE fragment from the filter translator.
func (s *Store) ListSessions(ctx context.Context, query storage.SessionQuery) (storage.SessionPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.SessionPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SessionPage{}, fmt.Errorf("storage is not configured")
	}
	if query.PageSize <= 0 {
		return storage.SessionPage{}, fmt.Errorf("page size must be greater than zero")
	}

	conditions := []string{"1 = 1"}
	args := []any{}
	if strings.TrimSpace(query.FilterSQL) != "" {
		conditions = append(conditions, "("+query.FilterSQL+")")
		args = append(args, query.FilterArgs...)
	}

	pageToken := strings.TrimSpace(query.PageToken)
	if pageToken != "" {
		tokenStartedAt, err := s.sessionStartedAtByID(ctx, pageToken)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return storage.SessionPage{}, apperrors.New(apperrors.CodeInvalidPageToken, "unknown page token")
			}
			return storage.SessionPage{}, err
		}
		conditions = append(conditions, "(started_at < ? OR (started_at = ? AND id < ?))")
		args = append(args, toMillis(tokenStartedAt), toMillis(tokenStartedAt), pageToken)
	}

	limit := query.PageSize + 1
	args = append(args, limit)
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, candidate_id, candidate_name, candidate_email, candidate_phone, language,
       status, status_internal, status_public, questions_json,
       current_question_index, current_question_started_at, started_at, ended_at,
       created_at, updated_at
FROM sessions
WHERE `+strings.Join(conditions, " AND ")+`
ORDER BY started_at DESC, id DESC
LIMIT ?
`, args...)
	if err != nil {
		return storage.SessionPage{}, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	page := storage.SessionPage{Sessions: make([]storage.SessionRecord, 0, query.PageSize)}
	for rows.Next() {
		record, scanErr := scanSession(rows.Scan)
		if scanErr != nil {
			return storage.SessionPage{}, fmt.Errorf("scan session row: %w", scanErr)
		}
		page.Sessions = append(page.Sessions, record)
	}
	if err := rows.Err(); err != nil {
		return storage.SessionPage{}, fmt.Errorf("iterate session rows: %w", err)
	}
	if len(page.Sessions) > query.PageSize {
		page.NextPageToken = page.Sessions[query.PageSize-1].ID
		page.Sessions = page.Sessions[:query.PageSize]
	}
	return page, nil
}

// AppendStatusChange appends one audit trail entry.
func (s *Store) AppendStatusChange(ctx context.Context, record storage.StatusChangeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	record.SessionID = strings.TrimSpace(record.SessionID)
	record.Actor = strings.TrimSpace(record.Actor)
	if record.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(record.NewValue) == "" {
		return fmt.Errorf("new value is required")
	}
	if record.Actor == "" {
		return fmt.Errorf("actor is required")
	}
	if record.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
	INSERT INTO status_changes (session_id, old_value, new_value, actor, created_at)
	VALUES (?, ?, ?, ?, ?)
	`,
		record.SessionID,
		record.OldValue,
		record.NewValue,
		record.Actor,
		toMillis(record.CreatedAt),
	); err != nil {
		return fmt.Errorf("append status change: %w", err)
	}
	return nil
}

// ListStatusChanges loads a session's audit trail in append order.
func (s *Store) ListStatusChanges(ctx context.Context, sessionID string) ([]storage.StatusChangeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT session_id, old_value, new_value, actor, created_at
FROM status_changes
WHERE session_id = ?
ORDER BY id ASC
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list status changes: %w", err)
	}
	defer rows.Close()

	var results []storage.StatusChangeRecord
	for rows.Next() {
		var record storage.StatusChangeRecord
		var createdAt int64
		if err := rows.Scan(
			&record.SessionID,
			&record.OldValue,
			&record.NewValue,
			&record.Actor,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan status change row: %w", err)
		}
		record.CreatedAt = fromMillis(createdAt)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status change rows: %w", err)
	}
	return results, nil
}

func (s *Store) sessionStartedAtByID(ctx context.Context, sessionID string) (time.Time, error) {
	var startedAtMillis int64
	if err := s.sqlDB.QueryRowContext(ctx,
		"SELECT started_at FROM sessions WHERE id = ?", sessionID,
	).Scan(&startedAtMillis); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("lookup session cursor: %w", err)
	}
	return fromMillis(startedAtMillis), nil
}

type scanner func(dest ...any) error

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func normalizeCandidateRecord(record storage.CandidateRecord) (storage.CandidateRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.Name = strings.TrimSpace(record.Name)
	record.Email = strings.ToLower(strings.TrimSpace(record.Email))
	record.Phone = strings.TrimSpace(record.Phone)
	record.Language = strings.ToLower(strings.TrimSpace(record.Language))
	record.CVPath = strings.TrimSpace(record.CVPath)
	if record.ID == "" {
		return storage.CandidateRecord{}, fmt.Errorf("candidate id is required")
	}
	if record.Name == "" {
		return storage.CandidateRecord{}, fmt.Errorf("candidate name is required")
	}
	if record.Email == "" {
		return storage.CandidateRecord{}, fmt.Errorf("candidate email is required")
	}
	if record.Language == "" {
		record.Language = "en"
	}
	if record.CreatedAt.IsZero() {
		return storage.CandidateRecord{}, fmt.Errorf("created_at is required")
	}
	if record.UpdatedAt.IsZero() {
		return storage.CandidateRecord{}, fmt.Errorf("updated_at is required")
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

func normalizeSessionRecord(record storage.SessionRecord) (storage.SessionRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.CandidateID = strings.TrimSpace(record.CandidateID)
	record.Status = strings.TrimSpace(record.Status)
	record.InternalStatus = strings.TrimSpace(record.InternalStatus)
	record.PublicStatus = strings.TrimSpace(record.PublicStatus)
	record.QuestionsJSON = strings.TrimSpace(record.QuestionsJSON)
	if record.QuestionsJSON == "" {
		record.QuestionsJSON = "[]"
	}
	if record.ID == "" {
		return storage.SessionRecord{}, fmt.Errorf("session id is required")
	}
	if record.CandidateID == "" {
		return storage.SessionRecord{}, fmt.Errorf("candidate id is required")
	}
	if record.Status == "" {
		return storage.SessionRecord{}, fmt.Errorf("session status is required")
	}
	if record.InternalStatus == "" {
		return storage.SessionRecord{}, fmt.Errorf("internal status is required")
	}
	if record.PublicStatus == "" {
		return storage.SessionRecord{}, fmt.Errorf("public status is required")
	}
	if record.StartedAt.IsZero() {
		return storage.SessionRecord{}, fmt.Errorf("started_at is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = record.StartedAt
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	record.StartedAt = record.StartedAt.UTC()
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	if record.CurrentQuestionStartedAt != nil {
		startedAt := record.CurrentQuestionStartedAt.UTC()
		record.CurrentQuestionStartedAt = &startedAt
	}
	if record.EndedAt != nil {
		endedAt := record.EndedAt.UTC()
		record.EndedAt = &endedAt
	}
	return record, nil
}

func insertSessionExec(ctx context.Context, execer sqlExecer, record storage.SessionRecord) error {
	var questionStartedAt sql.NullInt64
	if record.CurrentQuestionStartedAt != nil {
		questionStartedAt = sql.NullInt64{Int64: toMillis(*record.CurrentQuestionStartedAt), Valid: true}
	}
	var endedAt sql.NullInt64
	if record.EndedAt != nil {
		endedAt = sql.NullInt64{Int64: toMillis(*record.EndedAt), Valid: true}
	}

	_, err := execer.ExecContext(ctx, `
	INSERT INTO sessions (
		id, candidate_id, candidate_name, candidate_email, candidate_phone, language,
		status, status_internal, status_public, questions_json,
		current_question_index, current_question_started_at, started_at, ended_at,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.CandidateID,
		record.CandidateName,
		record.CandidateEmail,
		record.CandidatePhone,
		record.Language,
		record.Status,
		record.InternalStatus,
		record.PublicStatus,
		record.QuestionsJSON,
		record.CurrentQuestionIndex,
		questionStartedAt,
		toMillis(record.StartedAt),
		endedAt,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func scanSession(scan scanner) (storage.SessionRecord, error) {
	var record storage.SessionRecord
	var questionStartedAt sql.NullInt64
	var startedAt int64
	var endedAt sql.NullInt64
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&record.ID,
		&record.CandidateID,
		&record.CandidateName,
		&record.CandidateEmail,
		&record.CandidatePhone,
		&record.Language,
		&record.Status,
		&record.InternalStatus,
		&record.PublicStatus,
		&record.QuestionsJSON,
		&record.CurrentQuestionIndex,
		&questionStartedAt,
		&startedAt,
		&endedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.SessionRecord{}, err
	}
	if questionStartedAt.Valid {
		value := fromMillis(questionStartedAt.Int64)
		record.CurrentQuestionStartedAt = &value
	}
	record.StartedAt = fromMillis(startedAt)
	if endedAt.Valid {
		value := fromMillis(endedAt.Int64)
		record.EndedAt = &value
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "unique constraint failed")
}

func isForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "foreign key constraint failed")
}
