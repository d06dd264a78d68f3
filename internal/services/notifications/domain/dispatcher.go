// Package domain implements decision notification dispatch with at-most-once
// delivery per session and public status.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tokhirov-007/ai-hr-cv/internal/platform/id"
	"github.com/tokhirov-007/ai-hr-cv/internal/services/notifications/render"
)

var (
	// ErrSessionIDRequired indicates the decision is missing its session id.
	ErrSessionIDRequired = errors.New("session id is required")
	// ErrRecipientEmailRequired indicates the decision has no recipient email.
	ErrRecipientEmailRequired = errors.New("recipient email is required")
	// ErrPublicStatusRequired indicates the decision has no public status.
	ErrPublicStatusRequired = errors.New("public status is required")
)

// Channel identifies one delivery channel.
const (
	ChannelEmail = "email"
	ChannelChat  = "chat"
)

// Delivery outcome states.
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Decision is one candidate-facing status decision to deliver.
type Decision struct {
	SessionID      string
	CandidateName  string
	CandidateEmail string
	CandidatePhone string
	PublicStatus   string
	Language       string
}

// Notification is the stored dispatch result.
type Notification struct {
	ID             string
	SessionID      string
	RecipientEmail string
	RecipientPhone string
	PublicStatus   string
	Language       string
	DedupeKey      string
	CreatedAt      time.Time
}

// DeliveryOutcome captures one channel attempt.
type DeliveryOutcome struct {
	Channel     string
	Status      string
	Detail      string
	AttemptedAt time.Time
}

// Store persists dispatched notifications keyed by dedupe key.
type Store interface {
	// GetByDedupeKey returns the stored notification, ErrNotFound when absent.
	GetByDedupeKey(ctx context.Context, dedupeKey string) (Notification, error)
	// Put persists the notification with its delivery outcomes; ErrConflict
	// when the dedupe key was stored concurrently.
	Put(ctx context.Context, notification Notification, outcomes []DeliveryOutcome) error
}

// ErrNotFound and ErrConflict are the store's sentinel results.
var (
	ErrNotFound = errors.New("notification not found")
	ErrConflict = errors.New("notification conflict")
)

// EmailTransport delivers one rendered email.
type EmailTransport interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ChatTransport delivers one rendered chat message.
type ChatTransport interface {
	SendChat(ctx context.Context, phone, body string) error
}

// Dispatcher renders and delivers decision notifications. The dedupe key
// (session id + public status) makes repeated dispatch of the same decision
// a no-op, which backstops the manager's own transition check.
type Dispatcher struct {
	store Store
	email EmailTransport
	chat  ChatTransport
	clock func() time.Time
	newID func() (string, error)
}

// NewDispatcher constructs a dispatcher. Transports may be nil; their
// channel is then recorded as skipped.
func NewDispatcher(store Store, email EmailTransport, chat ChatTransport, clock func() time.Time, newID func() (string, error)) *Dispatcher {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Dispatcher{
		store: store,
		email: email,
		chat:  chat,
		clock: clock,
		newID: newID,
	}
}

// DedupeKey derives the at-most-once key for one decision.
func DedupeKey(sessionID, publicStatus string) string {
	return fmt.Sprintf("decision/%s/%s", sessionID, publicStatus)
}

// DispatchDecision delivers one decision across the configured channels. A
// channel failure is recorded and logged but never blocks the other channel
// or fails the dispatch; only persistence errors are returned.
func (d *Dispatcher) DispatchDecision(ctx context.Context, decision Decision) error {
	sessionID := strings.TrimSpace(decision.SessionID)
	if sessionID == "" {
		return ErrSessionIDRequired
	}
	email := strings.TrimSpace(decision.CandidateEmail)
	if email == "" {
		return ErrRecipientEmailRequired
	}
	publicStatus := strings.ToUpper(strings.TrimSpace(decision.PublicStatus))
	if publicStatus == "" {
		return ErrPublicStatusRequired
	}
	phone := strings.TrimSpace(decision.CandidatePhone)

	dedupeKey := DedupeKey(sessionID, publicStatus)
	if d.store != nil {
		if _, err := d.store.GetByDedupeKey(ctx, dedupeKey); err == nil {
			return nil
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("check notification dedupe key: %w", err)
		}
	}

	copyOut := render.Render(render.PrinterFor(decision.Language), render.Input{
		CandidateName: decision.CandidateName,
		PublicStatus:  publicStatus,
	})

	now := d.clock().UTC()
	outcomes := []DeliveryOutcome{
		d.deliverEmail(ctx, email, copyOut, now),
		d.deliverChat(ctx, phone, copyOut, now),
	}

	if d.store == nil {
		return nil
	}

	notificationID, err := d.newID()
	if err != nil {
		return fmt.Errorf("generate notification id: %w", err)
	}
	notification := Notification{
		ID:             notificationID,
		SessionID:      sessionID,
		RecipientEmail: email,
		RecipientPhone: phone,
		PublicStatus:   publicStatus,
		Language:       strings.ToLower(strings.TrimSpace(decision.Language)),
		DedupeKey:      dedupeKey,
		CreatedAt:      now,
	}
	if err := d.store.Put(ctx, notification, outcomes); err != nil {
		if errors.Is(err, ErrConflict) {
			// A concurrent dispatch won the dedupe race.
			return nil
		}
		return fmt.Errorf("persist notification: %w", err)
	}
	return nil
}

func (d *Dispatcher) deliverEmail(ctx context.Context, to string, copyOut render.Output, now time.Time) DeliveryOutcome {
	outcome := DeliveryOutcome{Channel: ChannelEmail, Status: StatusSkipped, AttemptedAt: now}
	if d.email == nil {
		outcome.Detail = "no email transport configured"
		return outcome
	}
	if err := d.email.SendEmail(ctx, to, copyOut.EmailSubject, copyOut.EmailBody); err != nil {
		log.Printf("notifications: email delivery to %s failed: %v", to, err)
		outcome.Status = StatusFailed
		outcome.Detail = err.Error()
		return outcome
	}
	outcome.Status = StatusDelivered
	return outcome
}

func (d *Dispatcher) deliverChat(ctx context.Context, phone string, copyOut render.Output, now time.Time) DeliveryOutcome {
	outcome := DeliveryOutcome{Channel: ChannelChat, Status: StatusSkipped, AttemptedAt: now}
	if d.chat == nil {
		outcome.Detail = "no chat transport configured"
		return outcome
	}
	if phone == "" {
		outcome.Detail = "candidate has no phone number"
		return outcome
	}
	if err := d.chat.SendChat(ctx, phone, copyOut.ChatBody); err != nil {
		log.Printf("notifications: chat delivery to %s failed: %v", phone, err)
		outcome.Status = StatusFailed
		outcome.Detail = err.Error()
		return outcome
	}
	outcome.Status = StatusDelivered
	return outcome
}
