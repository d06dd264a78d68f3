// Package transport provides delivery channel implementations for decision
// notifications.
package transport

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// LogEmail writes outbound email to the process log. It stands in for a
// real SMTP integration in deployments without mail credentials.
type LogEmail struct{}

// SendEmail logs one rendered email.
func (LogEmail) SendEmail(_ context.Context, to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("email recipient is required")
	}
	log.Printf("notifications: email to=%s subject=%q body=%q", to, subject, body)
	return nil
}

// LogChat writes outbound chat messages to the process log.
type LogChat struct{}

// SendChat logs one rendered chat message.
func (LogChat) SendChat(_ context.Context, phone, body string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("chat recipient is required")
	}
	log.Printf("notifications: chat to=%s body=%q", phone, body)
	return nil
}
