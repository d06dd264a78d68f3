// Package render produces localized candidate-facing copy for decision
// notifications.
package render

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	defaultDecisionSubject = "Your interview status"
	defaultDecisionBody    = "Hello %s, your interview status has been updated."
)

// Input is one render request for a decision notification.
type Input struct {
	CandidateName string
	PublicStatus  string
}

// Output is localized copy for every delivery channel.
type Output struct {
	EmailSubject string
	EmailBody    string
	ChatBody     string
}

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// PrinterFor returns a message printer for the candidate's language tag.
// Unknown tags fall back to English.
func PrinterFor(lang string) *message.Printer {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

// Render returns localized copy for one decision notification.
func Render(loc Localizer, input Input) Output {
	name := strings.TrimSpace(input.CandidateName)
	if name == "" {
		name = localizeWithFallback(loc, "decision.candidate.fallback_name", "Candidate")
	}

	switch strings.ToUpper(strings.TrimSpace(input.PublicStatus)) {
	case "INVITE":
		return Output{
			EmailSubject: localizeWithFallback(loc, "decision.invite.email_subject", "Interview result: next stage"),
			EmailBody:    localize(loc, "decision.invite.body", name),
			ChatBody:     localize(loc, "decision.invite.chat_body", name),
		}
	case "REJECT":
		return Output{
			EmailSubject: localizeWithFallback(loc, "decision.reject.email_subject", "Interview result"),
			EmailBody:    localize(loc, "decision.reject.body", name),
			ChatBody:     localize(loc, "decision.reject.chat_body", name),
		}
	case "UNDER_REVIEW":
		return Output{
			EmailSubject: localizeWithFallback(loc, "decision.under_review.email_subject", "Your interview is under review"),
			EmailBody:    localize(loc, "decision.under_review.body", name),
			ChatBody:     localize(loc, "decision.under_review.chat_body", name),
		}
	default:
		return genericOutput(loc, name)
	}
}

func genericOutput(loc Localizer, name string) Output {
	body := localize(loc, "decision.generic.body", name)
	if body == "decision.generic.body" {
		body = defaultDecisionBody
	}
	return Output{
		EmailSubject: localizeWithFallback(loc, "decision.generic.email_subject", defaultDecisionSubject),
		EmailBody:    body,
		ChatBody:     body,
	}
}

func localize(loc Localizer, key message.Reference, args ...any) string {
	if loc == nil {
		if asString, ok := key.(string); ok {
			return asString
		}
		return ""
	}
	return loc.Sprintf(key, args...)
}

func localizeWithFallback(loc Localizer, key string, fallback string) string {
	value := strings.TrimSpace(localize(loc, key))
	if value == "" || value == key {
		return fallback
	}
	return value
}
