package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "decision.candidate.fallback_name", "Candidate")
	message.SetString(lang, "decision.generic.email_subject", defaultDecisionSubject)
	message.SetString(lang, "decision.generic.body", defaultDecisionBody)
	message.SetString(lang, "decision.under_review.email_subject", "Your interview is under review")
	message.SetString(lang, "decision.under_review.body", "Hello %s, thank you for completing the interview. Your results are under review and we will contact you soon.")
	message.SetString(lang, "decision.under_review.chat_body", "Hello %s! Your interview results are under review. We will be in touch soon.")
	message.SetString(lang, "decision.invite.email_subject", "Interview result: next stage")
	message.SetString(lang, "decision.invite.body", "Hello %s, congratulations! You have been invited to the next stage of the hiring process. Our team will contact you with the details.")
	message.SetString(lang, "decision.invite.chat_body", "Hello %s! Great news: you advance to the next stage. Details will follow shortly.")
	message.SetString(lang, "decision.reject.email_subject", "Interview result")
	message.SetString(lang, "decision.reject.body", "Hello %s, thank you for your time. Unfortunately we will not be moving forward with your application at this time. We wish you success in your search.")
	message.SetString(lang, "decision.reject.chat_body", "Hello %s, thank you for interviewing with us. We will not be moving forward this time.")
}
