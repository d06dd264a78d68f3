package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Russian

	message.SetString(lang, "decision.candidate.fallback_name", "Кандидат")
	message.SetString(lang, "decision.generic.email_subject", "Статус вашего собеседования")
	message.SetString(lang, "decision.generic.body", "Здравствуйте, %s! Статус вашего собеседования обновлён.")
	message.SetString(lang, "decision.under_review.email_subject", "Ваше собеседование на рассмотрении")
	message.SetString(lang, "decision.under_review.body", "Здравствуйте, %s! Спасибо за прохождение собеседования. Ваши результаты находятся на рассмотрении, мы свяжемся с вами в ближайшее время.")
	message.SetString(lang, "decision.under_review.chat_body", "Здравствуйте, %s! Результаты вашего собеседования на рассмотрении. Мы скоро свяжемся с вами.")
	message.SetString(lang, "decision.invite.email_subject", "Результат собеседования: следующий этап")
	message.SetString(lang, "decision.invite.body", "Здравствуйте, %s! Поздравляем, вы приглашены на следующий этап отбора. Наша команда свяжется с вами и сообщит детали.")
	message.SetString(lang, "decision.invite.chat_body", "Здравствуйте, %s! Отличные новости: вы проходите на следующий этап. Детали сообщим в ближайшее время.")
	message.SetString(lang, "decision.reject.email_subject", "Результат собеседования")
	message.SetString(lang, "decision.reject.body", "Здравствуйте, %s! Благодарим за уделённое время. К сожалению, сейчас мы не готовы продолжить работу с вашей кандидатурой. Желаем успехов в поиске.")
	message.SetString(lang, "decision.reject.chat_body", "Здравствуйте, %s! Спасибо за собеседование. К сожалению, в этот раз мы не продолжим процесс.")
}
