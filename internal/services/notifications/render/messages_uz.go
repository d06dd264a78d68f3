package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Uzbek

	message.SetString(lang, "decision.candidate.fallback_name", "Nomzod")
	message.SetString(lang, "decision.generic.email_subject", "Suhbat holatingiz")
	message.SetString(lang, "decision.generic.body", "Assalomu alaykum, %s! Suhbatingiz holati yangilandi.")
	message.SetString(lang, "decision.under_review.email_subject", "Suhbatingiz ko'rib chiqilmoqda")
	message.SetString(lang, "decision.under_review.body", "Assalomu alaykum, %s! Suhbatda qatnashganingiz uchun rahmat. Natijalaringiz ko'rib chiqilmoqda, tez orada siz bilan bog'lanamiz.")
	message.SetString(lang, "decision.under_review.chat_body", "Assalomu alaykum, %s! Suhbat natijalaringiz ko'rib chiqilmoqda. Tez orada bog'lanamiz.")
	message.SetString(lang, "decision.invite.email_subject", "Suhbat natijasi: keyingi bosqich")
	message.SetString(lang, "decision.invite.body", "Assalomu alaykum, %s! Tabriklaymiz, siz keyingi bosqichga taklif qilindingiz. Jamoamiz tafsilotlar bilan siz bilan bog'lanadi.")
	message.SetString(lang, "decision.invite.chat_body", "Assalomu alaykum, %s! Ajoyib yangilik: siz keyingi bosqichga o'tdingiz. Tafsilotlarni tez orada yuboramiz.")
	message.SetString(lang, "decision.reject.email_subject", "Suhbat natijasi")
	message.SetString(lang, "decision.reject.body", "Assalomu alaykum, %s! Vaqt ajratganingiz uchun rahmat. Afsuski, hozircha nomzodingiz bilan davom eta olmaymiz. Izlanishlaringizda omad tilaymiz.")
	message.SetString(lang, "decision.reject.chat_body", "Assalomu alaykum, %s! Suhbat uchun rahmat. Bu safar jarayonni davom ettirmaymiz.")
}
