package telegram

// Fixed user-facing replies. Every failure inside the pipeline degrades to
// one of these; raw error detail never reaches the chat.
const (
	msgGreeting = "Я помогу ответить на экзаменационный вопрос по «Операционным системам».\nПрисылайте вопрос — фото или текстом."

	msgCouldNotPrepare = "Я не смог подготовить ответ на экзаменационный вопрос."

	msgNotAQuestion = "Я не могу понять вопрос.\nПришлите экзаменационный вопрос по «Операционным системам» — фото или текстом."

	msgCannotProcessPhoto = "Я не могу обработать эту фотографию."

	msgOnlyTextOrPhoto = "Я могу обработать только текстовое сообщение или фотографию."
)

// Telegram rejects messages longer than 4096 chars; clamp with headroom.
const maxReplyLen = 3900
