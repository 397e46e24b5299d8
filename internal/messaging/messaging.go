// Package messaging describes the chat transport consumed by the bot core.
package messaging

import (
	"context"
	"errors"
	"html"

	"github.com/iudanet/vaultbot/internal/models"
)

// ErrMessageNotFound - сообщение уже удалено или недоступно.
// Для удаления это терминальное условие, а не сбой.
var ErrMessageNotFound = errors.New("message not found")

// Button - кнопка inline-клавиатуры. Задается либо Data, либо URL.
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard - строки inline-кнопок
type Keyboard [][]Button

// Row собирает строку клавиатуры
func Row(buttons ...Button) []Button {
	return buttons
}

// Callback создает кнопку с callback-данными
func Callback(text, data string) Button {
	return Button{Text: text, Data: data}
}

// Link создает кнопку-ссылку
func Link(text, url string) Button {
	return Button{Text: text, URL: url}
}

// Options - параметры отображения сообщения
type Options struct {
	Keyboard Keyboard
	// HTML включает HTML-разметку. Подставляемые значения экранируются через Escape.
	HTML bool
}

// Messenger - транспорт: отправка, редактирование и удаление сообщений
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, opts Options) (models.MessageRef, error)
	Edit(ctx context.Context, ref models.MessageRef, text string, opts Options) error
	Delete(ctx context.Context, ref models.MessageRef) error
}

// DocumentSender отправляет файлы (резервные копии)
type DocumentSender interface {
	SendDocument(ctx context.Context, chatID int64, path, caption string) error
}

// IsNotFound сообщает, что ошибка означает отсутствие сообщения
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMessageNotFound)
}

// Escape экранирует пользовательские данные для HTML-разметки
func Escape(s string) string {
	return html.EscapeString(s)
}

// Update - входящее событие транспорта: текстовое сообщение или нажатие кнопки
type Update struct {
	Text         string
	CallbackID   string
	CallbackData string
	UserID       int64
	ChatID       int64
	// MessageID - сообщение пользователя или сообщение с нажатой кнопкой
	MessageID int
}

// IsCallback сообщает, что событие - нажатие inline-кнопки
func (u Update) IsCallback() bool {
	return u.CallbackID != ""
}

// Ref возвращает адрес сообщения события
func (u Update) Ref() models.MessageRef {
	return models.MessageRef{ChatID: u.ChatID, MessageID: u.MessageID}
}

// CallbackAnswerer подтверждает нажатие кнопки
type CallbackAnswerer interface {
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}
