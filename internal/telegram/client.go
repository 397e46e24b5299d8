// Package telegram implements the chat transport on top of the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iudanet/vaultbot/internal/messaging"
	"github.com/iudanet/vaultbot/internal/models"
)

// DefaultPollTimeout - время long polling в секундах
const DefaultPollTimeout = 60

// botAPI - используемая часть *tgbotapi.BotAPI
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Ответы Bot API, означающие, что сообщения больше нет или его нельзя тронуть
var missingMessage = []string{
	"message to delete not found",
	"message to edit not found",
	"message can't be deleted",
	"message can't be edited",
	"MESSAGE_ID_INVALID",
}

const notModified = "message is not modified"

// Client реализует messaging.Messenger, messaging.DocumentSender и
// messaging.CallbackAnswerer
type Client struct {
	api         botAPI
	logger      *slog.Logger
	pollTimeout int
}

// New подключается к Bot API с токеном бота
func New(token string, logger *slog.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	logger.Info("telegram bot authorized", "username", api.Self.UserName)
	return newClient(api, logger), nil
}

func newClient(api botAPI, logger *slog.Logger) *Client {
	return &Client{api: api, logger: logger, pollTimeout: DefaultPollTimeout}
}

// Send отправляет новое сообщение
func (c *Client) Send(ctx context.Context, chatID int64, text string, opts messaging.Options) (models.MessageRef, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if opts.HTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	if kb := markup(opts.Keyboard); kb != nil {
		msg.ReplyMarkup = *kb
	}

	var sent tgbotapi.Message
	err := call(ctx, func() (err error) {
		sent, err = c.api.Send(msg)
		return err
	})
	if err != nil {
		return models.MessageRef{}, fmt.Errorf("failed to send message: %w", mapError(err))
	}
	return models.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// Edit заменяет текст и клавиатуру сообщения
func (c *Client) Edit(ctx context.Context, ref models.MessageRef, text string, opts messaging.Options) error {
	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	if opts.HTML {
		edit.ParseMode = tgbotapi.ModeHTML
	}
	edit.ReplyMarkup = markup(opts.Keyboard)

	err := call(ctx, func() error {
		_, err := c.api.Request(edit)
		return err
	})
	if err != nil && !strings.Contains(err.Error(), notModified) {
		return fmt.Errorf("failed to edit message: %w", mapError(err))
	}
	return nil
}

// Delete удаляет сообщение
func (c *Client) Delete(ctx context.Context, ref models.MessageRef) error {
	err := call(ctx, func() error {
		_, err := c.api.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", mapError(err))
	}
	return nil
}

// SendDocument отправляет файл с подписью
func (c *Client) SendDocument(ctx context.Context, chatID int64, path, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption

	err := call(ctx, func() error {
		_, err := c.api.Send(doc)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to send document: %w", mapError(err))
	}
	return nil
}

// AnswerCallback подтверждает нажатие кнопки, при alert - всплывающим окном
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	answer := tgbotapi.NewCallback(callbackID, text)
	answer.ShowAlert = alert

	err := call(ctx, func() error {
		_, err := c.api.Request(answer)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to answer callback: %w", mapError(err))
	}
	return nil
}

// call выполняет запрос к Bot API с учетом ctx. Библиотека не принимает
// контекст, поэтому по отмене ответ запроса отбрасывается.
func call(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// mapError переводит ответы об отсутствующем сообщении в messaging.ErrMessageNotFound
func mapError(err error) error {
	description := err.Error()
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		description = apiErr.Message
	}
	for _, m := range missingMessage {
		if strings.Contains(description, m) {
			return fmt.Errorf("%w: %s", messaging.ErrMessageNotFound, description)
		}
	}
	return err
}

func markup(kb messaging.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	m := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &m
}
