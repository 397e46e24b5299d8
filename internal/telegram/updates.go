package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iudanet/vaultbot/internal/messaging"
)

// Updates запускает long polling и возвращает канал текстовых сообщений и
// нажатий кнопок. Канал закрывается после отмены ctx.
func (c *Client) Updates(ctx context.Context) <-chan messaging.Update {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = c.pollTimeout
	in := c.api.GetUpdatesChan(cfg)

	out := make(chan messaging.Update)
	go func() {
		defer close(out)
		defer c.api.StopReceivingUpdates()

		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-in:
				if !ok {
					return
				}
				u, ok := convert(upd)
				if !ok {
					c.logger.Debug("update skipped", "update_id", upd.UpdateID)
					continue
				}
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// convert оставляет только текстовые сообщения и нажатия кнопок
func convert(upd tgbotapi.Update) (messaging.Update, bool) {
	switch {
	case upd.CallbackQuery != nil:
		q := upd.CallbackQuery
		u := messaging.Update{CallbackID: q.ID, CallbackData: q.Data}
		if q.From != nil {
			u.UserID = q.From.ID
			u.ChatID = q.From.ID
		}
		if q.Message != nil {
			u.MessageID = q.Message.MessageID
			if q.Message.Chat != nil {
				u.ChatID = q.Message.Chat.ID
			}
		}
		return u, u.UserID != 0

	case upd.Message != nil && upd.Message.Text != "":
		m := upd.Message
		u := messaging.Update{Text: m.Text, MessageID: m.MessageID}
		if m.From != nil {
			u.UserID = m.From.ID
		}
		if m.Chat != nil {
			u.ChatID = m.Chat.ID
		}
		return u, u.UserID != 0 && u.ChatID != 0
	}
	return messaging.Update{}, false
}
