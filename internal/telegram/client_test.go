package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vaultbot/internal/messaging"
	"github.com/iudanet/vaultbot/internal/models"
)

// fakeAPI записывает запросы к Bot API
type fakeAPI struct {
	err     error
	updates chan tgbotapi.Update
	sent    []tgbotapi.Chattable
	nextID  int
	stopped bool
	mu      sync.Mutex
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	if f.err != nil {
		return nil, f.err
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) last() tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func newTestClient() (*Client, *fakeAPI) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 10)}
	return newClient(api, slog.New(slog.NewTextHandler(io.Discard, nil))), api
}

func TestSend(t *testing.T) {
	c, api := newTestClient()

	ref, err := c.Send(context.Background(), 42, "<b>hi</b>", messaging.Options{
		HTML: true,
		Keyboard: messaging.Keyboard{
			messaging.Row(messaging.Callback("Назад", "back_to_main")),
			messaging.Row(messaging.Link("Сайт", "https://example.com")),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessageRef{ChatID: 42, MessageID: 1}, ref)

	msg, ok := api.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 2)
	require.NotNil(t, kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "back_to_main", *kb.InlineKeyboard[0][0].CallbackData)
	require.NotNil(t, kb.InlineKeyboard[1][0].URL)
	assert.Equal(t, "https://example.com", *kb.InlineKeyboard[1][0].URL)
}

func TestSend_WithoutKeyboard(t *testing.T) {
	c, api := newTestClient()

	_, err := c.Send(context.Background(), 42, "plain", messaging.Options{})
	require.NoError(t, err)

	msg := api.last().(tgbotapi.MessageConfig)
	assert.Nil(t, msg.ReplyMarkup)
	assert.Empty(t, msg.ParseMode)
}

func TestEditAndDelete(t *testing.T) {
	c, api := newTestClient()
	ref := models.MessageRef{ChatID: 42, MessageID: 7}

	require.NoError(t, c.Edit(context.Background(), ref, "new", messaging.Options{HTML: true}))
	edit, ok := api.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 7, edit.MessageID)
	assert.Nil(t, edit.ReplyMarkup)

	require.NoError(t, c.Delete(context.Background(), ref))
	del, ok := api.last().(tgbotapi.DeleteMessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), del.ChatID)
	assert.Equal(t, 7, del.MessageID)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{name: "delete not found", err: &tgbotapi.Error{Code: 400, Message: "Bad Request: message to delete not found"}, notFound: true},
		{name: "edit not found", err: &tgbotapi.Error{Code: 400, Message: "Bad Request: message to edit not found"}, notFound: true},
		{name: "too old", err: &tgbotapi.Error{Code: 400, Message: "Bad Request: message can't be deleted for everyone"}, notFound: true},
		{name: "plain error text", err: errors.New("Bad Request: MESSAGE_ID_INVALID"), notFound: true},
		{name: "server error", err: &tgbotapi.Error{Code: 502, Message: "Bad Gateway"}},
		{name: "network", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, api := newTestClient()
			api.err = tt.err

			err := c.Delete(context.Background(), models.MessageRef{ChatID: 1, MessageID: 1})
			require.Error(t, err)
			assert.Equal(t, tt.notFound, messaging.IsNotFound(err))
		})
	}
}

func TestEdit_NotModifiedIsSuccess(t *testing.T) {
	c, api := newTestClient()
	api.err = &tgbotapi.Error{Code: 400, Message: "Bad Request: message is not modified"}

	assert.NoError(t, c.Edit(context.Background(), models.MessageRef{ChatID: 1, MessageID: 1}, "same", messaging.Options{}))
}

func TestSendDocumentAndAnswer(t *testing.T) {
	c, api := newTestClient()

	require.NoError(t, c.SendDocument(context.Background(), 42, "/tmp/vault.db", "backup"))
	doc, ok := api.last().(tgbotapi.DocumentConfig)
	require.True(t, ok)
	assert.Equal(t, "backup", doc.Caption)
	assert.Equal(t, tgbotapi.FilePath("/tmp/vault.db"), doc.File)

	require.NoError(t, c.AnswerCallback(context.Background(), "cb-1", "Доступ запрещен", true))
	answer, ok := api.last().(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.True(t, answer.ShowAlert)
	assert.Equal(t, "cb-1", answer.CallbackQueryID)
}

func TestCall_CancelledContext(t *testing.T) {
	c, api := newTestClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Send(ctx, 1, "x", messaging.Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.sent)
}

func TestUpdates(t *testing.T) {
	c, api := newTestClient()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := c.Updates(ctx)

	user := &tgbotapi.User{ID: 5}
	chat := &tgbotapi.Chat{ID: 50}
	api.updates <- tgbotapi.Update{UpdateID: 1, Message: &tgbotapi.Message{MessageID: 3, From: user, Chat: chat, Text: "/start"}}
	api.updates <- tgbotapi.Update{UpdateID: 2, Message: &tgbotapi.Message{MessageID: 4, From: user, Chat: chat}}
	api.updates <- tgbotapi.Update{UpdateID: 3, CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    user,
		Data:    "settings",
		Message: &tgbotapi.Message{MessageID: 9, Chat: chat},
	}}

	first := <-out
	assert.Equal(t, messaging.Update{Text: "/start", UserID: 5, ChatID: 50, MessageID: 3}, first)

	second := <-out
	assert.True(t, second.IsCallback())
	assert.Equal(t, "settings", second.CallbackData)
	assert.Equal(t, 9, second.MessageID)

	cancel()
	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("updates channel not closed")
	}
	api.mu.Lock()
	assert.True(t, api.stopped)
	api.mu.Unlock()
}
