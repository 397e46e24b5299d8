package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vaultbot/internal/clock"
	"github.com/iudanet/vaultbot/internal/conversation"
	"github.com/iudanet/vaultbot/internal/messaging"
	"github.com/iudanet/vaultbot/internal/models"
)

const operator = int64(42)

type fakeDialog struct {
	reply  conversation.Reply
	err    error
	inputs []conversation.Input
	starts int
	mu     sync.Mutex
}

func (d *fakeDialog) Handle(_ context.Context, in conversation.Input) (conversation.Reply, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inputs = append(d.inputs, in)
	return d.reply, d.err
}

func (d *fakeDialog) Start(context.Context, int64) conversation.Reply {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.starts++
	return conversation.Reply{Text: "menu"}
}

func (d *fakeDialog) Inputs() []conversation.Input {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]conversation.Input(nil), d.inputs...)
}

// fakeSuperseder считает каждое сообщение показом секрета, если не задан miss
type fakeSuperseder struct {
	refs     []models.MessageRef
	discards []models.MessageRef
	mu       sync.Mutex
	miss     bool
}

func (s *fakeSuperseder) Supersede(ref models.MessageRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = append(s.refs, ref)
	return !s.miss
}

func (s *fakeSuperseder) Discard(ref models.MessageRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discards = append(s.discards, ref)
}

type fakeBackups struct {
	err   error
	chats []int64
}

func (b *fakeBackups) Send(_ context.Context, chatID int64) error {
	b.chats = append(b.chats, chatID)
	return b.err
}

type fixture struct {
	dialog     *fakeDialog
	transport  *messaging.Recorder
	superseder *fakeSuperseder
	backups    *fakeBackups
	clock      *clock.FakeClock
	router     *Router
}

func newFixture() *fixture {
	f := &fixture{
		dialog:     &fakeDialog{reply: conversation.Reply{Text: "ok"}},
		transport:  messaging.NewRecorder(),
		superseder: &fakeSuperseder{},
		backups:    &fakeBackups{},
		clock:      clock.Fake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	f.router = New(Config{AuthorizedUserID: operator}, Deps{
		Dialog:      f.dialog,
		Transport:   f.transport,
		Disclosures: f.superseder,
		Backups:     f.backups,
		Clock:       f.clock,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func textUpdate(userID int64, text string) messaging.Update {
	return messaging.Update{Text: text, UserID: userID, ChatID: userID, MessageID: 7}
}

func callbackUpdate(userID int64, data string, messageID int) messaging.Update {
	return messaging.Update{CallbackID: "cb-1", CallbackData: data, UserID: userID, ChatID: userID, MessageID: messageID}
}

func TestDispatch_Unauthorized(t *testing.T) {
	tests := []struct {
		name      string
		upd       messaging.Update
		wantOp    string
		wantText  string
		wantAlert bool
	}{
		{name: "text", upd: textUpdate(7, "hello"), wantOp: "send", wantText: deniedText},
		{name: "backup command", upd: textUpdate(7, "/backup"), wantOp: "send", wantText: deniedCommandText},
		{name: "callback", upd: callbackUpdate(7, "add_password", 3), wantOp: "answer", wantText: deniedAlert, wantAlert: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.router.Dispatch(context.Background(), tt.upd)

			calls := f.transport.Calls("")
			require.Len(t, calls, 1)
			assert.Equal(t, tt.wantOp, calls[0].Op)
			assert.Equal(t, tt.wantText, calls[0].Text)
			assert.Equal(t, tt.wantAlert, calls[0].Alert)
			assert.Empty(t, f.dialog.Inputs())
			assert.Empty(t, f.backups.chats)
		})
	}
}

func TestDispatch_Start(t *testing.T) {
	f := newFixture()
	f.router.Dispatch(context.Background(), textUpdate(operator, "/start"))

	assert.Equal(t, 1, f.dialog.starts)
	assert.Empty(t, f.dialog.Inputs())
	sends := f.transport.Calls("send")
	require.Len(t, sends, 1)
	assert.Equal(t, "menu", sends[0].Text)
	assert.True(t, sends[0].Opts.HTML)
}

func TestDispatch_TextGoesToDialog(t *testing.T) {
	f := newFixture()
	f.router.Dispatch(context.Background(), textUpdate(operator, "Почта"))

	inputs := f.dialog.Inputs()
	require.Len(t, inputs, 1)
	assert.Equal(t, conversation.Text("Почта"), inputs[0].Event)
	assert.Equal(t, models.MessageRef{ChatID: operator, MessageID: 7}, inputs[0].Message)

	sends := f.transport.Calls("send")
	require.Len(t, sends, 1)
	assert.Equal(t, "ok", sends[0].Text)
	assert.Empty(t, f.superseder.refs, "текстовый ответ не трогает показы")
}

func TestDispatch_CallbackEditsMessage(t *testing.T) {
	f := newFixture()
	ref := models.MessageRef{ChatID: operator, MessageID: 5}
	f.transport.Put(ref, "old")

	f.router.Dispatch(context.Background(), callbackUpdate(operator, "view_categories", 5))

	inputs := f.dialog.Inputs()
	require.Len(t, inputs, 1)
	assert.Equal(t, conversation.EvViewCategories, inputs[0].Event.Kind)

	assert.Equal(t, []models.MessageRef{ref}, f.superseder.refs)
	text, ok := f.transport.Text(ref)
	require.True(t, ok)
	assert.Equal(t, "ok", text)

	answers := f.transport.Calls("answer")
	require.Len(t, answers, 1)
	assert.Equal(t, "cb-1", answers[0].Path)
	assert.False(t, answers[0].Alert)
	assert.Empty(t, f.transport.Calls("send"))
}

func TestDispatch_CallbackEditFallsBackToSend(t *testing.T) {
	tests := []struct {
		name        string
		editErr     error
		wantDeletes int
	}{
		{name: "message gone", editErr: nil, wantDeletes: 0},
		{name: "edit rejected", editErr: errors.New("telegram: message can't be edited"), wantDeletes: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ref := models.MessageRef{ChatID: operator, MessageID: 5}
			if tt.editErr != nil {
				f.transport.Put(ref, "old")
				f.transport.EditErr = func(models.MessageRef) error { return tt.editErr }
			}

			f.router.Dispatch(context.Background(), callbackUpdate(operator, "settings", 5))

			assert.Len(t, f.transport.Calls("delete"), tt.wantDeletes)
			sends := f.transport.Calls("send")
			require.Len(t, sends, 1)
			assert.Equal(t, "ok", sends[0].Text)
		})
	}
}

func TestDispatch_UndeletableSecretHandedBack(t *testing.T) {
	tests := []struct {
		name         string
		miss         bool
		wantDiscards int
	}{
		{name: "secret message", wantDiscards: 1},
		{name: "ordinary message", miss: true, wantDiscards: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.superseder.miss = tt.miss
			ref := models.MessageRef{ChatID: operator, MessageID: 5}
			f.transport.Put(ref, "🔑 Пароль: Sup3r$ecret")
			f.transport.EditErr = func(models.MessageRef) error {
				return errors.New("telegram: 502 bad gateway")
			}
			f.transport.DeleteErr = func(models.MessageRef, int) error {
				return errors.New("telegram: 502 bad gateway")
			}

			f.router.Dispatch(context.Background(), callbackUpdate(operator, "main_menu", 5))

			assert.Len(t, f.superseder.discards, tt.wantDiscards)
			if tt.wantDiscards > 0 {
				assert.Equal(t, ref, f.superseder.discards[0])
			}
			sends := f.transport.Calls("send")
			require.Len(t, sends, 1, "ответ все равно отправляется новым сообщением")
			assert.Equal(t, "ok", sends[0].Text)
		})
	}
}

func TestDispatch_SilentReplyRendersNothing(t *testing.T) {
	f := newFixture()
	f.dialog.reply = conversation.Reply{Silent: true}

	f.router.Dispatch(context.Background(), callbackUpdate(operator, "service_abc", 5))

	assert.Empty(t, f.transport.Calls("edit"))
	assert.Empty(t, f.transport.Calls("send"))
	assert.Len(t, f.transport.Calls("answer"), 1)
}

func TestDispatch_DialogError(t *testing.T) {
	f := newFixture()
	f.dialog.err = errors.New("database is locked")

	f.router.Dispatch(context.Background(), textUpdate(operator, "x"))
	sends := f.transport.Calls("send")
	require.Len(t, sends, 1)
	assert.Equal(t, failedText, sends[0].Text)

	f.router.Dispatch(context.Background(), callbackUpdate(operator, "save_password", 5))
	answers := f.transport.Calls("answer")
	require.Len(t, answers, 1)
	assert.Equal(t, failedAlert, answers[0].Text)
	assert.True(t, answers[0].Alert)
	assert.Empty(t, f.transport.Calls("edit"))
}

func TestDispatch_Backup(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture()
		f.router.Dispatch(context.Background(), textUpdate(operator, "/backup"))

		assert.Equal(t, []int64{operator}, f.backups.chats)
		sends := f.transport.Calls("send")
		require.Len(t, sends, 1)
		assert.Equal(t, backupStartedText, sends[0].Text)
	})

	t.Run("failure", func(t *testing.T) {
		f := newFixture()
		f.backups.err = errors.New("disk full")
		f.router.Dispatch(context.Background(), textUpdate(operator, "/backup@vaultbot"))

		sends := f.transport.Calls("send")
		require.Len(t, sends, 2)
		assert.Equal(t, backupFailedText, sends[1].Text)
	})

	t.Run("disabled", func(t *testing.T) {
		f := newFixture()
		f.router.deps.Backups = nil
		f.router.Dispatch(context.Background(), textUpdate(operator, "/backup"))

		sends := f.transport.Calls("send")
		require.Len(t, sends, 1)
		assert.Equal(t, backupDisabledText, sends[0].Text)
	})
}

func TestRun_PreservesPerUserOrder(t *testing.T) {
	f := newFixture()
	updates := make(chan messaging.Update)

	done := make(chan struct{})
	go func() {
		f.router.Run(context.Background(), updates)
		close(done)
	}()

	words := []string{"one", "two", "three", "four", "five"}
	for _, w := range words {
		updates <- textUpdate(operator, w)
	}
	close(updates)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop")
	}

	inputs := f.dialog.Inputs()
	require.Len(t, inputs, len(words))
	for i, w := range words {
		assert.Equal(t, w, inputs[i].Event.Text)
	}
}

func TestRun_UnauthorizedUsersGetNoLane(t *testing.T) {
	f := newFixture()
	updates := make(chan messaging.Update)

	done := make(chan struct{})
	go func() {
		f.router.Run(context.Background(), updates)
		close(done)
	}()

	const strangers = 500
	for id := int64(1000); id < 1000+strangers; id++ {
		updates <- textUpdate(id, "hello")
		assert.Zero(t, f.router.Lanes())
	}
	close(updates)
	<-done

	sends := f.transport.Calls("send")
	require.Len(t, sends, strangers)
	for _, s := range sends {
		assert.Equal(t, deniedText, s.Text)
	}
	assert.Empty(t, f.dialog.Inputs())
}

func TestRun_IdleLaneRetired(t *testing.T) {
	f := newFixture()
	updates := make(chan messaging.Update)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		f.router.Run(ctx, updates)
		close(done)
	}()

	updates <- textUpdate(operator, "one")
	require.Eventually(t, func() bool { return len(f.dialog.Inputs()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.router.Lanes())

	f.clock.Advance(DefaultLaneIdle / 2)
	assert.Equal(t, 1, f.router.Lanes(), "очередь живет, пока не истек простой")

	require.Eventually(t, func() bool {
		f.clock.Advance(DefaultLaneIdle)
		return f.router.Lanes() == 0
	}, time.Second, 5*time.Millisecond)

	// Новое событие заводит очередь заново
	updates <- textUpdate(operator, "two")
	require.Eventually(t, func() bool { return len(f.dialog.Inputs()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "two", f.dialog.Inputs()[1].Event.Text)

	cancel()
	<-done
	assert.Zero(t, f.router.Lanes())
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.router.Run(ctx, make(chan messaging.Update))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop")
	}
}

func TestCommand(t *testing.T) {
	tests := map[string]string{
		"/start":           "/start",
		"/Start extra":     "/start",
		"/backup@vaultbot": "/backup",
		"hello":            "",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, command(in), in)
	}
}
