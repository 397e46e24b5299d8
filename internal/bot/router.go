// Package bot связывает входящие обновления Telegram с диалогом:
// проверяет доступ, упорядочивает события пользователя и отрисовывает ответы.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/vaultbot/internal/clock"
	"github.com/iudanet/vaultbot/internal/conversation"
	"github.com/iudanet/vaultbot/internal/messaging"
	"github.com/iudanet/vaultbot/internal/models"
)

// Тексты ответов роутера
const (
	deniedText         = "❌ У вас нет доступа к этому боту. Только авторизованный пользователь может использовать этот бот."
	deniedAlert        = "❌ У вас нет доступа к этому боту"
	deniedCommandText  = "❌ У вас нет доступа к этой команде."
	failedText         = "❌ Произошла ошибка. Пожалуйста, попробуйте снова или нажмите /start для перезапуска."
	failedAlert        = "❌ Произошла ошибка. Попробуйте еще раз"
	backupStartedText  = "📦 Создаю резервную копию базы данных..."
	backupFailedText   = "❌ Ошибка при создании резервной копии. Подробности в логах."
	backupDisabledText = "Резервное копирование отключено."

	cmdStart  = "/start"
	cmdBackup = "/backup"

	laneBuffer = 16

	// DefaultLaneIdle - через сколько простоя очередь пользователя закрывается
	DefaultLaneIdle = 10 * time.Minute
)

// Dialog - автомат диалога
type Dialog interface {
	Handle(ctx context.Context, in conversation.Input) (conversation.Reply, error)
	Start(ctx context.Context, userID int64) conversation.Reply
}

// Superseder отменяет показ секрета в сообщении, которое сейчас заменят.
// Discard планирует удаление сообщения, которое не удалось ни заменить,
// ни удалить.
type Superseder interface {
	Supersede(ref models.MessageRef) bool
	Discard(ref models.MessageRef)
}

// BackupSender делает резервную копию и отправляет ее в чат
type BackupSender interface {
	Send(ctx context.Context, chatID int64) error
}

// Transport - исходящие операции Telegram, нужные роутеру
type Transport interface {
	messaging.Messenger
	messaging.CallbackAnswerer
}

// Config - параметры роутера
type Config struct {
	AuthorizedUserID int64
	LaneIdle         time.Duration
}

// Deps - зависимости роутера. Backups и Disclosures могут быть nil,
// Clock по умолчанию - системные часы.
type Deps struct {
	Dialog      Dialog
	Transport   Transport
	Disclosures Superseder
	Backups     BackupSender
	Clock       clock.Clock
}

// Router обрабатывает обновления. События одного пользователя
// обрабатываются строго по очереди, разных - параллельно. Очереди
// заводятся только для авторизованных пользователей.
type Router struct {
	deps   Deps
	logger *slog.Logger
	lanes  map[int64]*lane
	cfg    Config
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// lane - очередь событий одного пользователя. pending считает события,
// которые уже назначены очереди, но еще не получены обработчиком.
type lane struct {
	updates chan messaging.Update
	pending int
}

// New создает Router
func New(cfg Config, deps Deps, logger *slog.Logger) *Router {
	if cfg.LaneIdle <= 0 {
		cfg.LaneIdle = DefaultLaneIdle
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	return &Router{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		lanes:  make(map[int64]*lane),
	}
}

// Run читает обновления до закрытия канала или отмены ctx и дожидается
// обработки уже принятых событий
func (r *Router) Run(ctx context.Context, updates <-chan messaging.Update) {
	defer r.drain()

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			if !r.authorized(upd.UserID) {
				// Отказ не трогает состояние и отправляется сразу
				r.Dispatch(ctx, upd)
				continue
			}
			select {
			case r.acquire(ctx, upd.UserID).updates <- upd:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Lanes возвращает количество открытых очередей пользователей
func (r *Router) Lanes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lanes)
}

// acquire возвращает очередь пользователя, создавая ее при необходимости,
// и резервирует в ней место под одно событие
func (r *Router) acquire(ctx context.Context, userID int64) *lane {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lanes[userID]
	if !ok {
		l = &lane{updates: make(chan messaging.Update, laneBuffer)}
		r.lanes[userID] = l
		r.wg.Add(1)
		go r.work(ctx, userID, l)
	}
	l.pending++
	return l
}

func (r *Router) work(ctx context.Context, userID int64, l *lane) {
	defer r.wg.Done()

	for {
		idle := make(chan struct{})
		timer := r.deps.Clock.AfterFunc(r.cfg.LaneIdle, func() { close(idle) })

		select {
		case upd, ok := <-l.updates:
			timer.Stop()
			if !ok {
				return
			}
			r.mu.Lock()
			l.pending--
			r.mu.Unlock()
			r.Dispatch(ctx, upd)
		case <-idle:
			if r.retire(userID, l) {
				return
			}
		}
	}
}

// retire закрывает простаивающую очередь, если в нее ничего не назначено
func (r *Router) retire(userID int64, l *lane) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l.pending > 0 || r.lanes[userID] != l {
		return false
	}
	delete(r.lanes, userID)
	r.logger.Debug("idle lane retired", "user_id", userID)
	return true
}

func (r *Router) drain() {
	r.mu.Lock()
	for id, l := range r.lanes {
		close(l.updates)
		delete(r.lanes, id)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// Dispatch обрабатывает одно обновление синхронно
func (r *Router) Dispatch(ctx context.Context, upd messaging.Update) {
	if upd.IsCallback() {
		r.handleCallback(ctx, upd)
		return
	}
	r.handleText(ctx, upd)
}

func (r *Router) authorized(userID int64) bool {
	return userID == r.cfg.AuthorizedUserID
}

func (r *Router) handleText(ctx context.Context, upd messaging.Update) {
	cmd := command(upd.Text)

	if !r.authorized(upd.UserID) {
		r.logger.Warn("unauthorized message", "user_id", upd.UserID)
		text := deniedText
		if cmd == cmdBackup {
			text = deniedCommandText
		}
		r.send(ctx, upd.ChatID, text, messaging.Options{})
		return
	}

	switch cmd {
	case cmdStart:
		r.render(ctx, upd, r.deps.Dialog.Start(ctx, upd.UserID))
		return
	case cmdBackup:
		r.backup(ctx, upd.ChatID)
		return
	}

	reply, err := r.deps.Dialog.Handle(ctx, conversation.Input{
		Event:   conversation.Text(upd.Text),
		UserID:  upd.UserID,
		ChatID:  upd.ChatID,
		Message: upd.Ref(),
	})
	if err != nil {
		r.logger.Error("failed to handle message", "user_id", upd.UserID, "error", err)
		r.send(ctx, upd.ChatID, failedText, messaging.Options{})
		return
	}
	r.render(ctx, upd, reply)
}

func (r *Router) handleCallback(ctx context.Context, upd messaging.Update) {
	if !r.authorized(upd.UserID) {
		r.logger.Warn("unauthorized callback", "user_id", upd.UserID)
		r.answer(ctx, upd.CallbackID, deniedAlert, true)
		return
	}

	event := conversation.ParseCallback(upd.CallbackData)
	reply, err := r.deps.Dialog.Handle(ctx, conversation.Input{
		Event:   event,
		UserID:  upd.UserID,
		ChatID:  upd.ChatID,
		Message: upd.Ref(),
	})
	if err != nil {
		r.logger.Error("failed to handle callback",
			"user_id", upd.UserID,
			"event", event.Kind.String(),
			"error", err,
		)
		r.answer(ctx, upd.CallbackID, failedAlert, true)
		return
	}

	r.answer(ctx, upd.CallbackID, "", false)
	r.render(ctx, upd, reply)
}

// render показывает ответ: нажатие кнопки заменяет исходное сообщение,
// текст отправляется новым сообщением
func (r *Router) render(ctx context.Context, upd messaging.Update, reply conversation.Reply) {
	if reply.Silent {
		return
	}

	if !upd.IsCallback() {
		r.send(ctx, upd.ChatID, reply.Text, reply.Options())
		return
	}

	ref := upd.Ref()
	superseded := r.deps.Disclosures != nil && r.deps.Disclosures.Supersede(ref)
	if superseded {
		r.logger.Debug("disclosure superseded", "message_id", ref.MessageID)
	}

	err := r.deps.Transport.Edit(ctx, ref, reply.Text, reply.Options())
	if err == nil {
		return
	}

	r.logger.Debug("edit failed, sending new message", "message_id", ref.MessageID, "error", err)
	if !messaging.IsNotFound(err) {
		if err := r.deps.Transport.Delete(ctx, ref); err != nil && !messaging.IsNotFound(err) {
			r.logger.Warn("failed to delete stale message", "message_id", ref.MessageID, "error", err)
			if superseded {
				// Секрет остался в чате: удаление переходит к менеджеру показов
				r.deps.Disclosures.Discard(ref)
			}
		}
	}
	r.send(ctx, upd.ChatID, reply.Text, reply.Options())
}

func (r *Router) backup(ctx context.Context, chatID int64) {
	if r.deps.Backups == nil {
		r.send(ctx, chatID, backupDisabledText, messaging.Options{})
		return
	}

	r.send(ctx, chatID, backupStartedText, messaging.Options{})
	if err := r.deps.Backups.Send(ctx, chatID); err != nil {
		r.logger.Error("on-demand backup failed", "chat_id", chatID, "error", err)
		r.send(ctx, chatID, backupFailedText, messaging.Options{})
	}
}

func (r *Router) send(ctx context.Context, chatID int64, text string, opts messaging.Options) {
	if _, err := r.deps.Transport.Send(ctx, chatID, text, opts); err != nil {
		r.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (r *Router) answer(ctx context.Context, callbackID, text string, alert bool) {
	if err := r.deps.Transport.AnswerCallback(ctx, callbackID, text, alert); err != nil {
		r.logger.Warn("failed to answer callback", "error", err)
	}
}

// command выделяет команду бота из текста: "/start@vaultbot x" -> "/start"
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd)
}
