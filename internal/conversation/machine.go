// Package conversation implements the per-user dialog that composes, edits,
// shows and deletes credential records.
package conversation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iudanet/vaultbot/internal/clock"
	"github.com/iudanet/vaultbot/internal/disclosure"
	"github.com/iudanet/vaultbot/internal/generator"
	"github.com/iudanet/vaultbot/internal/messaging"
	"github.com/iudanet/vaultbot/internal/models"
	"github.com/iudanet/vaultbot/internal/session"
	"github.com/iudanet/vaultbot/internal/storage"
)

// Cipher шифрует секреты перед сохранением и расшифровывает для показа
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Revealer показывает расшифрованные секреты с ограниченным временем жизни
type Revealer interface {
	Reveal(ctx context.Context, req disclosure.Request) (*disclosure.Task, error)
	ExpireRecord(recordID string) int
	Timing() disclosure.Timing
}

// Deps - зависимости Machine
type Deps struct {
	Sessions  *session.Store
	Store     storage.CredentialStorage
	Cipher    Cipher
	Revealer  Revealer
	Messenger messaging.Messenger
	Clock     clock.Clock
	// Generate по умолчанию generator.Generate
	Generate func(generator.Options) (string, error)
}

// Input - событие с адресом отправителя
type Input struct {
	Event  Event
	UserID int64
	ChatID int64
	// Message - сообщение с нажатой кнопкой или текст пользователя
	Message models.MessageRef
}

// Machine - конечный автомат диалога. Сессия одного пользователя не
// синхронизирована: вызывающий обрабатывает его события последовательно.
type Machine struct {
	deps   Deps
	logger *slog.Logger
	table  transitionTable
}

// New создает Machine
func New(deps Deps, logger *slog.Logger) *Machine {
	if deps.Generate == nil {
		deps.Generate = generator.Generate
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	return &Machine{
		deps:   deps,
		logger: logger,
		table:  newTransitionTable(),
	}
}

// turn - контекст обработки одного события
type turn struct {
	ctx  context.Context
	sess *session.Session
	in   Input
}

// Handle применяет событие к сессии пользователя и возвращает ответ.
// Ошибки хранилища и транспорта возвращаются вызывающему; состояние
// сессии в этом случае не меняется.
func (m *Machine) Handle(ctx context.Context, in Input) (Reply, error) {
	sess := m.deps.Sessions.Get(ctx, in.UserID)
	before := sess.State

	h := m.table.lookup(sess.State, in.Event.Kind)
	if h == nil {
		m.logger.Debug("unsupported event",
			"user_id", in.UserID,
			"state", sess.State.String(),
			"event", in.Event.Kind.String(),
		)
		return m.unknown(sess), nil
	}

	r, err := h(m, &turn{ctx: ctx, sess: sess, in: in})
	if err != nil {
		return Reply{}, err
	}

	if sess.State != before {
		m.logger.Debug("state changed",
			"user_id", in.UserID,
			"from", before.String(),
			"to", sess.State.String(),
			"event", in.Event.Kind.String(),
		)
	}
	return r, nil
}

// Start обрабатывает команду /start: сброс и главное меню
func (m *Machine) Start(ctx context.Context, userID int64) Reply {
	m.deps.Sessions.Get(ctx, userID).Reset()
	return reply(OutcomeReset, mainMenuView())
}

func (m *Machine) unknown(sess *session.Session) Reply {
	if sess.State == session.Idle {
		return reply(OutcomeUnknown, withError(errIdleText, mainMenuView()))
	}
	v := promptView(sess)
	v.text = errUnavailable + "\n\n" + v.text
	return reply(OutcomeUnknown, v)
}

// deleteMessage удаляет сообщение без ошибки для вызывающего
func (m *Machine) deleteMessage(ctx context.Context, ref models.MessageRef) {
	if ref.MessageID == 0 || m.deps.Messenger == nil {
		return
	}
	if err := m.deps.Messenger.Delete(ctx, ref); err != nil && !messaging.IsNotFound(err) {
		m.logger.Warn("failed to delete message", "message_id", ref.MessageID, "error", err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrCredentialNotFound)
}
