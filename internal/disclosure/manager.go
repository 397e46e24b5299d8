// Package disclosure shows decrypted secrets as self-erasing messages with a
// live countdown.
package disclosure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/vaultbot/internal/clock"
	"github.com/iudanet/vaultbot/internal/messaging"
	"github.com/iudanet/vaultbot/internal/models"
	"github.com/iudanet/vaultbot/internal/scheduler"
)

// Значения по умолчанию
const (
	DefaultTTL        = 120 * time.Second
	DefaultInterval   = 30 * time.Second
	DefaultRetryDelay = time.Second
	defaultOpTimeout  = 10 * time.Second
)

// ErrInvalidTTL возвращается для неположительного TTL
var ErrInvalidTTL = errors.New("disclosure ttl must be positive")

// Entry - запись журнала о сообщении, которое нужно удалить
type Entry struct {
	ExpiresAt time.Time         `json:"expires_at"`
	RecordID  string            `json:"record_id"`
	Ref       models.MessageRef `json:"ref"`
}

// Journal сохраняет ожидающие удаления между перезапусками
type Journal interface {
	Record(ctx context.Context, entry Entry) error
	Forget(ctx context.Context, ref models.MessageRef) error
	Pending(ctx context.Context) ([]Entry, error)
}

// Timing - параметры показа
type Timing struct {
	TTL        time.Duration
	Interval   time.Duration
	RetryDelay time.Duration
}

// DefaultTiming возвращает TTL 120s с обновлением каждые 30s
func DefaultTiming() Timing {
	return Timing{TTL: DefaultTTL, Interval: DefaultInterval, RetryDelay: DefaultRetryDelay}
}

// Request описывает показ секрета
type Request struct {
	Content  string
	RecordID string
	Options  messaging.Options
	ChatID   int64
	// TTL и Interval переопределяют текущие настройки, если заданы
	TTL      time.Duration
	Interval time.Duration
}

// Manager владеет жизненным циклом всех показанных секретов
type Manager struct {
	messenger messaging.Messenger
	scheduler scheduler.Scheduler
	clock     clock.Clock
	journal   Journal
	logger    *slog.Logger
	tasks     map[models.MessageRef]*Task
	timing    Timing
	opTimeout time.Duration
	mu        sync.Mutex
}

// Option настраивает Manager
type Option func(*Manager)

// WithJournal подключает постоянный журнал удалений
func WithJournal(j Journal) Option {
	return func(m *Manager) {
		m.journal = j
	}
}

// WithTiming задает параметры показа
func WithTiming(t Timing) Option {
	return func(m *Manager) {
		m.timing = t
	}
}

// NewManager создает Manager
func NewManager(messenger messaging.Messenger, sched scheduler.Scheduler, clk clock.Clock, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		messenger: messenger,
		scheduler: sched,
		clock:     clk,
		logger:    logger,
		tasks:     make(map[models.MessageRef]*Task),
		timing:    DefaultTiming(),
		opTimeout: defaultOpTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetTiming меняет параметры для последующих показов
func (m *Manager) SetTiming(t Timing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timing = t
}

// Timing возвращает текущие параметры показа
func (m *Manager) Timing() Timing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timing
}

// Reveal отправляет сообщение с отметкой времени и планирует его удаление.
// Если 0 < Interval < TTL, отметка обновляется каждые Interval.
func (m *Manager) Reveal(ctx context.Context, req Request) (*Task, error) {
	timing := m.Timing()
	if req.TTL == 0 {
		req.TTL = timing.TTL
	}
	if req.Interval == 0 {
		req.Interval = timing.Interval
	}
	if req.TTL <= 0 {
		return nil, ErrInvalidTTL
	}

	ref, err := m.messenger.Send(ctx, req.ChatID, Annotate(req.Content, req.TTL), req.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to send disclosure: %w", err)
	}

	task := &Task{
		Ref:       ref,
		RecordID:  req.RecordID,
		ExpiresAt: m.clock.Now().Add(req.TTL),
		Interval:  req.Interval,
		content:   req.Content,
		opts:      req.Options,
		remaining: req.TTL,
	}

	m.mu.Lock()
	m.tasks[ref] = task
	m.mu.Unlock()

	m.journalRecord(ctx, task)

	task.mu.Lock()
	task.deleteJob = m.scheduler.After(req.TTL, "disclosure-delete", func() { m.expire(task) })
	if req.Interval > 0 && req.Interval < req.TTL {
		m.scheduleRewriteLocked(task)
	}
	task.mu.Unlock()

	m.logger.Info("secret disclosed",
		"chat_id", ref.ChatID,
		"message_id", ref.MessageID,
		"record_id", req.RecordID,
		"ttl_s", seconds(req.TTL),
	)
	return task, nil
}

// Cancel останавливает запланированные обновления и удаление.
// Уже отправленное сообщение не удаляется.
func (m *Manager) Cancel(task *Task) bool {
	// Ждем обновление отсчета, если оно уже отправлено: иначе оно может
	// вернуть секрет в сообщение, которое вызывающий сейчас заменит
	task.editMu.Lock()
	defer task.editMu.Unlock()

	task.mu.Lock()
	if !task.active() {
		task.mu.Unlock()
		return false
	}
	task.cancelled = true
	task.stopJobs()
	task.mu.Unlock()

	m.forget(task.Ref)
	m.logger.Debug("disclosure cancelled", "message_id", task.Ref.MessageID)
	return true
}

// Supersede отменяет показ, если ref - сообщение с секретом. Вызывается, когда
// диалог заменяет содержимое этого сообщения.
func (m *Manager) Supersede(ref models.MessageRef) bool {
	m.mu.Lock()
	task, ok := m.tasks[ref]
	m.mu.Unlock()
	if !ok {
		return false
	}
	return m.Cancel(task)
}

// ExpireRecord немедленно удаляет все показанные секреты записи
// (например, после удаления самой записи)
func (m *Manager) ExpireRecord(recordID string) int {
	m.mu.Lock()
	var matched []*Task
	for _, task := range m.tasks {
		if task.RecordID == recordID {
			matched = append(matched, task)
		}
	}
	m.mu.Unlock()

	n := 0
	for _, task := range matched {
		if m.expire(task) {
			n++
		}
	}
	return n
}

// Discard планирует удаление сообщения, которое не удалось ни заменить, ни
// удалить сразу. Сообщение попадает в журнал и удаляется через RetryDelay
// по обычному пути expire с одной повторной попыткой.
func (m *Manager) Discard(ref models.MessageRef) {
	delay := m.Timing().RetryDelay
	task := &Task{
		Ref:       ref,
		ExpiresAt: m.clock.Now().Add(delay),
	}

	m.mu.Lock()
	m.tasks[ref] = task
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.opTimeout)
	m.journalRecord(ctx, task)
	cancel()

	task.mu.Lock()
	task.deleteJob = m.scheduler.After(delay, "disclosure-discard", func() { m.expire(task) })
	task.mu.Unlock()

	m.logger.Warn("disclosure left in chat, deletion rescheduled", "message_id", ref.MessageID)
}

// Active возвращает количество живых показов
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Recover восстанавливает удаления из журнала после перезапуска.
// Просроченные сообщения удаляются сразу, остальные планируются заново.
func (m *Manager) Recover(ctx context.Context) error {
	if m.journal == nil {
		return nil
	}

	entries, err := m.journal.Pending(ctx)
	if err != nil {
		return fmt.Errorf("failed to read disclosure journal: %w", err)
	}

	now := m.clock.Now()
	overdue := 0
	for _, entry := range entries {
		task := &Task{
			Ref:       entry.Ref,
			RecordID:  entry.RecordID,
			ExpiresAt: entry.ExpiresAt,
		}
		m.mu.Lock()
		m.tasks[entry.Ref] = task
		m.mu.Unlock()

		wait := entry.ExpiresAt.Sub(now)
		if wait <= 0 {
			overdue++
			m.expire(task)
			continue
		}
		task.mu.Lock()
		task.remaining = wait
		task.deleteJob = m.scheduler.After(wait, "disclosure-delete", func() { m.expire(task) })
		task.mu.Unlock()
	}

	m.logger.Info("disclosure journal recovered", "pending", len(entries), "overdue", overdue)
	return nil
}

func (m *Manager) scheduleRewriteLocked(task *Task) {
	task.rewriteJob = m.scheduler.After(task.Interval, "disclosure-rewrite", func() { m.rewrite(task) })
}

// rewrite обновляет отметку времени. Любая ошибка редактирования означает,
// что сообщение недоступно, и обновления прекращаются. Cancel не
// выполняется одновременно с редактированием.
func (m *Manager) rewrite(task *Task) {
	task.editMu.Lock()
	defer task.editMu.Unlock()

	task.mu.Lock()
	task.rewriteJob = nil
	if !task.active() {
		task.mu.Unlock()
		return
	}
	task.remaining -= task.Interval
	remaining := task.remaining
	task.mu.Unlock()

	if remaining <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.opTimeout)
	err := m.messenger.Edit(ctx, task.Ref, Annotate(task.content, remaining), task.opts)
	cancel()
	if err != nil {
		m.logger.Debug("disclosure rewrite stopped",
			"message_id", task.Ref.MessageID,
			"not_found", messaging.IsNotFound(err),
			"error", err,
		)
		return
	}

	task.mu.Lock()
	defer task.mu.Unlock()
	task.rewrites++
	if task.active() {
		m.scheduleRewriteLocked(task)
	}
}

// expire выполняет единственное удаление задачи
func (m *Manager) expire(task *Task) bool {
	task.mu.Lock()
	if !task.active() {
		task.mu.Unlock()
		return false
	}
	task.done = true
	task.remaining = 0
	task.stopJobs()
	task.mu.Unlock()

	m.attemptDelete(task, 1)
	return true
}

func (m *Manager) attemptDelete(task *Task, attempt int) {
	ctx, cancel := context.WithTimeout(context.Background(), m.opTimeout)
	err := m.messenger.Delete(ctx, task.Ref)
	cancel()

	switch {
	case err == nil:
		m.logger.Info("disclosure deleted", "message_id", task.Ref.MessageID, "attempt", attempt)
	case messaging.IsNotFound(err):
		m.logger.Debug("disclosure already gone", "message_id", task.Ref.MessageID)
	case attempt == 1:
		m.logger.Warn("failed to delete disclosure, retrying",
			"message_id", task.Ref.MessageID,
			"error", err,
		)
		retry := m.Timing().RetryDelay
		m.scheduler.After(retry, "disclosure-delete-retry", func() { m.attemptDelete(task, 2) })
		return
	default:
		m.logger.Warn("disclosure could not be deleted, giving up",
			"message_id", task.Ref.MessageID,
			"error", err,
		)
	}

	m.forget(task.Ref)
}

func (m *Manager) forget(ref models.MessageRef) {
	m.mu.Lock()
	delete(m.tasks, ref)
	m.mu.Unlock()

	if m.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.opTimeout)
	defer cancel()
	if err := m.journal.Forget(ctx, ref); err != nil {
		m.logger.Warn("failed to remove disclosure from journal", "message_id", ref.MessageID, "error", err)
	}
}

func (m *Manager) journalRecord(ctx context.Context, task *Task) {
	if m.journal == nil {
		return
	}
	entry := Entry{Ref: task.Ref, RecordID: task.RecordID, ExpiresAt: task.ExpiresAt}
	if err := m.journal.Record(ctx, entry); err != nil {
		// Удаление все равно запланировано в памяти
		m.logger.Warn("failed to journal disclosure", "message_id", task.Ref.MessageID, "error", err)
	}
}
