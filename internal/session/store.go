package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/vaultbot/internal/clock"
	"github.com/iudanet/vaultbot/internal/generator"
)

// Preferences хранит настройки генератора между перезапусками и после
// вытеснения сессии
type Preferences interface {
	LoadOptions(ctx context.Context, userID int64) (generator.Options, bool, error)
	SaveOptions(ctx context.Context, userID int64, opts generator.Options) error
}

// Store держит по одной сессии на пользователя и вытесняет неактивные
type Store struct {
	clock       clock.Clock
	logger      *slog.Logger
	prefs       Preferences
	sessions    map[int64]*Session
	janitor     clock.Timer
	idleTimeout time.Duration
	mu          sync.Mutex
	stopped     bool
}

// Option настраивает Store
type Option func(*Store)

// WithPreferences подключает постоянное хранилище настроек генератора
func WithPreferences(p Preferences) Option {
	return func(s *Store) {
		s.prefs = p
	}
}

// NewStore создает хранилище сессий.
// idleTimeout - время бездействия, после которого сессия вытесняется.
func NewStore(clk clock.Clock, idleTimeout time.Duration, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		clock:       clk,
		logger:      logger,
		sessions:    make(map[int64]*Session),
		idleTimeout: idleTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get возвращает сессию пользователя, создавая ее при первом обращении,
// и обновляет время последнего доступа
func (s *Store) Get(ctx context.Context, userID int64) *Session {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if ok {
		sess.LastAccess = s.clock.Now()
		s.mu.Unlock()
		return sess
	}
	s.mu.Unlock()

	// Настройки загружаются без блокировки: обращение к диску
	opts := s.loadOptions(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[userID]; ok {
		existing.LastAccess = s.clock.Now()
		return existing
	}
	sess = newSession(userID, opts, s.clock.Now())
	s.sessions[userID] = sess
	s.logger.Debug("session created", "user_id", userID)
	return sess
}

// UpdateOptions применяет update к настройкам генератора и сохраняет результат
func (s *Store) UpdateOptions(ctx context.Context, sess *Session, update func(generator.Options) (generator.Options, error)) error {
	next, err := update(sess.Options)
	if err != nil {
		return err
	}
	sess.Options = next

	if s.prefs == nil {
		return nil
	}
	if err := s.prefs.SaveOptions(ctx, sess.UserID, next); err != nil {
		// Сессия уже обновлена, теряется только сохранение между перезапусками
		s.logger.Warn("failed to persist generator options", "user_id", sess.UserID, "error", err)
	}
	return nil
}

// Reset сбрасывает сессию пользователя в Idle, если она существует
func (s *Store) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		sess.Reset()
	}
}

// Len возвращает количество живых сессий
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictIdle удаляет сессии, неактивные дольше idleTimeout
func (s *Store) EvictIdle() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	evicted := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastAccess) > s.idleTimeout {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Info("idle sessions evicted", "count", evicted, "remaining", len(s.sessions))
	}
	return evicted
}

// Start запускает периодическое вытеснение с указанным интервалом
func (s *Store) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = false
	s.scheduleLocked(interval)
}

// Stop останавливает периодическое вытеснение
func (s *Store) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.janitor != nil {
		s.janitor.Stop()
		s.janitor = nil
	}
}

func (s *Store) scheduleLocked(interval time.Duration) {
	s.janitor = s.clock.AfterFunc(interval, func() {
		s.EvictIdle()

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.stopped {
			s.scheduleLocked(interval)
		}
	})
}

func (s *Store) loadOptions(ctx context.Context, userID int64) generator.Options {
	if s.prefs == nil {
		return generator.DefaultOptions()
	}

	opts, found, err := s.prefs.LoadOptions(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load generator options, using defaults", "user_id", userID, "error", err)
		return generator.DefaultOptions()
	}
	if !found || opts.Validate() != nil {
		return generator.DefaultOptions()
	}
	return opts
}
