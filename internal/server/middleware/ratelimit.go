package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/vaultbot/internal/clock"
)

// RateLimiter ограничивает число запросов с одного адреса за окно
type RateLimiter struct {
	clock   clock.Clock
	janitor clock.Timer
	buckets map[string]*bucket
	logger  *slog.Logger
	rate    int
	window  time.Duration
	mu      sync.Mutex
	stopped bool
}

type bucket struct {
	windowStart time.Time
	used        int
}

// NewRateLimiter создает limiter на rate запросов за window.
// Неиспользуемые адреса вычищаются раз в два окна до вызова Stop.
func NewRateLimiter(rate int, window time.Duration, clk clock.Clock, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		clock:   clk,
		buckets: make(map[string]*bucket),
		logger:  logger,
		rate:    rate,
		window:  window,
	}

	rl.mu.Lock()
	rl.scheduleLocked()
	rl.mu.Unlock()
	return rl
}

// Allow расходует одну попытку для key
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.windowStart) >= rl.window {
		b = &bucket{windowStart: now}
		rl.buckets[key] = b
	}

	if b.used >= rl.rate {
		return false
	}
	b.used++
	return true
}

// Len возвращает количество отслеживаемых адресов
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Stop останавливает очистку
func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.stopped = true
	if rl.janitor != nil {
		rl.janitor.Stop()
		rl.janitor = nil
	}
}

func (rl *RateLimiter) scheduleLocked() {
	rl.janitor = rl.clock.AfterFunc(2*rl.window, func() {
		rl.mu.Lock()
		defer rl.mu.Unlock()

		now := rl.clock.Now()
		for key, b := range rl.buckets {
			if now.Sub(b.windowStart) > 2*rl.window {
				delete(rl.buckets, key)
			}
		}
		if !rl.stopped {
			rl.scheduleLocked()
		}
	})
}

// RateLimit отвечает 429, когда адрес исчерпал лимит
func RateLimit(limiter *RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				logger.Warn("rate limit exceeded", "ip", ip, "method", r.Method, "path", r.URL.Path)
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP учитывает X-Forwarded-For и X-Real-IP от обратного прокси
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
