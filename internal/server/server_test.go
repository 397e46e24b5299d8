package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vaultbot/internal/clock"
	"github.com/iudanet/vaultbot/internal/server/handlers"
)

type okDB struct{}

func (okDB) Ping(context.Context) error { return nil }

type countingBackups struct{ calls int }

func (b *countingBackups) Send(context.Context, int64) error {
	b.calls++
	return nil
}

func newTestServer(t *testing.T, backups handlers.BackupSender) (*Server, handlers.TokenConfig) {
	t.Helper()
	token := handlers.TokenConfig{Secret: []byte("ops-secret"), TTL: time.Hour}
	srv := New(Config{Addr: "127.0.0.1:0", Version: "test", Token: token, ChatID: 1, RateLimit: 100},
		Deps{DB: okDB{}, Backups: backups, Clock: clock.Real()},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(srv.limiter.Stop)
	return srv, token
}

func TestServer_Routes(t *testing.T) {
	backups := &countingBackups{}
	srv, token := newTestServer(t, backups)

	signed, err := handlers.IssueToken(token, "operator", time.Now())
	require.NoError(t, err)

	tests := []struct {
		name       string
		method     string
		path       string
		auth       string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK},
		{name: "backup without token", method: http.MethodPost, path: "/api/v1/backup", wantStatus: http.StatusUnauthorized},
		{name: "backup with token", method: http.MethodPost, path: "/api/v1/backup", auth: "Bearer " + signed, wantStatus: http.StatusOK},
		{name: "backup wrong method", method: http.MethodGet, path: "/api/v1/backup", auth: "Bearer " + signed, wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown path", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
	assert.Equal(t, 1, backups.calls)
}

func TestServer_NoBackupRouteWithoutSender(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/backup", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
