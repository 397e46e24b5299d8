package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vaultbot/internal/server/handlers"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    dev")
	assert.Contains(t, out, "Git Commit: unknown")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("OPS_JWT_SECRET", "cli-secret")

	out, err := execute(t, "token", "--subject", "cron", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := handlers.ValidateToken(handlers.TokenConfig{Secret: []byte("cli-secret")}, trim(out))
	require.NoError(t, err)
	assert.Equal(t, "cron", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenCommand_NoSecret(t *testing.T) {
	t.Setenv("OPS_JWT_SECRET", "")
	_, err := execute(t, "token")
	assert.Error(t, err)
}

func TestDecryptCommand_UninitializedVault(t *testing.T) {
	t.Setenv("DB_PATH", t.TempDir()+"/vault.db")
	t.Setenv("ENCRYPTION_KEY", "k")

	_, err := execute(t, "decrypt", "abc")
	assert.ErrorIs(t, err, errVaultNotInitialized)
}

func trim(s string) string {
	return string(bytes.TrimSpace([]byte(s)))
}
