package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/vaultbot/internal/backup"
	"github.com/iudanet/vaultbot/internal/bot"
	"github.com/iudanet/vaultbot/internal/clock"
	"github.com/iudanet/vaultbot/internal/config"
	"github.com/iudanet/vaultbot/internal/conversation"
	"github.com/iudanet/vaultbot/internal/disclosure"
	"github.com/iudanet/vaultbot/internal/scheduler"
	"github.com/iudanet/vaultbot/internal/server"
	"github.com/iudanet/vaultbot/internal/server/handlers"
	"github.com/iudanet/vaultbot/internal/session"
	"github.com/iudanet/vaultbot/internal/storage"
	"github.com/iudanet/vaultbot/internal/storage/boltdb"
	"github.com/iudanet/vaultbot/internal/storage/sqlite"
	"github.com/iudanet/vaultbot/internal/telegram"
)

const stopTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, cfg)
	},
}

// stats отдает счетчики для health check
type stats struct {
	disclosures *disclosure.Manager
	sessions    *session.Store
}

func (s stats) ActiveDisclosures() int { return s.disclosures.Active() }
func (s stats) ActiveSessions() int    { return s.sessions.Len() }

func newLogger(cfg *config.Config, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(ctx context.Context, cfg *config.Config) error {
	level := new(slog.LevelVar)
	level.Set(cfg.LogLevel())
	logger := newLogger(cfg, level)
	logger.Info("starting vaultbot", "version", Version, "commit", GitCommit)

	db, err := sqlite.New(ctx, cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close credential store", "error", err)
		}
	}()

	cipher, err := storage.OpenCipher(ctx, db, []byte(cfg.Crypto.EncryptionKey), cfg.Crypto.KDF)
	if err != nil {
		return fmt.Errorf("failed to open vault key: %w", err)
	}

	state, err := boltdb.New(ctx, cfg.Storage.StatePath)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer func() {
		if err := state.Close(); err != nil {
			logger.Error("failed to close state store", "error", err)
		}
	}()

	tg, err := telegram.New(cfg.Telegram.Token, logger)
	if err != nil {
		return err
	}

	clk := clock.Real()
	queue := scheduler.New(clk, logger)
	defer queue.Stop()

	disclosures := disclosure.NewManager(tg, queue, clk, logger,
		disclosure.WithJournal(state.Journal()),
		disclosure.WithTiming(cfg.Timing()),
	)
	if err := disclosures.Recover(ctx); err != nil {
		// Не критично: в худшем случае старые сообщения останутся в чате
		logger.Error("failed to recover disclosures", "error", err)
	}

	sessions := session.NewStore(clk, cfg.Session.IdleTimeout, logger, session.WithPreferences(state.Preferences()))
	sessions.Start(cfg.Session.SweepInterval)
	defer sessions.Stop()

	machine := conversation.New(conversation.Deps{
		Sessions:  sessions,
		Store:     db,
		Cipher:    cipher,
		Revealer:  disclosures,
		Messenger: tg,
		Clock:     clk,
	}, logger)

	var backups *backup.Service
	if cfg.Backup.Enabled {
		backups = backup.New(db, tg, cfg.BackupOptions(), clk, logger)
		sched, err := backup.NewScheduler(backups, cfg.Telegram.AuthorizedUserID, cfg.Backup.Schedule, logger)
		if err != nil {
			return fmt.Errorf("failed to schedule backups: %w", err)
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	deps := bot.Deps{Dialog: machine, Transport: tg, Disclosures: disclosures, Clock: clk}
	if backups != nil {
		deps.Backups = backups
	}
	router := bot.New(bot.Config{AuthorizedUserID: cfg.Telegram.AuthorizedUserID}, deps, logger)

	var wg sync.WaitGroup

	if configPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := config.Watch(ctx, configPath, logger, func(next *config.Config) {
				disclosures.SetTiming(next.Timing())
				level.Set(next.LogLevel())
				logger.Info("config reloaded", "ttl", next.Disclosure.TTL, "log_level", next.Log.Level)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("config watcher stopped", "error", err)
			}
		}()
	}

	if cfg.Ops.Addr != "" {
		srvDeps := server.Deps{
			DB:    db,
			Stats: stats{disclosures: disclosures, sessions: sessions},
			Clock: clk,
		}
		if backups != nil {
			srvDeps.Backups = backups
		}
		srv := server.New(server.Config{
			Addr:      cfg.Ops.Addr,
			Version:   Version,
			Token:     handlers.TokenConfig{Secret: []byte(cfg.Ops.JWTSecret)},
			ChatID:    cfg.Telegram.AuthorizedUserID,
			RateLimit: cfg.Ops.RateLimit,
		}, srvDeps, logger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				logger.Error("ops server failed", "error", err)
			}
		}()
	}

	logger.Info("bot started", "authorized_user_id", cfg.Telegram.AuthorizedUserID)
	router.Run(ctx, tg.Updates(ctx))

	wg.Wait()
	logger.Info("bot stopped")
	return nil
}
