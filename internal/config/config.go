// Package config loads the bot configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iudanet/vaultbot/internal/backup"
	"github.com/iudanet/vaultbot/internal/crypto"
	"github.com/iudanet/vaultbot/internal/disclosure"
)

// Ошибки проверки конфигурации
var (
	ErrMissingToken     = errors.New("telegram token is required")
	ErrMissingUser      = errors.New("authorized user id is required")
	ErrMissingKey       = errors.New("encryption key is required")
	ErrMissingJWTSecret = errors.New("ops jwt secret is required when ops server is enabled")
	ErrInvalidTiming    = errors.New("invalid disclosure timing")
)

// Config - полная конфигурация бота
type Config struct {
	Telegram   TelegramConfig   `yaml:"telegram"`
	Storage    StorageConfig    `yaml:"storage"`
	Backup     BackupConfig     `yaml:"backup"`
	Ops        OpsConfig        `yaml:"ops"`
	Log        LogConfig        `yaml:"log"`
	Crypto     CryptoConfig     `yaml:"crypto"`
	Disclosure DisclosureConfig `yaml:"disclosure"`
	Session    SessionConfig    `yaml:"session"`
}

// TelegramConfig - подключение к Bot API
type TelegramConfig struct {
	Token string `yaml:"token"`
	// AuthorizedUserID - единственный пользователь, которому отвечает бот
	AuthorizedUserID int64 `yaml:"authorized_user_id"`
}

// StorageConfig - пути к файлам данных
type StorageConfig struct {
	// DBPath - база записей (sqlite)
	DBPath string `yaml:"db_path"`
	// StatePath - журнал показов и настройки генератора (bbolt)
	StatePath string `yaml:"state_path"`
}

// CryptoConfig - ключ шифрования и параметры argon2id
type CryptoConfig struct {
	EncryptionKey string           `yaml:"encryption_key"`
	KDF           crypto.KDFParams `yaml:"kdf"`
}

// DisclosureConfig - время жизни показанных паролей
type DisclosureConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	Interval   time.Duration `yaml:"interval"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// SessionConfig - вытеснение неактивных диалогов
type SessionConfig struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// BackupConfig - резервные копии базы
type BackupConfig struct {
	Dir        string `yaml:"dir"`
	Schedule   string `yaml:"schedule"`
	Passphrase string `yaml:"passphrase"`
	Keep       int    `yaml:"keep"`
	Enabled    bool   `yaml:"enabled"`
	Compress   bool   `yaml:"compress"`
}

// OpsConfig - служебный HTTP сервер. Пустой Addr отключает сервер.
type OpsConfig struct {
	Addr      string `yaml:"addr"`
	JWTSecret string `yaml:"jwt_secret"`
	// RateLimit - запросов в минуту с одного IP
	RateLimit int `yaml:"rate_limit"`
}

// LogConfig - уровень и формат логов
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	timing := disclosure.DefaultTiming()
	return &Config{
		Storage: StorageConfig{
			DBPath:    "vault.db",
			StatePath: "vault-state.db",
		},
		Crypto: CryptoConfig{
			KDF: crypto.DefaultKDFParams(),
		},
		Disclosure: DisclosureConfig{
			TTL:        timing.TTL,
			Interval:   timing.Interval,
			RetryDelay: timing.RetryDelay,
		},
		Session: SessionConfig{
			IdleTimeout:   30 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Backup: BackupConfig{
			Enabled:  true,
			Dir:      "backups",
			Schedule: backup.DefaultSchedule,
			Keep:     7,
			Compress: true,
		},
		Ops: OpsConfig{
			RateLimit: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load читает path поверх значений по умолчанию и применяет переменные
// окружения. Пустой path - только умолчания и окружение.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"BOT_TOKEN":         &c.Telegram.Token,
		"ENCRYPTION_KEY":    &c.Crypto.EncryptionKey,
		"DB_PATH":           &c.Storage.DBPath,
		"STATE_PATH":        &c.Storage.StatePath,
		"BACKUP_DIR":        &c.Backup.Dir,
		"BACKUP_PASSPHRASE": &c.Backup.Passphrase,
		"OPS_ADDR":          &c.Ops.Addr,
		"OPS_JWT_SECRET":    &c.Ops.JWTSecret,
		"LOG_LEVEL":         &c.Log.Level,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("AUTHORIZED_USER_ID"); ok && v != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid AUTHORIZED_USER_ID %q: %w", v, err)
		}
		c.Telegram.AuthorizedUserID = id
	}
	return nil
}

// Validate проверяет конфигурацию для запуска бота
func (c *Config) Validate() error {
	var errs []error

	if c.Telegram.Token == "" {
		errs = append(errs, ErrMissingToken)
	}
	if c.Telegram.AuthorizedUserID == 0 {
		errs = append(errs, ErrMissingUser)
	}
	if c.Crypto.EncryptionKey == "" {
		errs = append(errs, ErrMissingKey)
	}
	if err := c.Crypto.KDF.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Disclosure.TTL <= 0 || c.Disclosure.Interval < 0 || c.Disclosure.RetryDelay <= 0 {
		errs = append(errs, fmt.Errorf("%w: ttl=%s interval=%s retry=%s",
			ErrInvalidTiming, c.Disclosure.TTL, c.Disclosure.Interval, c.Disclosure.RetryDelay))
	}
	if c.Session.IdleTimeout <= 0 || c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("session idle timeout and sweep interval must be positive"))
	}
	if c.Backup.Enabled && c.Backup.Keep <= 0 {
		errs = append(errs, errors.New("backup keep must be positive"))
	}
	if c.Ops.Addr != "" && c.Ops.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Timing возвращает параметры показа паролей
func (c *Config) Timing() disclosure.Timing {
	return disclosure.Timing{
		TTL:        c.Disclosure.TTL,
		Interval:   c.Disclosure.Interval,
		RetryDelay: c.Disclosure.RetryDelay,
	}
}

// BackupOptions возвращает параметры резервного копирования
func (c *Config) BackupOptions() backup.Options {
	return backup.Options{
		Dir:        c.Backup.Dir,
		Keep:       c.Backup.Keep,
		Compress:   c.Backup.Compress,
		Passphrase: c.Backup.Passphrase,
	}
}

// LogLevel возвращает уровень логирования; неизвестное значение - Info
func (c *Config) LogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
