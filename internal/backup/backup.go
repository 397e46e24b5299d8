// Package backup makes encrypted, checksummed snapshots of the credential
// database and delivers them to the operator.
package backup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"filippo.io/age"
	"github.com/klauspost/compress/zstd"

	"github.com/iudanet/vaultbot/internal/clock"
	"github.com/iudanet/vaultbot/internal/crypto"
	"github.com/iudanet/vaultbot/internal/messaging"
)

const (
	filePrefix   = "vault-"
	timeLayout   = "20060102-150405"
	extDB        = ".db"
	extZstd      = ".zst"
	extAge       = ".age"
	extChecksum  = ".b3"
	defaultKeep  = 7
	checksumSize = 16
)

var (
	// ErrNoPassphrase - архив зашифрован, а пароль не задан
	ErrNoPassphrase = errors.New("backup is encrypted but no passphrase given")
	// ErrChecksumMissing - рядом с архивом нет файла контрольной суммы
	ErrChecksumMissing = errors.New("backup checksum file not found")
)

// Snapshotter пишет согласованную копию базы в новый файл
type Snapshotter interface {
	Snapshot(ctx context.Context, path string) error
}

// Options - параметры резервного копирования
type Options struct {
	Dir string
	// Passphrase включает шифрование age (scrypt). Пустая строка - без шифрования.
	Passphrase string
	Keep       int
	// WorkFactor - log2 параметра scrypt; 0 - значение age по умолчанию
	WorkFactor int
	Compress   bool
}

// Archive - созданная резервная копия
type Archive struct {
	CreatedAt time.Time
	Path      string
	Checksum  string
	Size      int64
}

// Service создает, отправляет и ротирует резервные копии
type Service struct {
	db     Snapshotter
	sender messaging.DocumentSender
	clock  clock.Clock
	logger *slog.Logger
	opts   Options
}

// New создает Service. sender может быть nil, если копии не отправляются.
func New(db Snapshotter, sender messaging.DocumentSender, opts Options, clk clock.Clock, logger *slog.Logger) *Service {
	if opts.Keep <= 0 {
		opts.Keep = defaultKeep
	}
	return &Service{db: db, sender: sender, clock: clk, logger: logger, opts: opts}
}

// Create снимает копию базы, при необходимости сжимает и шифрует ее и
// записывает рядом файл с BLAKE3
func (s *Service) Create(ctx context.Context) (*Archive, error) {
	if err := os.MkdirAll(s.opts.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create backup dir: %w", err)
	}

	now := s.clock.Now().UTC()
	raw := filepath.Join(s.opts.Dir, filePrefix+now.Format(timeLayout)+extDB)
	if err := s.db.Snapshot(ctx, raw); err != nil {
		return nil, fmt.Errorf("failed to snapshot database: %w", err)
	}

	path := raw + s.suffix()
	if path != raw {
		err := s.seal(raw, path)
		if rmErr := os.Remove(raw); rmErr != nil {
			s.logger.Warn("failed to remove raw snapshot", "path", raw, "error", rmErr)
		}
		if err != nil {
			_ = os.Remove(path)
			return nil, err
		}
	}

	sum, size, err := fileChecksum(path)
	if err != nil {
		return nil, err
	}
	line := fmt.Sprintf("%s  %s\n", sum, filepath.Base(path))
	if err := os.WriteFile(path+extChecksum, []byte(line), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write checksum: %w", err)
	}

	s.logger.Info("backup created", "path", path, "size", size, "encrypted", s.opts.Passphrase != "")
	return &Archive{CreatedAt: now, Path: path, Checksum: sum, Size: size}, nil
}

// Send создает копию, отправляет ее в чат и удаляет старые копии
func (s *Service) Send(ctx context.Context, chatID int64) error {
	archive, err := s.Create(ctx)
	if err != nil {
		return err
	}

	if s.sender != nil {
		caption := fmt.Sprintf("🗄 Резервная копия от %s\nBLAKE3: %s…",
			archive.CreatedAt.Format("2006-01-02 15:04"), archive.Checksum[:checksumSize])
		if err := s.sender.SendDocument(ctx, chatID, archive.Path, caption); err != nil {
			return fmt.Errorf("failed to deliver backup: %w", err)
		}
	}

	if _, err := s.Prune(); err != nil {
		s.logger.Warn("failed to prune backups", "error", err)
	}
	return nil
}

// Prune оставляет Keep последних копий и возвращает число удаленных
func (s *Service) Prune() (int, error) {
	archives, err := s.List()
	if err != nil {
		return 0, err
	}
	if len(archives) <= s.opts.Keep {
		return 0, nil
	}

	removed := 0
	for _, path := range archives[:len(archives)-s.opts.Keep] {
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove backup: %w", err)
		}
		if err := os.Remove(path + extChecksum); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to remove checksum file", "path", path, "error", err)
		}
		removed++
	}
	s.logger.Info("old backups pruned", "removed", removed, "kept", s.opts.Keep)
	return removed, nil
}

// List возвращает пути копий от старых к новым
func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.opts.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup dir: %w", err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || strings.HasSuffix(name, extChecksum) {
			continue
		}
		out = append(out, filepath.Join(s.opts.Dir, name))
	}
	// Имена содержат время создания, поэтому сортировка по имени хронологическая
	sort.Strings(out)
	return out, nil
}

func (s *Service) suffix() string {
	var suffix string
	if s.opts.Compress {
		suffix += extZstd
	}
	if s.opts.Passphrase != "" {
		suffix += extAge
	}
	return suffix
}

// seal пишет src в dst через zstd и age
func (s *Service) seal(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close backup file: %w", cerr)
		}
	}()

	var w io.Writer = out
	var stack []io.Closer

	if s.opts.Passphrase != "" {
		recipient, err := age.NewScryptRecipient(s.opts.Passphrase)
		if err != nil {
			return fmt.Errorf("failed to create age recipient: %w", err)
		}
		if s.opts.WorkFactor > 0 {
			recipient.SetWorkFactor(s.opts.WorkFactor)
		}
		enc, err := age.Encrypt(w, recipient)
		if err != nil {
			return fmt.Errorf("failed to start encryption: %w", err)
		}
		w = enc
		stack = append(stack, enc)
	}

	if s.opts.Compress {
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("failed to start compression: %w", err)
		}
		w = zw
		stack = append(stack, zw)
	}

	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	// Сначала закрывается внешний слой: zstd дописывает кадр в age
	for i := len(stack) - 1; i >= 0; i-- {
		if err := stack[i].Close(); err != nil {
			return fmt.Errorf("failed to finish backup: %w", err)
		}
	}
	return nil
}

// Open возвращает содержимое базы из копии, снимая шифрование и сжатие
// по расширениям файла
func Open(path, passphrase string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup: %w", err)
	}

	var r io.Reader = bufio.NewReader(f)
	name := path

	if strings.HasSuffix(name, extAge) {
		if passphrase == "" {
			f.Close()
			return nil, ErrNoPassphrase
		}
		identity, err := age.NewScryptIdentity(passphrase)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create age identity: %w", err)
		}
		r, err = age.Decrypt(r, identity)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to decrypt backup: %w", err)
		}
		name = strings.TrimSuffix(name, extAge)
	}

	if strings.HasSuffix(name, extZstd) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to start decompression: %w", err)
		}
		return &archiveReader{Reader: dec, close: func() error {
			dec.Close()
			return f.Close()
		}}, nil
	}

	return &archiveReader{Reader: r, close: f.Close}, nil
}

// Verify сверяет копию с файлом контрольной суммы
func Verify(path string) error {
	line, err := os.ReadFile(path + extChecksum)
	if errors.Is(err, os.ErrNotExist) {
		return ErrChecksumMissing
	}
	if err != nil {
		return fmt.Errorf("failed to read checksum: %w", err)
	}
	expected, _, _ := strings.Cut(strings.TrimSpace(string(line)), " ")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()
	return crypto.VerifyChecksum(f, expected)
}

type archiveReader struct {
	io.Reader
	close func() error
}

func (r *archiveReader) Close() error {
	return r.close()
}

func fileChecksum(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat backup: %w", err)
	}
	sum, err := crypto.Checksum(f)
	if err != nil {
		return "", 0, err
	}
	return sum, info.Size(), nil
}
