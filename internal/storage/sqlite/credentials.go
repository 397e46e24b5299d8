package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/vaultbot/internal/models"
	"github.com/iudanet/vaultbot/internal/storage"
)

const credentialColumns = `id, category, service, login, encrypted_secret, url, created_at, updated_at`

// CreateCredential сохраняет новую запись. Пустой ID заполняется UUID,
// нулевые отметки времени - текущим временем.
func (s *Storage) CreateCredential(ctx context.Context, c *models.Credential) error {
	if err := checkCredential(c); err != nil {
		return err
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}

	query := `
		INSERT INTO credentials (` + credentialColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID,
		c.Category,
		c.Service,
		c.Login,
		c.EncryptedSecret,
		c.URL,
		c.CreatedAt.Unix(),
		c.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}

	return nil
}

// UpdateCredential перезаписывает поля существующей записи
func (s *Storage) UpdateCredential(ctx context.Context, c *models.Credential) error {
	if err := checkCredential(c); err != nil {
		return err
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}

	query := `
		UPDATE credentials
		SET category = ?, service = ?, login = ?, encrypted_secret = ?, url = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		c.Category,
		c.Service,
		c.Login,
		c.EncryptedSecret,
		c.URL,
		c.UpdatedAt.Unix(),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrCredentialNotFound
	}

	return nil
}

// GetCredential возвращает запись по ID
func (s *Storage) GetCredential(ctx context.Context, id string) (*models.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE id = ?`

	c, err := scanCredential(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return c, nil
}

// ListCategories возвращает различные категории в алфавитном порядке
func (s *Storage) ListCategories(ctx context.Context) (categories []string, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM credentials ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return categories, nil
}

// ListByCategory возвращает записи категории, отсортированные по сервису
func (s *Storage) ListByCategory(ctx context.Context, category string) (credentials []*models.Credential, err error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE category = ?
		ORDER BY service, login
	`

	rows, err := s.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		credentials = append(credentials, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return credentials, nil
}

// DeleteCredential удаляет запись
func (s *Storage) DeleteCredential(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrCredentialNotFound
	}

	return nil
}

// CountCredentials возвращает общее количество записей
func (s *Storage) CountCredentials(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM credentials`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count credentials: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*models.Credential, error) {
	c := &models.Credential{}
	var createdAt, updatedAt int64

	err := row.Scan(
		&c.ID,
		&c.Category,
		&c.Service,
		&c.Login,
		&c.EncryptedSecret,
		&c.URL,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.CreatedAt = unixToTime(createdAt)
	c.UpdatedAt = unixToTime(updatedAt)
	return c, nil
}

func checkCredential(c *models.Credential) error {
	switch {
	case c == nil:
		return fmt.Errorf("%w: nil credential", storage.ErrInvalidCredential)
	case strings.TrimSpace(c.Category) == "":
		return fmt.Errorf("%w: empty category", storage.ErrInvalidCredential)
	case strings.TrimSpace(c.Service) == "":
		return fmt.Errorf("%w: empty service", storage.ErrInvalidCredential)
	case strings.TrimSpace(c.Login) == "":
		return fmt.Errorf("%w: empty login", storage.ErrInvalidCredential)
	case c.EncryptedSecret == "":
		return fmt.Errorf("%w: empty secret", storage.ErrInvalidCredential)
	}
	return nil
}

func unixToTime(timestamp int64) time.Time {
	return time.Unix(timestamp, 0).UTC()
}
