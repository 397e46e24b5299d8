package storage

import (
	"context"

	"github.com/iudanet/vaultbot/internal/models"
)

// Ключи служебной таблицы хранилища
const (
	MetaKDFSalt   = "kdf_salt"
	MetaKeyCanary = "key_canary"
)

// CredentialStorage хранит записи с зашифрованными паролями
//
//go:generate moq -out credentialstorage_mock.go . CredentialStorage
type CredentialStorage interface {
	// CreateCredential сохраняет новую запись. Пустой ID заполняется UUID.
	CreateCredential(ctx context.Context, c *models.Credential) error

	// UpdateCredential перезаписывает поля существующей записи.
	// Returns ErrCredentialNotFound if credential doesn't exist
	UpdateCredential(ctx context.Context, c *models.Credential) error

	// GetCredential возвращает запись по ID.
	// Returns ErrCredentialNotFound if credential doesn't exist
	GetCredential(ctx context.Context, id string) (*models.Credential, error)

	// ListCategories возвращает различные категории в алфавитном порядке
	ListCategories(ctx context.Context) ([]string, error)

	// ListByCategory возвращает записи категории, отсортированные по сервису
	ListByCategory(ctx context.Context, category string) ([]*models.Credential, error)

	// DeleteCredential удаляет запись.
	// Returns ErrCredentialNotFound if credential doesn't exist
	DeleteCredential(ctx context.Context, id string) error
}

// MetaStorage хранит служебные значения хранилища (соль KDF, проверочный шифротекст)
type MetaStorage interface {
	// GetMeta returns ErrMetaNotFound if key is not set
	GetMeta(ctx context.Context, key string) (string, error)
	SetMeta(ctx context.Context, key, value string) error
}
