package sqlite

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vaultbot/internal/storage"
)

func setupMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Storage{db: db}, mock
}

func TestCredentials_DriverErrors(t *testing.T) {
	ctx := context.Background()
	errDriver := errors.New("database is locked")

	t.Run("insert", func(t *testing.T) {
		s, mock := setupMockStorage(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO credentials")).WillReturnError(errDriver)

		err := s.CreateCredential(ctx, newCredential("Mail", "Example", "user1"))
		assert.ErrorIs(t, err, errDriver)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update rows affected", func(t *testing.T) {
		s, mock := setupMockStorage(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE credentials")).
			WillReturnResult(sqlmock.NewErrorResult(errDriver))

		c := newCredential("Mail", "Example", "user1")
		c.ID = "id-1"
		err := s.UpdateCredential(ctx, c)
		assert.ErrorIs(t, err, errDriver)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get", func(t *testing.T) {
		s, mock := setupMockStorage(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, category")).
			WithArgs("id-1").
			WillReturnError(errDriver)

		_, err := s.GetCredential(ctx, "id-1")
		assert.ErrorIs(t, err, errDriver)
		assert.NotErrorIs(t, err, storage.ErrCredentialNotFound)
	})

	t.Run("list categories scan", func(t *testing.T) {
		s, mock := setupMockStorage(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT category")).
			WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("Mail").RowError(0, errDriver))

		_, err := s.ListCategories(ctx)
		assert.Error(t, err)
	})

	t.Run("list by category", func(t *testing.T) {
		s, mock := setupMockStorage(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM credentials")).
			WithArgs("Mail").
			WillReturnError(errDriver)

		_, err := s.ListByCategory(ctx, "Mail")
		assert.ErrorIs(t, err, errDriver)
	})

	t.Run("delete", func(t *testing.T) {
		s, mock := setupMockStorage(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM credentials")).
			WithArgs("id-1").
			WillReturnError(errDriver)

		assert.ErrorIs(t, s.DeleteCredential(ctx, "id-1"), errDriver)
	})

	t.Run("meta", func(t *testing.T) {
		s, mock := setupMockStorage(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM vault_meta")).
			WithArgs(storage.MetaKDFSalt).
			WillReturnError(errDriver)

		_, err := s.GetMeta(ctx, storage.MetaKDFSalt)
		assert.ErrorIs(t, err, errDriver)
		assert.NotErrorIs(t, err, storage.ErrMetaNotFound)
	})
}
