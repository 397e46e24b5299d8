package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vaultbot/internal/crypto"
)

var testKDFParams = crypto.KDFParams{Time: 1, Memory: 1024, Threads: 1}

type memoryMeta struct {
	values map[string]string
	getErr error
}

func newMemoryMeta() *memoryMeta {
	return &memoryMeta{values: make(map[string]string)}
}

func (m *memoryMeta) GetMeta(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", ErrMetaNotFound
	}
	return v, nil
}

func (m *memoryMeta) SetMeta(_ context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

func TestOpenCipher_FirstRunInitializesVault(t *testing.T) {
	ctx := context.Background()
	meta := newMemoryMeta()

	cipher, err := OpenCipher(ctx, meta, []byte("operator key"), testKDFParams)
	require.NoError(t, err)

	assert.NotEmpty(t, meta.values[MetaKDFSalt])
	assert.NotEmpty(t, meta.values[MetaKeyCanary])
	require.NoError(t, cipher.VerifyCanary(meta.values[MetaKeyCanary]))
}

func TestOpenCipher_ReopenWithSameKey(t *testing.T) {
	ctx := context.Background()
	meta := newMemoryMeta()

	first, err := OpenCipher(ctx, meta, []byte("operator key"), testKDFParams)
	require.NoError(t, err)
	ciphertext, err := first.Encrypt("Sup3r$ecret")
	require.NoError(t, err)

	second, err := OpenCipher(ctx, meta, []byte("operator key"), testKDFParams)
	require.NoError(t, err)
	plaintext, err := second.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "Sup3r$ecret", plaintext)
}

func TestOpenCipher_WrongKey(t *testing.T) {
	ctx := context.Background()
	meta := newMemoryMeta()

	_, err := OpenCipher(ctx, meta, []byte("operator key"), testKDFParams)
	require.NoError(t, err)

	_, err = OpenCipher(ctx, meta, []byte("another key"), testKDFParams)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrongKey)
	assert.ErrorIs(t, err, crypto.ErrDecryption)
}

func TestOpenCipher_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty key material", func(t *testing.T) {
		_, err := OpenCipher(ctx, newMemoryMeta(), nil, testKDFParams)
		assert.Error(t, err)
	})

	t.Run("meta read failure", func(t *testing.T) {
		meta := newMemoryMeta()
		meta.getErr = errors.New("disk I/O error")
		_, err := OpenCipher(ctx, meta, []byte("k"), testKDFParams)
		assert.ErrorIs(t, err, meta.getErr)
	})

	t.Run("corrupted salt", func(t *testing.T) {
		meta := newMemoryMeta()
		meta.values[MetaKDFSalt] = "%%%"
		_, err := OpenCipher(ctx, meta, []byte("k"), testKDFParams)
		assert.Error(t, err)
	})

	t.Run("missing canary is recreated", func(t *testing.T) {
		meta := newMemoryMeta()
		_, err := OpenCipher(ctx, meta, []byte("k"), testKDFParams)
		require.NoError(t, err)
		delete(meta.values, MetaKeyCanary)

		_, err = OpenCipher(ctx, meta, []byte("k"), testKDFParams)
		require.NoError(t, err)
		assert.NotEmpty(t, meta.values[MetaKeyCanary])
	})
}
