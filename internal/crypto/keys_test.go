package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKDFParams - дешевые параметры, чтобы тесты не выделяли по 64MB
var testKDFParams = KDFParams{Time: 1, Memory: 1024, Threads: 1}

func TestGenerateSalt(t *testing.T) {
	salt1, err := GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, salt1, SaltSize)

	salt2, err := GenerateSalt()
	require.NoError(t, err)
	assert.NotEqual(t, salt1, salt2, "соли должны различаться")
}

func TestGenerateSaltBase64(t *testing.T) {
	saltBase64, err := GenerateSaltBase64()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(saltBase64)
	require.NoError(t, err)
	assert.Len(t, raw, SaltSize)
}

func TestDeriveKey(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	tests := []struct {
		name        string
		errMsg      string
		keyMaterial []byte
		salt        []byte
		params      KDFParams
		wantErr     bool
	}{
		{
			name:        "successful derivation",
			keyMaterial: []byte("operator-supplied key"),
			salt:        salt,
			params:      testKDFParams,
		},
		{
			name:        "single byte key material",
			keyMaterial: []byte("k"),
			salt:        salt,
			params:      testKDFParams,
		},
		{
			name:        "empty key material",
			keyMaterial: nil,
			salt:        salt,
			params:      testKDFParams,
			wantErr:     true,
			errMsg:      "key material cannot be empty",
		},
		{
			name:        "short salt",
			keyMaterial: []byte("key"),
			salt:        make([]byte, 8),
			params:      testKDFParams,
			wantErr:     true,
			errMsg:      "salt must be 32 bytes",
		},
		{
			name:        "zero params",
			keyMaterial: []byte("key"),
			salt:        salt,
			params:      KDFParams{},
			wantErr:     true,
			errMsg:      "argon2 params must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := DeriveKey(tt.keyMaterial, tt.salt, tt.params)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, KeySize)
		})
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	key1, err := DeriveKey([]byte("same"), salt, testKDFParams)
	require.NoError(t, err)
	key2, err := DeriveKey([]byte("same"), salt, testKDFParams)
	require.NoError(t, err)
	assert.Equal(t, key1, key2)

	other, err := DeriveKey([]byte("different"), salt, testKDFParams)
	require.NoError(t, err)
	assert.NotEqual(t, key1, other)
}

func TestDeriveKeyFromBase64Salt(t *testing.T) {
	saltBase64, err := GenerateSaltBase64()
	require.NoError(t, err)

	key, err := DeriveKeyFromBase64Salt([]byte("key"), saltBase64, testKDFParams)
	require.NoError(t, err)
	assert.Len(t, key, KeySize)

	_, err = DeriveKeyFromBase64Salt([]byte("key"), "%%%", testKDFParams)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode salt")
}
