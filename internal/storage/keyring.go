package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/vaultbot/internal/crypto"
)

// ErrWrongKey - ключевой материал не совпадает с тем, которым создано хранилище
var ErrWrongKey = errors.New("encryption key does not match vault")

// OpenCipher создает SecretCipher для хранилища. При первом запуске генерирует
// соль и контрольный шифротекст, при последующих проверяет ключ по нему.
func OpenCipher(ctx context.Context, meta MetaStorage, keyMaterial []byte, params crypto.KDFParams) (*crypto.SecretCipher, error) {
	salt, err := meta.GetMeta(ctx, MetaKDFSalt)
	if errors.Is(err, ErrMetaNotFound) {
		if salt, err = crypto.GenerateSaltBase64(); err != nil {
			return nil, err
		}
		if err := meta.SetMeta(ctx, MetaKDFSalt, salt); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	key, err := crypto.DeriveKeyFromBase64Salt(keyMaterial, salt, params)
	if err != nil {
		return nil, fmt.Errorf("failed to derive vault key: %w", err)
	}
	cipher, err := crypto.NewSecretCipherFromKey(key)
	if err != nil {
		return nil, err
	}

	canary, err := meta.GetMeta(ctx, MetaKeyCanary)
	switch {
	case errors.Is(err, ErrMetaNotFound):
		canary, err = cipher.NewCanary()
		if err != nil {
			return nil, fmt.Errorf("failed to create key canary: %w", err)
		}
		if err := meta.SetMeta(ctx, MetaKeyCanary, canary); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := cipher.VerifyCanary(canary); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWrongKey, err)
		}
	}

	return cipher, nil
}
