package crypto

import (
	"errors"
	"fmt"
)

// canaryPlaintext шифруется при создании хранилища и проверяется при старте,
// чтобы неверный ключ обнаруживался сразу, а не при первом просмотре записи.
const canaryPlaintext = "vaultbot-key-check"

// SecretCipher шифрует строковые секреты ключом, полученным из материала оператора.
// Безопасен для конкурентного использования: состояние после создания не меняется.
type SecretCipher struct {
	key []byte
}

// NewSecretCipher создает SecretCipher из произвольного непустого ключевого материала
func NewSecretCipher(keyMaterial, salt []byte, params KDFParams) (*SecretCipher, error) {
	key, err := DeriveKey(keyMaterial, salt, params)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return &SecretCipher{key: key}, nil
}

// NewSecretCipherFromKey создает SecretCipher из готового 32-байтного ключа
func NewSecretCipherFromKey(key []byte) (*SecretCipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	k := make([]byte, KeySize)
	copy(k, key)
	return &SecretCipher{key: k}, nil
}

// Encrypt возвращает Base64 шифротекст. Каждый вызов использует свежий nonce,
// поэтому одинаковые входы дают разные результаты.
func (c *SecretCipher) Encrypt(plaintext string) (string, error) {
	return EncryptToBase64([]byte(plaintext), c.key)
}

// Decrypt возвращает исходную строку или ошибку, оборачивающую ErrDecryption
func (c *SecretCipher) Decrypt(ciphertext string) (string, error) {
	plaintext, err := DecryptFromBase64(ciphertext, c.key)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// NewCanary шифрует контрольную строку для последующей проверки ключа
func (c *SecretCipher) NewCanary() (string, error) {
	return c.Encrypt(canaryPlaintext)
}

// VerifyCanary проверяет, что canary был создан тем же ключом
func (c *SecretCipher) VerifyCanary(canary string) error {
	plaintext, err := c.Decrypt(canary)
	if err != nil {
		return err
	}
	if plaintext != canaryPlaintext {
		return errors.Join(ErrDecryption, fmt.Errorf("unexpected canary content"))
	}
	return nil
}
