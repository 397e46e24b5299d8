package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id по умолчанию
const (
	// Argon2Time - количество итераций (time cost)
	Argon2Time = 1
	// Argon2Memory - объем памяти в KB (64MB = 64*1024 KB)
	Argon2Memory = 64 * 1024
	// Argon2Threads - количество параллельных потоков
	Argon2Threads = 4
	// SaltSize - размер соли в байтах
	SaltSize = 32
)

// KDFParams задает стоимость Argon2id
type KDFParams struct {
	Time    uint32 `yaml:"time"`
	Memory  uint32 `yaml:"memory_kb"`
	Threads uint8  `yaml:"threads"`
}

// DefaultKDFParams возвращает параметры для production
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Time:    Argon2Time,
		Memory:  Argon2Memory,
		Threads: Argon2Threads,
	}
}

// Validate проверяет, что параметры не нулевые
func (p KDFParams) Validate() error {
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 {
		return fmt.Errorf("argon2 params must be positive: time=%d memory=%d threads=%d", p.Time, p.Memory, p.Threads)
	}
	return nil
}

// GenerateSalt генерирует криптографически случайную соль
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateSaltBase64 генерирует соль и возвращает ее в Base64
func GenerateSaltBase64() (string, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// DeriveKey получает 32-байтный ключ шифрования из ключевого материала оператора.
// Ключевой материал непрозрачен: допускается любая непустая строка.
func DeriveKey(keyMaterial, salt []byte, params KDFParams) ([]byte, error) {
	if len(keyMaterial) == 0 {
		return nil, fmt.Errorf("key material cannot be empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return argon2.IDKey(keyMaterial, salt, params.Time, params.Memory, params.Threads, KeySize), nil
}

// DeriveKeyFromBase64Salt получает ключ из Base64-кодированной соли
func DeriveKeyFromBase64Salt(keyMaterial []byte, saltBase64 string, params KDFParams) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(saltBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	return DeriveKey(keyMaterial, salt, params)
}
