package crypto

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// Checksum вычисляет BLAKE3 от потока и возвращает hex-строку.
// Используется для контрольных сумм резервных копий.
func Checksum(r io.Reader) (string, error) {
	hasher := blake3.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", fmt.Errorf("failed to hash data: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// VerifyChecksum сверяет поток с ожидаемой hex-строкой
func VerifyChecksum(r io.Reader, expected string) error {
	if expected == "" {
		return fmt.Errorf("expected checksum cannot be empty")
	}

	actual, err := Checksum(r)
	if err != nil {
		return fmt.Errorf("failed to compute checksum: %w", err)
	}

	if actual != expected {
		return fmt.Errorf("checksum mismatch: got %s, want %s", actual, expected)
	}
	return nil
}
