// Package generator produces random passwords with a guaranteed character
// class composition.
package generator

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits    = "0123456789"
	symbols   = "!@#$%^&*()-_=+[]{};:,.<>?"
)

// Generate возвращает пароль длиной opts.Length. Строчные буквы используются
// всегда, каждый включенный класс встречается хотя бы один раз.
func Generate(opts Options) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	classes := []string{lowercase}
	if opts.Uppercase {
		classes = append(classes, uppercase)
	}
	if opts.Digits {
		classes = append(classes, digits)
	}
	if opts.Symbols {
		classes = append(classes, symbols)
	}

	var pool string
	for _, class := range classes {
		pool += class
	}

	result := make([]byte, 0, opts.Length)
	// По одному символу из каждого класса, остальное из общего пула
	for _, class := range classes {
		c, err := pick(class)
		if err != nil {
			return "", err
		}
		result = append(result, c)
	}
	for len(result) < opts.Length {
		c, err := pick(pool)
		if err != nil {
			return "", err
		}
		result = append(result, c)
	}

	if err := shuffle(result); err != nil {
		return "", err
	}
	return string(result), nil
}

// Satisfies проверяет, что пароль соответствует настройкам
func Satisfies(password string, opts Options) bool {
	if len(password) != opts.Length {
		return false
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for i := 0; i < len(password); i++ {
		c := password[i]
		switch {
		case contains(lowercase, c):
			hasLower = true
		case contains(uppercase, c):
			hasUpper = true
		case contains(digits, c):
			hasDigit = true
		case contains(symbols, c):
			hasSymbol = true
		default:
			return false
		}
	}

	return hasLower &&
		hasUpper == opts.Uppercase &&
		hasDigit == opts.Digits &&
		hasSymbol == opts.Symbols
}

func pick(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, fmt.Errorf("failed to read random: %w", err)
	}
	return alphabet[n.Int64()], nil
}

// shuffle - Fisher-Yates на crypto/rand
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("failed to read random: %w", err)
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}

func contains(alphabet string, c byte) bool {
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == c {
			return true
		}
	}
	return false
}
