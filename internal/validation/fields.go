package validation

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/iudanet/vaultbot/internal/generator"
)

var (
	// ErrEmpty возвращается для обязательного поля, пустого после trim
	ErrEmpty = errors.New("value cannot be empty")
	// ErrNotNumber возвращается, если длина пароля не является целым числом
	ErrNotNumber = errors.New("value is not an integer")
)

// Required возвращает значение без пробелов по краям
// или ErrEmpty, если после trim ничего не осталось
func Required(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ErrEmpty
	}
	return trimmed, nil
}

// OptionalURL принимает любое значение, включая пустое
func OptionalURL(value string) string {
	return strings.TrimSpace(value)
}

// PasswordLength разбирает длину пароля из текста.
// Допустимы только целые числа в [generator.MinLength, generator.MaxLength].
func PasswordLength(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, text)
	}
	if err := generator.ValidateLength(n); err != nil {
		return 0, err
	}
	return n, nil
}

// IsLinkable сообщает, можно ли показать URL как кнопку-ссылку
func IsLinkable(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
