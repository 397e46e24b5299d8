package generator

import (
	"errors"
	"fmt"
)

// Допустимые границы длины пароля
const (
	MinLength     = 4
	MaxLength     = 100
	DefaultLength = 12
)

// ErrLengthOutOfRange возвращается при длине вне [MinLength, MaxLength]
var ErrLengthOutOfRange = errors.New("password length out of range")

// Options - настройки генератора. Значение неизменяемое:
// методы With*/Toggle* возвращают новую копию.
type Options struct {
	Length    int  `json:"length"`
	Uppercase bool `json:"uppercase"`
	Digits    bool `json:"digits"`
	Symbols   bool `json:"symbols"`
}

// DefaultOptions возвращает настройки по умолчанию
func DefaultOptions() Options {
	return Options{
		Length:    DefaultLength,
		Uppercase: true,
		Digits:    true,
		Symbols:   true,
	}
}

// Validate проверяет границы длины
func (o Options) Validate() error {
	return ValidateLength(o.Length)
}

// ValidateLength проверяет, что n лежит в [MinLength, MaxLength]
func ValidateLength(n int) error {
	if n < MinLength || n > MaxLength {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrLengthOutOfRange, n, MinLength, MaxLength)
	}
	return nil
}

// WithLength возвращает копию с новой длиной
func (o Options) WithLength(n int) (Options, error) {
	if err := ValidateLength(n); err != nil {
		return o, err
	}
	o.Length = n
	return o, nil
}

// ToggleUppercase возвращает копию с инвертированным флагом заглавных букв
func (o Options) ToggleUppercase() Options {
	o.Uppercase = !o.Uppercase
	return o
}

// ToggleDigits возвращает копию с инвертированным флагом цифр
func (o Options) ToggleDigits() Options {
	o.Digits = !o.Digits
	return o
}

// ToggleSymbols возвращает копию с инвертированным флагом спецсимволов
func (o Options) ToggleSymbols() Options {
	o.Symbols = !o.Symbols
	return o
}
