package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"golang.org/x/term"
)

var errNoTerminal = errors.New("stdin is not a terminal")

// readSecret возвращает value, если оно задано, иначе спрашивает без эха
func readSecret(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%w: set the value in config or environment", errNoTerminal)
	}

	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", prompt, err)
	}
	return string(secret), nil
}

// startSpinner показывает индикатор, пока выполняется долгая операция
func startSpinner(message string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	_ = s.Color("cyan")
	s.Start()
	return s
}

func success(format string, args ...any) string {
	return color.GreenString("✓ "+format, args...)
}
