package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vaultbot/internal/generator"
)

func TestRequired(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain value", input: "Mail", want: "Mail"},
		{name: "trimmed", input: "  Example \n", want: "Example"},
		{name: "inner spaces kept", input: "My Bank", want: "My Bank"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: " \t\n ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Required(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrEmpty)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionalURL(t *testing.T) {
	assert.Equal(t, "", OptionalURL(""))
	assert.Equal(t, "", OptionalURL("   "))
	assert.Equal(t, "https://example.com", OptionalURL(" https://example.com "))
}

func TestPasswordLength(t *testing.T) {
	tests := []struct {
		wantErr error
		input   string
		want    int
	}{
		{input: "4", want: 4},
		{input: "100", want: 100},
		{input: " 20 ", want: 20},
		{input: "3", wantErr: generator.ErrLengthOutOfRange},
		{input: "101", wantErr: generator.ErrLengthOutOfRange},
		{input: "-5", wantErr: generator.ErrLengthOutOfRange},
		{input: "abc", wantErr: ErrNotNumber},
		{input: "12.5", wantErr: ErrNotNumber},
		{input: "", wantErr: ErrNotNumber},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := PasswordLength(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsLinkable(t *testing.T) {
	assert.True(t, IsLinkable("https://mail.example.com/login"))
	assert.True(t, IsLinkable("http://example.com"))
	assert.False(t, IsLinkable(""))
	assert.False(t, IsLinkable("example.com"))
	assert.False(t, IsLinkable("ftp://example.com"))
	assert.False(t, IsLinkable("javascript:alert(1)"))
}
