package crypto

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	sum1, err := Checksum(strings.NewReader("backup contents"))
	require.NoError(t, err)
	assert.Len(t, sum1, 64, "BLAKE3 по умолчанию дает 32 байта")

	sum2, err := Checksum(strings.NewReader("backup contents"))
	require.NoError(t, err)
	assert.Equal(t, sum1, sum2)

	other, err := Checksum(strings.NewReader("backup contents!"))
	require.NoError(t, err)
	assert.NotEqual(t, sum1, other)
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte("some database bytes")
	sum, err := Checksum(bytes.NewReader(data))
	require.NoError(t, err)

	tests := []struct {
		name     string
		expected string
		errMsg   string
		wantErr  bool
	}{
		{name: "match", expected: sum},
		{name: "mismatch", expected: strings.Repeat("0", 64), wantErr: true, errMsg: "checksum mismatch"},
		{name: "empty expected", expected: "", wantErr: true, errMsg: "cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyChecksum(bytes.NewReader(data), tt.expected)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}
