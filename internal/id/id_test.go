package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVoucherNo(t *testing.T) {
	tests := []struct {
		year, month, seq int
		want             string
	}{
		{2025, 1, 1, "2025-01-001"},
		{2025, 12, 99, "2025-12-099"},
		{2025, 3, 123, "2025-03-123"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatVoucherNo(tt.year, tt.month, tt.seq))
	}
}

func TestParseVoucherNo(t *testing.T) {
	year, month, seq, err := ParseVoucherNo("2025-03-017")
	require.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, 3, month)
	assert.Equal(t, 17, seq)
}

func TestParseVoucherNo_Errors(t *testing.T) {
	badInputs := []string{
		"",
		"not-valid",
		"2025-01",
		"xxxx-01-001",
		"2025-13-001",
		"2025-01-abc",
	}
	for _, input := range badInputs {
		_, _, _, err := ParseVoucherNo(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}

func TestNew(t *testing.T) {
	a := New()
	b := New()
	assert.NotEqual(t, a, b)
	assert.True(t, Valid(a))
	assert.False(t, Valid("posting-1"))
}
