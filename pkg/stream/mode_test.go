package stream

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		mode  string
		flags int
	}{
		{"r", os.O_RDONLY},
		{"rb", os.O_RDONLY},
		{"rt", os.O_RDONLY},
		{"r+", os.O_RDWR},
		{"r+b", os.O_RDWR},
		{"w", os.O_WRONLY | os.O_CREATE | os.O_TRUNC},
		{"wb", os.O_WRONLY | os.O_CREATE | os.O_TRUNC},
		{"w+", os.O_RDWR | os.O_CREATE | os.O_TRUNC},
		{"a", os.O_WRONLY | os.O_CREATE | os.O_APPEND},
		{"a+", os.O_RDWR | os.O_CREATE | os.O_APPEND},
		{"x", os.O_WRONLY | os.O_CREATE | os.O_EXCL},
		{"c+", os.O_RDWR | os.O_CREATE},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			got, err := ParseMode(tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.flags, got)
		})
	}
}

func TestParseMode_Invalid(t *testing.T) {
	for _, mode := range []string{"", "b", "q", "rw", "r++", "+"} {
		_, err := ParseMode(mode)
		assert.ErrorIs(t, err, ErrInvalidMode, "mode %q", mode)
	}
}

func TestIsReadOnlyMode(t *testing.T) {
	assert.True(t, IsReadOnlyMode("r"))
	assert.True(t, IsReadOnlyMode("rb"))
	assert.False(t, IsReadOnlyMode("r+"))
	assert.False(t, IsReadOnlyMode("w"))
	assert.False(t, IsReadOnlyMode("a"))
	assert.False(t, IsReadOnlyMode("bogus"))
}
