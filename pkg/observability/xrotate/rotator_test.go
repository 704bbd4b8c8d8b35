package xrotate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLumberjack_Validation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.log")

	tests := []struct {
		name string
		file string
		opts []Option
		want error
	}{
		{"empty_filename", "", nil, ErrEmptyFilename},
		{"zero_size", file, []Option{WithMaxSize(0)}, ErrInvalidMaxSize},
		{"huge_size", file, []Option{WithMaxSize(maxSizeMB + 1)}, ErrInvalidMaxSize},
		{"negative_backups", file, []Option{WithMaxBackups(-1)}, ErrInvalidMaxBackups},
		{"negative_age", file, []Option{WithMaxAge(-1)}, ErrInvalidMaxAge},
		{"no_cleanup", file, []Option{WithMaxBackups(0), WithMaxAge(0)}, ErrNoCleanupPolicy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewLumberjack(tt.file, tt.opts...)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, r)
		})
	}
}

func TestLumberjack_WriteRotateClose(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	file := filepath.Join(dir, "bench.log")

	r, err := NewLumberjack(file, nil, WithMaxSize(1), WithMaxBackups(2), WithCompress(false), WithLocalTime(true))
	require.NoError(t, err)

	n, err := r.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	require.NoError(t, r.Rotate())
	_, err = r.Write([]byte("after rotate\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "after rotate\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var backups int
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "bench-") {
			backups++
		}
	}
	assert.Equal(t, 1, backups)

	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Close(), ErrClosed)
	_, err = r.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Rotate(), ErrClosed)
}
