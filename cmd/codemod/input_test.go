package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "src/main.hack", sourceName("src/main.hack.json"))
	assert.Equal(t, "src/main.hack", sourceName("src/main.hack.json.lz4"))
	assert.Equal(t, "main.hack", sourceName("main.hack"))
	assert.Equal(t, "stdin", sourceName("-"))
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "src/main.hack", outputPath("src/main.hack.json", ""))
	assert.Equal(t, filepath.Join("out", "main.hack"), outputPath("src/main.hack.json.lz4", "out"))
}

func TestReadInputLimit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "big.json")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 32)), 0o600))

	_, err := readInput(nil, path, 16)
	require.ErrorIs(t, err, ErrInputTooLarge)

	data, err := readInput(nil, path, 32)
	require.NoError(t, err)
	assert.Len(t, data, 32)

	data, err = readInput(strings.NewReader("{}"), stdinPath, 32)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestReadInputRejectsBadPaths(t *testing.T) {
	t.Parallel()

	for _, path := range []string{" ", "a\x00b", t.TempDir()} {
		_, err := readInput(nil, path, 1024)
		require.ErrorIs(t, err, ErrBadPath, "path %q", path)
	}

	_, err := readInput(nil, filepath.Join(t.TempDir(), "absent.json"), 1024)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSanitizeForTerminal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b&lt;c", sanitizeForTerminal("a\nb<c\x1b"))
}
