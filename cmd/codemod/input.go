package main

import (
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/codemod/pkg/textutil"
)

const (
	stdinPath     = "-"
	jsonExt       = ".json"
	lz4Ext        = ".lz4"
	outputPerm    = 0o644
	outputDirPerm = 0o755
)

// Input errors.
var (
	ErrBadPath       = errors.New("invalid input path")
	ErrInputTooLarge = errors.New("input too large")
	ErrBinaryInput   = errors.New("input is binary")
)

// readInput reads a parser document from path, or from stdin for "-".
// Files ending in .lz4 are decompressed. At most limit bytes are accepted
// after decompression.
func readInput(stdin io.Reader, path string, limit uint64) ([]byte, error) {
	reader, closeInput, err := openInput(stdin, path)
	if err != nil {
		return nil, err
	}
	defer closeInput()

	// One byte past the limit tells an exact fit from an overflow.
	data, err := io.ReadAll(io.LimitReader(reader, int64(min(limit, maxReadLimit))+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch {
	case uint64(len(data)) > limit:
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrInputTooLarge, path, humanize.IBytes(limit))
	case textutil.IsBinary(data):
		return nil, fmt.Errorf("%w: %s", ErrBinaryInput, path)
	}

	return data, nil
}

const maxReadLimit = 1<<63 - 2

func openInput(stdin io.Reader, path string) (io.Reader, func(), error) {
	if path == stdinPath {
		return stdin, func() {}, nil
	}

	switch {
	case strings.TrimSpace(path) == "":
		return nil, nil, fmt.Errorf("%w: empty", ErrBadPath)
	case strings.ContainsRune(path, 0):
		return nil, nil, fmt.Errorf("%w: %q contains NUL", ErrBadPath, path)
	}

	//nolint:gosec // reading user-named documents is the point of the command.
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}

	info, err := file.Stat()
	if err == nil && info.IsDir() {
		err = fmt.Errorf("%w: %s is a directory", ErrBadPath, path)
	}

	if err != nil {
		_ = file.Close()

		return nil, nil, err
	}

	closeFile := func() { _ = file.Close() }

	if strings.EqualFold(filepath.Ext(path), lz4Ext) {
		return lz4.NewReader(file), closeFile, nil
	}

	return file, closeFile, nil
}

// sourceName maps a document path to the source file it describes:
// main.hack.json and main.hack.json.lz4 both describe main.hack.
func sourceName(path string) string {
	if path == stdinPath {
		return "stdin"
	}

	for _, ext := range []string{lz4Ext, jsonExt} {
		if strings.EqualFold(filepath.Ext(path), ext) {
			path = path[:len(path)-len(ext)]
		}
	}

	return path
}

// outputPath is where migrated source text for a document is written: next
// to the document, or under outputDir when set.
func outputPath(path, outputDir string) string {
	name := sourceName(path)
	if outputDir != "" {
		name = filepath.Join(outputDir, filepath.Base(name))
	}

	return name
}

func writeOutput(path, text string) error {
	err := os.MkdirAll(filepath.Dir(path), outputDirPerm)
	if err == nil {
		//nolint:gosec // migrated sources keep conventional source permissions.
		err = os.WriteFile(path, []byte(text), outputPerm)
	}

	if err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}

	return nil
}

// sanitizeForTerminal escapes markup and removes control characters from
// user-supplied names before they are echoed. Line breaks and tabs become
// spaces.
func sanitizeForTerminal(input string) string {
	var out strings.Builder

	for _, r := range html.EscapeString(input) {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			out.WriteByte(' ')
		case !unicode.IsControl(r):
			out.WriteRune(r)
		}
	}

	return out.String()
}
