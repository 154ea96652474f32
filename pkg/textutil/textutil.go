// Package textutil provides text utilities: binary detection, line counting,
// line diffs and name suggestions.
package textutil

import (
	"bytes"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// BinarySniffLength is the maximum number of bytes scanned for null-byte
// detection. Matches the heuristic used by Git and most editors.
const BinarySniffLength = 8000

// DiffContext is the number of unchanged lines kept around each change.
const DiffContext = 2

const diffElision = "@@ ... @@\n"

// IsBinary returns true if data contains a null byte within the first
// BinarySniffLength bytes. Empty data is not binary.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	sniff := data
	if len(sniff) > BinarySniffLength {
		sniff = sniff[:BinarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}

// CountLines returns the number of newline-delimited lines in text.
// A non-empty text without a trailing newline counts the last partial line.
// Returns 0 for empty text.
func CountLines(text string) int {
	if text == "" {
		return 0
	}

	lines := strings.Count(text, "\n")

	if text[len(text)-1] != '\n' {
		lines++
	}

	return lines
}

// LineDiff renders a line diff of before and after: removed lines start with
// "-", added lines with "+" and context lines with a space. Unchanged runs
// longer than the context are elided. Equal inputs yield "".
func LineDiff(before, after string) string {
	if before == after {
		return ""
	}

	diffs := lineDiffs(before, after)

	var buf strings.Builder

	for idx, diff := range diffs {
		lines := splitLines(diff.Text)

		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			writeLines(&buf, "-", lines)
		case diffmatchpatch.DiffInsert:
			writeLines(&buf, "+", lines)
		case diffmatchpatch.DiffEqual:
			writeContext(&buf, lines, idx == 0, idx == len(diffs)-1)
		}
	}

	return buf.String()
}

// DiffStats counts the lines added and removed between before and after.
func DiffStats(before, after string) (added, removed int) {
	if before == after {
		return 0, 0
	}

	for _, diff := range lineDiffs(before, after) {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			added += CountLines(diff.Text)
		case diffmatchpatch.DiffDelete:
			removed += CountLines(diff.Text)
		case diffmatchpatch.DiffEqual:
		}
	}

	return added, removed
}

func lineDiffs(before, after string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	src, dst, lineArray := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffMainRunes(src, dst, false)

	return dmp.DiffCharsToLines(diffs, lineArray)
}

func splitLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

func writeLines(buf *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		buf.WriteString(prefix)
		buf.WriteString(strings.TrimSuffix(line, "\n"))
		buf.WriteByte('\n')
	}
}

// writeContext keeps DiffContext lines after the previous change and before
// the next one.
func writeContext(buf *strings.Builder, lines []string, first, last bool) {
	head, tail := DiffContext, DiffContext

	if first {
		head = 0
	}

	if last {
		tail = 0
	}

	if len(lines) <= head+tail {
		writeLines(buf, " ", lines)

		return
	}

	writeLines(buf, " ", lines[:head])
	buf.WriteString(diffElision)
	writeLines(buf, " ", lines[len(lines)-tail:])
}
