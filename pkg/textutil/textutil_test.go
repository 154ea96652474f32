package textutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/codemod/pkg/textutil"
)

func TestIsBinary_EmptyData(t *testing.T) {
	t.Parallel()

	assert.False(t, textutil.IsBinary(nil))
	assert.False(t, textutil.IsBinary([]byte{}))
}

func TestIsBinary_PureText(t *testing.T) {
	t.Parallel()

	assert.False(t, textutil.IsBinary([]byte(`{"parse_tree": {}}`)))
}

func TestIsBinary_NullByte(t *testing.T) {
	t.Parallel()

	assert.True(t, textutil.IsBinary([]byte("hello\x00world")))
	assert.True(t, textutil.IsBinary([]byte("\x04\x22\x4d\x18\x00")))
}

func TestIsBinary_NullAtSniffBoundary(t *testing.T) {
	t.Parallel()

	data := make([]byte, textutil.BinarySniffLength)
	data[textutil.BinarySniffLength-1] = 0x00

	assert.True(t, textutil.IsBinary(data))
}

func TestIsBinary_NullBeyondSniffBoundary(t *testing.T) {
	t.Parallel()

	data := make([]byte, textutil.BinarySniffLength+100)
	for i := range data {
		data[i] = 'a'
	}

	data[textutil.BinarySniffLength+50] = 0x00

	assert.False(t, textutil.IsBinary(data))
}

func TestCountLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"single newline", "\n", 1},
		{"no trailing newline", "a", 1},
		{"trailing newline", "a\nb\n", 2},
		{"partial last line", "a\nb", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, textutil.CountLines(tt.text))
		})
	}
}

func TestLineDiff_Equal(t *testing.T) {
	t.Parallel()

	assert.Empty(t, textutil.LineDiff("a\nb\n", "a\nb\n"))
}

func TestLineDiff_ElidesDistantContext(t *testing.T) {
	t.Parallel()

	before := "a\nb\nc\nd\ne\nf\ng\n"
	after := "a\nb\nc\nD\ne\nf\ng\n"

	want := "@@ ... @@\n" +
		" b\n" +
		" c\n" +
		"-d\n" +
		"+D\n" +
		" e\n" +
		" f\n" +
		"@@ ... @@\n"

	assert.Equal(t, want, textutil.LineDiff(before, after))
}

func TestLineDiff_ShortContextKept(t *testing.T) {
	t.Parallel()

	got := textutil.LineDiff("  default;\n    return;\n", "  default:\n    return;\n")

	assert.Equal(t, "-  default;\n+  default:\n     return;\n", got)
}

func TestLineDiff_MissingTrailingNewline(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "-x\n+y\n", textutil.LineDiff("x", "y"))
}

func TestDiffStats(t *testing.T) {
	t.Parallel()

	added, removed := textutil.DiffStats("a\nb\nc\n", "a\nB\nc\nd\n")
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, removed)

	added, removed = textutil.DiffStats("same\n", "same\n")
	assert.Zero(t, added)
	assert.Zero(t, removed)
}
