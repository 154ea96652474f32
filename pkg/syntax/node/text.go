package node

import (
	"fmt"
	"io"
	"strings"
)

// FullText reconstructs the node's source text, trivia included. For a tree
// that was built from parser output and never rewritten this is exactly the
// source slice it was built from.
func FullText(n Node) string {
	var buf strings.Builder

	buf.Grow(n.Width())
	appendFullText(&buf, n)

	return buf.String()
}

// WriteFullText writes the node's full text to w.
func WriteFullText(w io.Writer, n Node) error {
	var buf strings.Builder

	buf.Grow(n.Width())
	appendFullText(&buf, n)

	_, err := io.WriteString(w, buf.String())
	if err != nil {
		return fmt.Errorf("write full text: %w", err)
	}

	return nil
}

// Text is the full text without the first token's leading trivia and the
// last token's trailing trivia.
func Text(n Node) string {
	full := FullText(n)

	first, last := FirstToken(n), LastToken(n)
	if first == nil || last == nil {
		return full
	}

	return full[len(first.LeadingText()) : len(full)-len(last.TrailingText())]
}

func appendFullText(buf *strings.Builder, n Node) {
	switch typed := n.(type) {
	case *Token:
		for _, item := range typed.leading {
			buf.WriteString(item.Text)
		}

		buf.WriteString(typed.text)

		for _, item := range typed.trailing {
			buf.WriteString(item.Text)
		}
	case *Missing:
	default:
		for idx := range n.ChildCount() {
			appendFullText(buf, n.Child(idx))
		}
	}
}
