package migrate

import (
	"fmt"

	"github.com/Sumatoshi-tech/codemod/pkg/syntax/node"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/rewrite"
)

// ReplaceTokenKind returns tok with a new kind and text, keeping its trivia.
// tok itself is returned when it already has that kind and text.
func ReplaceTokenKind(tok *node.Token, kind, text string) *node.Token {
	if tok.Kind() == kind && tok.Text() == text {
		return tok
	}

	return node.NewToken(kind, tok.Leading(), text, tok.Trailing())
}

// MoveLeadingTrivia strips the leading trivia of the first token of from and
// prepends it to the leading trivia of to. It is used when a new token is
// inserted in front of an existing node, so comments and indentation stay in
// front of the pair. from and to are returned unchanged when from has no
// leading trivia.
func MoveLeadingTrivia(from node.Node, to *node.Token) (node.Node, *node.Token, error) {
	first := node.FirstToken(from)
	if first == nil || first.LeadingText() == "" {
		return from, to, nil
	}

	moved := first.Leading()

	stripped, err := rewrite.Replace(from, first, first.WithLeading(nil))
	if err != nil {
		return nil, nil, fmt.Errorf("strip leading trivia of %s: %w", first.Kind(), err)
	}

	return stripped, to.WithLeading(append(moved, to.Leading()...)), nil
}
