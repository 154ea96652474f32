package node

import (
	"fmt"
	"io"
	"iter"
	"slices"
	"strconv"
	"strings"
)

// Traversal capacity constants.
const (
	defaultStackCap = 64
	dumpIndent      = "  "
)

// PreOrder yields n and its descendants, parents before children, left to right.
func PreOrder(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		stack := make([]Node, 0, defaultStackCap)
		stack = append(stack, n)

		for len(stack) > 0 {
			curr := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if !yield(curr) {
				return
			}

			stack = pushChildrenReversed(stack, curr)
		}
	}
}

// PostOrder yields the descendants of n before n itself, left to right.
func PostOrder(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		postOrder(n, yield)
	}
}

func postOrder(n Node, yield func(Node) bool) bool {
	for idx := range n.ChildCount() {
		if !postOrder(n.Child(idx), yield) {
			return false
		}
	}

	return yield(n)
}

func pushChildrenReversed(stack []Node, n Node) []Node {
	for idx := n.ChildCount() - 1; idx >= 0; idx-- {
		stack = append(stack, n.Child(idx))
	}

	return stack
}

// Find returns all nodes under root (root included) matching predicate, in pre-order.
func Find(root Node, predicate func(Node) bool) []Node {
	var result []Node

	for curr := range PreOrder(root) {
		if predicate(curr) {
			result = append(result, curr)
		}
	}

	return result
}

// FindKind returns all composite nodes of the given kind under root, in pre-order.
func FindKind(root Node, kind string) []*Composite {
	var result []*Composite

	for curr := range PreOrder(root) {
		if composite, ok := curr.(*Composite); ok && composite.Kind() == kind {
			result = append(result, composite)
		}
	}

	return result
}

type ancestorFrame struct {
	node    Node
	parents []Node
}

// Ancestors returns the path from root to the parent of target, root first.
// It returns nil when target is root or not found. Targets are matched by
// reference, so the missing sentinel cannot be located this way.
func Ancestors(root, target Node) []Node {
	stack := []ancestorFrame{{node: root}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.node == target {
			return top.parents
		}

		path := append(slices.Clip(top.parents), top.node)

		for idx := top.node.ChildCount() - 1; idx >= 0; idx-- {
			stack = append(stack, ancestorFrame{node: top.node.Child(idx), parents: path})
		}
	}

	return nil
}

// Tokens returns every token under n in source order.
func Tokens(n Node) []*Token {
	var tokens []*Token

	for curr := range PreOrder(n) {
		if token, ok := curr.(*Token); ok {
			tokens = append(tokens, token)
		}
	}

	return tokens
}

// FirstToken returns the leftmost token under n, or nil.
func FirstToken(n Node) *Token {
	if token, ok := n.(*Token); ok {
		return token
	}

	for idx := range n.ChildCount() {
		if token := FirstToken(n.Child(idx)); token != nil {
			return token
		}
	}

	return nil
}

// LastToken returns the rightmost token under n, or nil.
func LastToken(n Node) *Token {
	if token, ok := n.(*Token); ok {
		return token
	}

	for idx := n.ChildCount() - 1; idx >= 0; idx-- {
		if token := LastToken(n.Child(idx)); token != nil {
			return token
		}
	}

	return nil
}

// Equal reports deep structural equality: same variants, kinds, token text
// and trivia, recursively. Reference-identical nodes are equal without a walk.
func Equal(a, b Node) bool {
	if a == b {
		return true
	}

	if a == nil || b == nil {
		return false
	}

	if a.Class() != b.Class() || a.Kind() != b.Kind() || a.Width() != b.Width() {
		return false
	}

	if tokenA, ok := a.(*Token); ok {
		tokenB, _ := b.(*Token)

		return tokenA.text == tokenB.text &&
			slices.Equal(tokenA.leading, tokenB.leading) &&
			slices.Equal(tokenA.trailing, tokenB.trailing)
	}

	if a.ChildCount() != b.ChildCount() {
		return false
	}

	for idx := range a.ChildCount() {
		if !Equal(a.Child(idx), b.Child(idx)) {
			return false
		}
	}

	return true
}

// Outline returns an indented outline of the tree, one node per line.
func Outline(n Node) string {
	var buf strings.Builder

	dumpNode(&buf, "", n, 0)

	return buf.String()
}

// Dump writes the outline of the tree to w.
func Dump(w io.Writer, n Node) error {
	_, err := io.WriteString(w, Outline(n))
	if err != nil {
		return fmt.Errorf("dump tree: %w", err)
	}

	return nil
}

func dumpNode(buf *strings.Builder, label string, n Node, depth int) {
	buf.WriteString(strings.Repeat(dumpIndent, depth))

	if label != "" {
		buf.WriteString(label)
		buf.WriteString(": ")
	}

	switch typed := n.(type) {
	case *Token:
		buf.WriteString("token:")
		buf.WriteString(typed.kind)
		buf.WriteByte(' ')
		buf.WriteString(strconv.Quote(typed.text))

		if lead := typed.LeadingText(); lead != "" {
			buf.WriteString(" leading=")
			buf.WriteString(strconv.Quote(lead))
		}

		if trail := typed.TrailingText(); trail != "" {
			buf.WriteString(" trailing=")
			buf.WriteString(strconv.Quote(trail))
		}
	case *List:
		fmt.Fprintf(buf, "list[%d]", typed.Len())
	default:
		buf.WriteString(n.Kind())
	}

	buf.WriteByte('\n')

	for idx := range n.ChildCount() {
		dumpNode(buf, n.SlotName(idx), n.Child(idx), depth+1)
	}
}
