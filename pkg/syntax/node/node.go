// Package node provides the immutable full-fidelity syntax tree: composite
// nodes whose slots are described by a catalog kind, lists, tokens carrying
// their trivia, and the missing sentinel.
//
// Nodes are never mutated after construction. Every With* method returns the
// receiver itself when nothing changes, so callers detect "no change" by
// comparing references.
package node

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strconv"

	"github.com/Sumatoshi-tech/codemod/pkg/syntax/catalog"
)

// Sentinel errors for node construction and slot access.
var (
	ErrUnknownSlot = errors.New("unknown slot")
	ErrArity       = errors.New("wrong number of children")
	ErrNilChild    = errors.New("nil child")
	ErrNilKind     = errors.New("nil kind")
	ErrLeafRebuild = errors.New("leaf nodes have no children")
)

// Node is a syntax tree node. The set of implementations is closed:
// *Composite, *List, *Token and *Missing.
type Node interface {
	// Kind is the catalog kind for composites, the token kind for tokens,
	// "list" for lists and "missing" for the missing sentinel.
	Kind() string
	// Class is the structural variant.
	Class() catalog.Class
	// Width is the byte length of the node's full text.
	Width() int
	// IsMissing reports whether this is the missing sentinel.
	IsMissing() bool
	// ChildCount is the number of child slots.
	ChildCount() int
	// Child returns the child in slot position idx.
	Child(idx int) Node
	// SlotName returns the name of slot position idx.
	SlotName(idx int) string

	sealed()
}

// Children returns a copy of the node's children in slot order.
func Children(n Node) []Node {
	count := n.ChildCount()
	children := make([]Node, count)

	for idx := range count {
		children[idx] = n.Child(idx)
	}

	return children
}

// SlotNames returns the node's slot names in order.
func SlotNames(n Node) []string {
	count := n.ChildCount()
	names := make([]string, count)

	for idx := range count {
		names[idx] = n.SlotName(idx)
	}

	return names
}

// ChildSeq iterates over (slot name, child) pairs in slot order.
func ChildSeq(n Node) iter.Seq2[string, Node] {
	return func(yield func(string, Node) bool) {
		for idx := range n.ChildCount() {
			if !yield(n.SlotName(idx), n.Child(idx)) {
				return
			}
		}
	}
}

// Composite is a node of a catalog kind with a fixed, ordered slot set.
type Composite struct {
	kind     *catalog.Kind
	children []Node
	width    int
}

// NewComposite creates a composite node. children must match the kind's slots
// in number and order; use NewMissing for absent optional elements.
func NewComposite(kind *catalog.Kind, children ...Node) (*Composite, error) {
	return newComposite(kind, slices.Clone(children))
}

// newComposite takes ownership of children.
func newComposite(kind *catalog.Kind, children []Node) (*Composite, error) {
	if kind == nil {
		return nil, ErrNilKind
	}

	if len(children) != kind.Arity() {
		return nil, fmt.Errorf("%w: %s has %d slots, got %d", ErrArity, kind.Name, kind.Arity(), len(children))
	}

	width, err := sumWidths(children)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind.Name, err)
	}

	return &Composite{kind: kind, children: children, width: width}, nil
}

// Kind returns the catalog kind name.
func (c *Composite) Kind() string { return c.kind.Name }

// KindInfo returns the catalog description of this node's kind.
func (c *Composite) KindInfo() *catalog.Kind { return c.kind }

// Class returns catalog.ClassComposite.
func (c *Composite) Class() catalog.Class { return catalog.ClassComposite }

// Width returns the byte length of the full text.
func (c *Composite) Width() int { return c.width }

// IsMissing returns false.
func (c *Composite) IsMissing() bool { return false }

// ChildCount returns the number of slots.
func (c *Composite) ChildCount() int { return len(c.children) }

// Child returns the child at slot position idx.
func (c *Composite) Child(idx int) Node { return c.children[idx] }

// SlotName returns the slot name at position idx.
func (c *Composite) SlotName(idx int) string { return c.kind.SlotAt(idx).Name }

func (c *Composite) sealed() {}

// List is an ordered, variable-length sequence of nodes.
type List struct {
	children []Node
	width    int
}

// NewList creates a list of the given items.
func NewList(items ...Node) (*List, error) {
	return newList(slices.Clone(items))
}

func newList(items []Node) (*List, error) {
	width, err := sumWidths(items)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	return &List{children: items, width: width}, nil
}

// Kind returns "list".
func (l *List) Kind() string { return catalog.KindList }

// Class returns catalog.ClassList.
func (l *List) Class() catalog.Class { return catalog.ClassList }

// Width returns the byte length of the full text.
func (l *List) Width() int { return l.width }

// IsMissing returns false.
func (l *List) IsMissing() bool { return false }

// ChildCount returns the number of items.
func (l *List) ChildCount() int { return len(l.children) }

// Child returns item idx.
func (l *List) Child(idx int) Node { return l.children[idx] }

// SlotName returns the decimal index.
func (l *List) SlotName(idx int) string { return strconv.Itoa(idx) }

// Len is an alias for ChildCount.
func (l *List) Len() int { return len(l.children) }

// At returns item idx.
func (l *List) At(idx int) Node { return l.children[idx] }

// Items returns a copy of the items.
func (l *List) Items() []Node { return slices.Clone(l.children) }

// All iterates over the items.
func (l *List) All() iter.Seq2[int, Node] {
	return slices.All(l.children)
}

// WithItems returns a list holding items, or the receiver when every item is
// reference-identical to the current one.
func (l *List) WithItems(items ...Node) (*List, error) {
	if sameChildren(l.children, items) {
		return l, nil
	}

	return NewList(items...)
}

// WithItem replaces item idx.
func (l *List) WithItem(idx int, item Node) (*List, error) {
	if idx < 0 || idx >= len(l.children) {
		return nil, fmt.Errorf("%w: list index %d of %d", ErrUnknownSlot, idx, len(l.children))
	}

	if item == nil {
		return nil, ErrNilChild
	}

	if l.children[idx] == item {
		return l, nil
	}

	items := slices.Clone(l.children)
	items[idx] = item

	return &List{children: items, width: l.width - l.children[idx].Width() + item.Width()}, nil
}

func (l *List) sealed() {}

// Trivia is non-semantic source text attached to a token.
type Trivia struct {
	Kind string
	Text string
}

// Token is a leaf carrying leading trivia, its literal text and trailing trivia.
type Token struct {
	kind     string
	leading  []Trivia
	text     string
	trailing []Trivia
	width    int
}

// NewToken creates a token. The trivia slices are copied.
func NewToken(kind string, leading []Trivia, text string, trailing []Trivia) *Token {
	return newToken(kind, slices.Clone(leading), text, slices.Clone(trailing))
}

func newToken(kind string, leading []Trivia, text string, trailing []Trivia) *Token {
	return &Token{
		kind:     kind,
		leading:  leading,
		text:     text,
		trailing: trailing,
		width:    triviaWidth(leading) + len(text) + triviaWidth(trailing),
	}
}

// Kind returns the token kind.
func (t *Token) Kind() string { return t.kind }

// Class returns catalog.ClassToken.
func (t *Token) Class() catalog.Class { return catalog.ClassToken }

// Width returns len(leading)+len(text)+len(trailing).
func (t *Token) Width() int { return t.width }

// IsMissing returns false.
func (t *Token) IsMissing() bool { return false }

// ChildCount returns 0.
func (t *Token) ChildCount() int { return 0 }

// Child panics: tokens have no children.
func (t *Token) Child(idx int) Node { panic(fmt.Sprintf("token %s has no child %d", t.kind, idx)) }

// SlotName panics: tokens have no slots.
func (t *Token) SlotName(idx int) string { panic(fmt.Sprintf("token %s has no slot %d", t.kind, idx)) }

// Text returns the literal text.
func (t *Token) Text() string { return t.text }

// Leading returns a copy of the leading trivia.
func (t *Token) Leading() []Trivia { return slices.Clone(t.leading) }

// Trailing returns a copy of the trailing trivia.
func (t *Token) Trailing() []Trivia { return slices.Clone(t.trailing) }

// LeadingText concatenates the leading trivia.
func (t *Token) LeadingText() string { return joinTrivia(t.leading) }

// TrailingText concatenates the trailing trivia.
func (t *Token) TrailingText() string { return joinTrivia(t.trailing) }

// WithText returns a token with the given literal text.
func (t *Token) WithText(text string) *Token {
	if text == t.text {
		return t
	}

	return newToken(t.kind, t.leading, text, t.trailing)
}

// WithKind returns a token of the given kind.
func (t *Token) WithKind(kind string) *Token {
	if kind == t.kind {
		return t
	}

	return newToken(kind, t.leading, t.text, t.trailing)
}

// WithLeading returns a token with the given leading trivia.
func (t *Token) WithLeading(leading []Trivia) *Token {
	if slices.Equal(leading, t.leading) {
		return t
	}

	return newToken(t.kind, slices.Clone(leading), t.text, t.trailing)
}

// WithTrailing returns a token with the given trailing trivia.
func (t *Token) WithTrailing(trailing []Trivia) *Token {
	if slices.Equal(trailing, t.trailing) {
		return t
	}

	return newToken(t.kind, t.leading, t.text, slices.Clone(trailing))
}

func (t *Token) sealed() {}

// Missing stands in for an absent optional element. It has zero width and no text.
type Missing struct {
	_ byte
}

//nolint:gochecknoglobals // The missing sentinel is shared by every tree.
var missingNode = &Missing{}

// NewMissing returns the shared missing sentinel.
func NewMissing() *Missing { return missingNode }

// Kind returns "missing".
func (m *Missing) Kind() string { return catalog.KindMissing }

// Class returns catalog.ClassMissing.
func (m *Missing) Class() catalog.Class { return catalog.ClassMissing }

// Width returns 0.
func (m *Missing) Width() int { return 0 }

// IsMissing returns true.
func (m *Missing) IsMissing() bool { return true }

// ChildCount returns 0.
func (m *Missing) ChildCount() int { return 0 }

// Child panics: the missing node has no children.
func (m *Missing) Child(idx int) Node { panic(fmt.Sprintf("missing node has no child %d", idx)) }

// SlotName panics: the missing node has no slots.
func (m *Missing) SlotName(idx int) string { panic(fmt.Sprintf("missing node has no slot %d", idx)) }

func (m *Missing) sealed() {}

// Rebuild returns a node of the same kind as n holding children. It takes
// ownership of the children slice. Leaves cannot be rebuilt.
func Rebuild(n Node, children []Node) (Node, error) {
	switch typed := n.(type) {
	case *Composite:
		return newComposite(typed.kind, children)
	case *List:
		return newList(children)
	default:
		return nil, fmt.Errorf("%w: %s", ErrLeafRebuild, n.Kind())
	}
}

func sumWidths(children []Node) (int, error) {
	width := 0

	for idx, child := range children {
		if child == nil {
			return 0, fmt.Errorf("%w at position %d", ErrNilChild, idx)
		}

		width += child.Width()
	}

	return width, nil
}

func sameChildren(current, next []Node) bool {
	if len(current) != len(next) {
		return false
	}

	for idx := range current {
		if current[idx] != next[idx] {
			return false
		}
	}

	return true
}

func triviaWidth(trivia []Trivia) int {
	width := 0
	for _, item := range trivia {
		width += len(item.Text)
	}

	return width
}

func joinTrivia(trivia []Trivia) string {
	switch len(trivia) {
	case 0:
		return ""
	case 1:
		return trivia[0].Text
	}

	buf := make([]byte, 0, triviaWidth(trivia))
	for _, item := range trivia {
		buf = append(buf, item.Text...)
	}

	return string(buf)
}
