// Package catalog describes the grammar a syntax tree is built against: for every
// node kind, the ordered list of named child slots and the node variants each slot
// may be narrowed to. Catalogs are data, loaded from YAML documents.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Reserved kind names used by the parser input for the non-composite variants.
const (
	KindToken   = "token"
	KindList    = "list"
	KindMissing = "missing"
)

// Sentinel errors for catalog validation.
var (
	ErrNoLanguage       = errors.New("catalog has no language")
	ErrNoKinds          = errors.New("catalog declares no kinds")
	ErrDuplicateKind    = errors.New("duplicate kind")
	ErrReservedKind     = errors.New("kind name is reserved")
	ErrDuplicateSlot    = errors.New("duplicate slot")
	ErrDuplicateJSONKey = errors.New("duplicate JSON key")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidVariant   = errors.New("invalid variant")
	ErrUnknownVariant   = errors.New("variant refers to an undeclared kind")
)

// Class is the structural variant of a node.
type Class uint8

// Node classes.
const (
	ClassComposite Class = iota + 1
	ClassList
	ClassToken
	ClassMissing
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassComposite:
		return "composite"
	case ClassList:
		return KindList
	case ClassToken:
		return KindToken
	case ClassMissing:
		return KindMissing
	default:
		return fmt.Sprintf("Class(%d)", uint8(c))
	}
}

// Variant is one member of a slot's allowed set. An empty Kind on a token
// variant accepts any token kind.
type Variant struct {
	Class Class
	Kind  string
}

// ParseVariant parses a variant expression: "missing", "list", "token",
// "token:<kind>" or a composite kind name.
func ParseVariant(expr string) (Variant, error) {
	expr = strings.TrimSpace(expr)

	switch {
	case expr == "":
		return Variant{}, fmt.Errorf("%w: empty expression", ErrInvalidVariant)
	case expr == KindMissing:
		return Variant{Class: ClassMissing, Kind: KindMissing}, nil
	case expr == KindList:
		return Variant{Class: ClassList, Kind: KindList}, nil
	case expr == KindToken:
		return Variant{Class: ClassToken}, nil
	}

	if tokenKind, ok := strings.CutPrefix(expr, KindToken+":"); ok {
		if tokenKind == "" {
			return Variant{}, fmt.Errorf("%w: %q", ErrInvalidVariant, expr)
		}

		return Variant{Class: ClassToken, Kind: tokenKind}, nil
	}

	if strings.ContainsAny(expr, ": ") {
		return Variant{}, fmt.Errorf("%w: %q", ErrInvalidVariant, expr)
	}

	return Variant{Class: ClassComposite, Kind: expr}, nil
}

// Matches reports whether a node of the given class and kind is this variant.
func (v Variant) Matches(class Class, kind string) bool {
	if v.Class != class {
		return false
	}

	if v.Class == ClassToken && v.Kind == "" {
		return true
	}

	return v.Kind == kind
}

// String renders the variant in its expression form.
func (v Variant) String() string {
	switch v.Class {
	case ClassToken:
		if v.Kind == "" {
			return KindToken
		}

		return KindToken + ":" + v.Kind
	case ClassComposite, ClassList, ClassMissing:
		return v.Kind
	default:
		return "?" + v.Kind
	}
}

// VariantSet is the set of variants a slot may be narrowed to.
// An empty set accepts every node.
type VariantSet []Variant

// Accepts reports whether a node of the given class and kind belongs to the set.
func (vs VariantSet) Accepts(class Class, kind string) bool {
	if len(vs) == 0 {
		return true
	}

	for _, variant := range vs {
		if variant.Matches(class, kind) {
			return true
		}
	}

	return false
}

// AllowsMissing reports whether the slot is optional.
func (vs VariantSet) AllowsMissing() bool {
	return vs.Accepts(ClassMissing, KindMissing)
}

// String joins the variants with " | ".
func (vs VariantSet) String() string {
	if len(vs) == 0 {
		return "any"
	}

	parts := make([]string, len(vs))
	for idx, variant := range vs {
		parts[idx] = variant.String()
	}

	return strings.Join(parts, " | ")
}

// Slot is a named child position of a composite kind.
type Slot struct {
	Name     string
	JSONKey  string
	Variants VariantSet
}

// Kind describes one composite node kind. Kinds are immutable after loading
// and shared by every node of that kind.
type Kind struct {
	Name   string
	Prefix string

	slots []Slot
	index map[string]int
}

// Slot returns the slot with the given name and its position.
func (k *Kind) Slot(name string) (Slot, int, bool) {
	idx, ok := k.index[name]
	if !ok {
		return Slot{}, -1, false
	}

	return k.slots[idx], idx, true
}

// SlotAt returns the slot at position idx.
func (k *Kind) SlotAt(idx int) Slot {
	return k.slots[idx]
}

// Slots returns a copy of the slots in declared order.
func (k *Kind) Slots() []Slot {
	slots := make([]Slot, len(k.slots))
	for idx, slot := range k.slots {
		slot.Variants = slices.Clone(slot.Variants)
		slots[idx] = slot
	}

	return slots
}

// SlotNames returns the slot names in declared order.
func (k *Kind) SlotNames() []string {
	names := make([]string, len(k.slots))
	for idx, slot := range k.slots {
		names[idx] = slot.Name
	}

	return names
}

// Arity is the number of slots.
func (k *Kind) Arity() int {
	return len(k.slots)
}

// Catalog is a validated, immutable grammar description. It is safe for
// concurrent use.
type Catalog struct {
	Language   string
	Extensions []string

	kinds  map[string]*Kind
	tokens map[string]struct{}
	trivia map[string]struct{}
}

// Kind looks up a composite kind by name.
func (c *Catalog) Kind(name string) (*Kind, bool) {
	kind, ok := c.kinds[name]

	return kind, ok
}

// Kinds returns all composite kinds sorted by name.
func (c *Catalog) Kinds() []*Kind {
	kinds := make([]*Kind, 0, len(c.kinds))
	for _, kind := range c.kinds {
		kinds = append(kinds, kind)
	}

	slices.SortFunc(kinds, func(a, b *Kind) int { return strings.Compare(a.Name, b.Name) })

	return kinds
}

// IsToken reports whether kind is a declared token kind. A catalog without a
// token list accepts every token kind.
func (c *Catalog) IsToken(kind string) bool {
	if len(c.tokens) == 0 {
		return kind != ""
	}

	_, ok := c.tokens[kind]

	return ok
}

// IsTrivia reports whether kind is a declared trivia kind. A catalog without a
// trivia list accepts every trivia kind.
func (c *Catalog) IsTrivia(kind string) bool {
	if len(c.trivia) == 0 {
		return kind != ""
	}

	_, ok := c.trivia[kind]

	return ok
}

// TokenKinds returns the declared token kinds, sorted.
func (c *Catalog) TokenKinds() []string {
	return sortedKeys(c.tokens)
}

// TriviaKinds returns the declared trivia kinds, sorted.
func (c *Catalog) TriviaKinds() []string {
	return sortedKeys(c.trivia)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}
