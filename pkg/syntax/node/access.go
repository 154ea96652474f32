package node

import (
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/codemod/pkg/syntax/catalog"
)

// Has reports whether the slot holds something other than the missing node.
// Unknown slots report false.
func (c *Composite) Has(slot string) bool {
	_, idx, ok := c.kind.Slot(slot)
	if !ok {
		return false
	}

	return !c.children[idx].IsMissing()
}

// Untyped returns the child in slot without narrowing.
func (c *Composite) Untyped(slot string) (Node, error) {
	_, idx, ok := c.kind.Slot(slot)
	if !ok {
		return nil, c.unknownSlot(slot)
	}

	return c.children[idx], nil
}

// Get returns the child in slot narrowed to the slot's declared variants.
func (c *Composite) Get(slot string) (Node, error) {
	info, idx, ok := c.kind.Slot(slot)
	if !ok {
		return nil, c.unknownSlot(slot)
	}

	child := c.children[idx]
	if !info.Variants.Accepts(child.Class(), child.Kind()) {
		return nil, &UnexpectedNodeKindError{
			Parent:   c.kind.Name,
			Slot:     slot,
			Want:     info.Variants,
			Got:      child.Kind(),
			GotClass: child.Class(),
		}
	}

	return child, nil
}

// With returns a node with slot replaced by child. When child is the current
// occupant the receiver is returned and nothing is allocated.
func (c *Composite) With(slot string, child Node) (*Composite, error) {
	_, idx, ok := c.kind.Slot(slot)
	if !ok {
		return nil, c.unknownSlot(slot)
	}

	if child == nil {
		return nil, fmt.Errorf("%s.%s: %w", c.kind.Name, slot, ErrNilChild)
	}

	current := c.children[idx]
	if current == child {
		return c, nil
	}

	children := slices.Clone(c.children)
	children[idx] = child

	return &Composite{
		kind:     c.kind,
		children: children,
		width:    c.width - current.Width() + child.Width(),
	}, nil
}

// WithChildren returns a node with all slots replaced, or the receiver when
// every child is reference-identical to the current one.
func (c *Composite) WithChildren(children ...Node) (*Composite, error) {
	if sameChildren(c.children, children) {
		return c, nil
	}

	return NewComposite(c.kind, children...)
}

func (c *Composite) unknownSlot(slot string) error {
	return fmt.Errorf("%w: %s has no slot %q", ErrUnknownSlot, c.kind.Name, slot)
}

// Narrow checks n against a variant set.
func Narrow(n Node, want catalog.VariantSet) (Node, error) {
	if !want.Accepts(n.Class(), n.Kind()) {
		return nil, &UnexpectedNodeKindError{Want: want, Got: n.Kind(), GotClass: n.Class()}
	}

	return n, nil
}

// GetAs narrows slot to its declared variants and then to the Go type T.
//
//	colon, err := node.GetAs[*node.Token](label, "colon")
func GetAs[T Node](c *Composite, slot string) (T, error) {
	var zero T

	child, err := c.Get(slot)
	if err != nil {
		return zero, err
	}

	typed, ok := child.(T)
	if !ok {
		info, _, _ := c.kind.Slot(slot)

		return zero, &UnexpectedNodeKindError{
			Parent:   c.kind.Name,
			Slot:     slot,
			Want:     variantsOfClass(info.Variants, classOf(zero)),
			Got:      child.Kind(),
			GotClass: child.Class(),
		}
	}

	return typed, nil
}

func classOf(n Node) catalog.Class {
	switch n.(type) {
	case *Composite:
		return catalog.ClassComposite
	case *List:
		return catalog.ClassList
	case *Token:
		return catalog.ClassToken
	case *Missing:
		return catalog.ClassMissing
	default:
		return 0
	}
}

func variantsOfClass(set catalog.VariantSet, class catalog.Class) catalog.VariantSet {
	out := make(catalog.VariantSet, 0, len(set))

	for _, variant := range set {
		if variant.Class == class {
			out = append(out, variant)
		}
	}

	if len(out) == 0 {
		fallback := catalog.Variant{Class: class, Kind: class.String()}
		if class == catalog.ClassToken {
			fallback.Kind = ""
		}

		out = append(out, fallback)
	}

	return out
}

// GetToken returns the token in slot.
func (c *Composite) GetToken(slot string) (*Token, error) {
	return GetAs[*Token](c, slot)
}

// GetComposite returns the composite node in slot.
func (c *Composite) GetComposite(slot string) (*Composite, error) {
	return GetAs[*Composite](c, slot)
}

// GetList returns the list in slot.
func (c *Composite) GetList(slot string) (*List, error) {
	return GetAs[*List](c, slot)
}
