package node

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/codemod/pkg/syntax/catalog"
)

// ErrUnexpectedNodeKind matches every *UnexpectedNodeKindError with errors.Is.
var ErrUnexpectedNodeKind = errors.New("unexpected node kind")

// UnexpectedNodeKindError reports that a child could not be narrowed to the
// variants its slot allows. It signals catalog drift or a broken invariant,
// not a recoverable condition.
type UnexpectedNodeKindError struct {
	Parent   string
	Slot     string
	Want     catalog.VariantSet
	Got      string
	GotClass catalog.Class
}

func (e *UnexpectedNodeKindError) Error() string {
	got := e.Got
	if e.GotClass == catalog.ClassToken {
		got = catalog.KindToken + ":" + e.Got
	}

	if e.Parent == "" {
		return fmt.Sprintf("%s: got %s, want %s", ErrUnexpectedNodeKind, got, e.Want)
	}

	return fmt.Sprintf("%s.%s: %s: got %s, want %s", e.Parent, e.Slot, ErrUnexpectedNodeKind, got, e.Want)
}

// Is makes errors.Is(err, ErrUnexpectedNodeKind) succeed.
func (e *UnexpectedNodeKindError) Is(target error) bool {
	return target == ErrUnexpectedNodeKind
}
