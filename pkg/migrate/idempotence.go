package migrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/codemod/pkg/syntax/node"
	"github.com/Sumatoshi-tech/codemod/pkg/textutil"
)

// Property names the idempotence property that failed.
type Property string

// Idempotence properties.
const (
	// PropertyText requires the second pass to produce the same full text.
	PropertyText Property = "text"
	// PropertyObject requires the second pass to return the first pass's tree
	// itself.
	PropertyObject Property = "object"
)

// ErrNonIdempotent matches every *NonIdempotentTransformError with errors.Is.
var ErrNonIdempotent = errors.New("transform is not idempotent")

// NonIdempotentTransformError reports a step or migration whose second
// application changed its own output.
type NonIdempotentTransformError struct {
	Migration string
	// Step is empty when the migration as a whole failed the check.
	Step     string
	Property Property
	// Diff shows the first pass output against the second pass output: a
	// text diff for PropertyText, a tree outline diff for PropertyObject.
	Diff string
}

func (e *NonIdempotentTransformError) Error() string {
	var buf strings.Builder

	buf.WriteString("migration ")
	buf.WriteString(e.Migration)

	if e.Step != "" {
		buf.WriteString(" step ")
		buf.WriteString(e.Step)
	}

	fmt.Fprintf(&buf, ": %s (%s)", ErrNonIdempotent, e.Property)

	if e.Diff != "" {
		buf.WriteString(":\n")
		buf.WriteString(e.Diff)
	}

	return buf.String()
}

// Is makes errors.Is(err, ErrNonIdempotent) succeed.
func (e *NonIdempotentTransformError) Is(target error) bool {
	return target == ErrNonIdempotent
}

// CheckStep applies step to tree twice and reports a
// *NonIdempotentTransformError when the second pass changed anything.
func CheckStep(migration string, step Step, tree node.Node) error {
	once, err := Apply(tree, step)
	if err != nil {
		return err
	}

	twice, err := Apply(once, step)
	if err != nil {
		return err
	}

	return compare(migration, step.Name(), once, twice)
}

// CheckMigration checks every step of m against tree, then checks that
// migrating m's own output returns it unchanged.
func CheckMigration(m Migration, tree node.Node) error {
	for _, step := range m.Steps() {
		err := CheckStep(m.Name(), step, tree)
		if err != nil {
			return err
		}
	}

	once, err := Migrate(tree, m)
	if err != nil {
		return err
	}

	twice, err := Migrate(once, m)
	if err != nil {
		return err
	}

	return compare(m.Name(), "", once, twice)
}

func compare(migration, step string, once, twice node.Node) error {
	onceText, twiceText := node.FullText(once), node.FullText(twice)
	if onceText != twiceText {
		return &NonIdempotentTransformError{
			Migration: migration,
			Step:      step,
			Property:  PropertyText,
			Diff:      textutil.LineDiff(onceText, twiceText),
		}
	}

	if once != twice {
		return &NonIdempotentTransformError{
			Migration: migration,
			Step:      step,
			Property:  PropertyObject,
			Diff:      outlineDiff(once, twice),
		}
	}

	return nil
}

// outlineDiff diffs the tree outlines. Structurally equal trees that are
// distinct objects produce an empty outline diff, so that case gets a note.
func outlineDiff(once, twice node.Node) string {
	if diff := textutil.LineDiff(node.Outline(once), node.Outline(twice)); diff != "" {
		return diff
	}

	return "trees are structurally equal but the second pass rebuilt the root " + once.Kind()
}
