package migrate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/codemod/pkg/syntax/node"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/rewrite"
)

// ErrNoSteps is returned when a migration is created without steps.
var ErrNoSteps = errors.New("migration has no steps")

// Migration is a named, ordered list of steps.
type Migration interface {
	Name() string
	Description() string
	Steps() []Step
}

type migration struct {
	name        string
	description string
	steps       []Step
}

// New creates a migration running steps in the given order.
func New(name, description string, steps ...Step) (Migration, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSteps, name)
	}

	return &migration{name: name, description: description, steps: slices.Clone(steps)}, nil
}

// MustNew is New that panics on error. It is meant for package-level
// built-in migrations.
func MustNew(name, description string, steps ...Step) Migration {
	m, err := New(name, description, steps...)
	if err != nil {
		panic(err)
	}

	return m
}

func (m *migration) Name() string        { return m.name }
func (m *migration) Description() string { return m.description }
func (m *migration) Steps() []Step       { return slices.Clone(m.steps) }

// Apply runs one step over the whole tree.
func Apply(root node.Node, step Step) (node.Node, error) {
	result, _, err := ApplyWithStats(root, step)

	return result, err
}

// ApplyWithStats is Apply that also reports what the pass did.
func ApplyWithStats(root node.Node, step Step) (node.Node, rewrite.Stats, error) {
	result, stats, err := rewrite.WithStats(root, step.Rewrite)
	if err != nil {
		return nil, stats, fmt.Errorf("step %s: %w", step.Name(), err)
	}

	return result, stats, nil
}

// Migrate applies every step of m in order, each exactly once, feeding each
// step the previous step's output. The result is root itself when no step
// changed anything.
func Migrate(root node.Node, m Migration) (node.Node, error) {
	current := root

	for _, step := range m.Steps() {
		next, err := Apply(current, step)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", m.Name(), err)
		}

		current = next
	}

	return current, nil
}
