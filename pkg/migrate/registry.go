package migrate

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/Sumatoshi-tech/codemod/pkg/textutil"
)

// Registry errors.
var (
	ErrDuplicateMigration = errors.New("migration already registered")
	ErrUnknownMigration   = errors.New("unknown migration")
)

// Registry holds migrations by name.
type Registry struct {
	mu         sync.RWMutex
	migrations map[string]Migration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{migrations: make(map[string]Migration)}
}

// Register adds a migration. Names are unique.
func (r *Registry) Register(m Migration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.migrations[m.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMigration, m.Name())
	}

	r.migrations[m.Name()] = m

	return nil
}

// Lookup returns the migration registered under name.
func (r *Registry) Lookup(name string) (Migration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.migrations[name]
	if !ok {
		if hint, found := textutil.Suggest(name, slices.Collect(maps.Keys(r.migrations))); found {
			return nil, fmt.Errorf("%w: %s (did you mean %s?)", ErrUnknownMigration, name, hint)
		}

		return nil, fmt.Errorf("%w: %s", ErrUnknownMigration, name)
	}

	return m, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.migrations))
}

// All returns every migration, sorted by name.
func (r *Registry) All() []Migration {
	names := r.Names()
	out := make([]Migration, 0, len(names))

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range names {
		out = append(out, r.migrations[name])
	}

	return out
}

// Select returns the named migrations in the given order, or all of them
// when names is empty.
func (r *Registry) Select(names []string) ([]Migration, error) {
	if len(names) == 0 {
		return r.All(), nil
	}

	out := make([]Migration, 0, len(names))

	for _, name := range names {
		m, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}

		out = append(out, m)
	}

	return out, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	registry := NewRegistry()

	for _, m := range Builtins() {
		err := registry.Register(m)
		if err != nil {
			panic(err)
		}
	}

	return registry
})

// Default returns the shared registry of built-in migrations.
func Default() *Registry {
	return defaultRegistry()
}
