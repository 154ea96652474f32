package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/src-d/enry/v2"
)

// ErrNoCatalog is returned when no registered catalog handles a file.
var ErrNoCatalog = errors.New("no catalog for file")

// Registry maps languages and file extensions to catalogs.
type Registry struct {
	mu          sync.RWMutex
	byLanguage  map[string]*Catalog
	byExtension map[string]*Catalog
}

// NewRegistry creates a registry holding the given catalogs.
func NewRegistry(catalogs ...*Catalog) *Registry {
	registry := &Registry{
		byLanguage:  make(map[string]*Catalog),
		byExtension: make(map[string]*Catalog),
	}

	for _, cat := range catalogs {
		registry.Register(cat)
	}

	return registry
}

// Register adds a catalog; a later catalog for the same language or
// extension replaces the earlier one.
func (r *Registry) Register(cat *Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byLanguage[strings.ToLower(cat.Language)] = cat

	for _, ext := range cat.Extensions {
		r.byExtension[ext] = cat
	}
}

// Lookup returns the catalog registered for a language name.
func (r *Registry) Lookup(language string) (*Catalog, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cat, ok := r.byLanguage[strings.ToLower(language)]

	return cat, ok
}

// Languages returns the registered language names, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	langs := make([]string, 0, len(r.byLanguage))
	for _, cat := range r.byLanguage {
		langs = append(langs, cat.Language)
	}

	slices.Sort(langs)

	return langs
}

// ForFile picks the catalog for a source file. The language is detected from
// the file name and content; the extension is used when detection finds no
// registered language.
func (r *Registry) ForFile(name string, content []byte) (*Catalog, error) {
	lang := enry.GetLanguage(filepath.Base(name), content)
	if lang != "" {
		if cat, ok := r.Lookup(lang); ok {
			return cat, nil
		}
	}

	r.mu.RLock()
	cat, ok := r.byExtension[strings.ToLower(filepath.Ext(name))]
	r.mu.RUnlock()

	if ok {
		return cat, nil
	}

	if lang == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoCatalog, name)
	}

	return nil, fmt.Errorf("%w: %s (detected %s)", ErrNoCatalog, name, lang)
}
