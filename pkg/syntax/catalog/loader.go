package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/hack.yaml
var defaultCatalogYAML []byte

// document is the YAML form of a catalog.
type document struct {
	Language   string         `yaml:"language"`
	Extensions []string       `yaml:"extensions"`
	Tokens     []string       `yaml:"tokens"`
	Trivia     []string       `yaml:"trivia"`
	Kinds      []kindDocument `yaml:"kinds"`
}

type kindDocument struct {
	Name   string         `yaml:"name"`
	Prefix string         `yaml:"prefix"`
	Slots  []slotDocument `yaml:"slots"`
}

type slotDocument struct {
	Name     string   `yaml:"name"`
	JSON     string   `yaml:"json"`
	Variants []string `yaml:"variants"`
}

//nolint:gochecknoglobals // Embedded catalog is parsed once.
var defaultCatalog = sync.OnceValue(func() *Catalog {
	cat, err := Load(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}

	return cat
})

// Default returns the embedded Hack catalog.
func Default() *Catalog {
	return defaultCatalog()
}

// LoadFile loads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer file.Close()

	cat, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}

	return cat, nil
}

// Load decodes and validates a catalog document.
func Load(reader io.Reader) (*Catalog, error) {
	var doc document

	dec := yaml.NewDecoder(reader)
	dec.KnownFields(true)

	decodeErr := dec.Decode(&doc)
	if decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", decodeErr)
	}

	return compile(&doc)
}

func compile(doc *document) (*Catalog, error) {
	if strings.TrimSpace(doc.Language) == "" {
		return nil, ErrNoLanguage
	}

	if len(doc.Kinds) == 0 {
		return nil, ErrNoKinds
	}

	cat := &Catalog{
		Language:   doc.Language,
		Extensions: normalizeExtensions(doc.Extensions),
		kinds:      make(map[string]*Kind, len(doc.Kinds)),
		tokens:     toSet(doc.Tokens),
		trivia:     toSet(doc.Trivia),
	}

	for _, kindDoc := range doc.Kinds {
		kind, err := compileKind(kindDoc)
		if err != nil {
			return nil, err
		}

		if _, exists := cat.kinds[kind.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKind, kind.Name)
		}

		cat.kinds[kind.Name] = kind
	}

	err := cat.checkVariants()
	if err != nil {
		return nil, err
	}

	return cat, nil
}

func compileKind(kindDoc kindDocument) (*Kind, error) {
	name := strings.TrimSpace(kindDoc.Name)

	switch name {
	case "":
		return nil, fmt.Errorf("%w: kind", ErrEmptyName)
	case KindToken, KindList, KindMissing:
		return nil, fmt.Errorf("%w: %s", ErrReservedKind, name)
	}

	prefix := kindDoc.Prefix
	if prefix == "" {
		prefix = name
	}

	kind := &Kind{
		Name:   name,
		Prefix: prefix,
		slots:  make([]Slot, 0, len(kindDoc.Slots)),
		index:  make(map[string]int, len(kindDoc.Slots)),
	}

	jsonKeys := make(map[string]struct{}, len(kindDoc.Slots))

	for _, slotDoc := range kindDoc.Slots {
		slot, err := compileSlot(prefix, slotDoc)
		if err != nil {
			return nil, fmt.Errorf("kind %s: %w", name, err)
		}

		if _, exists := kind.index[slot.Name]; exists {
			return nil, fmt.Errorf("kind %s: %w: %s", name, ErrDuplicateSlot, slot.Name)
		}

		if _, exists := jsonKeys[slot.JSONKey]; exists {
			return nil, fmt.Errorf("kind %s: %w: %s", name, ErrDuplicateJSONKey, slot.JSONKey)
		}

		jsonKeys[slot.JSONKey] = struct{}{}
		kind.index[slot.Name] = len(kind.slots)
		kind.slots = append(kind.slots, slot)
	}

	return kind, nil
}

func compileSlot(prefix string, slotDoc slotDocument) (Slot, error) {
	name := strings.TrimSpace(slotDoc.Name)
	if name == "" {
		return Slot{}, fmt.Errorf("%w: slot", ErrEmptyName)
	}

	jsonKey := slotDoc.JSON
	if jsonKey == "" {
		jsonKey = prefix + "_" + name
	}

	variants := make(VariantSet, 0, len(slotDoc.Variants))

	for _, expr := range slotDoc.Variants {
		variant, err := ParseVariant(expr)
		if err != nil {
			return Slot{}, fmt.Errorf("slot %s: %w", name, err)
		}

		variants = append(variants, variant)
	}

	return Slot{Name: name, JSONKey: jsonKey, Variants: variants}, nil
}

// checkVariants verifies that every variant refers to a declared kind.
func (c *Catalog) checkVariants() error {
	for _, kind := range c.kinds {
		for _, slot := range kind.slots {
			for _, variant := range slot.Variants {
				if !c.variantDeclared(variant) {
					return fmt.Errorf("kind %s slot %s: %w: %s", kind.Name, slot.Name, ErrUnknownVariant, variant)
				}
			}
		}
	}

	return nil
}

func (c *Catalog) variantDeclared(variant Variant) bool {
	switch variant.Class {
	case ClassComposite:
		_, ok := c.kinds[variant.Kind]

		return ok
	case ClassToken:
		return variant.Kind == "" || c.IsToken(variant.Kind)
	case ClassList, ClassMissing:
		return true
	default:
		return false
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}

	return set
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))

	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}

		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		out = append(out, ext)
	}

	return out
}
