// Package build constructs syntax trees from a parser's positional JSON output
// and the original source text.
package build

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/Sumatoshi-tech/codemod/pkg/syntax/catalog"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/node"
)

// JSON keys of the parser input.
const (
	keyKind        = "kind"
	keyToken       = "token"
	keyText        = "text"
	keyWidth       = "width"
	keyLeading     = "leading"
	keyTrailing    = "trailing"
	keyElements    = "elements"
	keyParseTree   = "parse_tree"
	keyProgramText = "program_text"
)

// ErrMalformedInput matches every *MalformedInputError with errors.Is.
var ErrMalformedInput = errors.New("malformed parser input")

// MalformedInputError reports parser input that does not match the catalog.
type MalformedInputError struct {
	File   string
	Path   string
	Kind   string
	Offset int
	Reason string
}

func (e *MalformedInputError) Error() string {
	var buf bytes.Buffer

	buf.WriteString(ErrMalformedInput.Error())

	if e.File != "" {
		buf.WriteString(" in ")
		buf.WriteString(e.File)
	}

	fmt.Fprintf(&buf, " at %s (offset %d", e.Path, e.Offset)

	if e.Kind != "" {
		buf.WriteString(", kind ")
		buf.WriteString(e.Kind)
	}

	buf.WriteString("): ")
	buf.WriteString(e.Reason)

	return buf.String()
}

// Is makes errors.Is(err, ErrMalformedInput) succeed.
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// Builder constructs trees for one catalog. It holds no per-call state and
// is safe for concurrent use.
type Builder struct {
	catalog *catalog.Catalog
}

// New creates a Builder for cat.
func New(cat *catalog.Catalog) *Builder {
	return &Builder{catalog: cat}
}

// Catalog returns the builder's catalog.
func (b *Builder) Catalog() *catalog.Catalog {
	return b.catalog
}

// FromJSON builds the node described by value, a decoded JSON object
// (map[string]any), whose text starts at offset in source. Children are built
// in slot order, each starting where the previous one ended. Every token and
// trivia text must match the source at its offset. On failure no node is
// returned.
func (b *Builder) FromJSON(value any, file string, offset int, source string) (node.Node, error) {
	if offset < 0 || offset > len(source) {
		return nil, &MalformedInputError{
			File: file, Path: "$", Offset: offset,
			Reason: fmt.Sprintf("start offset outside source of %d bytes", len(source)),
		}
	}

	run := &construction{catalog: b.catalog, file: file, source: source}

	built, err := run.node(value, "$", offset)
	if err != nil {
		return nil, err
	}

	return built, nil
}

// FromDocument decodes a parser document {"parse_tree": ..., "program_text": ...}
// and builds the whole-file tree.
func (b *Builder) FromDocument(data []byte, file string) (node.Node, error) {
	tree, source, err := DecodeDocument(data, file)
	if err != nil {
		return nil, err
	}

	return b.FromDecoded(tree, source, file)
}

// FromDecoded builds the whole-file tree from a document already split by
// DecodeDocument. The tree must cover the program text exactly.
func (b *Builder) FromDecoded(tree any, source, file string) (node.Node, error) {
	root, err := b.FromJSON(tree, file, 0, source)
	if err != nil {
		return nil, err
	}

	if root.Width() != len(source) {
		return nil, &MalformedInputError{
			File: file, Path: "$", Kind: root.Kind(), Offset: root.Width(),
			Reason: fmt.Sprintf("tree covers %d of %d source bytes", root.Width(), len(source)),
		}
	}

	return root, nil
}

// DecodeDocument splits a parser document into its tree value and program text.
func DecodeDocument(data []byte, file string) (tree any, source string, err error) {
	var doc map[string]any

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	decodeErr := dec.Decode(&doc)
	if decodeErr != nil {
		return nil, "", &MalformedInputError{File: file, Path: "$", Reason: "invalid JSON: " + decodeErr.Error()}
	}

	tree, ok := doc[keyParseTree]
	if !ok {
		return nil, "", &MalformedInputError{File: file, Path: "$", Reason: "missing key " + strconv.Quote(keyParseTree)}
	}

	source, ok = doc[keyProgramText].(string)
	if !ok {
		return nil, "", &MalformedInputError{File: file, Path: "$", Reason: "missing or non-string " + strconv.Quote(keyProgramText)}
	}

	return tree, source, nil
}

// construction carries the immutable inputs of one FromJSON call.
type construction struct {
	catalog *catalog.Catalog
	file    string
	source  string
}

func (c *construction) fail(path, kind string, offset int, format string, args ...any) error {
	return &MalformedInputError{
		File:   c.file,
		Path:   path,
		Kind:   kind,
		Offset: offset,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (c *construction) node(value any, path string, offset int) (node.Node, error) {
	object, ok := value.(map[string]any)
	if !ok {
		return nil, c.fail(path, "", offset, "expected object, got %s", describe(value))
	}

	kind, ok := object[keyKind].(string)
	if !ok {
		return nil, c.fail(path, "", offset, "missing or non-string %q", keyKind)
	}

	switch kind {
	case catalog.KindMissing:
		return node.NewMissing(), nil
	case catalog.KindToken:
		return c.token(object, path, offset)
	case catalog.KindList:
		return c.list(object, path, offset)
	}

	info, ok := c.catalog.Kind(kind)
	if !ok {
		return nil, c.fail(path, kind, offset, "unknown kind")
	}

	return c.composite(info, object, path, offset)
}

func (c *construction) composite(info *catalog.Kind, object map[string]any, path string, offset int) (node.Node, error) {
	children := make([]node.Node, 0, info.Arity())

	for idx := range info.Arity() {
		slot := info.SlotAt(idx)

		value, ok := object[slot.JSONKey]
		if !ok {
			return nil, c.fail(path, info.Name, offset, "missing key %q", slot.JSONKey)
		}

		child, err := c.node(value, path+"."+slot.JSONKey, offset)
		if err != nil {
			return nil, err
		}

		offset += child.Width()
		children = append(children, child)
	}

	built, err := node.NewComposite(info, children...)
	if err != nil {
		return nil, c.fail(path, info.Name, offset, "%v", err)
	}

	return built, nil
}

func (c *construction) list(object map[string]any, path string, offset int) (node.Node, error) {
	elements, ok := object[keyElements].([]any)
	if !ok {
		return nil, c.fail(path, catalog.KindList, offset, "missing or non-array %q", keyElements)
	}

	items := make([]node.Node, 0, len(elements))

	for idx, element := range elements {
		item, err := c.node(element, path+"."+keyElements+"["+strconv.Itoa(idx)+"]", offset)
		if err != nil {
			return nil, err
		}

		offset += item.Width()
		items = append(items, item)
	}

	built, err := node.NewList(items...)
	if err != nil {
		return nil, c.fail(path, catalog.KindList, offset, "%v", err)
	}

	return built, nil
}

func (c *construction) token(object map[string]any, path string, offset int) (node.Node, error) {
	body, ok := object[keyToken].(map[string]any)
	if !ok {
		return nil, c.fail(path, catalog.KindToken, offset, "missing or non-object %q", keyToken)
	}

	path += "." + keyToken

	kind, ok := body[keyKind].(string)
	if !ok || !c.catalog.IsToken(kind) {
		return nil, c.fail(path, catalog.KindToken, offset, "unknown token kind %s", describe(body[keyKind]))
	}

	leading, offset, err := c.triviaList(body[keyLeading], path+"."+keyLeading, kind, offset)
	if err != nil {
		return nil, err
	}

	text, err := c.text(body, path, kind, offset)
	if err != nil {
		return nil, err
	}

	offset += len(text)

	trailing, _, err := c.triviaList(body[keyTrailing], path+"."+keyTrailing, kind, offset)
	if err != nil {
		return nil, err
	}

	return node.NewToken(kind, leading, text, trailing), nil
}

func (c *construction) triviaList(value any, path, kind string, offset int) ([]node.Trivia, int, error) {
	if value == nil {
		return nil, offset, nil
	}

	items, ok := value.([]any)
	if !ok {
		return nil, offset, c.fail(path, kind, offset, "expected trivia array, got %s", describe(value))
	}

	trivia := make([]node.Trivia, 0, len(items))

	for idx, item := range items {
		itemPath := path + "[" + strconv.Itoa(idx) + "]"

		object, ok := item.(map[string]any)
		if !ok {
			return nil, offset, c.fail(itemPath, kind, offset, "expected trivia object, got %s", describe(item))
		}

		triviaKind, ok := object[keyKind].(string)
		if !ok || !c.catalog.IsTrivia(triviaKind) {
			return nil, offset, c.fail(itemPath, kind, offset, "unknown trivia kind %s", describe(object[keyKind]))
		}

		text, err := c.text(object, itemPath, kind, offset)
		if err != nil {
			return nil, offset, err
		}

		offset += len(text)
		trivia = append(trivia, node.Trivia{Kind: triviaKind, Text: text})
	}

	return trivia, offset, nil
}

// text reads an explicit "text" and checks it against the source, or slices
// "width" bytes from the source.
func (c *construction) text(object map[string]any, path, kind string, offset int) (string, error) {
	if raw, present := object[keyText]; present {
		text, ok := raw.(string)
		if !ok {
			return "", c.fail(path, kind, offset, "non-string %q", keyText)
		}

		if len(text) > len(c.source)-offset || c.source[offset:offset+len(text)] != text {
			return "", c.fail(path, kind, offset, "text %q does not match source", text)
		}

		return text, nil
	}

	width, err := intValue(object[keyWidth])
	if err != nil {
		return "", c.fail(path, kind, offset, "need %q or %q: %v", keyText, keyWidth, err)
	}

	if width < 0 || width > len(c.source)-offset {
		return "", c.fail(path, kind, offset, "width %d runs past end of source", width)
	}

	return c.source[offset : offset+width], nil
}

var errNotInteger = errors.New("not an integer")

func intValue(value any) (int, error) {
	switch typed := value.(type) {
	case json.Number:
		parsed, err := strconv.Atoi(typed.String())
		if err != nil {
			return 0, fmt.Errorf("%w: %s", errNotInteger, typed)
		}

		return parsed, nil
	case float64:
		if typed != math.Trunc(typed) || typed < math.MinInt || typed >= math.MaxInt {
			return 0, fmt.Errorf("%w: %v", errNotInteger, typed)
		}

		return int(typed), nil
	case int:
		return typed, nil
	default:
		return 0, fmt.Errorf("%w: %s", errNotInteger, describe(value))
	}
}

func describe(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string " + strconv.Quote(value.(string))
	case bool:
		return "boolean"
	case json.Number, float64, int:
		return fmt.Sprintf("number %v", value)
	default:
		return fmt.Sprintf("%T", value)
	}
}
