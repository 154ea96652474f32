package catalog

import (
	"encoding/json"
	"fmt"
	"maps"
)

const (
	schemaDraft  = "http://json-schema.org/draft-07/schema#"
	refPrefix    = "#/definitions/"
	defNode      = "node"
	defToken     = "token"
	defList      = "list"
	defMissing   = "missing"
	defTrivia    = "trivia"
	defKindRoot  = "kind."
	jsonKindKey  = "kind"
	jsonTokenKey = "token"
)

// JSONSchema renders a draft-07 JSON schema accepting the parser input shape
// for this catalog: every composite kind with all its slot keys, lists,
// tokens with trivia, and missing nodes.
func (c *Catalog) JSONSchema() ([]byte, error) {
	kinds := c.Kinds()
	definitions := make(map[string]any, len(kinds)+5)
	alternatives := make([]any, 0, len(kinds)+3)

	alternatives = append(alternatives, ref(defMissing), ref(defList), ref(defToken))

	for _, kind := range kinds {
		definitions[defKindRoot+kind.Name] = kindSchema(kind)
		alternatives = append(alternatives, ref(defKindRoot+kind.Name))
	}

	definitions[defNode] = map[string]any{"oneOf": alternatives}
	definitions[defMissing] = objectSchema(KindMissing, nil, nil)
	definitions[defList] = objectSchema(KindList, []string{"elements"}, map[string]any{
		"elements": map[string]any{"type": "array", "items": ref(defNode)},
	})
	definitions[defTrivia] = c.triviaSchema()
	definitions[defToken] = objectSchema(KindToken, []string{jsonTokenKey}, map[string]any{
		jsonTokenKey: c.tokenBodySchema(),
	})

	schema := map[string]any{
		"$schema":     schemaDraft,
		"title":       c.Language + " parse tree",
		"definitions": definitions,
		"oneOf":       alternatives,
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return data, nil
}

func kindSchema(kind *Kind) map[string]any {
	required := make([]string, 0, len(kind.slots))
	properties := make(map[string]any, len(kind.slots))

	for _, slot := range kind.slots {
		required = append(required, slot.JSONKey)
		properties[slot.JSONKey] = ref(defNode)
	}

	return objectSchema(kind.Name, required, properties)
}

func (c *Catalog) tokenBodySchema() map[string]any {
	kindProp := map[string]any{"type": "string", "minLength": 1}
	if kinds := c.TokenKinds(); len(kinds) > 0 {
		kindProp = map[string]any{"enum": kinds}
	}

	triviaList := map[string]any{"type": "array", "items": ref(defTrivia)}

	return map[string]any{
		"type":     "object",
		"required": []string{jsonKindKey},
		"properties": map[string]any{
			jsonKindKey: kindProp,
			"text":      map[string]any{"type": "string"},
			"width":     map[string]any{"type": "integer", "minimum": 0},
			"leading":   triviaList,
			"trailing":  triviaList,
		},
		"anyOf": []any{
			map[string]any{"required": []string{"text"}},
			map[string]any{"required": []string{"width"}},
		},
	}
}

func (c *Catalog) triviaSchema() map[string]any {
	kindProp := map[string]any{"type": "string", "minLength": 1}
	if kinds := c.TriviaKinds(); len(kinds) > 0 {
		kindProp = map[string]any{"enum": kinds}
	}

	return map[string]any{
		"type":     "object",
		"required": []string{jsonKindKey},
		"properties": map[string]any{
			jsonKindKey: kindProp,
			"text":      map[string]any{"type": "string"},
			"width":     map[string]any{"type": "integer", "minimum": 0},
		},
		"anyOf": []any{
			map[string]any{"required": []string{"text"}},
			map[string]any{"required": []string{"width"}},
		},
	}
}

func objectSchema(kind string, required []string, properties map[string]any) map[string]any {
	props := map[string]any{jsonKindKey: map[string]any{"const": kind}}
	maps.Copy(props, properties)

	return map[string]any{
		"type":       "object",
		"required":   append([]string{jsonKindKey}, required...),
		"properties": props,
	}
}

func ref(name string) map[string]any {
	return map[string]any{"$ref": refPrefix + name}
}
