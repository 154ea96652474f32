package migrate

import (
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/node"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/rewrite"
)

// Names of the built-in migrations.
const (
	OptionalShapeFields = "optional-shape-fields"
	LabelColons         = "label-colons"
)

// Kinds of the default catalog used by the built-in migrations.
const (
	kindFieldSpecifier   = "field_specifier"
	kindNullableType     = "nullable_type_specifier"
	kindDefaultLabel     = "default_label"
	kindCaseLabel        = "case_label"
	tokenQuestion        = "question"
	tokenColon           = "colon"
	slotQuestion         = "question"
	slotName             = "name"
	slotType             = "type"
	slotColon            = "colon"
	textQuestion         = "?"
	textColon            = ":"
	stepNullableOptional = "make-nullable-fields-optional"
	stepDefaultColon     = "default-label-colon"
	stepCaseColon        = "case-label-colon"
)

// Builtins returns new instances of the built-in migrations.
func Builtins() []Migration {
	return []Migration{
		MustNew(OptionalShapeFields,
			"Mark shape fields with a nullable type as optional: 'a' => ?int becomes ?'a' => ?int.",
			NewStep(stepNullableOptional, makeNullableFieldsOptional),
		),
		MustNew(LabelColons,
			"Terminate switch labels with ':' instead of ';'.",
			NewStep(stepDefaultColon, labelColon(kindDefaultLabel)),
			NewStep(stepCaseColon, labelColon(kindCaseLabel)),
		),
	}
}

func makeNullableFieldsOptional(n node.Node, _ rewrite.Ancestors) (node.Node, error) {
	field, ok := n.(*node.Composite)
	if !ok || field.Kind() != kindFieldSpecifier || field.Has(slotQuestion) {
		return n, nil
	}

	fieldType, err := field.Get(slotType)
	if err != nil {
		return nil, err
	}

	if fieldType.Kind() != kindNullableType {
		return n, nil
	}

	name, err := field.GetComposite(slotName)
	if err != nil {
		return nil, err
	}

	name2, question, err := MoveLeadingTrivia(name, node.NewToken(tokenQuestion, nil, textQuestion, nil))
	if err != nil {
		return nil, err
	}

	field, err = field.With(slotQuestion, question)
	if err != nil {
		return nil, err
	}

	return field.With(slotName, name2)
}

func labelColon(kind string) rewrite.Func {
	return func(n node.Node, _ rewrite.Ancestors) (node.Node, error) {
		label, ok := n.(*node.Composite)
		if !ok || label.Kind() != kind || !label.Has(slotColon) {
			return n, nil
		}

		colon, err := label.GetToken(slotColon)
		if err != nil {
			return nil, err
		}

		return label.With(slotColon, ReplaceTokenKind(colon, tokenColon, textColon))
	}
}
