package build

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/codemod/pkg/syntax/catalog"
)

// Validate checks a decoded parser tree against the catalog's JSON schema.
// It checks shape only; source offsets are checked by FromJSON.
func Validate(cat *catalog.Catalog, value any) (*gojsonschema.Result, error) {
	schemaBytes, err := cat.JSONSchema()
	if err != nil {
		return nil, err
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewGoLoader(value))
	if err != nil {
		return nil, fmt.Errorf("validate %s parse tree: %w", cat.Language, err)
	}

	return result, nil
}

// ValidationError turns a failed schema result into a *MalformedInputError
// naming the first offending field. It returns nil for valid results.
func ValidationError(file string, result *gojsonschema.Result) error {
	if result == nil || result.Valid() {
		return nil
	}

	errs := result.Errors()
	if len(errs) == 0 {
		return &MalformedInputError{File: file, Path: "$", Reason: "schema validation failed"}
	}

	reasons := make([]string, 0, len(errs))

	for _, resultErr := range errs {
		reasons = append(reasons, resultErr.String())
	}

	return &MalformedInputError{
		File:   file,
		Path:   "$." + errs[0].Field(),
		Reason: strings.Join(reasons, "; "),
	}
}
