package build_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codemod/pkg/syntax/build"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/catalog"
)

func TestValidateFixtures(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"shape.json", "switch.json", "awaitable.json"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tree, _, err := build.DecodeDocument(readFixture(t, name), name)
			require.NoError(t, err)

			result, err := build.Validate(catalog.Default(), tree)
			require.NoError(t, err)
			assert.True(t, result.Valid(), "%v", result.Errors())
			assert.NoError(t, build.ValidationError(name, result))
		})
	}
}

func TestValidateRejectsMissingSlot(t *testing.T) {
	t.Parallel()

	tree := decode(t, `{"kind": "default_label",
		"default_keyword": {"kind": "token", "token": {"kind": "default", "text": "default"}}}`)

	result, err := build.Validate(catalog.Default(), tree)
	require.NoError(t, err)
	assert.False(t, result.Valid())

	err = build.ValidationError("bad.json", result)
	require.ErrorIs(t, err, build.ErrMalformedInput)
}

func TestValidateRejectsUnknownTokenKind(t *testing.T) {
	t.Parallel()

	tree := decode(t, `{"kind": "token", "token": {"kind": "nope", "text": "x"}}`)

	result, err := build.Validate(catalog.Default(), tree)
	require.NoError(t, err)
	assert.False(t, result.Valid())
}
