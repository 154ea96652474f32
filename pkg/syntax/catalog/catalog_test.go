package catalog_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codemod/pkg/syntax/catalog"
)

func TestParseVariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr    string
		want    catalog.Variant
		wantErr bool
	}{
		{expr: "missing", want: catalog.Variant{Class: catalog.ClassMissing, Kind: "missing"}},
		{expr: "list", want: catalog.Variant{Class: catalog.ClassList, Kind: "list"}},
		{expr: "token", want: catalog.Variant{Class: catalog.ClassToken}},
		{expr: "token:colon", want: catalog.Variant{Class: catalog.ClassToken, Kind: "colon"}},
		{expr: " default_label ", want: catalog.Variant{Class: catalog.ClassComposite, Kind: "default_label"}},
		{expr: "", wantErr: true},
		{expr: "token:", wantErr: true},
		{expr: "foo:bar", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()

			got, err := catalog.ParseVariant(tt.expr)
			if tt.wantErr {
				require.ErrorIs(t, err, catalog.ErrInvalidVariant)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.TrimSpace(tt.expr), got.String())
		})
	}
}

func TestVariantSetAccepts(t *testing.T) {
	t.Parallel()

	set := catalog.VariantSet{
		{Class: catalog.ClassToken, Kind: "colon"},
		{Class: catalog.ClassToken, Kind: "semicolon"},
	}

	assert.True(t, set.Accepts(catalog.ClassToken, "colon"))
	assert.True(t, set.Accepts(catalog.ClassToken, "semicolon"))
	assert.False(t, set.Accepts(catalog.ClassToken, "comma"))
	assert.False(t, set.Accepts(catalog.ClassMissing, "missing"))
	assert.False(t, set.AllowsMissing())
	assert.Equal(t, "token:colon | token:semicolon", set.String())

	var anything catalog.VariantSet

	assert.True(t, anything.Accepts(catalog.ClassComposite, "script"))
	assert.Equal(t, "any", anything.String())

	anyToken := catalog.VariantSet{{Class: catalog.ClassToken}, {Class: catalog.ClassMissing, Kind: "missing"}}
	assert.True(t, anyToken.Accepts(catalog.ClassToken, "whatever"))
	assert.True(t, anyToken.AllowsMissing())
}

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	assert.Same(t, cat, catalog.Default())
	assert.Equal(t, "Hack", cat.Language)
	assert.Contains(t, cat.Extensions, ".hack")

	label, ok := cat.Kind("default_label")
	require.True(t, ok)
	assert.Equal(t, []string{"keyword", "colon"}, label.SlotNames())
	assert.Equal(t, 2, label.Arity())

	colon, idx, ok := label.Slot("colon")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "default_colon", colon.JSONKey)
	assert.Equal(t, "token:colon | token:semicolon", colon.Variants.String())

	_, _, ok = label.Slot("nope")
	assert.False(t, ok)

	awaitable, ok := cat.Kind("awaitable_creation_expression")
	require.True(t, ok)

	coroutine, _, ok := awaitable.Slot("coroutine")
	require.True(t, ok)
	assert.Equal(t, "awaitable_coroutine", coroutine.JSONKey)
	assert.True(t, coroutine.Variants.AllowsMissing())

	assert.True(t, cat.IsToken("semicolon"))
	assert.False(t, cat.IsToken("semicolons"))
	assert.True(t, cat.IsTrivia("whitespace"))
	assert.False(t, cat.IsTrivia("semicolon"))

	kinds := cat.Kinds()
	require.NotEmpty(t, kinds)

	for idx := 1; idx < len(kinds); idx++ {
		assert.Less(t, kinds[idx-1].Name, kinds[idx].Name)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	doc := `
language: Toy
extensions: [toy, ".TY"]
tokens: [semicolon, name]
kinds:
  - name: statement
    prefix: stmt
    slots:
      - {name: name, variants: ["token:name"]}
      - {name: semicolon, json: terminator, variants: [missing, "token:semicolon"]}
`

	cat, err := catalog.Load(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{".toy", ".ty"}, cat.Extensions)

	stmt, ok := cat.Kind("statement")
	require.True(t, ok)
	assert.Equal(t, "stmt", stmt.Prefix)
	assert.Equal(t, "stmt_name", stmt.Slots()[0].JSONKey)
	assert.Equal(t, "terminator", stmt.Slots()[1].JSONKey)
	assert.Equal(t, []string{"name", "semicolon"}, cat.TokenKinds())
	assert.True(t, cat.IsTrivia("anything"), "undeclared trivia list accepts any kind")
}

func TestKindSlotsAreCopies(t *testing.T) {
	t.Parallel()

	info, ok := catalog.Default().Kind("default_label")
	require.True(t, ok)

	before := info.SlotNames()

	slots := info.Slots()
	require.NotEmpty(t, slots)

	slots[0].Name = "renamed"
	slots[0].Variants[0] = catalog.Variant{}

	assert.Equal(t, before, info.SlotNames())
	assert.Equal(t, len(before), info.Arity())
	assert.Equal(t, before[0], info.SlotAt(0).Name)
	assert.NotEqual(t, catalog.Variant{}, info.SlotAt(0).Variants[0])

	_, idx, found := info.Slot(before[0])
	require.True(t, found)
	assert.Zero(t, idx)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "no language",
			doc:  "kinds: [{name: a}]",
			want: catalog.ErrNoLanguage,
		},
		{
			name: "no kinds",
			doc:  "language: X",
			want: catalog.ErrNoKinds,
		},
		{
			name: "duplicate kind",
			doc:  "language: X\nkinds: [{name: a}, {name: a}]",
			want: catalog.ErrDuplicateKind,
		},
		{
			name: "reserved kind",
			doc:  "language: X\nkinds: [{name: list}]",
			want: catalog.ErrReservedKind,
		},
		{
			name: "duplicate slot",
			doc:  "language: X\nkinds: [{name: a, slots: [{name: s}, {name: s}]}]",
			want: catalog.ErrDuplicateSlot,
		},
		{
			name: "duplicate json key",
			doc:  "language: X\nkinds: [{name: a, slots: [{name: s}, {name: t, json: a_s}]}]",
			want: catalog.ErrDuplicateJSONKey,
		},
		{
			name: "empty slot name",
			doc:  "language: X\nkinds: [{name: a, slots: [{name: ''}]}]",
			want: catalog.ErrEmptyName,
		},
		{
			name: "unknown composite variant",
			doc:  "language: X\nkinds: [{name: a, slots: [{name: s, variants: [b]}]}]",
			want: catalog.ErrUnknownVariant,
		},
		{
			name: "unknown token variant",
			doc:  "language: X\ntokens: [colon]\nkinds: [{name: a, slots: [{name: s, variants: ['token:semicolon']}]}]",
			want: catalog.ErrUnknownVariant,
		},
		{
			name: "invalid variant",
			doc:  "language: X\nkinds: [{name: a, slots: [{name: s, variants: ['a b']}]}]",
			want: catalog.ErrInvalidVariant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := catalog.Load(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := catalog.Load(strings.NewReader("language: X\nkindz: []\n"))
	require.Error(t, err)
}

func TestJSONSchema(t *testing.T) {
	t.Parallel()

	data, err := catalog.Default().JSONSchema()
	require.NoError(t, err)

	var schema struct {
		Definitions map[string]struct {
			Required []string `json:"required"`
		} `json:"definitions"`
		OneOf []map[string]string `json:"oneOf"`
	}

	require.NoError(t, json.Unmarshal(data, &schema))

	label, ok := schema.Definitions["kind.default_label"]
	require.True(t, ok)
	assert.Equal(t, []string{"kind", "default_keyword", "default_colon"}, label.Required)
	assert.Contains(t, schema.Definitions, "token")
	assert.Contains(t, schema.Definitions, "trivia")
	assert.Len(t, schema.OneOf, len(catalog.Default().Kinds())+3)
}
