package node_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codemod/pkg/syntax/node"
)

// switchSection builds "  default ;\n" followed by "    return;\n".
func switchSection(t *testing.T) *node.Composite {
	t.Helper()

	labels, err := node.NewList(defaultLabel(t))
	require.NoError(t, err)

	ret, err := node.NewComposite(kind(t, "return_statement"),
		node.NewToken("return", []node.Trivia{ws("    ")}, "return", nil),
		node.NewMissing(),
		node.NewToken("semicolon", nil, ";", []node.Trivia{{Kind: "end_of_line", Text: "\n"}}),
	)
	require.NoError(t, err)

	statements, err := node.NewList(ret)
	require.NoError(t, err)

	section, err := node.NewComposite(kind(t, "switch_section"), labels, statements, node.NewMissing())
	require.NoError(t, err)

	return section
}

func kinds(nodes []node.Node) []string {
	out := make([]string, len(nodes))
	for idx, n := range nodes {
		out[idx] = n.Kind()
	}

	return out
}

func TestPreOrderPostOrder(t *testing.T) {
	t.Parallel()

	section := switchSection(t)

	var pre, post []node.Node

	for n := range node.PreOrder(section) {
		pre = append(pre, n)
	}

	for n := range node.PostOrder(section) {
		post = append(post, n)
	}

	assert.Equal(t, []string{
		"switch_section", "list", "default_label", "default", "semicolon",
		"list", "return_statement", "return", "missing", "semicolon", "missing",
	}, kinds(pre))
	assert.Equal(t, []string{
		"default", "semicolon", "default_label", "list",
		"return", "missing", "semicolon", "return_statement", "list", "missing", "switch_section",
	}, kinds(post))
}

func TestPreOrderStopsEarly(t *testing.T) {
	t.Parallel()

	count := 0

	for range node.PreOrder(switchSection(t)) {
		count++
		if count == 3 {
			break
		}
	}

	assert.Equal(t, 3, count)
}

func TestFind(t *testing.T) {
	t.Parallel()

	section := switchSection(t)

	semicolons := node.Find(section, func(n node.Node) bool { return n.Kind() == "semicolon" })
	assert.Len(t, semicolons, 2)

	labels := node.FindKind(section, "default_label")
	require.Len(t, labels, 1)
	assert.Equal(t, "  default ;\n", node.FullText(labels[0]))

	assert.Empty(t, node.FindKind(section, "case_label"))
}

func TestAncestors(t *testing.T) {
	t.Parallel()

	section := switchSection(t)
	label := node.FindKind(section, "default_label")[0]
	keyword := label.Child(0)

	path := node.Ancestors(section, keyword)
	assert.Equal(t, []string{"switch_section", "list", "default_label"}, kinds(path))
	assert.Same(t, label, path[2])

	assert.Nil(t, node.Ancestors(section, section))
	assert.Nil(t, node.Ancestors(section, node.NewToken("default", nil, "default", nil)))
}

func TestTokens(t *testing.T) {
	t.Parallel()

	section := switchSection(t)

	tokens := node.Tokens(section)
	require.Len(t, tokens, 4)
	assert.Equal(t, "default", node.FirstToken(section).Text())
	assert.Equal(t, "semicolon", node.LastToken(section).Kind())
	assert.Same(t, tokens[3], node.LastToken(section))

	assert.Nil(t, node.FirstToken(node.NewMissing()))
	assert.Equal(t, "default ;\n    return;", node.Text(section))
}

func TestEqual(t *testing.T) {
	t.Parallel()

	first, second := switchSection(t), switchSection(t)

	assert.True(t, node.Equal(first, second))
	assert.True(t, node.Equal(first, first))
	assert.False(t, node.Equal(first, nil))

	label := node.FindKind(second, "default_label")[0]
	colon := node.NewToken("colon", nil, ";", []node.Trivia{{Kind: "end_of_line", Text: "\n"}})

	changedLabel, err := label.With("colon", colon)
	require.NoError(t, err)

	assert.False(t, node.Equal(label, changedLabel), "token kind differs")
	assert.Equal(t, node.FullText(label), node.FullText(changedLabel))
}

func TestFullTextWriters(t *testing.T) {
	t.Parallel()

	section := switchSection(t)

	var buf bytes.Buffer

	require.NoError(t, node.WriteFullText(&buf, section))
	assert.Equal(t, "  default ;\n    return;\n", buf.String())
	assert.Equal(t, section.Width(), buf.Len())
}

func TestDump(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, node.Dump(&buf, defaultLabel(t)))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"default_label",
		`  keyword: token:default "default" leading="  " trailing=" "`,
		`  colon: token:semicolon ";" trailing="\n"`,
	}, lines)
}

func TestOutlineMatchesDump(t *testing.T) {
	t.Parallel()

	label := defaultLabel(t)

	var buf bytes.Buffer

	require.NoError(t, node.Dump(&buf, label))
	assert.Equal(t, buf.String(), node.Outline(label))
	assert.Equal(t, "missing\n", node.Outline(node.NewMissing()))
}
