// Package migratetest runs fixture corpora through migrations in tests.
package migratetest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codemod/pkg/migrate"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/build"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/catalog"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/node"
	"github.com/Sumatoshi-tech/codemod/pkg/textutil"
)

// RefreshEnv is the default variable that switches a corpus to refresh mode.
const RefreshEnv = "CODEMOD_REFRESH_CORPUS"

// Fixture file extensions.
const (
	InputExt    = ".json"
	ExpectedExt = ".expect"
)

// Corpus runs parser-document fixtures through migrations. Root holds one
// directory per migration, named after it; each <fixture>.json in there is
// migrated and compared against <fixture>.expect.
type Corpus struct {
	// Root is the fixture directory, relative to the test's package.
	Root string
	// Catalog builds the fixture trees. Nil means catalog.Default().
	Catalog *catalog.Catalog
	// Registry resolves directory names. Nil means migrate.Default().
	Registry *migrate.Registry
	// Refresh names the environment variable that, when set, rewrites the
	// expected outputs instead of comparing them. Empty means RefreshEnv.
	Refresh string
}

// Run checks every fixture: the expected output, per-step idempotence and
// migration idempotence.
func (c Corpus) Run(t *testing.T) {
	t.Helper()

	builder := build.New(c.catalog())
	registry := c.registry()
	refresh := os.Getenv(c.refreshEnv()) != ""

	dirs, err := os.ReadDir(c.Root)
	require.NoError(t, err, "read corpus root")

	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}

		m, err := registry.Lookup(dir.Name())
		require.NoError(t, err, "corpus directory %s", dir.Name())

		inputs, err := filepath.Glob(filepath.Join(c.Root, dir.Name(), "*"+InputExt))
		require.NoError(t, err)

		for _, input := range inputs {
			fixture := strings.TrimSuffix(filepath.Base(input), InputExt)

			t.Run(m.Name()+"/"+fixture, func(t *testing.T) {
				t.Parallel()

				c.runFixture(t, builder, m, input, refresh)
			})
		}
	}
}

func (c Corpus) runFixture(t *testing.T, builder *build.Builder, m migrate.Migration, input string, refresh bool) {
	t.Helper()

	data, err := os.ReadFile(input)
	require.NoError(t, err)

	tree, err := builder.FromDocument(data, input)
	require.NoError(t, err)

	migrated, err := migrate.Migrate(tree, m)
	require.NoError(t, err)

	got := node.FullText(migrated)
	expectPath := strings.TrimSuffix(input, InputExt) + ExpectedExt

	if refresh {
		require.NoError(t, os.WriteFile(expectPath, []byte(got), 0o600))
		t.Logf("refreshed %s", expectPath)
	} else {
		want, readErr := os.ReadFile(expectPath)
		require.NoError(t, readErr, "read expected output")

		assert.Equal(t, string(want), got, "migrated text differs:\n%s", textutil.LineDiff(string(want), got))
	}

	assert.NoError(t, migrate.CheckMigration(m, tree))
}

func (c Corpus) catalog() *catalog.Catalog {
	if c.Catalog != nil {
		return c.Catalog
	}

	return catalog.Default()
}

func (c Corpus) registry() *migrate.Registry {
	if c.Registry != nil {
		return c.Registry
	}

	return migrate.Default()
}

func (c Corpus) refreshEnv() string {
	if c.Refresh != "" {
		return c.Refresh
	}

	return RefreshEnv
}
