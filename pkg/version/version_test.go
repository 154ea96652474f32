package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/codemod/pkg/version"
)

func TestInitBinaryVersion(t *testing.T) {
	t.Parallel()

	version.InitBinaryVersion()
	version.InitBinaryVersion()

	assert.NotEmpty(t, version.Version)
	assert.NotEmpty(t, version.Commit)
	assert.NotEmpty(t, version.Date)
	assert.Equal(t, version.Version+" (commit: "+version.Commit+", built: "+version.Date+")", version.String())
}
