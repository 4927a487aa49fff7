package spdxer

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadBundledCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := LoadCatalog(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	return cat
}

func TestExtract(t *testing.T) {
	fs := afero.NewMemMapFs()
	cat := loadBundledCatalog(t)

	path, err := Extract(fs, cat, "MIT", "/proj", false)
	require.NoError(t, err)
	assert.Equal(t, "/proj/LICENSE", path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "MIT License")
	for _, line := range strings.Split(text, "\n") {
		assert.LessOrEqual(t, len(line), wrapWidth)
	}
}

func TestExtractCollisionNaming(t *testing.T) {
	fs := afero.NewMemMapFs()
	cat := loadBundledCatalog(t)

	first, err := Extract(fs, cat, "MIT", "/proj", false)
	require.NoError(t, err)
	assert.Equal(t, "/proj/LICENSE", first)

	second, err := Extract(fs, cat, "MIT", "/proj", false)
	require.NoError(t, err)
	assert.Equal(t, "/proj/LICENSE-MIT", second)

	third, err := Extract(fs, cat, "MIT", "/proj", false)
	require.NoError(t, err)
	assert.Equal(t, "/proj/LICENSE-MIT.1", third)

	fourth, err := Extract(fs, cat, "MIT", "/proj", false)
	require.NoError(t, err)
	assert.Equal(t, "/proj/LICENSE-MIT.2", fourth)

	// Every earlier file is still intact.
	for _, p := range []string{first, second, third} {
		exists, err := afero.Exists(fs, p)
		require.NoError(t, err)
		assert.True(t, exists)
	}
}

func TestExtractDryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	cat := loadBundledCatalog(t)

	path, err := Extract(fs, cat, "MIT", "/proj", true)
	require.NoError(t, err)
	assert.Equal(t, "/proj/LICENSE", path)

	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.False(t, exists, "dry run must not write")
}

func TestExtractPlaceholder(t *testing.T) {
	fs := afero.NewMemMapFs()
	cat := loadBundledCatalog(t)

	// Apache-2.0 carries no bundled template text.
	path, err := Extract(fs, cat, "Apache-2.0", "/proj", false)
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://spdx.org/licenses/Apache-2.0.html")
}

func TestExtractUnknownLicense(t *testing.T) {
	fs := afero.NewMemMapFs()
	cat := loadBundledCatalog(t)

	_, err := Extract(fs, cat, "WTFPL", "/proj", false)
	var notFound *LicenseNotFoundError
	require.ErrorAs(t, err, &notFound)

	entries, readErr := afero.ReadDir(fs, "/proj")
	if readErr == nil {
		assert.Empty(t, entries)
	}
}