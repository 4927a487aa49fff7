package spdxer

import (
	"strconv"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()

	cfg, err := LoadConfig(fs, "/proj", "")
	require.NoError(t, err)

	assert.Equal(t, []string{".py"}, cfg.Extensions)
	assert.Empty(t, cfg.Exclude)
	assert.Empty(t, cfg.Holder.Name)
	assert.Equal(t, strconv.Itoa(time.Now().Year()), cfg.Holder.Year)
	assert.Empty(t, cfg.CatalogFile)
	assert.False(t, cfg.Incremental)
	assert.Equal(t, ".spdxer-cache", cfg.CacheDir)
}

func TestLoadConfigFromFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `
extensions:
  - .py
  - .pyi
exclude:
  - setup.py
holder:
  name: Example Corp
  email: legal@example.com
  year: "2026"
catalog_file: /etc/spdx/catalog.json
incremental: true
cache_dir: /tmp/spdxer-cache
`
	require.NoError(t, afero.WriteFile(fs, "/proj/.spdxer.yml", []byte(content), 0644))

	cfg, err := LoadConfig(fs, "/proj", "")
	require.NoError(t, err)

	assert.Equal(t, []string{".py", ".pyi"}, cfg.Extensions)
	assert.Equal(t, []string{"setup.py"}, cfg.Exclude)
	assert.Equal(t, "Example Corp", cfg.Holder.Name)
	assert.Equal(t, "legal@example.com", cfg.Holder.Email)
	assert.Equal(t, "2026", cfg.Holder.Year)
	assert.Equal(t, "/etc/spdx/catalog.json", cfg.CatalogFile)
	assert.True(t, cfg.Incremental)
	assert.Equal(t, "/tmp/spdxer-cache", cfg.CacheDir)
}

func TestLoadConfigExplicitFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/custom.yml",
		[]byte("extensions:\n  - .sh\n"), 0644))

	cfg, err := LoadConfig(fs, "/proj", "/etc/custom.yml")
	require.NoError(t, err)
	assert.Equal(t, []string{".sh"}, cfg.Extensions)
}

func TestLoadConfigMalformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/.spdxer.yml",
		[]byte("extensions: [unclosed\n"), 0644))

	_, err := LoadConfig(fs, "/proj", "")
	require.Error(t, err)

	info, ok := GetErrorInfo(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeConfig, info.Type)
}

func TestConfigCopyrightFields(t *testing.T) {
	tests := map[string]struct {
		holder Holder
		want   *CopyrightFields
	}{
		"no holder": {
			holder: Holder{Year: "2026"},
			want:   nil,
		},
		"name only": {
			holder: Holder{Name: "Example Corp", Year: "2026"},
			want:   &CopyrightFields{Year: "2026", Holder: "Example Corp"},
		},
		"email only": {
			holder: Holder{Email: "legal@example.com"},
			want:   &CopyrightFields{Email: "legal@example.com"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Config{Holder: test.holder}
			assert.Equal(t, test.want, cfg.CopyrightFields())
		})
	}
}

func TestConfigMatching(t *testing.T) {
	cfg := Config{
		Extensions: []string{".py", ".pyi"},
		Exclude:    []string{"setup.py"},
	}

	assert.True(t, cfg.matchesExtension("main.py"))
	assert.True(t, cfg.matchesExtension("types.pyi"))
	assert.False(t, cfg.matchesExtension("main.go"))
	assert.True(t, cfg.excluded("setup.py"))
	assert.False(t, cfg.excluded("main.py"))
}