package spdxer

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Config holds the run configuration. The exclusion list is an opaque set of
// filenames supplied by the configuration collaborator; excluded files are
// never opened.
type Config struct {
	Extensions  []string `yaml:"extensions" mapstructure:"extensions"`
	Exclude     []string `yaml:"exclude" mapstructure:"exclude"`
	Holder      Holder   `yaml:"holder" mapstructure:"holder"`
	CatalogFile string   `yaml:"catalog_file" mapstructure:"catalog_file"`
	Incremental bool     `yaml:"incremental" mapstructure:"incremental"`
	CacheDir    string   `yaml:"cache_dir" mapstructure:"cache_dir"`
}

// Holder identifies the copyright holder written into new headers.
type Holder struct {
	Name  string `yaml:"name" mapstructure:"name"`
	Email string `yaml:"email" mapstructure:"email"`
	Year  string `yaml:"year" mapstructure:"year"`
}

// LoadConfig reads the run configuration from cfgFile, or from the default
// search paths when cfgFile is empty. A missing config file is not an error;
// defaults apply.
func LoadConfig(fs afero.Fs, path string, cfgFile string) (Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("yml")

	fileInfo, statErr := fs.Stat(cfgFile)
	if statErr == nil && !fileInfo.IsDir() {
		v.SetConfigFile(cfgFile)
	} else {
		if cfgFile != "" {
			if strings.HasSuffix(cfgFile, ".yml") || strings.HasSuffix(cfgFile, ".yaml") {
				v.SetConfigFile(cfgFile)
			} else {
				v.SetConfigName(cfgFile)
			}
		} else {
			v.SetConfigName(".spdxer")
		}

		v.AddConfigPath(path)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.spdxer")
	}

	v.SetDefault("extensions", []string{".py"})
	v.SetDefault("exclude", []string{})
	v.SetDefault("holder.name", "")
	v.SetDefault("holder.email", "")
	v.SetDefault("holder.year", strconv.Itoa(time.Now().Year()))
	v.SetDefault("catalog_file", "")
	v.SetDefault("incremental", false)
	v.SetDefault("cache_dir", ".spdxer-cache")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, NewConfigError("failed loading config file", err)
		}
		// No config file: defaults only.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, NewConfigError("failed unmarshaling config file", err)
	}

	return config, nil
}

// CopyrightFields returns the holder identity as header copyright fields, or
// nil when no holder is configured.
func (c Config) CopyrightFields() *CopyrightFields {
	if c.Holder.Name == "" && c.Holder.Email == "" {
		return nil
	}
	return &CopyrightFields{
		Year:   c.Holder.Year,
		Holder: c.Holder.Name,
		Email:  c.Holder.Email,
	}
}

// excluded reports whether a file name is in the exclusion set.
func (c Config) excluded(name string) bool {
	for _, ex := range c.Exclude {
		if ex == name {
			return true
		}
	}
	return false
}

// matchesExtension reports whether a file name carries one of the candidate
// extensions.
func (c Config) matchesExtension(name string) bool {
	for _, ext := range c.Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
