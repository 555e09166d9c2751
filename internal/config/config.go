package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"arkaive/internal/errors"
)

const (
	appName  = "arkaive"
	fileName = "config.toml"
)

// Config represents the arkaive configuration file
type Config struct {
	// Archives is nil when the key is absent and empty when it is an empty list.
	Archives    []Archive         `mapstructure:"archives"`
	Compression CompressionConfig `mapstructure:"compression"`
	Log         LogConfig         `mapstructure:"log"`
}

// DefaultPath returns <user config dir>/arkaive/config.toml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locating user config directory")
	}
	return filepath.Join(dir, appName, fileName), nil
}

// Load reads and decodes the TOML file at path. Only the compression and
// log sections are defaulted; archives is returned as found.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.E(errors.KindConfigRead, path, err)
	}

	v := viper.New()
	v.SetConfigType("toml")

	v.SetDefault("compression.level", gzip.DefaultCompression)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "stderr")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, errors.E(errors.KindConfigParse, path, err)
	}

	config := new(Config)
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.E(errors.KindConfigParse, path, err)
	}

	if v.IsSet("archives") && config.Archives == nil {
		config.Archives = []Archive{}
	}

	return config, nil
}

// Validate checks the loaded configuration before any job runs
func (c *Config) Validate() error {
	if c.Archives == nil {
		return errors.E(errors.KindNoArchives, "", nil)
	}

	for i, a := range c.Archives {
		if err := a.Validate(); err != nil {
			return errors.E(errors.KindConfigInvalid, "", errors.Wrapf(err, "archives[%d]", i))
		}
	}

	if err := c.Compression.Validate(); err != nil {
		return errors.E(errors.KindConfigInvalid, "", err)
	}

	return nil
}
