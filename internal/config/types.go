package config

import (
	"github.com/klauspost/compress/gzip"

	"arkaive/internal/errors"
)

// CompressionConfig represents the gzip settings shared by all archives
type CompressionConfig struct {
	Level int `mapstructure:"level"`
}

func (c CompressionConfig) Validate() error {
	if c.Level < gzip.HuffmanOnly || c.Level > gzip.BestCompression {
		return errors.Errorf("compression level %d out of range [%d, %d]", c.Level, gzip.HuffmanOnly, gzip.BestCompression)
	}
	return nil
}

// LogConfig represents the logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}
