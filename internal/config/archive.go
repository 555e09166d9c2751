package config

import (
	"strings"

	"arkaive/internal/errors"
)

// Archive describes one directory to archive
type Archive struct {
	Name   string `mapstructure:"name"`
	Input  string `mapstructure:"input"`
	Output string `mapstructure:"output"`
}

func (a Archive) Validate() error {
	if a.Name == "" {
		return errors.New("name is required")
	}
	if a.Input == "" {
		return errors.Errorf("%s: input is required", a.Name)
	}
	if a.Output == "" {
		return errors.Errorf("%s: output is required", a.Name)
	}
	if a.Name == "." || a.Name == ".." || strings.ContainsAny(a.Name, "/\\\x00") {
		return errors.Errorf("name %q is not a valid file name", a.Name)
	}
	return nil
}
