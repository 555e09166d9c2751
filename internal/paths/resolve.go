package paths

import (
	"path/filepath"

	"arkaive/internal/config"
	"arkaive/internal/errors"
)

// Extension is appended to every archive name.
const Extension = ".tar.gz"

// Resolved holds the concrete locations for one archive job
type Resolved struct {
	Input  string
	Output string
}

// Resolve expands the input and output of a and places the archive file
// directly under the expanded output directory as <name>.tar.gz.
func Resolve(a config.Archive) (Resolved, error) {
	input, err := Expand(a.Input)
	if err != nil {
		return Resolved{}, err
	}
	input, err = abs(input)
	if err != nil {
		return Resolved{}, errors.E(errors.KindPathExpansion, a.Input, err)
	}

	dir, err := Expand(a.Output)
	if err != nil {
		return Resolved{}, err
	}
	dir, err = abs(dir)
	if err != nil {
		return Resolved{}, errors.E(errors.KindPathExpansion, a.Output, err)
	}

	return Resolved{
		Input:  input,
		Output: filepath.Join(dir, FileName(a.Name)),
	}, nil
}

// FileName returns the archive file name for a job name: always
// <name>.tar.gz, so distinct names never share a file.
func FileName(name string) string {
	return name + Extension
}
