// Package paths expands user shorthand in configured paths and derives the
// archive file location for a job.
package paths

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"arkaive/internal/errors"
)

// Expand replaces a leading ~ or ~user with a home directory and $VAR or
// ${VAR} references with values from the process environment. Undefined
// variables are an error. $$ produces a literal $.
func Expand(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", errors.E(errors.KindPathExpansion, s, errors.New("path is not valid UTF-8"))
	}

	prefix, rest := splitTilde(s)

	rest, err := expandEnv(rest)
	if err != nil {
		return "", errors.E(errors.KindPathExpansion, s, err)
	}

	if prefix == "" {
		return rest, nil
	}

	home, err := homeDir(prefix[1:])
	if err != nil {
		return "", errors.E(errors.KindPathExpansion, s, err)
	}
	return home + rest, nil
}

// splitTilde separates a leading "~" or "~user" from the rest of s.
func splitTilde(s string) (string, string) {
	if !strings.HasPrefix(s, "~") {
		return "", s
	}
	i := strings.IndexFunc(s, func(r rune) bool { return r < utf8.RuneSelf && os.IsPathSeparator(uint8(r)) })
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func homeDir(name string) (string, error) {
	if name == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "resolving home directory")
		}
		return home, nil
	}

	u, err := user.Lookup(name)
	if err != nil {
		return "", errors.Wrapf(err, "resolving home directory of %q", name)
	}
	return u.HomeDir, nil
}

func expandEnv(s string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '$' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}

		var name string
		switch next := s[i+1]; {
		case next == '$':
			b.WriteByte('$')
			i++
			continue
		case next == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				return "", errors.Errorf("unterminated ${ at offset %d", i)
			}
			name = s[i+2 : i+2+end]
			if !isName(name) {
				return "", errors.Errorf("bad variable name %q", name)
			}
			i += end + 2
		case isNameByte(next):
			j := i + 1
			for j < len(s) && isNameByte(s[j]) {
				j++
			}
			name = s[i+1 : j]
			i = j - 1
		default:
			b.WriteByte('$')
			continue
		}

		value, ok := os.LookupEnv(name)
		if !ok {
			return "", errors.Errorf("environment variable %s is not set", name)
		}
		b.WriteString(value)
	}
	return b.String(), nil
}

func isNameByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isNameByte(s[i]) {
			return false
		}
	}
	return true
}

// abs makes p absolute without touching the filesystem beyond the working
// directory lookup.
func abs(p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	return filepath.Abs(p)
}
