package errors

import "fmt"

// Kind classifies a failure. Every kind is terminal for the run.
type Kind string

const (
	KindConfigRead             Kind = "reading config file"
	KindConfigParse            Kind = "parsing config file"
	KindConfigInvalid          Kind = "invalid config"
	KindNoArchives             Kind = "no archives configured"
	KindPathExpansion          Kind = "expanding path"
	KindDirectoryRead          Kind = "reading source directory"
	KindEntryRead              Kind = "reading entry"
	KindFileCreate             Kind = "creating archive"
	KindDestinationUnavailable Kind = "destination directory unavailable"
)

// Error lets a Kind be used as a target for Is.
func (k Kind) Error() string { return string(k) }

// Error is a classified failure on a path.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

// E builds an *Error. path and err may be empty.
func E(kind Kind, path string, err error) error {
	return &Error{Kind: kind, Path: path, Err: err}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Path != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a bare Kind against the kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the kind of the outermost *Error in err's chain, or the
// empty Kind if there is none.
func KindOf(err error) Kind {
	var e *Error
	if As(err, &e) {
		return e.Kind
	}
	return ""
}
