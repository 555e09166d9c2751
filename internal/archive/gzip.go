package archive

import (
	"io"

	"github.com/klauspost/compress/gzip"

	"arkaive/internal/errors"
)

// Compress wraps dst in a gzip stream at level and passes it to fn. The
// gzip writer is closed whether or not fn succeeds.
func Compress(dst io.Writer, level int, fn func(w io.Writer) error) error {
	zw, err := gzip.NewWriterLevel(dst, level)
	if err != nil {
		return errors.Wrapf(err, "gzip level %d", level)
	}

	if err := fn(zw); err != nil {
		_ = zw.Close()
		return err
	}

	return errors.Wrap(zw.Close(), "closing gzip stream")
}
