package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"arkaive/internal/errors"
)

// Result describes a written archive
type Result struct {
	Path     string
	Entries  int
	Size     int64
	Checksum string
}

// Create archives the directory src into the gzip-compressed tar file dst.
// The directory containing dst must already exist. The tree is streamed
// through tar and gzip straight into the file; on failure the partial file
// is removed.
func Create(src, dst string, opts Options) (*Result, error) {
	if err := checkDestination(filepath.Dir(dst)); err != nil {
		return nil, err
	}
	if _, err := sourceDir(src); err != nil {
		return nil, err
	}

	f, err := os.Create(dst)
	if err != nil {
		return nil, errors.E(errors.KindFileCreate, dst, err)
	}
	if info, err := f.Stat(); err == nil {
		opts.exclude = info
	}

	fw := &fileWriter{w: f}
	hash := sha256.New()

	var entries int
	err = Compress(io.MultiWriter(fw, hash), opts.Level, func(w io.Writer) error {
		n, err := WriteTar(w, src, opts)
		entries = n
		return err
	})
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		if rmErr := os.Remove(dst); rmErr != nil && !os.IsNotExist(rmErr) {
			opts.logger().Warn().Err(rmErr).Str("path", dst).Msg("failed to remove partial archive")
		}
		if fw.err != nil {
			return nil, errors.E(errors.KindFileCreate, dst, fw.err)
		}
		if errors.KindOf(err) == "" {
			return nil, errors.E(errors.KindFileCreate, dst, err)
		}
		return nil, err
	}

	return &Result{
		Path:     dst,
		Entries:  entries,
		Size:     fw.n,
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

func checkDestination(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.E(errors.KindDestinationUnavailable, dir, err)
	}
	if !info.IsDir() {
		return errors.E(errors.KindDestinationUnavailable, dir, errors.New("not a directory"))
	}
	return nil
}

// fileWriter counts bytes written to the archive file and keeps the first
// write failure.
type fileWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (fw *fileWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	fw.n += int64(n)
	if err != nil && fw.err == nil {
		fw.err = err
	}
	return n, err
}
