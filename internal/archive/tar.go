// Package archive writes a directory tree as a gzip-compressed tar stream.
package archive

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"arkaive/internal/errors"
)

// DefaultSkipHidden is the hidden-file policy arkaive runs with. Entries
// whose name starts with a dot are archived like any other entry.
const DefaultSkipHidden = false

// Options controls how a tree is archived
type Options struct {
	// Level is the gzip compression level.
	Level int
	// SkipHidden drops every entry whose base name starts with "." and
	// everything below a hidden directory.
	SkipHidden bool
	Logger     *zerolog.Logger

	// exclude is the archive being written, when it lies inside the tree.
	exclude os.FileInfo
}

// DefaultOptions returns the options arkaive uses unless configured otherwise.
func DefaultOptions() Options {
	return Options{
		Level:      gzip.DefaultCompression,
		SkipHidden: DefaultSkipHidden,
	}
}

func (o Options) logger() *zerolog.Logger {
	if o.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return o.Logger
}

// sourceDir returns root with symlinks resolved, after checking that it is a
// readable directory.
func sourceDir(root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", errors.E(errors.KindDirectoryRead, root, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", errors.E(errors.KindDirectoryRead, root, err)
	}
	if !info.IsDir() {
		return "", errors.E(errors.KindDirectoryRead, root, errors.New("not a directory"))
	}
	return resolved, nil
}

// WriteTar writes the contents of root to dst as a tar stream and returns the
// number of entries written. Entries are named relative to root and written
// in lexical order; root itself is not an entry. Symlinks are stored, not
// followed.
func WriteTar(dst io.Writer, root string, opts Options) (int, error) {
	dir, err := sourceDir(root)
	if err != nil {
		return 0, err
	}

	tw := tar.NewWriter(dst)
	n, err := writeTree(tw, dir, opts)
	if err != nil {
		_ = tw.Close()
		return n, err
	}

	return n, errors.Wrap(tw.Close(), "closing tar stream")
}

func writeTree(tw *tar.Writer, root string, opts Options) (int, error) {
	log := opts.logger()
	entries := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return errors.E(errors.KindDirectoryRead, root, err)
			}
			return errors.E(errors.KindEntryRead, path, err)
		}
		if path == root {
			return nil
		}

		if opts.exclude != nil && d.Type().IsRegular() {
			if info, err := d.Info(); err == nil && os.SameFile(info, opts.exclude) {
				log.Debug().Str("path", path).Msg("skipping archive being written")
				return nil
			}
		}

		if opts.SkipHidden && isHidden(d.Name()) {
			log.Debug().Str("path", path).Msg("skipping hidden entry")
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.E(errors.KindEntryRead, path, err)
		}

		written, err := writeEntry(tw, path, filepath.ToSlash(rel), d)
		if err != nil {
			return err
		}
		if !written {
			log.Debug().Str("path", path).Str("type", d.Type().String()).Msg("skipping unsupported entry")
			return nil
		}
		entries++
		return nil
	})

	return entries, err
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// writeEntry appends a single directory, regular file or symlink. Other
// types are reported as not written.
func writeEntry(tw *tar.Writer, path, name string, d fs.DirEntry) (bool, error) {
	info, err := d.Info()
	if err != nil {
		return false, errors.E(errors.KindEntryRead, path, err)
	}

	var link string
	switch mode := info.Mode(); {
	case mode.IsDir(), mode.IsRegular():
	case mode&os.ModeSymlink != 0:
		link, err = os.Readlink(path)
		if err != nil {
			return false, errors.E(errors.KindEntryRead, path, err)
		}
	default:
		return false, nil
	}

	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return false, errors.E(errors.KindEntryRead, path, err)
	}
	header.Name = name
	if info.IsDir() {
		header.Name += "/"
	}

	if err := tw.WriteHeader(header); err != nil {
		return false, errors.Wrapf(err, "writing tar header for %s", name)
	}

	if header.Typeflag != tar.TypeReg {
		return true, nil
	}
	return true, copyFile(tw, path, header.Size)
}

// copyFile streams exactly size bytes of the file at path into tw. A file
// that shrinks while it is read fails the entry.
func copyFile(tw *tar.Writer, path string, size int64) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.E(errors.KindEntryRead, path, err)
	}
	defer f.Close()

	r := &entryReader{r: f}
	_, err = io.CopyN(tw, r, size)
	switch {
	case r.err != nil:
		return errors.E(errors.KindEntryRead, path, r.err)
	case err == io.EOF:
		return errors.E(errors.KindEntryRead, path, errors.New("file shrank while being archived"))
	case err != nil:
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// entryReader remembers read failures so they can be told apart from write
// failures further down the pipeline.
type entryReader struct {
	r   io.Reader
	err error
}

func (e *entryReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err != nil && err != io.EOF {
		e.err = err
	}
	return n, err
}
