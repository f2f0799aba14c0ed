// Package archive expands zip and rar bundles referenced by metadata
// records into individual resource descriptors. Extraction happens in a
// scratch directory that is created per call and removed on every exit
// path, so a failed expansion never leaks extracted files between runs.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nwaples/rardecode/v2"

	"github.com/avenirdata/ckansync/pkg/errors"
	"github.com/avenirdata/ckansync/pkg/logging"
	"github.com/avenirdata/ckansync/pkg/slug"
)

// Descriptor describes one file inside an expanded archive. Path points at
// the extracted copy and is only valid for the duration of the Expand call
// that yielded it.
type Descriptor struct {
	Title  string
	Name   string
	Format string
	Path   string
}

// Supported reports whether the file reference points at an archive kind
// this package can expand.
func Supported(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".zip", ".rar":
		return true
	}
	return false
}

// Expand extracts the archive at path into a scratch directory and invokes
// fn once per contained file (directories are skipped). The scratch
// directory is removed before Expand returns, success or failure. An error
// returned by fn aborts the expansion and propagates; extraction failures
// are returned to the caller, which treats them as a degraded resource
// rather than a fatal run error.
func Expand(path string, fn func(Descriptor) error) error {
	tmp, err := os.MkdirTemp("", "ckansync-extract-")
	if err != nil {
		return errors.WrapIO("create", "extraction directory", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmp); rmErr != nil {
			logging.Warn().Err(rmErr).Str("dir", tmp).Msg("Could not remove extraction directory")
		}
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return expandZip(path, tmp, fn)
	case ".rar":
		return expandRar(path, tmp, fn)
	default:
		return errors.WrapIO("expand", path, fmt.Errorf("unsupported archive type %q", filepath.Ext(path)))
	}
}

func expandZip(path, tmp string, fn func(Descriptor) error) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return errors.WrapIO("open", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return errors.WrapIO("extract", f.Name, err)
		}
		dest, err := writeEntry(tmp, f.Name, rc)
		rc.Close()
		if err != nil {
			return err
		}

		if err := fn(describe(f.Name, dest)); err != nil {
			return err
		}
	}
	return nil
}

func expandRar(path, tmp string, fn func(Descriptor) error) error {
	rr, err := rardecode.OpenReader(path)
	if err != nil {
		return errors.WrapIO("open", path, err)
	}
	defer rr.Close()

	for {
		hdr, err := rr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.WrapIO("extract", path, err)
		}
		if hdr.IsDir {
			continue
		}

		dest, err := writeEntry(tmp, hdr.Name, rr)
		if err != nil {
			return err
		}

		if err := fn(describe(hdr.Name, dest)); err != nil {
			return err
		}
	}
}

// writeEntry copies one archive entry into the scratch directory and
// returns the extracted path. Entry names that escape the scratch
// directory are rejected.
func writeEntry(tmp, name string, r io.Reader) (string, error) {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return "", errors.WrapIO("extract", name, fmt.Errorf("entry path escapes extraction directory"))
	}

	dest := filepath.Join(tmp, rel)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", errors.WrapIO("create", filepath.Dir(dest), err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", errors.WrapIO("create", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return "", errors.WrapIO("write", dest, err)
	}
	return dest, nil
}

// describe derives the resource descriptor for an archive entry: title is
// the entry name without its extension, name its slug, format the
// uppercased extension with separators stripped.
func describe(name, dest string) Descriptor {
	ext := filepath.Ext(name)
	title := strings.TrimSuffix(filepath.ToSlash(name), ext)
	format := strings.ToUpper(strings.NewReplacer(".", "", "/", "").Replace(ext))

	return Descriptor{
		Title:  title,
		Name:   slug.Make(title),
		Format: format,
		Path:   dest,
	}
}
