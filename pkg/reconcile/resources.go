package reconcile

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/avenirdata/ckansync/pkg/archive"
	"github.com/avenirdata/ckansync/pkg/catalog"
	"github.com/avenirdata/ckansync/pkg/errors"
	"github.com/avenirdata/ckansync/pkg/logging"
	"github.com/avenirdata/ckansync/pkg/metadata"
	"github.com/avenirdata/ckansync/pkg/slug"
)

// ResourceOptions controls the resource load phase. Folder is the
// directory relative file references resolve against; Archives enables
// zip/rar expansion for the schema variants that allow bundled files.
type ResourceOptions struct {
	Folder   string
	Archives bool
}

// Resources reconciles the file resources of the given records. The
// owning datasets must already have been reconciled in this run. A record
// without a file reference is skipped with a warning, since a dataset may
// legitimately own zero resources. Local file problems degrade to a
// skipped resource; catalog transport failures abort the run.
func (r *Reconciler) Resources(ctx context.Context, records []metadata.Record, opts ResourceOptions) error {
	for _, rec := range records {
		pkgName := slug.Make(rec.Label)

		if rec.File == "" {
			r.result.skipped(catalog.KindResource)
			logging.Warn().
				Str("dataset", pkgName).
				Str("resource", rec.Title).
				Msg("Resource not created as it has no file attachment")
			continue
		}

		path := filepath.Join(opts.Folder, rec.File)

		if opts.Archives && archive.Supported(rec.File) {
			err := archive.Expand(path, func(d archive.Descriptor) error {
				res := &catalog.Resource{
					Name:      d.Name,
					Title:     d.Title,
					Format:    d.Format,
					URL:       "upload",
					PackageID: pkgName,
				}
				return r.uploadResource(ctx, res, d.Path)
			})
			if err != nil {
				if degraded(err) {
					r.result.failed(catalog.KindResource)
					logging.Error().Err(err).Str("archive", path).Msg("Archive expansion failed")
					continue
				}
				return err
			}
			continue
		}

		res := &catalog.Resource{
			Name:      slug.Make(rec.Title),
			Title:     rec.Title,
			URL:       "upload",
			PackageID: pkgName,
		}
		if err := r.uploadResource(ctx, res, path); err != nil {
			if degraded(err) {
				r.result.failed(catalog.KindResource)
				logging.Error().Err(err).Str("file", path).Msg("Resource file unreadable")
				continue
			}
			return err
		}
	}
	return nil
}

// uploadResource upserts one resource with its file stream. The local
// file is reopened for the fallback update because the create consumed
// the first handle; both handles are released on every exit path.
func (r *Reconciler) uploadResource(ctx context.Context, res *catalog.Resource, path string) error {
	filename := filepath.Base(path)
	_, err := r.upsert(ctx, catalog.KindResource, res.Name,
		func(ctx context.Context) (string, error) {
			f, err := os.Open(path)
			if err != nil {
				return "", errors.WrapIO("open", path, err)
			}
			defer f.Close()
			return r.client.CreateResource(ctx, res, f, filename)
		},
		func(ctx context.Context) (string, error) {
			return r.client.ShowResource(ctx, res.Name)
		},
		func(ctx context.Context, id string) error {
			f, err := os.Open(path)
			if err != nil {
				return errors.WrapIO("open", path, err)
			}
			defer f.Close()
			return r.client.UpdateResource(ctx, id, res, f, filename)
		},
	)
	return err
}

// degraded reports whether an error is a local file problem affecting a
// single resource rather than the run's catalog session.
func degraded(err error) bool {
	var ioErr *errors.IOError
	return stderrors.As(err, &ioErr)
}
