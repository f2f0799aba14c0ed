package reconcile

import (
	"context"

	"github.com/avenirdata/ckansync/pkg/catalog"
	"github.com/avenirdata/ckansync/pkg/metadata"
	"github.com/avenirdata/ckansync/pkg/slug"
)

// DatasetOptions fixes the payload fields that are constant for every
// dataset in a run: the owning organization and the catalog's dataset
// type. The owner is not per-record.
type DatasetOptions struct {
	OwnerOrg string
	Type     string
}

// Datasets reconciles one dataset per metadata record. The dataset name
// is the derived slug of the record's label, so repeated runs against the
// same input resolve to the same remote entity.
func (r *Reconciler) Datasets(ctx context.Context, records []metadata.Record, opts DatasetOptions) error {
	for _, rec := range records {
		ds := buildDataset(rec, opts)
		_, err := r.upsert(ctx, catalog.KindDataset, ds.Name,
			func(ctx context.Context) (string, error) {
				return r.client.CreateDataset(ctx, ds)
			},
			func(ctx context.Context) (string, error) {
				return r.client.ShowDataset(ctx, ds.Name)
			},
			func(ctx context.Context, id string) error {
				return r.client.UpdateDataset(ctx, id, ds)
			},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// buildDataset assembles the catalog payload from a metadata record.
func buildDataset(rec metadata.Record, opts DatasetOptions) *catalog.Dataset {
	return &catalog.Dataset{
		Name:        slug.Make(rec.Label),
		Title:       slug.Title(rec.Label),
		Type:        opts.Type,
		OwnerOrg:    opts.OwnerOrg,
		Notes:       rec.Notes,
		Tags:        rec.Tags,
		StartYear:   rec.StartYear,
		EndYear:     rec.EndYear,
		CountryCode: rec.CountryCode,
		CountryName: rec.CountryName,
		ISO3Alpha:   rec.ISO3Alpha,
		ISO3Numeric: rec.ISO3Numeric,
		Private:     rec.Private,
	}
}
