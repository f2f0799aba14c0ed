package reconcile

import (
	"context"

	"github.com/avenirdata/ckansync/pkg/catalog"
)

// Organizations reconciles the static organization list and returns the
// remote ids of the organizations that survived, keyed by name. Datasets
// reference organizations by name, so the map is informational.
func (r *Reconciler) Organizations(ctx context.Context, orgs []catalog.Organization) (map[string]string, error) {
	ids := make(map[string]string, len(orgs))
	for i := range orgs {
		org := &orgs[i]
		id, err := r.upsert(ctx, catalog.KindOrganization, org.Name,
			func(ctx context.Context) (string, error) {
				return r.client.CreateOrganization(ctx, org)
			},
			func(ctx context.Context) (string, error) {
				return r.client.ShowOrganization(ctx, org.Name)
			},
			func(ctx context.Context, id string) error {
				return r.client.UpdateOrganization(ctx, id, org)
			},
		)
		if err != nil {
			return nil, err
		}
		if id != "" {
			ids[org.Name] = id
		}
	}
	return ids, nil
}
