package reconcile

import (
	"context"

	"github.com/avenirdata/ckansync/pkg/catalog"
	"github.com/avenirdata/ckansync/pkg/logging"
)

// ScopedUser pairs a reconciled user with the credential that attributes
// later dataset and resource writes to them.
type ScopedUser struct {
	User       catalog.User
	Credential catalog.Credential
}

// Users reconciles the user list and collects a scoping credential for
// every user that survived. Users abandoned by the upsert protocol get no
// credential; their datasets and resources are skipped downstream, which
// the caller logs.
func (r *Reconciler) Users(ctx context.Context, users []catalog.User, scope ScopeStrategy) ([]ScopedUser, error) {
	scoped := make([]ScopedUser, 0, len(users))
	for i := range users {
		user := &users[i]
		id, err := r.upsert(ctx, catalog.KindUser, user.Name,
			func(ctx context.Context) (string, error) {
				return r.client.CreateUser(ctx, user)
			},
			func(ctx context.Context) (string, error) {
				return r.client.ShowUser(ctx, user.Name)
			},
			func(ctx context.Context, id string) error {
				return r.client.UpdateUser(ctx, id, user)
			},
		)
		if err != nil {
			return nil, err
		}
		if id == "" {
			continue
		}

		cred, err := scope.Credential(ctx, r.client, *user, id)
		if err != nil {
			// A failed token issuance leaves no principal to attribute
			// the user's writes to; the session itself may be broken.
			return nil, err
		}
		scoped = append(scoped, ScopedUser{User: *user, Credential: cred})
		logging.Debug().Str("user", user.Name).Msg("Collected scoping credential")
	}
	return scoped, nil
}
