// Package reconcile implements the idempotent create-or-update protocol
// that loads parsed entities into the remote catalog. One upsert algorithm
// is applied uniformly to every entity kind: attempt a create, and when
// the catalog reports the natural key as already taken, fall back to
// looking up the existing remote id and updating it in place. Validation
// failures are isolated to the entity that caused them; transport and auth
// failures abort the run, since they mean the session is broken rather
// than the data.
package reconcile

import (
	"context"
	stderrors "errors"

	"github.com/avenirdata/ckansync/pkg/catalog"
	"github.com/avenirdata/ckansync/pkg/errors"
	"github.com/avenirdata/ckansync/pkg/logging"
)

// Reconciler drives the upsert protocol against a catalog client. A
// Reconciler scoped to a user principal shares its Result with the parent
// so the run report aggregates across scopes.
type Reconciler struct {
	client catalog.Client
	result *Result
}

// New creates a Reconciler acting as the client's current principal.
func New(client catalog.Client) *Reconciler {
	return &Reconciler{client: client, result: NewResult()}
}

// Scoped returns a Reconciler whose catalog calls act as the principal
// described by the credential. The returned Reconciler shares the
// receiver's Result.
func (r *Reconciler) Scoped(cred catalog.Credential) *Reconciler {
	return &Reconciler{client: r.client.Scoped(cred), result: r.result}
}

// Result returns the accumulated run counters.
func (r *Reconciler) Result() *Result {
	return r.result
}

// upsert applies the create-then-fallback-update protocol to one entity.
// create is attempted exactly once. A key conflict triggers the fallback:
// lookup resolves the existing remote id and update rewrites it. A
// validation rejection that is not a key conflict abandons the entity
// without an update retry, so invalid data is never re-submitted through
// the update path. Every other error propagates unchanged.
//
// The returned id is empty when the entity was abandoned; the error is
// non-nil only for run-fatal failures.
func (r *Reconciler) upsert(
	ctx context.Context,
	kind catalog.Kind,
	key string,
	create func(context.Context) (string, error),
	lookup func(context.Context) (string, error),
	update func(context.Context, string) error,
) (string, error) {
	id, err := create(ctx)
	if err == nil {
		r.result.created(kind)
		logging.Info().Str(kind.String(), key).Msgf("Created %s", kind)
		return id, nil
	}

	if !errors.IsValidation(err) {
		return "", err
	}
	if !errors.IsConflict(err) {
		r.abandon(kind, key, err)
		return "", nil
	}

	logging.Warn().Str(kind.String(), key).Msgf("%s might already exist, falling back to update", kind)

	id, err = lookup(ctx)
	if err != nil {
		if errors.IsValidation(err) || errors.IsNotFound(err) {
			r.abandon(kind, key, err)
			return "", nil
		}
		return "", err
	}

	if err := update(ctx, id); err != nil {
		if errors.IsValidation(err) {
			r.abandon(kind, key, err)
			return "", nil
		}
		return "", err
	}

	r.result.updated(kind)
	logging.Info().Str(kind.String(), key).Msgf("Updated %s", kind)
	return id, nil
}

// abandon records a per-entity failure and logs the catalog's structured
// error detail. Sibling entities keep processing.
func (r *Reconciler) abandon(kind catalog.Kind, key string, err error) {
	r.result.failed(kind)
	event := logging.Error().Str(kind.String(), key)
	var vErr *errors.ValidationError
	if stderrors.As(err, &vErr) && len(vErr.Detail) > 0 {
		event = event.Interface("detail", vErr.Detail)
	}
	event.Err(err).Msgf("Can't load %s", kind)
}
