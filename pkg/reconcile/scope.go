package reconcile

import (
	"context"

	"github.com/avenirdata/ckansync/pkg/catalog"
)

// ScopeStrategy produces the credential that attributes a user's dataset
// and resource writes to that user. Two strategies exist, matching the
// catalog deployments in circulation: issuing a per-user API token, or
// naming the user in a principal-substitution header on the shared
// administrative session.
type ScopeStrategy interface {
	Credential(ctx context.Context, client catalog.Client, user catalog.User, userID string) (catalog.Credential, error)
}

// TokenScope issues a fresh API token for each reconciled user.
type TokenScope struct {
	// TokenName labels the issued token in the catalog's token list.
	TokenName string
}

// Credential implements ScopeStrategy.
func (s TokenScope) Credential(ctx context.Context, client catalog.Client, _ catalog.User, userID string) (catalog.Credential, error) {
	name := s.TokenName
	if name == "" {
		name = "ckansync-import"
	}
	token, err := client.CreateAPIToken(ctx, userID, name)
	if err != nil {
		return catalog.Credential{}, err
	}
	return catalog.Credential{Token: token}, nil
}

// SubstituteScope reuses the administrative session and substitutes the
// acting principal per request. No extra catalog call is needed.
type SubstituteScope struct{}

// Credential implements ScopeStrategy.
func (SubstituteScope) Credential(_ context.Context, _ catalog.Client, user catalog.User, _ string) (catalog.Credential, error) {
	return catalog.Credential{SubstituteUser: user.Name}, nil
}
