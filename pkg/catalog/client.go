package catalog

import (
	"context"
	"io"
)

// Credential selects how subsequent catalog calls are attributed to a
// principal. Exactly one field is set: Token carries a per-user API token
// for a fresh session, SubstituteUser names the principal to impersonate
// via a substitution header on the shared administrative session.
type Credential struct {
	Token          string
	SubstituteUser string
}

// Client is the capability the reconciliation engine consumes. Create
// operations return the remote id assigned by the catalog; Show operations
// resolve a natural key to the existing remote id. All operations surface
// the error taxonomy from pkg/errors: a ValidationError for semantic
// rejections, a NotFoundError from Show, and APIError/AuthenticationError
// for infrastructure failures.
type Client interface {
	CreateOrganization(ctx context.Context, org *Organization) (string, error)
	ShowOrganization(ctx context.Context, name string) (string, error)
	UpdateOrganization(ctx context.Context, id string, org *Organization) error

	CreateUser(ctx context.Context, user *User) (string, error)
	ShowUser(ctx context.Context, name string) (string, error)
	UpdateUser(ctx context.Context, id string, user *User) error

	// CreateAPIToken issues an API token for the given user id, used to
	// attribute later dataset and resource writes to that user.
	CreateAPIToken(ctx context.Context, userID, name string) (string, error)

	CreateDataset(ctx context.Context, ds *Dataset) (string, error)
	ShowDataset(ctx context.Context, name string) (string, error)
	UpdateDataset(ctx context.Context, id string, ds *Dataset) error

	// CreateResource and UpdateResource stream the attached file as part
	// of the call. A nil file creates the resource metadata only.
	CreateResource(ctx context.Context, res *Resource, file io.Reader, filename string) (string, error)
	ShowResource(ctx context.Context, name string) (string, error)
	UpdateResource(ctx context.Context, id string, res *Resource, file io.Reader, filename string) error

	// Scoped returns a client whose calls act as the principal described
	// by the credential. The receiver is unchanged.
	Scoped(cred Credential) Client
}
