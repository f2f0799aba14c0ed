// Package transport is the HTTP plumbing under the CKAN client: request
// authentication, the action-endpoint POST helpers, and the decoding of
// CKAN's response envelope into typed errors.
package transport

import "net/http"

// SubstituteUserHeader names the acting principal on requests made with
// a shared administrative key.
const SubstituteUserHeader = "X-CKAN-Substitute-User"

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth implements no authentication. Useful against catalogs that
// allow anonymous reads, and in tests.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) {
	// No authentication applied
}

// APIKeyAuth authenticates with a CKAN API key or token. The key is sent
// in both headers CKAN deployments look at: older releases read
// X-CKAN-API-Key, current ones read Authorization.
type APIKeyAuth struct {
	Key string
}

// Apply implements the Authenticator interface for APIKeyAuth.
func (a *APIKeyAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", a.Key)
	req.Header.Set("X-CKAN-API-Key", a.Key)
}

// SubstituteAuth authenticates with a shared administrative key while
// naming a different acting principal per request. Requires the catalog
// to run a substitution plugin trusting the admin key.
type SubstituteAuth struct {
	Key  string
	User string
	// Header overrides the substitution header name when the catalog's
	// plugin uses a non-default one.
	Header string
}

// Apply implements the Authenticator interface for SubstituteAuth.
func (a *SubstituteAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", a.Key)
	req.Header.Set("X-CKAN-API-Key", a.Key)

	header := a.Header
	if header == "" {
		header = SubstituteUserHeader
	}
	req.Header.Set(header, a.User)
}
