// Package ckan implements the catalog client over the CKAN v3 action
// API. Every call is a POST to /api/3/action/<name>; entity payloads go
// as JSON except resource writes, which stream the attached file through
// a multipart form. Show calls resolve a natural key to the remote id,
// which is what the reconciliation engine's fallback path needs.
package ckan

import (
	"context"
	"io"

	"github.com/avenirdata/ckansync/internal/transport"
	"github.com/avenirdata/ckansync/pkg/catalog"
	"github.com/avenirdata/ckansync/pkg/errors"
)

// Client talks to one CKAN instance as one principal.
type Client struct {
	t *transport.Client
	// adminKey is retained so substitute-scoped clients can reuse the
	// administrative session.
	adminKey string
}

var _ catalog.Client = (*Client)(nil)

// New creates a client for the catalog at baseURL authenticating with
// the administrative API key.
func New(baseURL, adminKey string) *Client {
	return &Client{
		t:        transport.New(baseURL, &transport.APIKeyAuth{Key: adminKey}),
		adminKey: adminKey,
	}
}

// Scoped implements catalog.Client. A token credential opens a fresh
// session as that token's user; a substitute credential keeps the
// administrative session and names the acting principal per request.
func (c *Client) Scoped(cred catalog.Credential) catalog.Client {
	var auth transport.Authenticator
	switch {
	case cred.Token != "":
		auth = &transport.APIKeyAuth{Key: cred.Token}
	case cred.SubstituteUser != "":
		auth = &transport.SubstituteAuth{Key: c.adminKey, User: cred.SubstituteUser}
	default:
		return c
	}
	return &Client{t: c.t.WithAuth(auth), adminKey: c.adminKey}
}

// idResult is the slice of an entity response the importer cares about.
type idResult struct {
	ID string `json:"id"`
}

// show resolves a natural key through a *_show action.
func (c *Client) show(ctx context.Context, action, key string) (string, error) {
	var out idResult
	payload := map[string]string{"id": key}
	if err := c.t.PostJSON(ctx, action, payload, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// CreateOrganization implements catalog.Client.
func (c *Client) CreateOrganization(ctx context.Context, org *catalog.Organization) (string, error) {
	var out idResult
	if err := c.t.PostJSON(ctx, "organization_create", org, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// ShowOrganization implements catalog.Client.
func (c *Client) ShowOrganization(ctx context.Context, name string) (string, error) {
	return c.show(ctx, "organization_show", name)
}

// UpdateOrganization implements catalog.Client.
func (c *Client) UpdateOrganization(ctx context.Context, id string, org *catalog.Organization) error {
	payload := struct {
		catalog.Organization
		ID string `json:"id"`
	}{Organization: *org, ID: id}
	return c.t.PostJSON(ctx, "organization_update", payload, nil)
}

// CreateUser implements catalog.Client.
func (c *Client) CreateUser(ctx context.Context, user *catalog.User) (string, error) {
	var out idResult
	if err := c.t.PostJSON(ctx, "user_create", user, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// ShowUser implements catalog.Client.
func (c *Client) ShowUser(ctx context.Context, name string) (string, error) {
	return c.show(ctx, "user_show", name)
}

// UpdateUser implements catalog.Client.
func (c *Client) UpdateUser(ctx context.Context, id string, user *catalog.User) error {
	payload := struct {
		catalog.User
		ID string `json:"id"`
	}{User: *user, ID: id}
	return c.t.PostJSON(ctx, "user_update", payload, nil)
}

// CreateAPIToken implements catalog.Client.
func (c *Client) CreateAPIToken(ctx context.Context, userID, name string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	payload := map[string]string{"user": userID, "name": name}
	if err := c.t.PostJSON(ctx, "api_token_create", payload, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// CreateDataset implements catalog.Client.
func (c *Client) CreateDataset(ctx context.Context, ds *catalog.Dataset) (string, error) {
	var out idResult
	if err := c.t.PostJSON(ctx, "package_create", ds, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// ShowDataset implements catalog.Client.
func (c *Client) ShowDataset(ctx context.Context, name string) (string, error) {
	return c.show(ctx, "package_show", name)
}

// UpdateDataset implements catalog.Client.
func (c *Client) UpdateDataset(ctx context.Context, id string, ds *catalog.Dataset) error {
	payload := struct {
		catalog.Dataset
		ID string `json:"id"`
	}{Dataset: *ds, ID: id}
	return c.t.PostJSON(ctx, "package_update", payload, nil)
}

// CreateResource implements catalog.Client. The file streams through the
// multipart `upload` field; CKAN then rewrites the resource URL to the
// stored copy.
func (c *Client) CreateResource(ctx context.Context, res *catalog.Resource, file io.Reader, filename string) (string, error) {
	var out idResult
	if err := c.t.PostMultipart(ctx, "resource_create", resourceFields(res, ""), "upload", filename, file, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// ShowResource implements catalog.Client. CKAN has no resource lookup by
// name, so the id is resolved through resource_search and an exact-name
// match over its results.
func (c *Client) ShowResource(ctx context.Context, name string) (string, error) {
	var out struct {
		Results []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"results"`
	}
	payload := map[string]string{"query": "name:" + name}
	if err := c.t.PostJSON(ctx, "resource_search", payload, &out); err != nil {
		return "", err
	}
	for _, r := range out.Results {
		if r.Name == name {
			return r.ID, nil
		}
	}
	return "", errors.NewNotFoundError("resource", name)
}

// UpdateResource implements catalog.Client.
func (c *Client) UpdateResource(ctx context.Context, id string, res *catalog.Resource, file io.Reader, filename string) error {
	return c.t.PostMultipart(ctx, "resource_update", resourceFields(res, id), "upload", filename, file, nil)
}

// resourceFields flattens a resource into multipart form fields. Empty
// optional fields are left off the form.
func resourceFields(res *catalog.Resource, id string) map[string]string {
	fields := map[string]string{
		"name":       res.Name,
		"url":        res.URL,
		"package_id": res.PackageID,
	}
	if id != "" {
		fields["id"] = id
	}
	if res.Title != "" {
		fields["title"] = res.Title
	}
	if res.Format != "" {
		fields["format"] = res.Format
	}
	return fields
}
