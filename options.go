package ckansync

import (
	"github.com/avenirdata/ckansync/pkg/catalog"
	"github.com/avenirdata/ckansync/pkg/errors"
	"github.com/avenirdata/ckansync/pkg/metadata"
	"github.com/avenirdata/ckansync/pkg/reconcile"
)

// Option is a function that configures an Importer instance.
type Option func(*config) error

// WithCatalog configures the CKAN instance to import into. The API key
// must belong to an administrative account: it creates users and
// organizations and, in token scope mode, issues per-user tokens.
func WithCatalog(url, apiKey string) Option {
	return func(c *config) error {
		c.catalogURL = url
		c.apiKey = apiKey
		return nil
	}
}

// WithClient configures a pre-built catalog client, bypassing the CKAN
// connection settings. Useful for testing.
func WithClient(client catalog.Client) Option {
	return func(c *config) error {
		c.client = client
		return nil
	}
}

// WithMetadataFile configures the CSV metadata table.
func WithMetadataFile(path string) Option {
	return func(c *config) error {
		c.metadataFile = path
		return nil
	}
}

// WithSchema configures the metadata table layout.
func WithSchema(schema metadata.Schema) Option {
	return func(c *config) error {
		c.schema = schema
		return nil
	}
}

// WithSchemaName configures the metadata table layout by name,
// "country-code" or "iso3".
func WithSchemaName(name string) Option {
	return func(c *config) error {
		schema, ok := metadata.SchemaByName(name)
		if !ok {
			return errors.NewConfigError("importer", "unknown schema "+name, nil)
		}
		c.schema = schema
		return nil
	}
}

// WithResourceFolder configures the directory resource file references
// resolve against.
func WithResourceFolder(path string) Option {
	return func(c *config) error {
		c.resourceFolder = path
		return nil
	}
}

// WithEntityFiles configures the YAML organization and user lists.
// Either path may be empty to skip that phase.
func WithEntityFiles(organizations, users string) Option {
	return func(c *config) error {
		c.organizationsFile = organizations
		c.usersFile = users
		return nil
	}
}

// WithOwnerOrg configures the organization every dataset is filed under.
func WithOwnerOrg(name string) Option {
	return func(c *config) error {
		c.ownerOrg = name
		return nil
	}
}

// WithDatasetType configures the catalog's dataset type. Leave unset for
// the catalog default.
func WithDatasetType(t string) Option {
	return func(c *config) error {
		c.datasetType = t
		return nil
	}
}

// WithScope configures how per-user catalog sessions are established.
func WithScope(scope reconcile.ScopeStrategy) Option {
	return func(c *config) error {
		c.scope = scope
		return nil
	}
}
