// Package ckansync is an idempotent bulk importer for CKAN catalogs. It
// reads a CSV metadata table and YAML entity lists and reconciles
// organizations, users, datasets and file resources into a remote
// catalog: entities missing from the catalog are created, entities whose
// natural key is already taken are updated in place. Re-running an
// import against the same input never duplicates an entity, so partial
// failures are recovered by running again.
package ckansync

import (
	"context"

	"github.com/avenirdata/ckansync/internal/ckan"
	"github.com/avenirdata/ckansync/pkg/catalog"
	"github.com/avenirdata/ckansync/pkg/errors"
	"github.com/avenirdata/ckansync/pkg/loader"
	"github.com/avenirdata/ckansync/pkg/metadata"
	"github.com/avenirdata/ckansync/pkg/reconcile"
)

// Importer runs imports against one catalog.
type Importer interface {
	// Run executes one import and reports what it touched. The error is
	// non-nil only for run-fatal failures; per-entity problems are
	// absorbed into the result counters.
	Run(ctx context.Context) (*loader.Result, error)
}

// importer is the internal implementation of the Importer interface.
type importer struct {
	config *config
	client catalog.Client
}

// New creates a new Importer instance with the given options.
func New(opts ...Option) (Importer, error) {
	imp := &importer{
		config: defaultConfig(),
	}

	for _, opt := range opts {
		if err := opt(imp.config); err != nil {
			return nil, err
		}
	}

	if imp.config.metadataFile == "" {
		return nil, errors.NewConfigError("importer", "metadata file is required", nil)
	}

	// Use the provided client or open a CKAN session
	if imp.config.client != nil {
		imp.client = imp.config.client
	} else {
		if imp.config.catalogURL == "" || imp.config.apiKey == "" {
			return nil, errors.NewConfigError("importer", "catalog URL and API key are required", nil)
		}
		imp.client = ckan.New(imp.config.catalogURL, imp.config.apiKey)
	}

	return imp, nil
}

// Run implements the Importer interface.
func (imp *importer) Run(ctx context.Context) (*loader.Result, error) {
	return loader.New(imp.client, loader.Config{
		MetadataFile:      imp.config.metadataFile,
		Schema:            imp.config.schema,
		ResourceFolder:    imp.config.resourceFolder,
		OrganizationsFile: imp.config.organizationsFile,
		UsersFile:         imp.config.usersFile,
		OwnerOrg:          imp.config.ownerOrg,
		DatasetType:       imp.config.datasetType,
		Scope:             imp.config.scope,
	}).Run(ctx)
}

// config collects the importer's settings. All fields are set through
// options.
type config struct {
	catalogURL string
	apiKey     string
	client     catalog.Client

	metadataFile      string
	schema            metadata.Schema
	resourceFolder    string
	organizationsFile string
	usersFile         string

	ownerOrg    string
	datasetType string
	scope       reconcile.ScopeStrategy
}

func defaultConfig() *config {
	return &config{
		schema: metadata.CountryCodeSchema,
		scope:  reconcile.TokenScope{},
	}
}
