package app

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/avenirdata/ckansync"
	"github.com/avenirdata/ckansync/pkg/errors"
	"github.com/avenirdata/ckansync/pkg/metadata"
	"github.com/avenirdata/ckansync/pkg/reconcile"
)

// NewLoadCommand creates the load command.
func (a *App) NewLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Run a bulk import against the catalog",
		Long: `Load parses the metadata table and entity lists, then reconciles
organizations, users, datasets and file resources into the catalog.

Each user's datasets and resources are loaded under a catalog session
scoped to that user, either with a freshly issued API token or with a
principal-substitution header on the administrative session.`,
		RunE: a.runLoad,
	}

	flags := cmd.Flags()
	flags.StringVar(&a.config.CatalogURL, "url", a.config.CatalogURL, "catalog base URL (or CKAN_URL)")
	flags.StringVar(&a.config.MetadataFile, "metadata-file", a.config.MetadataFile, "CSV metadata table")
	flags.StringVar(&a.config.ResourceFolder, "resource-folder", a.config.ResourceFolder, "directory resource file references resolve against")
	flags.StringVar(&a.config.OrganizationsFile, "organizations-file", a.config.OrganizationsFile, "YAML organization list")
	flags.StringVar(&a.config.UsersFile, "users-file", a.config.UsersFile, "YAML user list")
	flags.StringVar(&a.config.SchemaName, "schema", a.config.SchemaName, "metadata table layout: country-code or iso3")
	flags.StringVar(&a.config.ScopeMode, "scope", a.config.ScopeMode, "per-user session mode: token or substitute")
	flags.StringVar(&a.config.TokenName, "token-name", a.config.TokenName, "label for issued API tokens")
	flags.StringVar(&a.config.OwnerOrg, "owner-org", a.config.OwnerOrg, "organization every dataset is filed under")
	flags.StringVar(&a.config.DatasetType, "dataset-type", a.config.DatasetType, "catalog dataset type (empty for default)")
	flags.BoolVar(&a.config.DryRun, "dry-run", false, "parse the input and print a summary without touching the catalog")

	return cmd
}

func (a *App) runLoad(cmd *cobra.Command, _ []string) error {
	cfg := a.config
	if err := cfg.Validate(); err != nil {
		return err
	}

	schema, ok := metadata.SchemaByName(cfg.SchemaName)
	if !ok {
		return errors.NewConfigError("load", fmt.Sprintf("unknown schema %q", cfg.SchemaName), nil)
	}

	if cfg.DryRun {
		return a.dryRun(cmd, schema)
	}

	var scope reconcile.ScopeStrategy
	switch cfg.ScopeMode {
	case ScopeSubstitute:
		scope = reconcile.SubstituteScope{}
	default:
		scope = reconcile.TokenScope{TokenName: cfg.TokenName}
	}

	imp, err := ckansync.New(
		ckansync.WithCatalog(cfg.CatalogURL, cfg.APIKey),
		ckansync.WithMetadataFile(cfg.MetadataFile),
		ckansync.WithSchema(schema),
		ckansync.WithResourceFolder(cfg.ResourceFolder),
		ckansync.WithEntityFiles(cfg.OrganizationsFile, cfg.UsersFile),
		ckansync.WithOwnerOrg(cfg.OwnerOrg),
		ckansync.WithDatasetType(cfg.DatasetType),
		ckansync.WithScope(scope),
	)
	if err != nil {
		return err
	}

	result, err := imp.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records in %s\n%s\n",
		result.Records,
		result.FinishedAt.Sub(result.StartedAt).Round(10*time.Millisecond),
		result.Counts)
	return nil
}

// dryRun parses the metadata table and prints what a load would touch,
// without opening a catalog session.
func (a *App) dryRun(cmd *cobra.Command, schema metadata.Schema) error {
	records, err := metadata.ParseRecords(a.config.MetadataFile, schema)
	if err != nil {
		return err
	}

	perUser := make(map[string]int)
	withFiles := 0
	for _, rec := range records {
		perUser[rec.User]++
		if rec.File != "" {
			withFiles++
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Parsed %d records (%s schema), %d with file attachments\n",
		len(records), schema.Name, withFiles)
	for user, n := range perUser {
		if user == "" {
			user = "(no owner)"
		}
		fmt.Fprintf(out, "  %s: %d records\n", user, n)
	}
	return nil
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ckansync version %s\n", a.version)
			fmt.Fprintf(out, "commit: %s\n", a.commit)
			fmt.Fprintf(out, "built: %s\n", a.date)
			fmt.Fprintf(out, "go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
