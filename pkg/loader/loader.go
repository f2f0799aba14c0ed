// Package loader orchestrates a full import run: parse the input files
// once, reconcile users and organizations as the administrative
// principal, then load each user's datasets and resources under a
// catalog session scoped to that user. The orchestration is strictly
// sequential, which keeps the ordering guarantees simple: users exist
// before anything is attributed to them, and a dataset is reconciled
// before the resources that attach to it.
package loader

import (
	"context"

	"github.com/agentstation/utc"

	"github.com/avenirdata/ckansync/pkg/catalog"
	"github.com/avenirdata/ckansync/pkg/logging"
	"github.com/avenirdata/ckansync/pkg/metadata"
	"github.com/avenirdata/ckansync/pkg/reconcile"
)

// Config describes one import run.
type Config struct {
	// MetadataFile is the CSV metadata table.
	MetadataFile string
	// Schema selects the metadata table layout.
	Schema metadata.Schema
	// ResourceFolder is the directory file references resolve against.
	ResourceFolder string
	// OrganizationsFile and UsersFile are the YAML entity lists. Either
	// may be empty, which skips that phase.
	OrganizationsFile string
	UsersFile         string
	// OwnerOrg is the organization every dataset is filed under.
	OwnerOrg string
	// DatasetType is the catalog's dataset type, empty for the default.
	DatasetType string
	// Scope chooses how per-user catalog sessions are established.
	Scope reconcile.ScopeStrategy
}

// Result reports one finished run.
type Result struct {
	StartedAt  utc.Time
	FinishedAt utc.Time
	// Records is the number of metadata rows parsed.
	Records int
	// Counts aggregates the reconciliation outcomes across all scopes.
	Counts *reconcile.Result
}

// Loader runs imports against one catalog client.
type Loader struct {
	cfg    Config
	client catalog.Client
}

// New creates a Loader. The client must act as the administrative
// principal; per-user scoping happens inside Run.
func New(client catalog.Client, cfg Config) *Loader {
	return &Loader{cfg: cfg, client: client}
}

// Run executes the import. The returned error is non-nil only for
// run-fatal failures (unreadable input, broken catalog session);
// per-entity problems are absorbed into the Result counters.
func (l *Loader) Run(ctx context.Context) (*Result, error) {
	result := &Result{StartedAt: utc.Now()}

	records, err := metadata.ParseRecords(l.cfg.MetadataFile, l.cfg.Schema)
	if err != nil {
		return nil, err
	}
	result.Records = len(records)

	r := reconcile.New(l.client)
	result.Counts = r.Result()

	scoped, err := l.reconcileUsers(ctx, r)
	if err != nil {
		return nil, err
	}

	if err := l.reconcileOrganizations(ctx, r); err != nil {
		return nil, err
	}

	if err := l.loadPerUser(ctx, r, records, scoped); err != nil {
		return nil, err
	}

	result.FinishedAt = utc.Now()
	logging.Info().
		Str("counts", result.Counts.String()).
		Str("duration", result.FinishedAt.Sub(result.StartedAt).String()).
		Msg("Run finished")
	return result, nil
}

func (l *Loader) reconcileUsers(ctx context.Context, r *reconcile.Reconciler) ([]reconcile.ScopedUser, error) {
	if l.cfg.UsersFile == "" {
		return nil, nil
	}
	users, err := metadata.LoadUsers(l.cfg.UsersFile)
	if err != nil {
		return nil, err
	}
	return r.Users(ctx, users, l.cfg.Scope)
}

func (l *Loader) reconcileOrganizations(ctx context.Context, r *reconcile.Reconciler) error {
	if l.cfg.OrganizationsFile == "" {
		return nil
	}
	orgs, err := metadata.LoadOrganizations(l.cfg.OrganizationsFile)
	if err != nil {
		return err
	}
	_, err = r.Organizations(ctx, orgs)
	return err
}

// loadPerUser partitions the metadata records by owning user and loads
// each partition under a session scoped to that user. With no users
// phase configured, everything loads under the administrative session.
func (l *Loader) loadPerUser(ctx context.Context, r *reconcile.Reconciler, records []metadata.Record, scoped []reconcile.ScopedUser) error {
	dsOpts := reconcile.DatasetOptions{OwnerOrg: l.cfg.OwnerOrg, Type: l.cfg.DatasetType}
	resOpts := reconcile.ResourceOptions{Folder: l.cfg.ResourceFolder, Archives: l.cfg.Schema.Archives}

	if l.cfg.UsersFile == "" {
		if err := r.Datasets(ctx, records, dsOpts); err != nil {
			return err
		}
		return r.Resources(ctx, records, resOpts)
	}

	loaded := make(map[string]bool, len(records))
	for _, su := range scoped {
		part := partition(records, su.User.Name)
		if len(part) == 0 {
			logging.Debug().Str("user", su.User.Name).Msg("User owns no metadata records")
			continue
		}
		sr := r.Scoped(su.Credential)
		if err := sr.Datasets(ctx, part, dsOpts); err != nil {
			return err
		}
		if err := sr.Resources(ctx, part, resOpts); err != nil {
			return err
		}
		loaded[su.User.Name] = true
	}

	// Records owned by a user that was abandoned, or by a name absent
	// from the users file, have no session to load under.
	orphans := make(map[string]int)
	for _, rec := range records {
		if !loaded[rec.User] {
			orphans[rec.User]++
		}
	}
	for user, n := range orphans {
		logging.Warn().
			Str("user", user).
			Int("records", n).
			Msg("Skipping records with no reconciled owner")
	}
	return nil
}

func partition(records []metadata.Record, user string) []metadata.Record {
	var part []metadata.Record
	for _, rec := range records {
		if rec.User == user {
			part = append(part, rec)
		}
	}
	return part
}
