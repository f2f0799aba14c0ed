package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avenirdata/ckansync/internal/catalogtest"
	"github.com/avenirdata/ckansync/pkg/catalog"
	"github.com/avenirdata/ckansync/pkg/errors"
	"github.com/avenirdata/ckansync/pkg/loader"
	"github.com/avenirdata/ckansync/pkg/logging"
	"github.com/avenirdata/ckansync/pkg/metadata"
	"github.com/avenirdata/ckansync/pkg/reconcile"
)

func TestMain(m *testing.M) {
	logging.SetDefault(zerolog.Nop())
	os.Exit(m.Run())
}

// fixture writes a complete input set: a country-code metadata table with
// two records owned by two users, the matching resource files, and the
// organization and user lists.
func fixture(t *testing.T) loader.Config {
	t.Helper()
	dir := t.TempDir()

	table := strings.Join([]string{
		"export,,,,,,,,,,,,",
		"generated 2024-01-05,,,,,,,,,,,,",
		"id,logi_id,title,source,file,start,end,country,notes,tags,label,extra,user",
		",,GDP table,,gdp.csv,1990,2020,008,Annual GDP,economy,GDP Figures,,ada",
		",,Census table,,census.csv,2020,2020,008,Census extract,population,Census 2020,,grace",
	}, "\n")
	metaPath := filepath.Join(dir, "metadata.csv")
	require.NoError(t, os.WriteFile(metaPath, []byte(table), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "gdp.csv"), []byte("gdp"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "census.csv"), []byte("census"), 0o644))

	orgsPath := filepath.Join(dir, "organizations.yaml")
	require.NoError(t, os.WriteFile(orgsPath, []byte(
		"organizations:\n  - name: avenir\n    title: Avenir Data\n"), 0o644))

	usersPath := filepath.Join(dir, "users.yaml")
	require.NoError(t, os.WriteFile(usersPath, []byte(
		"users:\n"+
			"  - name: ada\n    email: ada@example.org\n    password: s3cret\n"+
			"  - name: grace\n    email: grace@example.org\n    password: s3cret\n"), 0o644))

	return loader.Config{
		MetadataFile:      metaPath,
		Schema:            metadata.CountryCodeSchema,
		ResourceFolder:    dir,
		OrganizationsFile: orgsPath,
		UsersFile:         usersPath,
		OwnerOrg:          "avenir",
		Scope:             reconcile.SubstituteScope{},
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("loads a fresh catalog", func(t *testing.T) {
		fake := catalogtest.New()
		cfg := fixture(t)

		result, err := loader.New(fake, cfg).Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, result.Records)
		assert.False(t, result.FinishedAt.Before(result.StartedAt))
		assert.Equal(t, 1, fake.Count(catalog.KindOrganization))
		assert.Equal(t, 2, fake.Count(catalog.KindUser))
		assert.Equal(t, 2, fake.Count(catalog.KindDataset))
		assert.Equal(t, 2, fake.Count(catalog.KindResource))
		assert.Equal(t, 7, result.Counts.Total().Created)
		assert.Equal(t, 0, result.Counts.Total().Failed)
	})

	t.Run("second run updates everything and creates nothing", func(t *testing.T) {
		fake := catalogtest.New()
		cfg := fixture(t)

		_, err := loader.New(fake, cfg).Run(ctx)
		require.NoError(t, err)

		result, err := loader.New(fake, cfg).Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, 0, result.Counts.Total().Created)
		assert.Equal(t, 7, result.Counts.Total().Updated)
		assert.Equal(t, 2, fake.Count(catalog.KindDataset))
		assert.Equal(t, 2, fake.Count(catalog.KindResource))
	})

	t.Run("reconciles each dataset before its resources", func(t *testing.T) {
		fake := catalogtest.New()
		cfg := fixture(t)

		_, err := loader.New(fake, cfg).Run(ctx)
		require.NoError(t, err)

		calls := fake.Calls()
		dsIdx := indexOf(calls, "create dataset gdp-figures")
		resIdx := indexOf(calls, "create resource gdp-table")
		require.GreaterOrEqual(t, dsIdx, 0)
		require.GreaterOrEqual(t, resIdx, 0)
		assert.Less(t, dsIdx, resIdx)
	})

	t.Run("users reconcile before their datasets", func(t *testing.T) {
		fake := catalogtest.New()
		cfg := fixture(t)

		_, err := loader.New(fake, cfg).Run(ctx)
		require.NoError(t, err)

		calls := fake.Calls()
		userIdx := indexOf(calls, "create user ada")
		dsIdx := indexOf(calls, "create dataset gdp-figures")
		require.GreaterOrEqual(t, userIdx, 0)
		assert.Less(t, userIdx, dsIdx)
	})

	t.Run("scopes each user's writes to their principal", func(t *testing.T) {
		fake := catalogtest.New()
		cfg := fixture(t)

		_, err := loader.New(fake, cfg).Run(ctx)
		require.NoError(t, err)

		uploads := fake.Uploads()
		require.Len(t, uploads, 2)
		byFile := map[string]string{}
		for _, u := range uploads {
			byFile[u.Filename] = u.Principal
		}
		assert.Equal(t, "substitute:ada", byFile["gdp.csv"])
		assert.Equal(t, "substitute:grace", byFile["census.csv"])
	})

	t.Run("skips records of an abandoned user", func(t *testing.T) {
		fake := catalogtest.New()
		fake.FailWith("create", catalog.KindUser, "ada",
			errors.NewValidationError("user", "ada", map[string][]string{
				"email": {"Invalid email address"},
			}))
		cfg := fixture(t)

		result, err := loader.New(fake, cfg).Run(ctx)
		require.NoError(t, err)

		assert.False(t, fake.Has(catalog.KindDataset, "gdp-figures"))
		assert.True(t, fake.Has(catalog.KindDataset, "census-2020"))
		assert.Equal(t, 1, result.Counts.Kinds[catalog.KindUser].Failed)
	})

	t.Run("loads under the admin session without a users file", func(t *testing.T) {
		fake := catalogtest.New()
		cfg := fixture(t)
		cfg.UsersFile = ""

		_, err := loader.New(fake, cfg).Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, 0, fake.Count(catalog.KindUser))
		assert.Equal(t, 2, fake.Count(catalog.KindDataset))
		require.Len(t, fake.Uploads(), 2)
		assert.Equal(t, "admin", fake.Uploads()[0].Principal)
		assert.Empty(t, fake.Scopes())
	})

	t.Run("unreadable metadata table is run-fatal", func(t *testing.T) {
		fake := catalogtest.New()
		cfg := fixture(t)
		cfg.MetadataFile = filepath.Join(t.TempDir(), "absent.csv")

		_, err := loader.New(fake, cfg).Run(ctx)
		require.Error(t, err)
		var ioErr *errors.IOError
		assert.ErrorAs(t, err, &ioErr)
		assert.Empty(t, fake.Calls())
	})

	t.Run("broken session aborts mid-run", func(t *testing.T) {
		fake := catalogtest.New()
		fake.FailWith("create", catalog.KindOrganization, "avenir",
			errors.NewAPIError(502, "organization_create", "bad gateway"))
		cfg := fixture(t)

		_, err := loader.New(fake, cfg).Run(ctx)
		require.Error(t, err)
		assert.Equal(t, 0, fake.Count(catalog.KindDataset))
	})
}

func indexOf(calls []string, want string) int {
	for i, c := range calls {
		if c == want {
			return i
		}
	}
	return -1
}
