package ckansync_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avenirdata/ckansync"
	"github.com/avenirdata/ckansync/internal/catalogtest"
	"github.com/avenirdata/ckansync/pkg/catalog"
	"github.com/avenirdata/ckansync/pkg/logging"
	"github.com/avenirdata/ckansync/pkg/reconcile"
)

func TestMain(m *testing.M) {
	logging.SetDefault(zerolog.Nop())
	os.Exit(m.Run())
}

func TestNew(t *testing.T) {
	t.Run("requires a metadata file", func(t *testing.T) {
		_, err := ckansync.New(ckansync.WithCatalog("https://catalog.example.org", "key"))
		assert.Error(t, err)
	})

	t.Run("requires connection settings without a client", func(t *testing.T) {
		_, err := ckansync.New(ckansync.WithSchemaName("iso3"),
			ckansync.WithMetadataFile("meta.csv"))
		assert.Error(t, err)
	})

	t.Run("rejects an unknown schema name", func(t *testing.T) {
		_, err := ckansync.New(ckansync.WithSchemaName("wide"))
		assert.Error(t, err)
	})
}

func TestImporterRun(t *testing.T) {
	dir := t.TempDir()

	table := strings.Join([]string{
		"preamble,,,,,,,,,,,,",
		"id,logi_id,title,source,file,start,end,country,notes,tags,label,extra,user",
		",,GDP table,,gdp.csv,1990,2020,008,Annual GDP,economy,GDP Figures,,ada",
	}, "\n")
	metaPath := filepath.Join(dir, "metadata.csv")
	require.NoError(t, os.WriteFile(metaPath, []byte(table), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gdp.csv"), []byte("data"), 0o644))

	usersPath := filepath.Join(dir, "users.yaml")
	require.NoError(t, os.WriteFile(usersPath, []byte(
		"users:\n  - name: ada\n    email: ada@example.org\n    password: s3cret\n"), 0o644))

	fake := catalogtest.New()
	imp, err := ckansync.New(
		ckansync.WithClient(fake),
		ckansync.WithMetadataFile(metaPath),
		ckansync.WithSchemaName("country-code"),
		ckansync.WithResourceFolder(dir),
		ckansync.WithEntityFiles("", usersPath),
		ckansync.WithOwnerOrg("avenir"),
		ckansync.WithScope(reconcile.SubstituteScope{}),
	)
	require.NoError(t, err)

	result, err := imp.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Records)
	assert.True(t, fake.Has(catalog.KindUser, "ada"))
	assert.True(t, fake.Has(catalog.KindDataset, "gdp-figures"))
	require.Len(t, fake.Uploads(), 1)
	assert.Equal(t, "substitute:ada", fake.Uploads()[0].Principal)
}
