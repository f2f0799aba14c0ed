package archive_test

import (
	zipio "archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avenirdata/ckansync/pkg/archive"
	"github.com/avenirdata/ckansync/pkg/errors"
)

// writeZip builds a zip archive with the given entry names and contents.
func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zipio.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestSupported(t *testing.T) {
	assert.True(t, archive.Supported("bundle.zip"))
	assert.True(t, archive.Supported("Bundle.RAR"))
	assert.False(t, archive.Supported("report.csv"))
	assert.False(t, archive.Supported(""))
}

func TestExpandZip(t *testing.T) {
	path := writeZip(t, map[string]string{
		"GDP Report.csv":  "year,value\n2020,1\n",
		"notes/extra.txt": "notes",
	})

	var got []archive.Descriptor
	err := archive.Expand(path, func(d archive.Descriptor) error {
		content, readErr := os.ReadFile(d.Path)
		require.NoError(t, readErr, "extracted file must be readable during the callback")
		require.NotEmpty(t, content)
		got = append(got, d)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	byName := map[string]archive.Descriptor{}
	for _, d := range got {
		byName[d.Name] = d
	}

	report := byName["gdp-report"]
	assert.Equal(t, "GDP Report", report.Title)
	assert.Equal(t, "CSV", report.Format)

	extra := byName["notes-extra"]
	assert.Equal(t, "notes/extra", extra.Title)
	assert.Equal(t, "TXT", extra.Format)
}

func TestExpandCleansUpOnSuccess(t *testing.T) {
	path := writeZip(t, map[string]string{"a.csv": "x"})

	var extracted string
	err := archive.Expand(path, func(d archive.Descriptor) error {
		extracted = d.Path
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, extracted)

	_, statErr := os.Stat(filepath.Dir(extracted))
	assert.True(t, os.IsNotExist(statErr), "extraction directory must be removed")
}

func TestExpandCleansUpOnCallbackError(t *testing.T) {
	path := writeZip(t, map[string]string{"a.csv": "x", "b.csv": "y"})

	boom := errors.New("upload session broken")
	var extracted string
	err := archive.Expand(path, func(d archive.Descriptor) error {
		extracted = d.Path
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, statErr := os.Stat(filepath.Dir(extracted))
	assert.True(t, os.IsNotExist(statErr), "extraction directory must be removed after failure")
}

func TestExpandCorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	err := archive.Expand(path, func(archive.Descriptor) error {
		t.Fatal("callback must not run for a corrupt archive")
		return nil
	})
	require.Error(t, err)

	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestExpandUnsupportedKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.tar")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	err := archive.Expand(path, func(archive.Descriptor) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported archive type")
}

func TestExpandRejectsEscapingEntries(t *testing.T) {
	// Build the hostile entry name by hand; zip.Writer.Create rejects it.
	path := filepath.Join(t.TempDir(), "evil.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zipio.NewWriter(f)
	w, err := zw.CreateHeader(&zipio.FileHeader{Name: "../evil.txt"})
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	err = archive.Expand(path, func(archive.Descriptor) error {
		t.Fatal("callback must not run for an escaping entry")
		return nil
	})
	require.Error(t, err)

	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)
}
