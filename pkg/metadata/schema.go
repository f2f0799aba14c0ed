// Package metadata reads the importer's input files: the positional CSV
// metadata table describing datasets and their file resources, and the
// YAML files listing organizations and users. The CSV layout is a fixed
// contract with the input producer; columns are addressed by position
// through a Schema, never by header name.
package metadata

import (
	"strings"

	"github.com/avenirdata/ckansync/pkg/catalog"
	"github.com/avenirdata/ckansync/pkg/slug"
)

// Record is one dataset row from the metadata table. Year and country
// identifier values stay strings to preserve leading zeros on codes such
// as ISO3-numeric; the catalog stores them as text.
type Record struct {
	Title       string
	File        string
	StartYear   string
	EndYear     string
	CountryCode string
	CountryName string
	ISO3Alpha   string
	ISO3Numeric string
	Notes       string
	Tags        []catalog.Tag
	Label       string
	User        string
	Private     bool
}

// Schema maps fixed column positions to Record fields. A negative index
// means the field does not exist in that schema variant. The two built-in
// schemas correspond to the two metadata table layouts in circulation.
type Schema struct {
	Name string

	Title       int
	File        int
	StartYear   int
	EndYear     int
	CountryCode int
	CountryName int
	ISO3Alpha   int
	ISO3Numeric int
	Notes       int
	Tags        int
	Label       int
	User        int
	Private     int

	// Archives reports whether file references in this layout may point
	// at zip/rar bundles that expand to multiple resources.
	Archives bool
}

// CountryCodeSchema is the layout with a single country-code column and
// archive support in the file column.
var CountryCodeSchema = Schema{
	Name:        "country-code",
	Title:       2,
	File:        4,
	StartYear:   5,
	EndYear:     6,
	CountryCode: 7,
	CountryName: -1,
	ISO3Alpha:   -1,
	ISO3Numeric: -1,
	Notes:       8,
	Tags:        9,
	Label:       10,
	User:        12,
	Private:     -1,
	Archives:    true,
}

// ISO3Schema is the layout carrying full ISO3 country identifiers, a
// visibility flag, and single-file resources only.
var ISO3Schema = Schema{
	Name:        "iso3",
	Title:       2,
	File:        4,
	StartYear:   5,
	EndYear:     6,
	CountryCode: -1,
	CountryName: 7,
	ISO3Alpha:   8,
	ISO3Numeric: 9,
	Notes:       10,
	Tags:        11,
	Label:       12,
	User:        13,
	Private:     14,
	Archives:    false,
}

// SchemaByName resolves a configured schema name to its layout.
func SchemaByName(name string) (Schema, bool) {
	switch name {
	case CountryCodeSchema.Name:
		return CountryCodeSchema, true
	case ISO3Schema.Name:
		return ISO3Schema, true
	}
	return Schema{}, false
}

// Columns returns the minimum number of columns a data row must have.
func (s Schema) Columns() int {
	min := 0
	for _, idx := range []int{
		s.Title, s.File, s.StartYear, s.EndYear,
		s.CountryCode, s.CountryName, s.ISO3Alpha, s.ISO3Numeric,
		s.Notes, s.Tags, s.Label, s.User, s.Private,
	} {
		if idx+1 > min {
			min = idx + 1
		}
	}
	return min
}

// Map builds a Record from a data row. The row must have at least
// Columns() fields; the caller enforces that before mapping.
func (s Schema) Map(row []string) Record {
	rec := Record{
		Title:       field(row, s.Title),
		File:        field(row, s.File),
		StartYear:   field(row, s.StartYear),
		EndYear:     field(row, s.EndYear),
		CountryCode: field(row, s.CountryCode),
		CountryName: field(row, s.CountryName),
		ISO3Alpha:   field(row, s.ISO3Alpha),
		ISO3Numeric: field(row, s.ISO3Numeric),
		Notes:       field(row, s.Notes),
		Tags:        slug.Tags(field(row, s.Tags)),
		Label:       field(row, s.Label),
		User:        field(row, s.User),
	}
	switch strings.ToLower(strings.TrimSpace(field(row, s.Private))) {
	case "true", "yes", "1", "private":
		rec.Private = true
	}
	return rec
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
