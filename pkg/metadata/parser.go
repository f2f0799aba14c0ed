package metadata

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/avenirdata/ckansync/pkg/errors"
	"github.com/avenirdata/ckansync/pkg/logging"
)

// sentinel marks the header row of the data region. Rows above it form an
// unpredictable preamble and are ignored; data rows start on the row after.
const sentinel = "logi_id"

// sentinelColumn is the fixed column index holding the sentinel value.
const sentinelColumn = 1

// ParseRecords reads the metadata table at path and returns one Record per
// data row, mapped through the given schema. The file is read once, top to
// bottom. A row at or after the sentinel with fewer columns than the schema
// requires aborts parsing with a ParseError: downstream data cannot be
// trusted once the fixed layout is broken.
func ParseRecords(path string, schema Schema) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	records, err := parseRecords(f, path, schema)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("file", path).
		Str("schema", schema.Name).
		Int("records", len(records)).
		Msg("Parsed metadata table")
	return records, nil
}

func parseRecords(r io.Reader, path string, schema Schema) ([]Record, error) {
	reader := csv.NewReader(stripBOM(bufio.NewReader(r)))
	reader.FieldsPerRecord = -1

	need := schema.Columns()
	var records []Record
	started := false
	line := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapParse(path, err)
		}
		line++

		if started {
			if len(row) < need {
				return nil, errors.NewParseError(path, line,
					fmt.Sprintf("row has %d columns, schema %q needs %d", len(row), schema.Name, need))
			}
			records = append(records, schema.Map(row))
		}

		// The sentinel row itself is a header, not data.
		if len(row) > sentinelColumn && row[sentinelColumn] == sentinel {
			started = true
		}
	}

	return records, nil
}

// stripBOM discards a UTF-8 byte order mark if the exporter wrote one.
func stripBOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}
