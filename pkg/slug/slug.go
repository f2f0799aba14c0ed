// Package slug derives stable, URL-safe identifiers from free-text fields.
// Dataset and resource names in the catalog are slugs of their titles, so
// every derivation here must be deterministic: re-running the importer
// against the same input has to resolve to the same remote entities.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/avenirdata/ckansync/pkg/catalog"
)

var (
	disallowed = regexp.MustCompile(`[^a-zA-Z0-9_ /]+`)
	separators = regexp.MustCompile(`[_ /]+`)
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)
)

// Make turns free text into a catalog name: characters outside
// [A-Za-z0-9_ /] are stripped, each remaining run of underscores, spaces
// or slashes becomes a single hyphen, and the result is lowercased.
// Pure and total; an empty input yields an empty slug.
func Make(text string) string {
	name := disallowed.ReplaceAllString(text, "")
	name = separators.ReplaceAllString(name, "-")
	return strings.ToLower(name)
}

// Title turns an internal dataset label into a display title by replacing
// underscores with spaces.
func Title(text string) string {
	return strings.ReplaceAll(text, "_", " ")
}

// Tags parses a comma-separated tag field into a set of tag slugs.
// A blank or whitespace-only field yields no tags; empty pieces are
// dropped and duplicates collapse. Tag text may be arbitrary unicode,
// so diacritics are folded to ASCII before slugification.
func Tags(raw string) []catalog.Tag {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var tags []catalog.Tag
	for _, piece := range strings.Split(raw, ",") {
		name := fold(piece)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		tags = append(tags, catalog.Tag{Name: name})
	}
	return tags
}

// foldTransformer strips combining marks left over after canonical
// decomposition, turning "é" into "e".
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold slugifies a single tag: diacritics folded to ASCII, lowercased,
// every run of non-alphanumeric characters replaced by one hyphen.
func fold(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}
	folded = strings.ToLower(folded)
	folded = nonAlnum.ReplaceAllString(folded, "-")
	return strings.Trim(folded, "-")
}
