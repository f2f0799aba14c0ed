// Package catalog defines the entity types held by the remote CKAN catalog
// and the client capability the reconciliation engine consumes. Each entity
// kind carries an explicit, versioned set of fields the catalog accepts;
// nothing is forwarded as an untyped key/value bag.
package catalog

// Kind identifies an entity kind in the catalog.
type Kind string

// Entity kinds known to the catalog.
const (
	KindOrganization Kind = "organization"
	KindUser         Kind = "user"
	KindDataset      Kind = "dataset"
	KindResource     Kind = "resource"
)

// String returns the string representation of a kind.
func (k Kind) String() string {
	return string(k)
}

// Organization is a catalog organization. Name is the natural key.
type Organization struct {
	Name        string `json:"name" yaml:"name"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// User is a catalog user account. Name is the natural key.
type User struct {
	Name     string `json:"name" yaml:"name"`
	Email    string `json:"email" yaml:"email"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Fullname string `json:"fullname,omitempty" yaml:"fullname,omitempty"`
	About    string `json:"about,omitempty" yaml:"about,omitempty"`
}

// Tag is a slug attached to a dataset.
type Tag struct {
	Name string `json:"name" yaml:"name"`
}

// Dataset is a catalog dataset (a CKAN package). Name is the natural key
// and must be a stable slug so repeated import runs resolve to the same
// remote entity. Year and country identifier fields stay strings: the
// catalog stores them as text and ISO3-numeric codes carry leading zeros.
type Dataset struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Type        string `json:"type,omitempty"`
	OwnerOrg    string `json:"owner_org"`
	Notes       string `json:"notes,omitempty"`
	Tags        []Tag  `json:"tags,omitempty"`
	StartYear   string `json:"start_year,omitempty"`
	EndYear     string `json:"end_year,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	CountryName string `json:"country_name,omitempty"`
	ISO3Alpha   string `json:"iso3_alpha,omitempty"`
	ISO3Numeric string `json:"iso3_numeric,omitempty"`
	Private     bool   `json:"private,omitempty"`
}

// Resource is a file attached to a dataset. Name is the natural key and
// PackageID references the owning dataset by name, which must already be
// reconciled before the resource is loaded.
type Resource struct {
	Name      string `json:"name"`
	Title     string `json:"title,omitempty"`
	Format    string `json:"format,omitempty"`
	URL       string `json:"url"`
	PackageID string `json:"package_id"`
}
