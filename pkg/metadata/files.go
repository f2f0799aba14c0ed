package metadata

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/avenirdata/ckansync/pkg/catalog"
	"github.com/avenirdata/ckansync/pkg/errors"
)

// organizationsFile mirrors the top-level shape of organizations.yaml.
type organizationsFile struct {
	Organizations []catalog.Organization `yaml:"organizations"`
}

// usersFile mirrors the top-level shape of users.yaml.
type usersFile struct {
	Users []catalog.User `yaml:"users"`
}

// LoadOrganizations reads the static organization list from a YAML file.
func LoadOrganizations(path string) ([]catalog.Organization, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var file organizationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WrapParse(path, err)
	}
	return file.Organizations, nil
}

// LoadUsers reads the user list from a YAML file.
func LoadUsers(path string) ([]catalog.User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var file usersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WrapParse(path, err)
	}
	return file.Users, nil
}
