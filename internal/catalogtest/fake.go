// Package catalogtest provides an in-memory catalog.Client that mimics
// the CKAN action API's conflict behavior: creating an entity whose
// natural key is taken yields a validation conflict, lookups resolve
// names to ids, and updates rewrite stored payloads. Tests can inject
// errors per operation and inspect the full call sequence.
package catalogtest

import (
	"context"
	"fmt"
	"io"

	"github.com/avenirdata/ckansync/pkg/catalog"
	"github.com/avenirdata/ckansync/pkg/errors"
)

// Upload records one resource file received by the fake catalog.
type Upload struct {
	Resource  catalog.Resource
	Filename  string
	Content   []byte
	Principal string
}

type entity struct {
	id      string
	name    string
	payload any
}

type state struct {
	seq      int
	entities map[catalog.Kind]map[string]*entity
	byID     map[string]*entity
	calls    []string
	failures map[string]error
	uploads  []Upload
	scopes   []catalog.Credential
	tokens   map[string]string // userID -> issued token
}

// Fake is an in-memory catalog.Client. Scoped clients share the same
// underlying state, so assertions see every call regardless of principal.
type Fake struct {
	st   *state
	cred catalog.Credential
}

// New creates an empty fake catalog.
func New() *Fake {
	return &Fake{st: &state{
		entities: make(map[catalog.Kind]map[string]*entity),
		byID:     make(map[string]*entity),
		failures: make(map[string]error),
		tokens:   make(map[string]string),
	}}
}

// FailWith makes the given operation on the given key return err instead
// of its normal behavior. op is one of create/show/update/token/upload.
func (f *Fake) FailWith(op string, kind catalog.Kind, key string, err error) {
	f.st.failures[failureKey(op, kind, key)] = err
}

// Calls returns the recorded call sequence, entries shaped
// "op kind key" in invocation order.
func (f *Fake) Calls() []string {
	return f.st.calls
}

// CallCount counts recorded calls matching the given op, kind and key.
func (f *Fake) CallCount(op string, kind catalog.Kind, key string) int {
	want := failureKey(op, kind, key)
	n := 0
	for _, c := range f.st.calls {
		if c == want {
			n++
		}
	}
	return n
}

// Uploads returns the resource files received so far.
func (f *Fake) Uploads() []Upload {
	return f.st.uploads
}

// Scopes returns the credentials passed to Scoped, in order.
func (f *Fake) Scopes() []catalog.Credential {
	return f.st.scopes
}

// Has reports whether an entity with the given kind and name exists.
func (f *Fake) Has(kind catalog.Kind, name string) bool {
	_, ok := f.st.entities[kind][name]
	return ok
}

// Count returns the number of stored entities of a kind.
func (f *Fake) Count(kind catalog.Kind) int {
	return len(f.st.entities[kind])
}

// Payload returns the last stored payload for an entity, or nil.
func (f *Fake) Payload(kind catalog.Kind, name string) any {
	if e, ok := f.st.entities[kind][name]; ok {
		return e.payload
	}
	return nil
}

// Token returns the token issued for a user id, or empty.
func (f *Fake) Token(userID string) string {
	return f.st.tokens[userID]
}

// Principal describes the credential this client instance acts as.
func (f *Fake) Principal() string {
	return principal(f.cred)
}

func principal(cred catalog.Credential) string {
	switch {
	case cred.Token != "":
		return "token:" + cred.Token
	case cred.SubstituteUser != "":
		return "substitute:" + cred.SubstituteUser
	}
	return "admin"
}

func failureKey(op string, kind catalog.Kind, key string) string {
	return fmt.Sprintf("%s %s %s", op, kind, key)
}

func (f *Fake) record(op string, kind catalog.Kind, key string) error {
	k := failureKey(op, kind, key)
	f.st.calls = append(f.st.calls, k)
	if err, ok := f.st.failures[k]; ok {
		return err
	}
	return nil
}

func (f *Fake) create(kind catalog.Kind, name string, payload any) (string, error) {
	if err := f.record("create", kind, name); err != nil {
		return "", err
	}
	if _, exists := f.st.entities[kind][name]; exists {
		return "", errors.NewValidationError(string(kind), name, map[string][]string{
			"name": {"That URL is already in use."},
		})
	}
	f.st.seq++
	e := &entity{id: fmt.Sprintf("%s-%d", kind, f.st.seq), name: name, payload: payload}
	if f.st.entities[kind] == nil {
		f.st.entities[kind] = make(map[string]*entity)
	}
	f.st.entities[kind][name] = e
	f.st.byID[e.id] = e
	return e.id, nil
}

func (f *Fake) show(kind catalog.Kind, name string) (string, error) {
	if err := f.record("show", kind, name); err != nil {
		return "", err
	}
	e, ok := f.st.entities[kind][name]
	if !ok {
		return "", errors.NewNotFoundError(string(kind), name)
	}
	return e.id, nil
}

func (f *Fake) update(kind catalog.Kind, id string, payload any) error {
	if err := f.record("update", kind, id); err != nil {
		return err
	}
	e, ok := f.st.byID[id]
	if !ok {
		return errors.NewNotFoundError(string(kind), id)
	}
	e.payload = payload
	return nil
}

// CreateOrganization implements catalog.Client.
func (f *Fake) CreateOrganization(_ context.Context, org *catalog.Organization) (string, error) {
	cp := *org
	return f.create(catalog.KindOrganization, org.Name, &cp)
}

// ShowOrganization implements catalog.Client.
func (f *Fake) ShowOrganization(_ context.Context, name string) (string, error) {
	return f.show(catalog.KindOrganization, name)
}

// UpdateOrganization implements catalog.Client.
func (f *Fake) UpdateOrganization(_ context.Context, id string, org *catalog.Organization) error {
	cp := *org
	return f.update(catalog.KindOrganization, id, &cp)
}

// CreateUser implements catalog.Client.
func (f *Fake) CreateUser(_ context.Context, user *catalog.User) (string, error) {
	cp := *user
	return f.create(catalog.KindUser, user.Name, &cp)
}

// ShowUser implements catalog.Client.
func (f *Fake) ShowUser(_ context.Context, name string) (string, error) {
	return f.show(catalog.KindUser, name)
}

// UpdateUser implements catalog.Client.
func (f *Fake) UpdateUser(_ context.Context, id string, user *catalog.User) error {
	cp := *user
	return f.update(catalog.KindUser, id, &cp)
}

// CreateAPIToken implements catalog.Client.
func (f *Fake) CreateAPIToken(_ context.Context, userID, name string) (string, error) {
	if err := f.record("token", catalog.KindUser, userID); err != nil {
		return "", err
	}
	token := fmt.Sprintf("token-%s-%s", userID, name)
	f.st.tokens[userID] = token
	return token, nil
}

// CreateDataset implements catalog.Client.
func (f *Fake) CreateDataset(_ context.Context, ds *catalog.Dataset) (string, error) {
	cp := *ds
	return f.create(catalog.KindDataset, ds.Name, &cp)
}

// ShowDataset implements catalog.Client.
func (f *Fake) ShowDataset(_ context.Context, name string) (string, error) {
	return f.show(catalog.KindDataset, name)
}

// UpdateDataset implements catalog.Client.
func (f *Fake) UpdateDataset(_ context.Context, id string, ds *catalog.Dataset) error {
	cp := *ds
	return f.update(catalog.KindDataset, id, &cp)
}

// CreateResource implements catalog.Client.
func (f *Fake) CreateResource(_ context.Context, res *catalog.Resource, file io.Reader, filename string) (string, error) {
	id, err := f.create(catalog.KindResource, res.Name, res)
	if err != nil {
		return "", err
	}
	f.recordUpload(res, file, filename)
	return id, nil
}

// ShowResource implements catalog.Client.
func (f *Fake) ShowResource(_ context.Context, name string) (string, error) {
	return f.show(catalog.KindResource, name)
}

// UpdateResource implements catalog.Client.
func (f *Fake) UpdateResource(_ context.Context, id string, res *catalog.Resource, file io.Reader, filename string) error {
	if err := f.update(catalog.KindResource, id, res); err != nil {
		return err
	}
	f.recordUpload(res, file, filename)
	return nil
}

func (f *Fake) recordUpload(res *catalog.Resource, file io.Reader, filename string) {
	var content []byte
	if file != nil {
		content, _ = io.ReadAll(file)
	}
	f.st.uploads = append(f.st.uploads, Upload{
		Resource:  *res,
		Filename:  filename,
		Content:   content,
		Principal: f.Principal(),
	})
}

// Scoped implements catalog.Client.
func (f *Fake) Scoped(cred catalog.Credential) catalog.Client {
	f.st.scopes = append(f.st.scopes, cred)
	return &Fake{st: f.st, cred: cred}
}
