package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avenirdata/ckansync/pkg/errors"
)

func TestPostJSON(t *testing.T) {
	t.Run("decodes envelope result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/3/action/package_show", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "secret", r.Header.Get("Authorization"))
			w.Write([]byte(`{"success": true, "result": {"id": "abc-123", "name": "gdp"}}`))
		}))
		defer srv.Close()

		client := New(srv.URL, &APIKeyAuth{Key: "secret"})
		var out struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		err := client.PostJSON(context.Background(), "package_show", map[string]string{"id": "gdp"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "abc-123", out.ID)
	})

	t.Run("maps validation conflict payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"success": false, "error": {
				"__type": "Validation Error",
				"name": ["That URL is already in use."]
			}}`))
		}))
		defer srv.Close()

		client := New(srv.URL, &NoAuth{})
		err := client.PostJSON(context.Background(), "package_create", map[string]string{"name": "gdp"}, nil)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
		assert.True(t, errors.IsConflict(err))

		var vErr *errors.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, []string{"That URL is already in use."}, vErr.Detail["name"])
	})

	t.Run("maps bad-data validation payload without conflict", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"success": false, "error": {
				"__type": "Validation Error",
				"title": ["Missing value"]
			}}`))
		}))
		defer srv.Close()

		client := New(srv.URL, &NoAuth{})
		err := client.PostJSON(context.Background(), "package_create", nil, nil)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
		assert.False(t, errors.IsConflict(err))
	})

	t.Run("maps not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success": false, "error": {"__type": "Not Found Error", "message": "Not found"}}`))
		}))
		defer srv.Close()

		client := New(srv.URL, &NoAuth{})
		err := client.PostJSON(context.Background(), "package_show", map[string]string{"id": "gone"}, nil)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("maps authorization failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"success": false, "error": {"__type": "Authorization Error", "message": "Access denied"}}`))
		}))
		defer srv.Close()

		client := New(srv.URL, &NoAuth{})
		err := client.PostJSON(context.Background(), "package_create", nil, nil)
		assert.True(t, errors.IsAuth(err))
	})

	t.Run("maps server failure to unavailable catalog", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`<html>bad gateway</html>`))
		}))
		defer srv.Close()

		client := New(srv.URL, &NoAuth{})
		err := client.PostJSON(context.Background(), "package_create", nil, nil)
		assert.ErrorIs(t, err, errors.ErrCatalogUnavailable)
	})
}

func TestPostMultipart(t *testing.T) {
	t.Run("streams fields and file", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "gdp-table", r.FormValue("name"))
			assert.Equal(t, "upload", r.FormValue("url"))

			file, header, err := r.FormFile("upload")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "gdp.csv", header.Filename)

			content, err := io.ReadAll(file)
			require.NoError(t, err)
			assert.Equal(t, "year,value", string(content))

			w.Write([]byte(`{"success": true, "result": {"id": "res-1"}}`))
		}))
		defer srv.Close()

		client := New(srv.URL, &APIKeyAuth{Key: "secret"})
		var out struct {
			ID string `json:"id"`
		}
		err := client.PostMultipart(context.Background(), "resource_create",
			map[string]string{"name": "gdp-table", "url": "upload"},
			"upload", "gdp.csv", strings.NewReader("year,value"), &out)
		require.NoError(t, err)
		assert.Equal(t, "res-1", out.ID)
	})

	t.Run("works without a file part", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "res-1", r.FormValue("id"))
			w.Write([]byte(`{"success": true, "result": {}}`))
		}))
		defer srv.Close()

		client := New(srv.URL, &NoAuth{})
		err := client.PostMultipart(context.Background(), "resource_update",
			map[string]string{"id": "res-1"}, "upload", "", nil, nil)
		require.NoError(t, err)
	})
}

func TestWithAuth(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization")+"/"+r.Header.Get(SubstituteUserHeader))
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	admin := New(srv.URL, &APIKeyAuth{Key: "admin-key"})
	scoped := admin.WithAuth(&SubstituteAuth{Key: "admin-key", User: "ada"})

	require.NoError(t, admin.PostJSON(context.Background(), "status_show", nil, nil))
	require.NoError(t, scoped.PostJSON(context.Background(), "status_show", nil, nil))

	assert.Equal(t, []string{"admin-key/", "admin-key/ada"}, seen)
}
