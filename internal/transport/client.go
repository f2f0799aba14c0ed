package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/avenirdata/ckansync/pkg/errors"
)

// DefaultHTTPTimeout bounds a single action call, including resource
// uploads. Large files over slow links may need a higher limit.
var DefaultHTTPTimeout = 5 * time.Minute

// Client performs CKAN action API calls with authentication applied.
type Client struct {
	http    *http.Client
	baseURL string
	auth    Authenticator
}

// New creates a transport client for the catalog at baseURL.
func New(baseURL string, auth Authenticator) *Client {
	return &Client{
		http:    &http.Client{Timeout: DefaultHTTPTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
	}
}

// WithAuth returns a client sharing the underlying HTTP client but
// authenticating as a different principal.
func (c *Client) WithAuth(auth Authenticator) *Client {
	return &Client{http: c.http, baseURL: c.baseURL, auth: auth}
}

// ActionURL returns the endpoint URL for a CKAN action name.
func (c *Client) ActionURL(action string) string {
	return c.baseURL + "/api/3/action/" + action
}

// PostJSON calls an action with a JSON payload and decodes the envelope's
// result into result, which may be nil when the caller only needs the
// success or error outcome.
func (c *Client) PostJSON(ctx context.Context, action string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.WrapParse(action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ActionURL(action), bytes.NewReader(body))
	if err != nil {
		return errors.NewAPIError(0, action, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, action, result)
}

// PostMultipart calls an action with multipart form fields and one file
// part. The file streams through an io.Pipe, so uploads never buffer
// fully in memory.
func (c *Client) PostMultipart(ctx context.Context, action string, fields map[string]string, fileField, filename string, file io.Reader, result any) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeForm(mw, fields, fileField, filename, file))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ActionURL(action), pr)
	if err != nil {
		return errors.NewAPIError(0, action, err.Error())
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, action, result)
}

func writeForm(mw *multipart.Writer, fields map[string]string, fileField, filename string, file io.Reader) error {
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			return err
		}
	}
	if file != nil {
		part, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, file); err != nil {
			return err
		}
	}
	return mw.Close()
}

func (c *Client) do(req *http.Request, action string, result any) error {
	req.Header.Set("Accept", "application/json")
	c.auth.Apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.NewAPIError(0, action, err.Error())
	}
	return DecodeResponse(resp, action, result)
}
