package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/avenirdata/ckansync/pkg/errors"
)

// envelope is CKAN's uniform action response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

// ckanError is the error object inside a failed envelope. CKAN reports
// the error class in __type and, for validation failures, per-field
// message lists in the remaining keys.
type ckanError struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

// DecodeResponse reads a CKAN action response and either decodes the
// envelope's result into result or maps the failure to a typed error:
// validation payloads become ValidationError (carrying the per-field
// detail that drives conflict detection), missing entities become
// NotFoundError, rejected principals become AuthenticationError, and
// everything else becomes APIError.
func DecodeResponse(resp *http.Response, action string, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", action, err)
	}

	var env envelope
	if jsonErr := json.Unmarshal(body, &env); jsonErr != nil {
		// Proxies and error pages answer with non-JSON bodies.
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return errors.NewAPIError(resp.StatusCode, action, strings.TrimSpace(string(body)))
		}
		return errors.WrapParse(action, jsonErr)
	}

	if !env.Success {
		return decodeError(resp.StatusCode, action, env.Error)
	}

	if result != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, result); err != nil {
			return errors.WrapParse(action, err)
		}
	}
	return nil
}

func decodeError(status int, action string, raw json.RawMessage) error {
	var ce ckanError
	_ = json.Unmarshal(raw, &ce)

	switch {
	case ce.Type == "Validation Error" || status == http.StatusConflict:
		return errors.NewValidationError(entityOf(action), "", validationDetail(raw))
	case ce.Type == "Not Found Error" || status == http.StatusNotFound:
		return errors.NewNotFoundError(entityOf(action), "")
	case ce.Type == "Authorization Error" || status == http.StatusForbidden || status == http.StatusUnauthorized:
		return &errors.AuthenticationError{Message: authMessage(ce)}
	default:
		return errors.NewAPIError(status, action, ce.Message)
	}
}

// validationDetail extracts the per-field message lists from a validation
// error object. Fields whose value is a plain string are kept as a
// single-message list; the envelope's own keys are dropped.
func validationDetail(raw json.RawMessage) map[string][]string {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}

	detail := make(map[string][]string)
	for field, value := range fields {
		if field == "__type" || field == "message" {
			continue
		}
		switch v := value.(type) {
		case string:
			detail[field] = []string{v}
		case []any:
			var msgs []string
			for _, item := range v {
				if s, ok := item.(string); ok {
					msgs = append(msgs, s)
				}
			}
			if len(msgs) > 0 {
				detail[field] = msgs
			}
		}
	}
	if len(detail) == 0 {
		return nil
	}
	return detail
}

func authMessage(ce ckanError) string {
	if ce.Message != "" {
		return ce.Message
	}
	return "access denied"
}

// entityOf derives the entity kind from an action name, e.g.
// "organization_create" holds an organization.
func entityOf(action string) string {
	if i := strings.LastIndex(action, "_"); i > 0 {
		return action[:i]
	}
	return action
}
