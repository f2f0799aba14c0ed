package transport

import (
	"net/http"
	"testing"
)

// TestNoAuth tests that NoAuth applies no authentication.
func TestNoAuth(t *testing.T) {
	auth := &NoAuth{}
	req := &http.Request{
		Header: make(http.Header),
	}

	auth.Apply(req)

	if len(req.Header) != 0 {
		t.Errorf("Expected no headers, got %d", len(req.Header))
	}
}

// TestAPIKeyAuth tests API key authentication.
func TestAPIKeyAuth(t *testing.T) {
	auth := &APIKeyAuth{Key: "test-api-key"}
	req := &http.Request{
		Header: make(http.Header),
	}

	auth.Apply(req)

	if got := req.Header.Get("Authorization"); got != "test-api-key" {
		t.Errorf("Expected Authorization header 'test-api-key', got '%s'", got)
	}
	if got := req.Header.Get("X-CKAN-API-Key"); got != "test-api-key" {
		t.Errorf("Expected X-CKAN-API-Key header 'test-api-key', got '%s'", got)
	}
}

// TestSubstituteAuth tests principal substitution authentication.
func TestSubstituteAuth(t *testing.T) {
	auth := &SubstituteAuth{Key: "admin-key", User: "ada"}
	req := &http.Request{
		Header: make(http.Header),
	}

	auth.Apply(req)

	if got := req.Header.Get("Authorization"); got != "admin-key" {
		t.Errorf("Expected Authorization header 'admin-key', got '%s'", got)
	}
	if got := req.Header.Get(SubstituteUserHeader); got != "ada" {
		t.Errorf("Expected %s header 'ada', got '%s'", SubstituteUserHeader, got)
	}
}

// TestSubstituteAuthCustomHeader tests an overridden substitution header.
func TestSubstituteAuthCustomHeader(t *testing.T) {
	auth := &SubstituteAuth{Key: "admin-key", User: "ada", Header: "X-Acting-User"}
	req := &http.Request{
		Header: make(http.Header),
	}

	auth.Apply(req)

	if got := req.Header.Get("X-Acting-User"); got != "ada" {
		t.Errorf("Expected X-Acting-User header 'ada', got '%s'", got)
	}
	if got := req.Header.Get(SubstituteUserHeader); got != "" {
		t.Errorf("Expected default substitution header unset, got '%s'", got)
	}
}
