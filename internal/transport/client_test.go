package transport

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/platformops/policytool/pkg/errors"
)

// TestClientAppliesAuthAndHeaders tests that requests carry credentials and
// JSON headers.
func TestClientAppliesAuthAndHeaders(t *testing.T) {
	var got *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.Write([]byte(`{"ok":true}`)) //nolint:errcheck
	}))
	defer server.Close()

	client := New("atlas", server.URL, &BearerAuth{Token: "abc123"})

	resp, err := client.Post(context.Background(), "/api/atlas/v2/entity", map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var out map[string]bool
	if err := client.Decode(resp, &out); err != nil {
		t.Fatalf("Unexpected decode error: %v", err)
	}

	if got.Header.Get("Authorization") != "Bearer abc123" {
		t.Errorf("Expected bearer token, got '%s'", got.Header.Get("Authorization"))
	}
	if got.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Expected JSON content type, got '%s'", got.Header.Get("Content-Type"))
	}
	if got.Header.Get("Accept") != "application/json" {
		t.Errorf("Expected JSON accept header, got '%s'", got.Header.Get("Accept"))
	}
	if !out["ok"] {
		t.Error("Expected decoded response body")
	}
}

// TestClientGetEncodesQuery tests query parameter handling.
func TestClientGetEncodesQuery(t *testing.T) {
	var gotURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Write([]byte(`{}`)) //nolint:errcheck
	}))
	defer server.Close()

	client := New("atlas", server.URL+"/", &NoAuth{})

	query := url.Values{}
	query.Set("type", "classification")
	resp, err := client.Get(context.Background(), "/api/atlas/v2/types/typedefs", query)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := client.Discard(resp); err != nil {
		t.Fatalf("Unexpected discard error: %v", err)
	}

	want := "/api/atlas/v2/types/typedefs?type=classification"
	if gotURL != want {
		t.Errorf("Expected request URL '%s', got '%s'", want, gotURL)
	}
}

// TestDecodeErrorStatus tests the error taxonomy for non-2xx responses.
func TestDecodeErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		authFailed bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom"},
		{name: "not found", status: http.StatusNotFound, body: "no such entity"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: "bad credentials", authFailed: true},
		{name: "forbidden", status: http.StatusForbidden, body: "no access", authFailed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body)) //nolint:errcheck
			}))
			defer server.Close()

			client := New("ranger", server.URL, &NoAuth{})
			resp, err := client.Get(context.Background(), "/service/public/v2/api/policy", nil)
			if err != nil {
				t.Fatalf("Unexpected transport error: %v", err)
			}

			var target map[string]any
			err = client.Decode(resp, &target)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !errors.IsCatalogUnavailable(err) {
				t.Errorf("Expected catalog unavailable error, got %v", err)
			}
			if errors.IsAuthFailed(err) != tt.authFailed {
				t.Errorf("Expected auth failed = %v for status %d", tt.authFailed, tt.status)
			}

			var unavailable *errors.CatalogUnavailableError
			if !stderrors.As(err, &unavailable) {
				t.Fatalf("Expected CatalogUnavailableError, got %T", err)
			}
			if unavailable.Service != "ranger" {
				t.Errorf("Expected service 'ranger', got '%s'", unavailable.Service)
			}
			if unavailable.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, unavailable.StatusCode)
			}
			if unavailable.Message != tt.body {
				t.Errorf("Expected message '%s', got '%s'", tt.body, unavailable.Message)
			}
		})
	}
}

// TestDecodeBadJSON tests that malformed payloads surface as parse errors.
func TestDecodeBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"truncated":`)) //nolint:errcheck
	}))
	defer server.Close()

	client := New("atlas", server.URL, &NoAuth{})
	resp, err := client.Get(context.Background(), "/", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var target map[string]any
	err = client.Decode(resp, &target)
	if err == nil {
		t.Fatal("Expected a parse error")
	}
	var parseErr *errors.ParseError
	if !stderrors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %T", err)
	}
}

// TestClientUnreachableServer tests the error for connection failures.
func TestClientUnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := New("atlas", server.URL, &NoAuth{})
	_, err := client.Get(context.Background(), "/", nil)
	if err == nil {
		t.Fatal("Expected an error for a closed server")
	}
	if !errors.IsCatalogUnavailable(err) {
		t.Errorf("Expected catalog unavailable error, got %v", err)
	}
}
