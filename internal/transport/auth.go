// Package transport provides the authenticated HTTP client shared by the
// catalog and policy service integrations.
package transport

import (
	"net/http"
	"os"
)

// Authenticator applies authentication to HTTP requests. Credentials are
// captured at construction so a single authenticator serves every request of
// a run.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth sends requests without credentials.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) {}

// BasicAuth authenticates with a username and password.
type BasicAuth struct {
	Username string
	Password string
}

// Apply implements the Authenticator interface for BasicAuth.
func (a *BasicAuth) Apply(req *http.Request) {
	req.SetBasicAuth(a.Username, a.Password)
}

// BearerAuth authenticates with a bearer token.
type BearerAuth struct {
	Token string
}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// FromEnv builds an authenticator from environment variables under the given
// prefix, typically loaded from a .env file. A username and password pair
// ({PREFIX}_USERNAME, {PREFIX}_PASSWORD) selects basic auth, a token
// ({PREFIX}_TOKEN) selects bearer auth, and absent credentials select no
// authentication.
func FromEnv(prefix string) Authenticator {
	username := os.Getenv(prefix + "_USERNAME")
	password := os.Getenv(prefix + "_PASSWORD")
	if username != "" && password != "" {
		return &BasicAuth{Username: username, Password: password}
	}
	if token := os.Getenv(prefix + "_TOKEN"); token != "" {
		return &BearerAuth{Token: token}
	}
	return &NoAuth{}
}
