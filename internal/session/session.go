// Package session holds the credential set of a signed-in user.
//
// A [Session] is immutable. Signing in or out replaces the current session
// held by a [Store] wholesale; components that cache data derived from a
// session subscribe to the store and drop it on every change.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ManagementScope is the OAuth2 scope of the Azure Resource Manager API.
const ManagementScope = "https://management.azure.com/.default"

// DefaultAuthority is the Microsoft identity platform base URL.
const DefaultAuthority = "https://login.microsoftonline.com"

var (
	// ErrNotSignedIn is returned when no session is active.
	ErrNotSignedIn = errors.New("not signed in to Azure")

	// ErrCredentialNotFound is returned when a resource belongs to a tenant
	// the current session holds no credential for. It indicates that cached
	// resources and the session are out of sync.
	ErrCredentialNotFound = errors.New("no credential for tenant")
)

// Credential is a token source bound to one tenant.
type Credential struct {
	TenantID string
	Source   oauth2.TokenSource
}

// Token returns a bearer token for the management API.
func (c *Credential) Token() (string, error) {
	tok, err := c.Source.Token()
	if err != nil {
		return "", fmt.Errorf("failed to acquire token for tenant %s: %w", c.TenantID, err)
	}
	return tok.AccessToken, nil
}

// ClientSecretCredential returns a credential that uses the OAuth2
// client-credentials flow of a service principal.
func ClientSecretCredential(ctx context.Context, authority, tenantID, clientID, clientSecret string) *Credential {
	authority = strings.TrimRight(strings.TrimSpace(authority), "/")
	if authority == "" {
		authority = DefaultAuthority
	}
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     authority + "/" + tenantID + "/oauth2/v2.0/token",
		Scopes:       []string{ManagementScope},
	}
	return &Credential{TenantID: tenantID, Source: cfg.TokenSource(ctx)}
}

// StaticCredential wraps a pre-issued access token, for example one printed
// by `az account get-access-token`.
func StaticCredential(tenantID, accessToken string) *Credential {
	return &Credential{
		TenantID: tenantID,
		Source:   oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
	}
}

// Session is an immutable set of per-tenant credentials.
type Session struct {
	creds map[string]*Credential
}

// New builds a session from credentials. Later entries for the same tenant win.
func New(creds ...*Credential) *Session {
	m := make(map[string]*Credential, len(creds))
	for _, c := range creds {
		if c == nil {
			continue
		}
		m[c.TenantID] = c
	}
	return &Session{creds: m}
}

// Tenants returns the credentials of the session ordered by tenant id.
func (s *Session) Tenants() []*Credential {
	out := make([]*Credential, 0, len(s.creds))
	for _, c := range s.creds {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantID < out[j].TenantID })
	return out
}

// Credential returns the credential for tenantID.
func (s *Session) Credential(tenantID string) (*Credential, error) {
	c, ok := s.creds[tenantID]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrCredentialNotFound, tenantID)
	}
	return c, nil
}
