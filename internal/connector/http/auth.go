package http

import "net/http"

// =============================================================================
// AUTHENTICATION STRATEGIES
// =============================================================================

// AuthConfig represents authentication configuration.
type AuthConfig interface {
	Apply(req *http.Request)
}

// NoAuth represents no authentication.
type NoAuth struct{}

func (a NoAuth) Apply(req *http.Request) {}

// BearerToken uses Bearer token authentication.
type BearerToken struct {
	Token string
}

// Apply adds Bearer token header to the request.
func (a BearerToken) Apply(req *http.Request) {
	if a.Token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// APIKeyPair sends an access key ID and secret as two headers.
// Zuora accepts this form as apiAccessKeyId / apiSecretAccessKey.
type APIKeyPair struct {
	KeyID        string
	Secret       string
	KeyIDHeader  string
	SecretHeader string
}

// Apply adds both key headers to the request.
func (a APIKeyPair) Apply(req *http.Request) {
	if a.KeyID == "" || a.Secret == "" {
		return
	}
	idHeader := a.KeyIDHeader
	if idHeader == "" {
		idHeader = "apiAccessKeyId"
	}
	secretHeader := a.SecretHeader
	if secretHeader == "" {
		secretHeader = "apiSecretAccessKey"
	}
	req.Header.Set(idHeader, a.KeyID)
	req.Header.Set(secretHeader, a.Secret)
}
