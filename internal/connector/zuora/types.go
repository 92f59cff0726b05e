package zuora

import "strings"

// Config holds Zuora connection configuration.
type Config struct {
	// BaseURL is the REST base URL. Derived from Sandbox/European when empty.
	BaseURL string `json:"baseUrl,omitempty"`

	// Sandbox selects the API sandbox environment.
	Sandbox bool `json:"sandbox,omitempty"`

	// European selects the EU data center.
	European bool `json:"european,omitempty"`

	// AccessToken is a pre-issued OAuth bearer token.
	AccessToken string `json:"accessToken,omitempty"`

	// APIKeyID and APISecret authenticate with apiAccessKeyId/apiSecretAccessKey headers.
	APIKeyID  string `json:"apiKeyId,omitempty"`
	APISecret string `json:"apiSecret,omitempty"`

	// ForceREST probes availability through the REST export API instead of AQuA.
	ForceREST bool `json:"forceRest,omitempty"`

	// Partner and Project are sent with AQuA requests.
	Partner string `json:"partnerId,omitempty"`
	Project string `json:"project,omitempty"`

	// Concurrency bounds parallel stream discovery.
	Concurrency int `json:"concurrency,omitempty"`

	// Streams optionally restricts discovery.
	Streams []string `json:"streams,omitempty"`
}

const (
	productionURL   = "https://rest.zuora.com"
	sandboxURL      = "https://rest.apisandbox.zuora.com"
	euProductionURL = "https://rest.eu.zuora.com"
	euSandboxURL    = "https://rest.sandbox.eu.zuora.com"
)

// ResolveBaseURL returns BaseURL or the data-center default.
func (c *Config) ResolveBaseURL() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	switch {
	case c.European && c.Sandbox:
		return euSandboxURL
	case c.European:
		return euProductionURL
	case c.Sandbox:
		return sandboxURL
	default:
		return productionURL
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.AccessToken == "" && (c.APIKeyID == "" || c.APISecret == "") {
		return &ValidationError{Field: "accessToken", Message: "accessToken or apiKeyId/apiSecret required"}
	}
	if c.Concurrency < 0 {
		return &ValidationError{Field: "concurrency", Message: "must not be negative"}
	}
	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
