package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/nucleus/ucl-zuora/internal/endpoint"
)

// =============================================================================
// BASE HTTP ENDPOINT
// Provides common HTTP functionality for REST connectors.
// =============================================================================

// Base provides common HTTP endpoint functionality.
// Embed this in connectors like Zuora.
type Base struct {
	// Client is the HTTP client for making requests.
	Client *Client

	// EndpointID is the unique identifier for this endpoint.
	EndpointID string

	// EndpointName is the display name.
	EndpointName string

	// Vendor is the vendor name (e.g., "Zuora").
	Vendor string

	// Version is the detected API version.
	Version string
}

// NewBase creates a new HTTP base with the given configuration.
func NewBase(id, name, vendor string, config *ClientConfig) *Base {
	return &Base{
		Client:       NewClient(config),
		EndpointID:   id,
		EndpointName: name,
		Vendor:       vendor,
	}
}

// ID returns the endpoint identifier.
func (b *Base) ID() string {
	return b.EndpointID
}

// Close closes the HTTP client.
func (b *Base) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// GetCapabilities returns default HTTP source capabilities.
// Override in concrete implementations for specific capabilities.
func (b *Base) GetCapabilities() *endpoint.Capabilities {
	return &endpoint.Capabilities{
		SupportsFull:     true,
		SupportsMetadata: true,
	}
}

// GetDescriptor returns the endpoint descriptor.
// Override in concrete implementations.
func (b *Base) GetDescriptor() *endpoint.Descriptor {
	return &endpoint.Descriptor{
		ID:     b.EndpointID,
		Family: "http.rest",
		Title:  b.EndpointName,
		Vendor: b.Vendor,
	}
}

// Probe tests the connection by making a GET request to probePath.
// HTTP failures are reported as an invalid result, transport failures as errors.
func (b *Base) Probe(ctx context.Context, probePath string) (*endpoint.ValidationResult, error) {
	resp, err := b.Client.Get(ctx, probePath, nil)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			return &endpoint.ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("Connection failed: HTTP %d", httpErr.StatusCode),
			}, nil
		}
		return nil, err
	}

	return &endpoint.ValidationResult{
		Valid:           resp.IsSuccess(),
		Message:         "Connection successful",
		DetectedVersion: b.Version,
	}, nil
}
