// Package endpoint defines the contracts a connector implements to take part
// in catalog discovery.
//
// Architecture:
//
//	Endpoint         - Base contract (ID, Validate, Capabilities, Descriptor)
//	CatalogEndpoint  - Discover datasets and their schemas (ListDatasets, GetSchema)
//	CatalogProducer  - Produce the full stream catalog in one pass
//
// Connectors compose the interfaces that match what their source supports and
// register a Factory under their template ID.
package endpoint

import (
	"context"

	"github.com/nucleus/ucl-zuora/internal/core"
)

// Endpoint is the base contract every connector implements.
type Endpoint interface {
	// ID returns the unique template identifier (e.g., "http.zuora").
	ID() string

	// ValidateConfig tests configuration validity and connectivity.
	ValidateConfig(ctx context.Context, config map[string]any) (*ValidationResult, error)

	// GetCapabilities returns the set of supported operations.
	GetCapabilities() *Capabilities

	// GetDescriptor returns metadata about this endpoint type.
	GetDescriptor() *Descriptor

	// Close releases any resources held by the endpoint.
	Close() error
}

// CatalogEndpoint can describe the datasets a source exposes.
type CatalogEndpoint interface {
	Endpoint

	// ListDatasets returns available datasets in the order the source advertises them.
	ListDatasets(ctx context.Context) ([]*Dataset, error)

	// GetSchema returns the schema for a specific dataset.
	GetSchema(ctx context.Context, datasetID string) (*Schema, error)
}

// CatalogProducer builds the complete stream catalog in a single discovery pass.
type CatalogProducer interface {
	Endpoint

	DiscoverCatalog(ctx context.Context) (*core.Catalog, error)
}
