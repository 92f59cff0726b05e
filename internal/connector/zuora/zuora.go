package zuora

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	uclhttp "github.com/nucleus/ucl-zuora/internal/connector/http"
	"github.com/nucleus/ucl-zuora/internal/core"
	"github.com/nucleus/ucl-zuora/internal/endpoint"
)

// =============================================================================
// ZUORA CONNECTOR
// Implements endpoint.CatalogEndpoint and endpoint.CatalogProducer
// =============================================================================

// TemplateID is the registry key of the Zuora endpoint.
const TemplateID = "http.zuora"

// Ensure interface compliance
var (
	_ endpoint.CatalogEndpoint = (*Zuora)(nil)
	_ endpoint.CatalogProducer = (*Zuora)(nil)
)

// Zuora is the Zuora connector.
type Zuora struct {
	*uclhttp.Base
	config     *Config
	discoverer *Discoverer
}

// New creates a new Zuora connector with the given configuration.
func New(config *Config) (*Zuora, error) {
	return NewWithClientConfig(config, uclhttp.DefaultClientConfig(), nil)
}

// NewWithClientConfig creates a connector on a caller-supplied HTTP config,
// e.g. with a custom Transport. logger may be nil.
func NewWithClientConfig(config *Config, httpConfig *uclhttp.ClientConfig, logger *slog.Logger) (*Zuora, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if httpConfig == nil {
		httpConfig = uclhttp.DefaultClientConfig()
	}
	if httpConfig.Headers == nil {
		httpConfig.Headers = make(map[string]string)
	}

	httpConfig.BaseURL = config.ResolveBaseURL()
	if config.AccessToken != "" {
		httpConfig.Auth = uclhttp.BearerToken{Token: config.AccessToken}
	} else {
		httpConfig.Auth = uclhttp.APIKeyPair{KeyID: config.APIKeyID, Secret: config.APISecret}
	}

	base := uclhttp.NewBase(TemplateID, "Zuora", "Zuora", httpConfig)
	z := &Zuora{
		Base:   base,
		config: config,
		discoverer: NewDiscoverer(base.Client, Options{
			ForceREST:   config.ForceREST,
			Aqua:        AquaOptions{Partner: config.Partner, Project: config.Project},
			Concurrency: config.Concurrency,
			Streams:     config.Streams,
			Logger:      logger,
		}),
	}
	return z, nil
}

// =============================================================================
// ENDPOINT INTERFACE
// =============================================================================

// ValidateConfig tests the connection by listing describable objects.
func (z *Zuora) ValidateConfig(ctx context.Context, config map[string]any) (*endpoint.ValidationResult, error) {
	return z.Probe(ctx, describePath)
}

// GetCapabilities returns Zuora source capabilities.
func (z *Zuora) GetCapabilities() *endpoint.Capabilities {
	return &endpoint.Capabilities{
		SupportsFull:        true,
		SupportsIncremental: true,
		SupportsMetadata:    true,
		SupportsSoftDelete:  !z.config.ForceREST,
		IncrementalLiteral:  "timestamp",
	}
}

// GetDescriptor returns the Zuora endpoint descriptor.
func (z *Zuora) GetDescriptor() *endpoint.Descriptor {
	return &endpoint.Descriptor{
		ID:          TemplateID,
		Family:      "http",
		Title:       "Zuora",
		Vendor:      "Zuora",
		Description: "Zuora billing connector discovering exportable objects and their schemas",
		Categories:  []string{"billing", "finance"},
		Protocols:   []string{"https"},
		DocsURL:     "https://developer.zuora.com/api-references/api/overview/",
		Fields: []*endpoint.FieldDescriptor{
			{Key: "baseUrl", Label: "REST URL", ValueType: "string", Semantic: "HOST", Placeholder: productionURL},
			{Key: "sandbox", Label: "Sandbox", ValueType: "boolean", DefaultValue: "false"},
			{Key: "european", Label: "EU data center", ValueType: "boolean", DefaultValue: "false"},
			{Key: "accessToken", Label: "OAuth Token", ValueType: "password", Sensitive: true, Semantic: "PASSWORD"},
			{Key: "apiKeyId", Label: "API Access Key ID", ValueType: "string", Semantic: "GENERIC"},
			{Key: "apiSecret", Label: "API Secret Access Key", ValueType: "password", Sensitive: true, Semantic: "PASSWORD"},
			{Key: "forceRest", Label: "Force REST probing", ValueType: "boolean", DefaultValue: "false", Advanced: true,
				Description: "Probe stream availability through REST exports instead of AQuA; disables the Deleted column"},
			{Key: "partnerId", Label: "AQuA Partner ID", ValueType: "string", Advanced: true},
			{Key: "project", Label: "AQuA Project", ValueType: "string", Advanced: true},
		},
	}
}

// =============================================================================
// CATALOG ENDPOINT
// =============================================================================

// DiscoverCatalog runs a full discovery pass.
func (z *Zuora) DiscoverCatalog(ctx context.Context) (*core.Catalog, error) {
	return z.discoverer.DiscoverStreams(ctx)
}

// ListDatasets returns one dataset per available stream.
func (z *Zuora) ListDatasets(ctx context.Context) ([]*endpoint.Dataset, error) {
	catalog, err := z.discoverer.DiscoverStreams(ctx)
	if err != nil {
		return nil, err
	}

	datasets := make([]*endpoint.Dataset, 0, len(catalog.Streams))
	for _, s := range catalog.Streams {
		datasets = append(datasets, toDataset(s))
	}
	return datasets, nil
}

// GetSchema discovers a single stream.
func (z *Zuora) GetSchema(ctx context.Context, datasetID string) (*endpoint.Schema, error) {
	stream, err := z.discoverer.DiscoverStream(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return nil, fmt.Errorf("stream unavailable: %s", datasetID)
	}
	return toSchema(stream), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func toDataset(s *core.StreamSchema) *endpoint.Dataset {
	ds := &endpoint.Dataset{
		ID:                  s.TapStreamID,
		Name:                s.Stream,
		Kind:                "entity",
		SupportsIncremental: s.Incremental(),
		IngestionStrategy:   "full",
		PrimaryKeys:         append([]string(nil), s.KeyProperties...),
	}
	if s.Incremental() {
		ds.IngestionStrategy = "scd1"
		ds.IncrementalColumn = s.ReplicationKey
		ds.IncrementalLiteral = "timestamp"
	}
	return ds
}

// toSchema lists the key property first, then the rest alphabetically.
func toSchema(s *core.StreamSchema) *endpoint.Schema {
	names := make([]string, 0, len(s.Schema.Properties))
	for name := range s.Schema.Properties {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == PrimaryKey || names[j] == PrimaryKey {
			return names[i] == PrimaryKey
		}
		return names[i] < names[j]
	})

	fields := make([]*endpoint.FieldDefinition, 0, len(names))
	for i, name := range names {
		prop := s.Schema.Properties[name]
		fields = append(fields, &endpoint.FieldDefinition{
			Name:     name,
			DataType: prop.BaseType(),
			Format:   prop.Format,
			Nullable: prop.Nullable(),
			Comment:  string(prop.Inclusion),
			Position: i + 1,
		})
	}

	return &endpoint.Schema{
		Fields: fields,
		Constraints: []*endpoint.Constraint{
			{Name: s.Stream + "_pk", Type: "primary_key", Fields: append([]string(nil), s.KeyProperties...)},
		},
	}
}
