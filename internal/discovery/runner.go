// Package discovery runs catalog discovery against a registered endpoint and
// stores the result as a run artifact. The gRPC gateway, the Temporal
// activity and the CLI all go through Runner.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/nucleus/ucl-zuora/internal/catalogstore"
	"github.com/nucleus/ucl-zuora/internal/connector/zuora"
	"github.com/nucleus/ucl-zuora/internal/core"
	"github.com/nucleus/ucl-zuora/internal/endpoint"
)

// Request describes one discovery run.
type Request struct {
	// TemplateID selects the endpoint. Defaults to the Zuora connector.
	TemplateID string

	// Config overrides the runner's default endpoint parameters key by key.
	Config map[string]any

	// RunID names the artifact. Generated when empty.
	RunID string
}

// Result is the outcome of a run.
type Result struct {
	RunID      string
	URI        string
	Catalog    *core.Catalog
	StartedAt  time.Time
	FinishedAt time.Time
}

// StreamCount returns the number of discovered streams.
func (r *Result) StreamCount() int {
	if r.Catalog == nil {
		return 0
	}
	return len(r.Catalog.Streams)
}

// Runner creates endpoints from a registry and persists their catalogs.
type Runner struct {
	registry *endpoint.Registry
	store    catalogstore.Store
	defaults map[string]any
	logger   *slog.Logger
	newRunID func() string
}

// NewRunner creates a runner. store may be nil, in which case catalogs are
// returned but not saved. defaults are the base endpoint parameters.
func NewRunner(registry *endpoint.Registry, store catalogstore.Store, defaults map[string]any, logger *slog.Logger) *Runner {
	if registry == nil {
		registry = endpoint.DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry: registry,
		store:    store,
		defaults: maps.Clone(defaults),
		logger:   logger,
		newRunID: uuid.NewString,
	}
}

// Create instantiates an endpoint with the default parameters merged with overrides.
func (r *Runner) Create(templateID string, overrides map[string]any) (endpoint.Endpoint, error) {
	if templateID == "" {
		templateID = zuora.TemplateID
	}
	return r.registry.Create(templateID, r.params(overrides))
}

// Run discovers the catalog and saves it when a store is configured.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	templateID := req.TemplateID
	if templateID == "" {
		templateID = zuora.TemplateID
	}
	runID := req.RunID
	if runID == "" {
		runID = r.newRunID()
	}
	logger := r.logger.With("runId", runID, "template", templateID)

	producer, err := r.registry.CreateCatalog(templateID, r.params(req.Config))
	if err != nil {
		return nil, err
	}
	defer producer.Close()

	result := &Result{RunID: runID, StartedAt: time.Now().UTC()}
	logger.Info("discovery started")

	catalog, err := producer.DiscoverCatalog(ctx)
	if err != nil {
		logger.Error("discovery failed", "error", err)
		return nil, err
	}
	result.Catalog = catalog

	if r.store != nil {
		uri, err := r.store.Save(ctx, runID, catalog)
		if err != nil {
			return nil, fmt.Errorf("save catalog: %w", err)
		}
		result.URI = uri
	}
	result.FinishedAt = time.Now().UTC()

	logger.Info("discovery finished",
		"streams", result.StreamCount(),
		"uri", result.URI,
		"duration", result.FinishedAt.Sub(result.StartedAt))
	return result, nil
}

// Load reads a previously saved catalog.
func (r *Runner) Load(ctx context.Context, uri string) (*core.Catalog, error) {
	if r.store == nil {
		return nil, fmt.Errorf("no catalog store configured")
	}
	return r.store.Load(ctx, uri)
}

// List returns the URIs of saved catalogs, as ordered by the store.
func (r *Runner) List(ctx context.Context) ([]string, error) {
	if r.store == nil {
		return nil, fmt.Errorf("no catalog store configured")
	}
	return r.store.List(ctx)
}

func (r *Runner) params(overrides map[string]any) map[string]any {
	params := maps.Clone(r.defaults)
	if params == nil {
		params = make(map[string]any, len(overrides))
	}
	maps.Copy(params, overrides)
	return params
}
