package zuora

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	uclhttp "github.com/nucleus/ucl-zuora/internal/connector/http"
	"github.com/nucleus/ucl-zuora/internal/core"
)

const describePath = "v1/describe"

// Options configure a Discoverer.
type Options struct {
	// Prober overrides the strategy chosen from ForceREST.
	Prober Prober

	// ForceREST probes through the REST export API instead of AQuA.
	ForceREST bool

	// Aqua identifies the caller to AQuA when ForceREST is false.
	Aqua AquaOptions

	// Concurrency bounds parallel stream discovery (default 1, sequential).
	Concurrency int

	// Streams restricts discovery to these names. Empty means all.
	Streams []string

	Logger *slog.Logger
}

// Discoverer walks the Zuora describe API and builds the stream catalog.
// It holds no state between runs.
type Discoverer struct {
	req    Requester
	prober Prober
	opts   Options
	logger *slog.Logger
}

// NewDiscoverer creates a Discoverer issuing requests through req.
func NewDiscoverer(req Requester, opts Options) *Discoverer {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prober := opts.Prober
	if prober == nil {
		prober = NewProber(req, opts.ForceREST, opts.Aqua)
	}
	return &Discoverer{
		req:    req,
		prober: prober,
		opts:   opts,
		logger: logger.With("connector", "zuora"),
	}
}

// StreamNames returns every stream the account can see, in advertised order.
func (d *Discoverer) StreamNames(ctx context.Context) ([]string, error) {
	var list describeList
	if err := d.fetchXML(ctx, describePath, &list); err != nil {
		return nil, stageError("", StageDescribe, err)
	}

	names := make([]string, 0, len(list.Objects))
	for _, obj := range list.Objects {
		name := strings.TrimSpace(obj.Name)
		if name == "" {
			return nil, stageError("", StageDescribe, &ParseError{Reason: "object without name"})
		}
		names = append(names, name)
	}
	return names, nil
}

// FieldCatalog describes one stream and returns its exportable fields.
func (d *Discoverer) FieldCatalog(ctx context.Context, stream string) (FieldCatalog, error) {
	var obj describeObject
	if err := d.fetchXML(ctx, describePath+"/"+stream, &obj); err != nil {
		return FieldCatalog{}, stageError(stream, StageFields, err)
	}

	catalog, err := BuildFieldCatalog(stream, obj.Fields, d.logger)
	if err != nil {
		return FieldCatalog{}, stageError(stream, StageFields, err)
	}
	return catalog, nil
}

// DiscoverStream builds, probes and shapes one stream.
// A nil schema with a nil error means the stream is unavailable.
func (d *Discoverer) DiscoverStream(ctx context.Context, stream string) (*core.StreamSchema, error) {
	catalog, err := d.FieldCatalog(ctx, stream)
	if err != nil {
		return nil, err
	}

	status, err := d.prober.StreamStatus(ctx, stream)
	if err != nil {
		return nil, stageError(stream, StageProbe, err)
	}

	schema := ShapeStream(stream, catalog, status)
	if schema == nil {
		d.logger.Info("stream unavailable", "stream", stream)
		return nil, nil
	}
	if schema.Property(PrimaryKey) == nil {
		return nil, stageError(stream, StageFields, &ParseError{
			Stream: stream, Field: PrimaryKey, Reason: "primary key is not exportable",
		})
	}

	d.logger.Debug("stream discovered",
		"stream", stream,
		"status", string(status),
		"properties", len(schema.Schema.Properties),
		"dropped", len(catalog.Dropped),
		"replicationKey", schema.ReplicationKey)
	return schema, nil
}

// DiscoverStreams discovers every advertised stream and returns the catalog
// in advertised order. Unavailable streams are left out. The first fatal
// error aborts the run.
func (d *Discoverer) DiscoverStreams(ctx context.Context) (*core.Catalog, error) {
	names, err := d.StreamNames(ctx)
	if err != nil {
		return nil, err
	}
	names = d.selectStreams(names)

	results := make([]*core.StreamSchema, len(names))
	if d.opts.Concurrency == 1 {
		for i, name := range names {
			schema, err := d.DiscoverStream(ctx, name)
			if err != nil {
				return nil, err
			}
			results[i] = schema
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.opts.Concurrency)
		for i, name := range names {
			i, name := i, name
			g.Go(func() error {
				schema, err := d.DiscoverStream(gctx, name)
				if err != nil {
					return err
				}
				results[i] = schema
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	catalog := &core.Catalog{Streams: make([]*core.StreamSchema, 0, len(results))}
	for _, schema := range results {
		if schema != nil {
			catalog.Streams = append(catalog.Streams, schema)
		}
	}

	d.logger.Info("discovery complete", "advertised", len(names), "streams", len(catalog.Streams))
	return catalog, nil
}

func (d *Discoverer) selectStreams(names []string) []string {
	if len(d.opts.Streams) == 0 {
		return names
	}
	wanted := make(map[string]struct{}, len(d.opts.Streams))
	for _, s := range d.opts.Streams {
		wanted[s] = struct{}{}
	}
	selected := names[:0:0]
	for _, name := range names {
		if _, ok := wanted[name]; ok {
			selected = append(selected, name)
		}
	}
	return selected
}

func (d *Discoverer) fetchXML(ctx context.Context, path string, target any) error {
	resp, err := d.req.Do(ctx, xmlRequest(path))
	if err != nil {
		return err
	}
	return resp.XML(target)
}

func xmlRequest(path string) *uclhttp.Request {
	return &uclhttp.Request{
		Method:  http.MethodGet,
		Path:    path,
		Headers: map[string]string{"Accept": "application/xml"},
	}
}
