// Package gateway exposes catalog discovery over gRPC.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nucleus/ucl-zuora/internal/catalogstore"
	uclhttp "github.com/nucleus/ucl-zuora/internal/connector/http"
	"github.com/nucleus/ucl-zuora/internal/connector/zuora"
	"github.com/nucleus/ucl-zuora/internal/core"
	"github.com/nucleus/ucl-zuora/internal/discovery"
	"github.com/nucleus/ucl-zuora/internal/endpoint"
)

var _ DiscoveryServer = (*Service)(nil)

// Service implements DiscoveryServer on top of a discovery runner.
type Service struct {
	runner *discovery.Runner
	logger *slog.Logger
}

// NewService creates the service.
func NewService(runner *discovery.Runner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{runner: runner, logger: logger}
}

// Discover runs discovery. Request fields: templateId, runId, config,
// and the shortcuts forceRest and streams which override config.
func (s *Service) Discover(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := req.AsMap()
	result, err := s.runner.Run(ctx, discovery.Request{
		TemplateID: stringField(in, "templateId"),
		RunID:      stringField(in, "runId"),
		Config:     requestConfig(in),
	})
	if err != nil {
		s.logger.Warn("discover failed", "error", err)
		return nil, toStatus(err)
	}

	catalog, err := catalogStruct(result.Catalog)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode catalog: %v", err)
	}
	out, err := structpb.NewStruct(map[string]any{
		"runId":       result.RunID,
		"uri":         result.URI,
		"streamCount": result.StreamCount(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out.Fields["catalog"] = structpb.NewStructValue(catalog)
	return out, nil
}

// Validate checks connectivity and credentials.
func (s *Service) Validate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := req.AsMap()
	config := requestConfig(in)
	ep, err := s.runner.Create(stringField(in, "templateId"), config)
	if err != nil {
		var verr *zuora.ValidationError
		if errors.As(err, &verr) {
			return structpb.NewStruct(map[string]any{"valid": false, "message": verr.Error()})
		}
		return nil, toStatus(err)
	}
	defer ep.Close()

	result, err := ep.ValidateConfig(ctx, config)
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"valid":   result.Valid,
		"message": result.Message,
	})
}

// ListDatasets returns one entry per available stream.
func (s *Service) ListDatasets(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := req.AsMap()
	ep, err := s.runner.Create(stringField(in, "templateId"), requestConfig(in))
	if err != nil {
		return nil, toStatus(err)
	}
	defer ep.Close()

	catalogEp, ok := ep.(endpoint.CatalogEndpoint)
	if !ok {
		return nil, status.Error(codes.Unimplemented, "endpoint does not list datasets")
	}
	datasets, err := catalogEp.ListDatasets(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	items := make([]any, 0, len(datasets))
	for _, ds := range datasets {
		keys := make([]any, 0, len(ds.PrimaryKeys))
		for _, k := range ds.PrimaryKeys {
			keys = append(keys, k)
		}
		items = append(items, map[string]any{
			"id":                  ds.ID,
			"name":                ds.Name,
			"kind":                ds.Kind,
			"supportsIncremental": ds.SupportsIncremental,
			"ingestionStrategy":   ds.IngestionStrategy,
			"incrementalColumn":   ds.IncrementalColumn,
			"primaryKeys":         keys,
		})
	}
	return structpb.NewStruct(map[string]any{"datasets": items})
}

// GetCatalog loads a saved catalog by URI.
func (s *Service) GetCatalog(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uri := stringField(req.AsMap(), "uri")
	if uri == "" {
		return nil, status.Error(codes.InvalidArgument, "uri is required")
	}
	catalog, err := s.runner.Load(ctx, uri)
	if err != nil {
		return nil, toStatus(err)
	}
	encoded, err := catalogStruct(catalog)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode catalog: %v", err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"uri":     structpb.NewStringValue(uri),
		"catalog": structpb.NewStructValue(encoded),
	}}, nil
}

// ListCatalogs returns the URIs of saved catalogs.
func (s *Service) ListCatalogs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uris, err := s.runner.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	items := make([]any, 0, len(uris))
	for _, uri := range uris {
		items = append(items, uri)
	}
	return structpb.NewStruct(map[string]any{"uris": items})
}

// =============================================================================
// HELPERS
// =============================================================================

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func requestConfig(in map[string]any) map[string]any {
	config := map[string]any{}
	if c, ok := in["config"].(map[string]any); ok {
		for k, v := range c {
			config[k] = v
		}
	}
	if v, ok := in["forceRest"].(bool); ok {
		config["forceRest"] = v
	}
	if v, ok := in["streams"].([]any); ok {
		config["streams"] = v
	}
	return config
}

func catalogStruct(catalog *core.Catalog) (*structpb.Struct, error) {
	data, err := catalog.Marshal()
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// toStatus maps domain errors onto gRPC codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var (
		verr     *zuora.ValidationError
		perr     *zuora.ParseError
		httpErr  *uclhttp.HTTPError
		storeErr *catalogstore.Error
	)
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, endpoint.ErrUnknownTemplate):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &httpErr):
		switch {
		case httpErr.StatusCode == http.StatusUnauthorized:
			return status.Error(codes.Unauthenticated, err.Error())
		case httpErr.StatusCode == http.StatusForbidden:
			return status.Error(codes.PermissionDenied, err.Error())
		case httpErr.StatusCode == http.StatusNotFound:
			return status.Error(codes.NotFound, err.Error())
		case httpErr.IsRateLimited():
			return status.Error(codes.ResourceExhausted, err.Error())
		}
		return status.Error(codes.Unavailable, err.Error())
	case errors.As(err, &perr):
		return status.Error(codes.DataLoss, err.Error())
	case errors.As(err, &storeErr):
		switch storeErr.Code {
		case catalogstore.CodeObjectNotFound:
			return status.Error(codes.NotFound, err.Error())
		case catalogstore.CodeInvalidURI:
			return status.Error(codes.InvalidArgument, err.Error())
		}
		if storeErr.Retryable {
			return status.Error(codes.Unavailable, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}
