package activities

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/nucleus/ucl-zuora/internal/catalogstore"
	uclhttp "github.com/nucleus/ucl-zuora/internal/connector/http"
	"github.com/nucleus/ucl-zuora/internal/connector/zuora"
	"github.com/nucleus/ucl-zuora/internal/discovery"
)

// Activities holds the discovery activities.
type Activities struct {
	runner *discovery.Runner
}

// NewActivities creates activities backed by runner.
func NewActivities(runner *discovery.Runner) *Activities {
	return &Activities{runner: runner}
}

// =============================================================================
// ACTIVITY: DiscoverCatalog
// =============================================================================

// DiscoverCatalog runs discovery and saves the catalog artifact.
// Configuration and parse failures are non-retryable.
func (a *Activities) DiscoverCatalog(ctx context.Context, req DiscoverRequest) (*DiscoverResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("discovering catalog", "runId", req.RunID, "template", req.TemplateID)

	config := make(map[string]any, len(req.Config)+2)
	for k, v := range req.Config {
		config[k] = v
	}
	if req.ForceREST != nil {
		config["forceRest"] = *req.ForceREST
	}
	if len(req.Streams) > 0 {
		config["streams"] = req.Streams
	}

	runID := req.RunID
	if runID == "" {
		runID = activity.GetInfo(ctx).WorkflowExecution.RunID
	}

	result, err := a.runner.Run(ctx, discovery.Request{
		TemplateID: req.TemplateID,
		Config:     config,
		RunID:      runID,
	})
	if err != nil {
		return nil, classify(err)
	}

	names := result.Catalog.Names()
	logger.Info("catalog discovered", "runId", result.RunID, "streams", len(names), "uri", result.URI)

	return &DiscoverResult{
		RunID:       result.RunID,
		URI:         result.URI,
		StreamCount: len(names),
		Streams:     names,
		Logs: []LogEntry{
			{Level: "INFO", Message: fmt.Sprintf("discovered %d streams", len(names)), Fields: map[string]any{"uri": result.URI}},
		},
	}, nil
}

// classify marks errors that retrying cannot fix.
func classify(err error) error {
	var (
		verr     *zuora.ValidationError
		perr     *zuora.ParseError
		httpErr  *uclhttp.HTTPError
		storeErr *catalogstore.Error
	)
	switch {
	case errors.As(err, &verr):
		return temporal.NewNonRetryableApplicationError(err.Error(), "InvalidConfig", err)
	case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized:
		return temporal.NewNonRetryableApplicationError(err.Error(), "Unauthenticated", err)
	case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusForbidden:
		return temporal.NewNonRetryableApplicationError(err.Error(), "PermissionDenied", err)
	case errors.As(err, &perr):
		return temporal.NewNonRetryableApplicationError(err.Error(), "MalformedDescribe", err)
	case errors.As(err, &storeErr) && !storeErr.Retryable:
		return temporal.NewNonRetryableApplicationError(err.Error(), storeErr.Code, err)
	}
	return err
}
