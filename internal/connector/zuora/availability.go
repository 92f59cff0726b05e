package zuora

import (
	"context"
	"fmt"

	uclhttp "github.com/nucleus/ucl-zuora/internal/connector/http"
)

// Status is the outcome of an availability probe.
type Status string

const (
	StatusAvailable            Status = "available"
	StatusUnavailable          Status = "unavailable"
	StatusAvailableWithDeleted Status = "available_with_deleted"
)

// Requester issues authenticated requests against the Zuora API.
// *uclhttp.Client satisfies it.
type Requester interface {
	Do(ctx context.Context, req *uclhttp.Request) (*uclhttp.Response, error)
	Post(ctx context.Context, path string, body any) (*uclhttp.Response, error)
}

// Prober decides whether a stream can be exported at all.
// Errors mean the probe itself failed; they are never a substitute for
// StatusUnavailable.
type Prober interface {
	StreamStatus(ctx context.Context, stream string) (Status, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, stream string) (Status, error)

func (f ProberFunc) StreamStatus(ctx context.Context, stream string) (Status, error) {
	return f(ctx, stream)
}

// AquaOptions identify the caller to the AQuA batch query API.
type AquaOptions struct {
	Partner string
	Project string
}

// NewProber picks the probing strategy once, at construction time.
func NewProber(req Requester, forceREST bool, aqua AquaOptions) Prober {
	if forceREST {
		return &RestProber{req: req}
	}
	return &AquaProber{req: req, opts: aqua}
}

// =============================================================================
// REST PROBER
// Submits a tiny export job; Zuora rejects it for objects that cannot be exported.
// =============================================================================

const restExportPath = "v1/object/export"

// RestProber probes availability through the REST export API.
type RestProber struct {
	req Requester
}

type restExportRequest struct {
	Format string `json:"Format"`
	Query  string `json:"Query"`
}

type restExportResponse struct {
	Success bool   `json:"Success"`
	ID      string `json:"Id"`
}

// StreamStatus returns available or unavailable. REST exports never carry
// the Deleted column.
func (p *RestProber) StreamStatus(ctx context.Context, stream string) (Status, error) {
	raw, err := p.req.Post(ctx, restExportPath, restExportRequest{
		Format: "csv",
		Query:  fmt.Sprintf("select Id from %s limit 1", stream),
	})
	if err != nil {
		return "", err
	}
	var resp restExportResponse
	if err := raw.JSON(&resp); err != nil {
		return "", err
	}
	if resp.Success {
		return StatusAvailable, nil
	}
	return StatusUnavailable, nil
}

// =============================================================================
// AQUA PROBER
// Submits a stateful batch query asking for the Deleted column. If Zuora
// refuses it, the query is retried without the column.
// =============================================================================

const aquaBatchQueryPath = "v1/batch-query/"

// AquaProber probes availability through AQuA batch queries.
type AquaProber struct {
	req  Requester
	opts AquaOptions
}

type aquaDeleted struct {
	Column string `json:"column"`
	Format string `json:"format"`
}

type aquaQuery struct {
	Name    string       `json:"name"`
	Query   string       `json:"query"`
	Type    string       `json:"type"`
	Deleted *aquaDeleted `json:"deleted,omitempty"`
}

type aquaRequest struct {
	Format          string      `json:"format"`
	Version         string      `json:"version"`
	Name            string      `json:"name"`
	Encrypted       string      `json:"encrypted"`
	Partner         string      `json:"partner,omitempty"`
	Project         string      `json:"project,omitempty"`
	IncrementalTime string      `json:"incrementalTime,omitempty"`
	Queries         []aquaQuery `json:"queries"`
}

type aquaResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// StreamStatus returns available_with_deleted, available or unavailable.
func (p *AquaProber) StreamStatus(ctx context.Context, stream string) (Status, error) {
	withDeleted, err := p.submit(ctx, stream, true)
	if err != nil {
		return "", err
	}
	if withDeleted.ErrorCode == "" {
		return StatusAvailableWithDeleted, nil
	}

	plain, err := p.submit(ctx, stream, false)
	if err != nil {
		return "", err
	}
	if plain.ErrorCode == "" {
		return StatusAvailable, nil
	}
	return StatusUnavailable, nil
}

func (p *AquaProber) submit(ctx context.Context, stream string, deleted bool) (*aquaResponse, error) {
	query := aquaQuery{
		Name:  stream,
		Query: fmt.Sprintf("select Id from %s limit 1", stream),
		Type:  "zoqlexport",
	}
	payload := aquaRequest{
		Format:    "csv",
		Version:   "1.2",
		Name:      "ucl-zuora-probe",
		Encrypted: "none",
		Partner:   p.opts.Partner,
		Project:   p.opts.Project,
	}
	if deleted {
		// Deleted is only honoured for stateful queries.
		query.Deleted = &aquaDeleted{Column: DeletedProperty, Format: "Boolean"}
		payload.IncrementalTime = "1970-01-01 00:00:00"
	}
	payload.Queries = []aquaQuery{query}

	raw, err := p.req.Post(ctx, aquaBatchQueryPath, payload)
	if err != nil {
		return nil, err
	}
	var resp aquaResponse
	if err := raw.JSON(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
