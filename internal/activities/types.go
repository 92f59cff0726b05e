// Package activities provides Temporal activity implementations for catalog discovery.
package activities

// DiscoverRequest is the input of DiscoverCatalog.
type DiscoverRequest struct {
	RunID      string         `json:"runId,omitempty"`
	TemplateID string         `json:"templateId,omitempty"`
	Config     map[string]any `json:"config,omitempty"`
	ForceREST  *bool          `json:"forceRest,omitempty"`
	Streams    []string       `json:"streams,omitempty"`
}

// DiscoverResult is the output of DiscoverCatalog. The catalog itself stays
// in the store; workflows pass the URI around.
type DiscoverResult struct {
	RunID       string     `json:"runId"`
	URI         string     `json:"uri,omitempty"`
	StreamCount int        `json:"streamCount"`
	Streams     []string   `json:"streams"`
	Logs        []LogEntry `json:"logs,omitempty"`
}

// LogEntry for activity logging
type LogEntry struct {
	Level   string         `json:"level"`
	Message string         `json:"message,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
}
