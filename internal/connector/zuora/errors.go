package zuora

import "fmt"

// Stage names the discovery step a fatal error came from.
type Stage string

const (
	StageDescribe Stage = "describe"
	StageFields   Stage = "fields"
	StageProbe    Stage = "probe"
)

// ParseError reports a malformed field record in a describe payload.
type ParseError struct {
	Stream string
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	switch {
	case e.Stream != "" && e.Field != "":
		return fmt.Sprintf("parse %s.%s: %s", e.Stream, e.Field, e.Reason)
	case e.Stream != "":
		return fmt.Sprintf("parse %s: %s", e.Stream, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("parse field %s: %s", e.Field, e.Reason)
	}
	return "parse: " + e.Reason
}

// StageError wraps a fatal discovery failure with the stream and stage it hit.
type StageError struct {
	Stream string
	Stage  Stage
	Err    error
}

func (e *StageError) Error() string {
	if e.Stream == "" {
		return fmt.Sprintf("zuora %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("zuora %s %s: %v", e.Stage, e.Stream, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageError(stream string, stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stream: stream, Stage: stage, Err: err}
}
