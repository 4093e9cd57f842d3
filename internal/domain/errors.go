package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals an empty or malformed query request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrProviderUnavailable signals an embedding, search, or synthesis
	// provider failure.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// Pipeline stage names used in errors and metrics labels.
const (
	StageEmbed     = "embed"
	StageSearch    = "search"
	StageContext   = "context"
	StageSynthesis = "synthesis"
	StageCitation  = "citation"
)

// PipelineError annotates a stage failure with the metrics collected up to
// the point of failure, so callers can distinguish "no knowledge available"
// from "system failure" and still observe partial timings.
type PipelineError struct {
	Stage   string
	Metrics PipelineMetrics
	Err     error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewPipelineError wraps a stage failure with partial metrics.
func NewPipelineError(stage string, metrics PipelineMetrics, err error) error {
	return &PipelineError{Stage: stage, Metrics: metrics, Err: err}
}
