package pipeline

import (
	"fmt"
)

type ErrPipeline = error

// NewPipelineError wraps an error raised while building or running a pipeline.
func NewPipelineError(name string, err error) ErrPipeline {
	return fmt.Errorf("pipeline %q: %w", name, err)
}

type ErrConfig = error

// NewConfigError reports an invalid configuration field.
func NewConfigError(field string, err error) ErrConfig {
	return fmt.Errorf("invalid configuration at %q: %w", field, err)
}
