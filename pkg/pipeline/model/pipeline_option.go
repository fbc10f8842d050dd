package model

import "time"

// PipelineOption defines the interface for pipeline options. Options observe
// the lifecycle of a pipeline: steps being registered, transformers being
// fitted, loaded or persisted, and outputs being produced.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error

	// PrepareStep runs when a step is registered, before any resolution.
	PrepareStep(inputSteps []*StepInfo, step *StepInfo) error

	// OnFit runs after a step's transformer has been fitted.
	OnFit(step *StepInfo, elapsed time.Duration) error
	// OnTransform runs after a step's transformer has produced its output.
	OnTransform(step *StepInfo, elapsed time.Duration) error
	// OnCacheHit runs when a persisted state is loaded instead of fitting.
	OnCacheHit(step *StepInfo) error
	// OnCacheMiss runs when no usable persisted state was found.
	OnCacheMiss(step *StepInfo) error
	// OnPersist runs after a step's fitted state has been written to disk.
	OnPersist(step *StepInfo, elapsed time.Duration) error

	// Finish runs after a top-level resolution completes.
	Finish() error
}
