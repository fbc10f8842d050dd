package drawer

import "time"

// Drawer is an interface that defines the methods for drawing a step graph.
type Drawer interface {
	// AddStep adds a step to the graph.
	AddStep(stepName string) error
	// AddLink adds a link between an input step and the step consuming it.
	AddLink(inputStepName, stepName string) error
	// SetFitDuration records how long a step's fit took.
	SetFitDuration(stepName string, elapsed time.Duration) error
	// SetTransformDuration records how long a step's transform took.
	SetTransformDuration(stepName string, elapsed time.Duration) error
	// MarkCached marks a step whose fit was skipped in favour of a
	// persisted state.
	MarkCached(stepName string) error
	// Draw creates a file with the step graph.
	Draw() error
}
