package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrPipelineMustBeSet    = errors.New("pipeline must be set")
	ErrStepNameMustBeSet    = errors.New("step name must be set")
	ErrTransformerMustBeSet = errors.New("transformer must be set")
	// ErrFingerprinterRequired is returned when WithFingerprint is used on a
	// transformer that does not implement Fingerprinter.
	ErrFingerprinterRequired = errors.New("transformer must implement Fingerprinter")
)

// MissingInputKeyError reports a declared dependency key absent from the
// resolved inputs of a step. It is fatal and never retried.
type MissingInputKeyError struct {
	Step string
	Key  string
}

func (e *MissingInputKeyError) Error() string {
	return fmt.Sprintf("step %q: missing input key %q", e.Step, e.Key)
}

// CycleError reports a step graph that is not acyclic. It is raised at
// construction when an edge would close a cycle, or at resolution when a step
// already in progress is revisited.
type CycleError struct {
	From string
	To   string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: step %q depends on step %q", e.From, e.To)
}

// PersistenceError reports a failure to persist or load a transformer state.
type PersistenceError struct {
	Step string
	Dir  string
	Op   string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("step %q: unable to %s state at %s: %v", e.Step, e.Op, e.Dir, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ContractError reports a transformer violating its declared contract, for
// example a nil transform output or a missing declared output key.
type ContractError struct {
	Step   string
	Reason string
}

func (e *ContractError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("transformer contract violation: %s", e.Reason)
	}

	return fmt.Sprintf("step %q: transformer contract violation: %s", e.Step, e.Reason)
}
