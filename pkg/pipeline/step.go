package pipeline

import (
	"path/filepath"
	"slices"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/stepline/stepline/pkg/pipeline/model"
)

// Step is a named node owning one transformer. Its inputs are upstream steps
// and raw datasets referenced by name; a step only reads its inputs, it never
// manages their lifecycle.
type Step struct {
	pipe        *Pipeline
	details     *model.StepInfo
	transformer Transformer
	inputSteps  []*Step
	inputData   []string
	fingerprint bool
}

// Name returns the step name, unique within its pipeline.
func (s *Step) Name() string {
	return s.details.Name
}

// Details returns the step metadata recorded in the pipeline graph.
func (s *Step) Details() *model.StepInfo {
	return s.details
}

// StepOption configures a step at registration.
type StepOption func(s *Step)

// WithInputSteps declares upstream steps whose outputs feed this step.
func WithInputSteps(steps ...*Step) StepOption {
	return func(s *Step) {
		s.inputSteps = append(s.inputSteps, steps...)
	}
}

// WithInputData declares raw datasets, by logical name, consumed directly
// from the caller-supplied inputs.
func WithInputData(names ...string) StepOption {
	return func(s *Step) {
		s.inputData = append(s.inputData, names...)
	}
}

// Trainable marks the step as trainable: its transformer is fitted during
// FitTransform and its state is cached. Steps are non-trainable by default
// and never fit.
func Trainable() StepOption {
	return func(s *Step) {
		s.details.Trainable = true
	}
}

// NoCache disables persisted state for this step: it always fits, never loads
// and never persists.
func NoCache() StepOption {
	return func(s *Step) {
		s.details.Cache = false
	}
}

// WithFingerprint stores a hash of the transformer configuration next to the
// persisted state and treats a mismatch as a cache miss. The transformer must
// implement Fingerprinter.
func WithFingerprint() StepOption {
	return func(s *Step) {
		s.fingerprint = true
	}
}

// AddStep registers a new step. The step name must be unique within the
// pipeline, the input graph must stay acyclic, and every declared input key
// must be reachable through the declared inputs; violations surface here, not
// at resolution.
func AddStep(p *Pipeline, name string, transformer Transformer, opts ...StepOption) (*Step, error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}
	if name == "" {
		return nil, ErrStepNameMustBeSet
	}
	if transformer == nil {
		return nil, ErrTransformerMustBeSet
	}

	step := &Step{
		pipe:        p,
		transformer: transformer,
		details: &model.StepInfo{
			Name:       name,
			Cache:      p.cfg.Cache,
			CacheDir:   filepath.Join(p.cfg.Root, name),
			InputKeys:  transformer.InputKeys(),
			OutputKeys: transformer.OutputKeys(),
		},
	}
	for _, opt := range opts {
		opt(step)
	}
	step.details.InputData = step.inputData
	for _, in := range step.inputSteps {
		step.details.InputSteps = append(step.details.InputSteps, in.Name())
	}

	if step.fingerprint {
		if _, ok := transformer.(Fingerprinter); !ok {
			return nil, errors.Wrapf(ErrFingerprinterRequired, "step %q", name)
		}
	}

	err := p.graph.AddVertex(step.details)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to add step %q", name)
	}

	inputInfos := make([]*model.StepInfo, 0, len(step.inputSteps))
	for _, in := range step.inputSteps {
		err := p.graph.AddEdge(in.Name(), name)
		switch {
		case errors.Is(err, graph.ErrEdgeCreatesCycle):
			return nil, &CycleError{From: name, To: in.Name()}
		case err != nil:
			return nil, errors.Wrapf(err, "unable to link step %q to step %q", in.Name(), name)
		}
		inputInfos = append(inputInfos, in.details)
	}

	err = step.checkKeyContract()
	if err != nil {
		return nil, err
	}

	for _, opt := range p.opts {
		err := opt.PrepareStep(inputInfos, step.details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to prepare step")
		}
	}

	p.steps[name] = step

	return step, nil
}

// checkKeyContract verifies that every declared input key is produced by an
// upstream step. Keys expected from raw datasets can only be checked at
// resolution, so steps consuming raw data defer the check for their remaining
// keys.
func (s *Step) checkKeyContract() error {
	if len(s.inputData) > 0 {
		return nil
	}

	for _, key := range s.requiredKeys(modeFitTransform) {
		covered := false
		for _, in := range s.inputSteps {
			if slices.Contains(in.details.OutputKeys, key) {
				covered = true

				break
			}
		}
		if !covered {
			return &MissingInputKeyError{Step: s.Name(), Key: key}
		}
	}

	return nil
}

// requiredKeys returns the keys that must be present in the collected inputs
// for the given mode. Fit-only keys of trainable transformers count only in
// fit mode.
func (s *Step) requiredKeys(mode resolveMode) []string {
	keys := slices.Clone(s.details.InputKeys)
	if mode != modeFitTransform || !s.details.Trainable {
		return keys
	}

	fc, ok := s.transformer.(FitContract)
	if !ok {
		return keys
	}
	for _, key := range fc.FitKeys() {
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}

	return keys
}
