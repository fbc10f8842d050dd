package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type resolveMode int

const (
	modeFitTransform resolveMode = iota
	modeTransform
)

func (m resolveMode) String() string {
	if m == modeFitTransform {
		return "fit_transform"
	}

	return "transform"
}

// resolution is the state of one top-level call: the raw inputs, the outputs
// of every step resolved so far and the set of steps currently on the stack.
// Memoization guarantees each step runs at most once per call, even when it
// feeds several downstream steps.
type resolution struct {
	mode       resolveMode
	raw        RawInputs
	outputs    map[string]Values
	inProgress map[string]struct{}
	logger     *zap.Logger
}

// FitTransform resolves every upstream step depth-first, fits this step's
// transformer on the collected inputs per the caching policy, and returns the
// transform output.
func (s *Step) FitTransform(ctx context.Context, raw RawInputs) (Values, error) {
	return s.run(ctx, modeFitTransform, raw)
}

// Transform is the same resolution as FitTransform but never fits: persisted
// state, when present and caching is enabled, is loaded before transforming,
// so a fresh process reuses previously fitted parameters.
func (s *Step) Transform(ctx context.Context, raw RawInputs) (Values, error) {
	return s.run(ctx, modeTransform, raw)
}

func (s *Step) run(ctx context.Context, mode resolveMode, raw RawInputs) (Values, error) {
	if s.pipe == nil {
		return nil, ErrPipelineMustBeSet
	}

	res := &resolution{
		mode:       mode,
		raw:        raw,
		outputs:    make(map[string]Values),
		inProgress: make(map[string]struct{}),
		logger: s.pipe.logger.With(
			zap.String("run_id", uuid.NewString()),
			zap.String("mode", mode.String()),
		),
	}

	out, err := res.resolve(ctx, s, "")
	if err != nil {
		return nil, err
	}

	err = s.pipe.finishRun()
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (res *resolution) resolve(ctx context.Context, s *Step, from string) (Values, error) {
	name := s.Name()

	if out, ok := res.outputs[name]; ok {
		return out, nil
	}
	if _, busy := res.inProgress[name]; busy {
		return nil, &CycleError{From: from, To: name}
	}
	res.inProgress[name] = struct{}{}
	defer delete(res.inProgress, name)

	in, err := res.collect(ctx, s)
	if err != nil {
		return nil, err
	}

	err = s.checkInputs(res.mode, in)
	if err != nil {
		return nil, err
	}

	switch res.mode {
	case modeFitTransform:
		err = s.ensureFitted(ctx, in, res.logger)
	case modeTransform:
		err = s.loadIfCached(res.logger)
	}
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := s.transformer.Transform(ctx, in)
	if err != nil {
		return nil, errors.Wrapf(err, "step %q: unable to transform", name)
	}
	elapsed := time.Since(start)

	err = s.checkOutputs(out)
	if err != nil {
		return nil, err
	}

	res.logger.Debug("step transformed",
		zap.String("step", name),
		zap.Duration("elapsed", elapsed),
	)
	err = s.pipe.onTransform(s.details, elapsed)
	if err != nil {
		return nil, err
	}

	res.outputs[name] = out

	return out, nil
}

// collect builds the input dictionary of a step: upstream outputs in
// input-step order, then raw datasets in input-data order. Later entries win
// on key collision.
func (res *resolution) collect(ctx context.Context, s *Step) (Values, error) {
	in := Values{}

	for _, input := range s.inputSteps {
		out, err := res.resolve(ctx, input, s.Name())
		if err != nil {
			return nil, err
		}
		for key, value := range out {
			in[key] = value
		}
	}

	for _, dataset := range s.inputData {
		values, ok := res.raw[dataset]
		if !ok {
			return nil, &MissingInputKeyError{Step: s.Name(), Key: dataset}
		}
		for key, value := range values {
			in[key] = value
		}
	}

	return in, nil
}

func (s *Step) checkInputs(mode resolveMode, in Values) error {
	for _, key := range s.requiredKeys(mode) {
		if !in.Has(key) {
			return &MissingInputKeyError{Step: s.Name(), Key: key}
		}
	}

	return nil
}

func (s *Step) checkOutputs(out Values) error {
	if out == nil {
		return &ContractError{Step: s.Name(), Reason: "transform returned nil values"}
	}
	for _, key := range s.details.OutputKeys {
		if !out.Has(key) {
			return &ContractError{Step: s.Name(), Reason: fmt.Sprintf("transform output misses declared key %q", key)}
		}
	}

	return nil
}
