package pipeline

import (
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stepline/stepline/internal/store"
	"github.com/stepline/stepline/pkg/experiment"
	"github.com/stepline/stepline/pkg/pipeline/model"
)

// Pipeline holds a directed acyclic graph of steps sharing one experiment
// configuration. Steps are registered with AddStep; resolution starts from
// any step with FitTransform or Transform.
type Pipeline struct {
	cfg    experiment.Config
	graph  graph.Graph[string, *model.StepInfo]
	steps  map[string]*Step
	opts   []model.PipelineOption
	logger *zap.Logger
}

func stepHash(info *model.StepInfo) string {
	return info.Name
}

// New creates a new pipeline for the given experiment.
func New(cfg experiment.Config, opts ...model.PipelineOption) (*Pipeline, error) {
	logger, err := cfg.Logger()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create pipeline logger")
	}

	pipe := &Pipeline{
		cfg:    cfg,
		graph:  graph.NewWithStore(stepHash, store.New(), graph.Directed(), graph.PreventCycles()),
		steps:  make(map[string]*Step),
		opts:   opts,
		logger: logger,
	}

	for _, opt := range opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// Step returns the registered step with the given name.
func (p *Pipeline) Step(name string) (*Step, bool) {
	s, ok := p.steps[name]

	return s, ok
}

func (p *Pipeline) finishRun() error {
	for _, opt := range p.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return nil
}

func (p *Pipeline) onFit(info *model.StepInfo, elapsed time.Duration) error {
	for _, opt := range p.opts {
		err := opt.OnFit(info, elapsed)
		if err != nil {
			return errors.Wrap(err, "unable to run fit hook")
		}
	}

	return nil
}

func (p *Pipeline) onTransform(info *model.StepInfo, elapsed time.Duration) error {
	for _, opt := range p.opts {
		err := opt.OnTransform(info, elapsed)
		if err != nil {
			return errors.Wrap(err, "unable to run transform hook")
		}
	}

	return nil
}

func (p *Pipeline) onCacheHit(info *model.StepInfo) error {
	for _, opt := range p.opts {
		err := opt.OnCacheHit(info)
		if err != nil {
			return errors.Wrap(err, "unable to run cache hit hook")
		}
	}

	return nil
}

func (p *Pipeline) onCacheMiss(info *model.StepInfo) error {
	for _, opt := range p.opts {
		err := opt.OnCacheMiss(info)
		if err != nil {
			return errors.Wrap(err, "unable to run cache miss hook")
		}
	}

	return nil
}

func (p *Pipeline) onPersist(info *model.StepInfo, elapsed time.Duration) error {
	for _, opt := range p.opts {
		err := opt.OnPersist(info, elapsed)
		if err != nil {
			return errors.Wrap(err, "unable to run persist hook")
		}
	}

	return nil
}
