package measure

import (
	"time"

	"github.com/stepline/stepline/pkg/pipeline/model"
)

type pipelineMeasure struct {
	m Measure
}

// PipelineMeasure returns a pipeline option recording step timings and cache
// outcomes on the given measure.
func PipelineMeasure(m Measure) model.PipelineOption {
	return &pipelineMeasure{m: m}
}

func (pm *pipelineMeasure) New() error {
	return nil
}

func (pm *pipelineMeasure) PrepareStep(inputSteps []*model.StepInfo, step *model.StepInfo) error {
	return nil
}

func (pm *pipelineMeasure) OnFit(step *model.StepInfo, elapsed time.Duration) error {
	pm.m.ObserveFit(step.Name, elapsed)

	return nil
}

func (pm *pipelineMeasure) OnTransform(step *model.StepInfo, elapsed time.Duration) error {
	pm.m.ObserveTransform(step.Name, elapsed)

	return nil
}

func (pm *pipelineMeasure) OnCacheHit(step *model.StepInfo) error {
	pm.m.IncCacheHit(step.Name)

	return nil
}

func (pm *pipelineMeasure) OnCacheMiss(step *model.StepInfo) error {
	pm.m.IncCacheMiss(step.Name)

	return nil
}

func (pm *pipelineMeasure) OnPersist(step *model.StepInfo, elapsed time.Duration) error {
	pm.m.ObservePersist(step.Name, elapsed)

	return nil
}

func (pm *pipelineMeasure) Finish() error {
	return nil
}
