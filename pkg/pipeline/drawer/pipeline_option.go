package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/stepline/stepline/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
}

func (pd *pipelineDrawer) New() error {
	return nil
}

func (pd *pipelineDrawer) PrepareStep(inputSteps []*model.StepInfo, step *model.StepInfo) error {
	err := pd.AddStep(step.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add step to drawer")
	}

	for _, input := range inputSteps {
		err := pd.AddLink(input.Name, step.Name)
		if err != nil {
			return errors.Wrap(err, "unable to add link to drawer")
		}
	}

	return nil
}

func (pd *pipelineDrawer) OnFit(step *model.StepInfo, elapsed time.Duration) error {
	return pd.SetFitDuration(step.Name, elapsed)
}

func (pd *pipelineDrawer) OnTransform(step *model.StepInfo, elapsed time.Duration) error {
	return pd.SetTransformDuration(step.Name, elapsed)
}

func (pd *pipelineDrawer) OnCacheHit(step *model.StepInfo) error {
	return pd.MarkCached(step.Name)
}

func (pd *pipelineDrawer) OnCacheMiss(step *model.StepInfo) error {
	return nil
}

func (pd *pipelineDrawer) OnPersist(step *model.StepInfo, elapsed time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) Finish() error {
	err := pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}
