package model

// StepInfo describes a step registered in a pipeline. It is the value stored
// in the pipeline graph and the payload handed to pipeline options, so option
// implementations never touch the step or its transformer directly.
type StepInfo struct {
	Name       string
	Trainable  bool
	Cache      bool
	CacheDir   string
	InputKeys  []string
	OutputKeys []string
	InputData  []string
	InputSteps []string
}
