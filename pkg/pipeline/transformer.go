package pipeline

import "context"

// Transformer is the computation unit owned by a step. It has no knowledge of
// the pipeline structure; it consumes and produces Values and persists its
// fitted state to a directory chosen by the step.
type Transformer interface {
	// Fit learns parameters from the input values. Fitting again overwrites
	// prior parameters.
	Fit(ctx context.Context, in Values) error
	// Transform produces the output values. It must not mutate fitted
	// parameters, so repeated calls with the same input return the same
	// output.
	Transform(ctx context.Context, in Values) (Values, error)
	// Persist writes the fitted state under dir. The format is opaque to
	// the pipeline.
	Persist(dir string) error
	// Load restores a state written by Persist. Load after Persist must
	// yield a transformer behaviourally equivalent to the persisted one.
	Load(dir string) error

	// InputKeys declares the keys Transform consumes and OutputKeys the
	// keys it produces. Both are checked by the pipeline: input keys at
	// step registration where possible, output keys after each transform.
	InputKeys() []string
	OutputKeys() []string
}

// FitContract is implemented by trainable transformers that need keys during
// Fit beyond their transform-time inputs, typically labels.
type FitContract interface {
	FitKeys() []string
}

// Fingerprinter is implemented by transformers that can encode their
// configuration as a stable byte sequence. Steps created with WithFingerprint
// use it to invalidate persisted state when the configuration changed.
type Fingerprinter interface {
	Fingerprint() []byte
}

// Stateless can be embedded by transformers that learn nothing: Fit, Persist
// and Load are no-ops.
type Stateless struct{}

func (Stateless) Fit(context.Context, Values) error { return nil }

func (Stateless) Persist(string) error { return nil }

func (Stateless) Load(string) error { return nil }
