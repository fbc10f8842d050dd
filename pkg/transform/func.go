package transform

import (
	"context"

	"github.com/stepline/stepline/pkg/pipeline"
)

// Func adapts a plain function into a stateless, non-trainable transformer.
// It is meant for glue transforms between learnt steps.
type Func struct {
	pipeline.Stateless

	inKeys  []string
	outKeys []string
	fn      func(ctx context.Context, in pipeline.Values) (pipeline.Values, error)
}

// NewFunc creates a transformer declaring the given key contract and applying
// fn on every transform.
func NewFunc(inKeys, outKeys []string, fn func(ctx context.Context, in pipeline.Values) (pipeline.Values, error)) *Func {
	return &Func{inKeys: inKeys, outKeys: outKeys, fn: fn}
}

func (f *Func) InputKeys() []string { return f.inKeys }

func (f *Func) OutputKeys() []string { return f.outKeys }

func (f *Func) Transform(ctx context.Context, in pipeline.Values) (pipeline.Values, error) {
	return f.fn(ctx, in)
}

var _ pipeline.Transformer = (*Func)(nil)
