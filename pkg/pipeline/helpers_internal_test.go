package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stepline/stepline/pkg/experiment"
)

// fakeTransformer counts every contract call and carries one float parameter
// so cache round-trips are observable: Fit sums the "x" values, Persist and
// Load write and read that sum.
type fakeTransformer struct {
	inKeys  []string
	fitKeys []string
	outKeys []string

	param  float64
	config string

	fits       int
	transforms int
	persists   int
	loads      int

	fitErr       error
	transformErr error
	transformFn  func(in Values) Values
}

func newFakeTransformer(inKeys, outKeys []string) *fakeTransformer {
	return &fakeTransformer{inKeys: inKeys, outKeys: outKeys}
}

func (f *fakeTransformer) InputKeys() []string { return f.inKeys }

func (f *fakeTransformer) OutputKeys() []string { return f.outKeys }

func (f *fakeTransformer) FitKeys() []string { return f.fitKeys }

func (f *fakeTransformer) Fingerprint() []byte { return []byte(f.config) }

func (f *fakeTransformer) Fit(ctx context.Context, in Values) error {
	f.fits++
	if f.fitErr != nil {
		return f.fitErr
	}

	if in.Has("x") {
		xs, err := in.Floats("x")
		if err != nil {
			return err
		}
		f.param = 0
		for _, x := range xs {
			f.param += x
		}
	}

	return nil
}

func (f *fakeTransformer) Transform(ctx context.Context, in Values) (Values, error) {
	f.transforms++
	if f.transformErr != nil {
		return nil, f.transformErr
	}
	if f.transformFn != nil {
		return f.transformFn(in), nil
	}

	out := Values{}
	for _, key := range f.outKeys {
		out[key] = f.param
	}

	return out, nil
}

func (f *fakeTransformer) Persist(dir string) error {
	f.persists++

	return os.WriteFile(filepath.Join(dir, "param"), []byte(strconv.FormatFloat(f.param, 'g', -1, 64)), 0o644)
}

func (f *fakeTransformer) Load(dir string) error {
	f.loads++

	raw, err := os.ReadFile(filepath.Join(dir, "param"))
	if err != nil {
		return err
	}
	f.param, err = strconv.ParseFloat(string(raw), 64)

	return err
}

// bareTransformer implements only the mandatory contract, no FitContract and
// no Fingerprinter.
type bareTransformer struct {
	Stateless
}

func (bareTransformer) InputKeys() []string { return nil }

func (bareTransformer) OutputKeys() []string { return []string{"out"} }

func (bareTransformer) Transform(ctx context.Context, in Values) (Values, error) {
	return Values{"out": 1.0}, nil
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()

	pipe, err := New(experiment.New(t.TempDir()))
	require.NoError(t, err)

	return pipe
}

func newTestPipelineAt(t *testing.T, root string) *Pipeline {
	t.Helper()

	pipe, err := New(experiment.New(root))
	require.NoError(t, err)

	return pipe
}
