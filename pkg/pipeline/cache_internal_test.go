package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheHitSkipsFit(t *testing.T) {
	root := t.TempDir()
	raw := RawInputs{"input": {"x": []float64{1, 2, 3}}}

	pipe := newTestPipelineAt(t, root)
	first := newFakeTransformer([]string{"x"}, []string{"out"})
	step, err := AddStep(pipe, "a", first, WithInputData("input"), Trainable())
	require.NoError(t, err)

	_, err = step.FitTransform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, 1, first.fits)
	assert.Equal(t, 1, first.persists)

	// Same root, fresh transformer: the persisted state must be loaded and
	// fit skipped entirely.
	pipe2 := newTestPipelineAt(t, root)
	second := newFakeTransformer([]string{"x"}, []string{"out"})
	step2, err := AddStep(pipe2, "a", second, WithInputData("input"), Trainable())
	require.NoError(t, err)

	out, err := step2.FitTransform(context.Background(), raw)
	require.NoError(t, err)
	assert.Zero(t, second.fits)
	assert.Equal(t, 1, second.loads)
	assert.Equal(t, 6.0, out["out"])
}

func TestCacheDisabledAlwaysFits(t *testing.T) {
	root := t.TempDir()
	raw := RawInputs{"input": {"x": []float64{1, 2}}}

	pipe := newTestPipelineAt(t, root)
	first := newFakeTransformer([]string{"x"}, []string{"out"})
	step, err := AddStep(pipe, "a", first, WithInputData("input"), Trainable())
	require.NoError(t, err)
	_, err = step.FitTransform(context.Background(), raw)
	require.NoError(t, err)

	// Persisted state exists, but the step opted out of caching.
	pipe2 := newTestPipelineAt(t, root)
	second := newFakeTransformer([]string{"x"}, []string{"out"})
	step2, err := AddStep(pipe2, "a", second, WithInputData("input"), Trainable(), NoCache())
	require.NoError(t, err)

	_, err = step2.FitTransform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, 1, second.fits)
	assert.Zero(t, second.loads)
	assert.Zero(t, second.persists)
}

func TestTransformLoadsPersistedState(t *testing.T) {
	root := t.TempDir()

	pipe := newTestPipelineAt(t, root)
	first := newFakeTransformer([]string{"x"}, []string{"out"})
	step, err := AddStep(pipe, "a", first, WithInputData("input"), Trainable())
	require.NoError(t, err)
	_, err = step.FitTransform(context.Background(), RawInputs{"input": {"x": []float64{2, 3}}})
	require.NoError(t, err)

	// Fresh pipeline, no fit: transform succeeds only because the
	// persisted parameters are loaded.
	pipe2 := newTestPipelineAt(t, root)
	second := newFakeTransformer([]string{"x"}, []string{"out"})
	step2, err := AddStep(pipe2, "a", second, WithInputData("input"), Trainable())
	require.NoError(t, err)

	out, err := step2.Transform(context.Background(), RawInputs{"input": {"x": []float64{9}}})
	require.NoError(t, err)
	assert.Zero(t, second.fits)
	assert.Equal(t, 1, second.loads)
	assert.Equal(t, 5.0, out["out"])
}

func TestNonTrainableNeverFits(t *testing.T) {
	pipe := newTestPipeline(t)

	tr := newFakeTransformer([]string{"x"}, []string{"out"})
	step, err := AddStep(pipe, "a", tr, WithInputData("input"))
	require.NoError(t, err)

	_, err = step.FitTransform(context.Background(), RawInputs{"input": {"x": []float64{1}}})
	require.NoError(t, err)
	assert.Zero(t, tr.fits)
	assert.Zero(t, tr.persists)
}

func TestStaleCacheServedByPresence(t *testing.T) {
	root := t.TempDir()
	pipe := newTestPipelineAt(t, root)

	first := newFakeTransformer([]string{"x"}, []string{"out"})
	first.config = "v1"
	step, err := AddStep(pipe, "a", first, WithInputData("input"), Trainable())
	require.NoError(t, err)
	_, err = step.FitTransform(context.Background(), RawInputs{"input": {"x": []float64{1, 2}}})
	require.NoError(t, err)

	// Changed configuration, same cache location, no fingerprint: the
	// stale state is silently served.
	pipe2 := newTestPipelineAt(t, root)
	second := newFakeTransformer([]string{"x"}, []string{"out"})
	second.config = "v2"
	step2, err := AddStep(pipe2, "a", second, WithInputData("input"), Trainable())
	require.NoError(t, err)

	out, err := step2.FitTransform(context.Background(), RawInputs{"input": {"x": []float64{100}}})
	require.NoError(t, err)
	assert.Zero(t, second.fits)
	assert.Equal(t, 3.0, out["out"])
}

func TestFingerprintMismatchRefits(t *testing.T) {
	root := t.TempDir()
	pipe := newTestPipelineAt(t, root)

	first := newFakeTransformer([]string{"x"}, []string{"out"})
	first.config = "v1"
	step, err := AddStep(pipe, "a", first, WithInputData("input"), Trainable(), WithFingerprint())
	require.NoError(t, err)
	_, err = step.FitTransform(context.Background(), RawInputs{"input": {"x": []float64{1, 2}}})
	require.NoError(t, err)

	pipe2 := newTestPipelineAt(t, root)
	second := newFakeTransformer([]string{"x"}, []string{"out"})
	second.config = "v2"
	step2, err := AddStep(pipe2, "a", second, WithInputData("input"), Trainable(), WithFingerprint())
	require.NoError(t, err)

	out, err := step2.FitTransform(context.Background(), RawInputs{"input": {"x": []float64{100}}})
	require.NoError(t, err)
	assert.Equal(t, 1, second.fits)
	assert.Equal(t, 100.0, out["out"])

	// Same configuration hits the refreshed cache again.
	pipe3 := newTestPipelineAt(t, root)
	third := newFakeTransformer([]string{"x"}, []string{"out"})
	third.config = "v2"
	step3, err := AddStep(pipe3, "a", third, WithInputData("input"), Trainable(), WithFingerprint())
	require.NoError(t, err)

	_, err = step3.FitTransform(context.Background(), RawInputs{"input": {"x": []float64{1}}})
	require.NoError(t, err)
	assert.Zero(t, third.fits)
}

func TestLoadFailureSurfacesPersistenceError(t *testing.T) {
	root := t.TempDir()
	pipe := newTestPipelineAt(t, root)

	first := newFakeTransformer([]string{"x"}, []string{"out"})
	step, err := AddStep(pipe, "a", first, WithInputData("input"), Trainable())
	require.NoError(t, err)
	_, err = step.FitTransform(context.Background(), RawInputs{"input": {"x": []float64{1}}})
	require.NoError(t, err)

	// Corrupt the artifact so Load fails.
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "param"), []byte("not a float"), 0o644))

	pipe2 := newTestPipelineAt(t, root)
	second := newFakeTransformer([]string{"x"}, []string{"out"})
	step2, err := AddStep(pipe2, "a", second, WithInputData("input"), Trainable())
	require.NoError(t, err)

	_, err = step2.Transform(context.Background(), RawInputs{"input": {"x": []float64{1}}})

	persistErr := &PersistenceError{}
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "a", persistErr.Step)
	assert.Equal(t, "load", persistErr.Op)
}

func TestExperimentRootCreatedLazily(t *testing.T) {
	root := filepath.Join(t.TempDir(), "experiment")
	pipe := newTestPipelineAt(t, root)

	tr := newFakeTransformer([]string{"x"}, []string{"out"})
	step, err := AddStep(pipe, "a", tr, WithInputData("input"), Trainable())
	require.NoError(t, err)

	// Registration alone must not touch the filesystem.
	_, statErr := os.Stat(root)
	assert.True(t, os.IsNotExist(statErr))

	_, err = step.FitTransform(context.Background(), RawInputs{"input": {"x": []float64{1}}})
	require.NoError(t, err)

	_, statErr = os.Stat(filepath.Join(root, "a"))
	assert.NoError(t, statErr)
}
