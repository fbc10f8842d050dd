package drawer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepline/stepline/pkg/pipeline/model"
)

func TestSVGDrawerDraw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.gv")
	d := NewSVGDrawer(path)

	require.NoError(t, d.AddStep("scaler"))
	require.NoError(t, d.AddStep("classifier"))
	require.NoError(t, d.AddLink("scaler", "classifier"))
	require.NoError(t, d.SetFitDuration("scaler", 10*time.Millisecond))
	require.NoError(t, d.SetFitDuration("classifier", 20*time.Millisecond))
	require.NoError(t, d.SetTransformDuration("classifier", time.Millisecond))

	require.NoError(t, d.Draw())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(raw)

	assert.Contains(t, got, "digraph")
	assert.Contains(t, got, `"scaler" -> "classifier"`)
	assert.Contains(t, got, "fit: 20ms")
	assert.Contains(t, got, "transform: 1ms")
}

func TestSVGDrawerMarkCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.gv")
	d := NewSVGDrawer(path)

	require.NoError(t, d.AddStep("classifier"))
	require.NoError(t, d.MarkCached("classifier"))
	require.NoError(t, d.Draw())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "cached")
}

func TestSVGDrawerDuplicateStep(t *testing.T) {
	d := NewSVGDrawer(filepath.Join(t.TempDir(), "graph.gv"))

	require.NoError(t, d.AddStep("a"))
	assert.Error(t, d.AddStep("a"))
}

func TestPipelineDrawerOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.gv")
	opt := PipelineDrawer(NewSVGDrawer(path))

	require.NoError(t, opt.New())

	source := &model.StepInfo{Name: "source"}
	head := &model.StepInfo{Name: "head"}
	require.NoError(t, opt.PrepareStep(nil, source))
	require.NoError(t, opt.PrepareStep([]*model.StepInfo{source}, head))
	require.NoError(t, opt.OnFit(head, 5*time.Millisecond))
	require.NoError(t, opt.OnCacheHit(source))
	require.NoError(t, opt.Finish())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(raw)
	assert.Contains(t, got, `"source" -> "head"`)
	assert.Contains(t, got, "cached")
}
