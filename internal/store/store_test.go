package store

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepline/stepline/pkg/pipeline/model"
)

func addVertex(t *testing.T, s *StepStore, name string) {
	t.Helper()
	require.NoError(t, s.AddVertex(name, &model.StepInfo{Name: name}, graph.VertexProperties{}))
}

func addEdge(t *testing.T, s *StepStore, source, target string) {
	t.Helper()
	require.NoError(t, s.AddEdge(source, target, graph.Edge[string]{Source: source, Target: target}))
}

func TestAddVertexDuplicate(t *testing.T) {
	s := New()

	addVertex(t, s, "a")
	err := s.AddVertex("a", &model.StepInfo{Name: "a"}, graph.VertexProperties{})
	assert.ErrorIs(t, err, graph.ErrVertexAlreadyExists)
}

func TestVertexNotFound(t *testing.T) {
	s := New()

	_, _, err := s.Vertex("missing")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)
}

func TestCreatesCycle(t *testing.T) {
	s := New()
	for _, name := range []string{"a", "b", "c", "d"} {
		addVertex(t, s, name)
	}
	addEdge(t, s, "a", "b")
	addEdge(t, s, "b", "c")

	tcs := map[string]struct {
		source, target string
		expected       bool
	}{
		"self loop":          {source: "a", target: "a", expected: true},
		"back edge":          {source: "c", target: "a", expected: true},
		"transitive forward": {source: "a", target: "c", expected: false},
		"unrelated":          {source: "d", target: "a", expected: false},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			got, err := s.CreatesCycle(tc.source, tc.target)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestCreatesCycleUnknownVertex(t *testing.T) {
	s := New()
	addVertex(t, s, "a")

	_, err := s.CreatesCycle("a", "missing")
	assert.Error(t, err)
}

func TestEdges(t *testing.T) {
	s := New()
	addVertex(t, s, "a")
	addVertex(t, s, "b")
	addEdge(t, s, "a", "b")

	edge, err := s.Edge("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a", edge.Source)
	assert.Equal(t, "b", edge.Target)

	_, err = s.Edge("b", "a")
	assert.ErrorIs(t, err, graph.ErrEdgeNotFound)

	edges, err := s.ListEdges()
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}
