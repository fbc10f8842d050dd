package store

import (
	"fmt"
	"sync"

	"github.com/dominikbraun/graph"

	"github.com/stepline/stepline/pkg/pipeline/model"
)

// StepStore is an in-memory graph.Store keyed by step name. Steps are only
// ever added, so removal support exists solely to satisfy the interface.
type StepStore struct {
	lock     sync.RWMutex
	vertices map[string]*model.StepInfo
	props    map[string]*graph.VertexProperties

	// outEdges and inEdges store all outgoing and ingoing edges for all
	// vertices, keyed by the hash of the vertex on the far side.
	outEdges map[string]map[string]graph.Edge[string]
	inEdges  map[string]map[string]graph.Edge[string]
}

func New() *StepStore {
	return &StepStore{
		vertices: make(map[string]*model.StepInfo),
		props:    make(map[string]*graph.VertexProperties),
		outEdges: make(map[string]map[string]graph.Edge[string]),
		inEdges:  make(map[string]map[string]graph.Edge[string]),
	}
}

func (s *StepStore) AddVertex(name string, info *model.StepInfo, p graph.VertexProperties) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.vertices[name]; ok {
		return graph.ErrVertexAlreadyExists
	}

	s.vertices[name] = info
	s.props[name] = &p

	return nil
}

func (s *StepStore) Vertex(name string) (*model.StepInfo, graph.VertexProperties, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	info, ok := s.vertices[name]
	if !ok {
		return nil, graph.VertexProperties{}, graph.ErrVertexNotFound
	}

	return info, *s.props[name], nil
}

func (s *StepStore) ListVertices() ([]string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	names := make([]string, 0, len(s.vertices))
	for name := range s.vertices {
		names = append(names, name)
	}

	return names, nil
}

func (s *StepStore) VertexCount() (int, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.vertices), nil
}

func (s *StepStore) RemoveVertex(name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.vertices[name]; !ok {
		return graph.ErrVertexNotFound
	}
	if len(s.inEdges[name]) > 0 || len(s.outEdges[name]) > 0 {
		return graph.ErrVertexHasEdges
	}

	delete(s.inEdges, name)
	delete(s.outEdges, name)
	delete(s.vertices, name)
	delete(s.props, name)

	return nil
}

func (s *StepStore) AddEdge(source, target string, edge graph.Edge[string]) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.outEdges[source]; !ok {
		s.outEdges[source] = make(map[string]graph.Edge[string])
	}
	s.outEdges[source][target] = edge

	if _, ok := s.inEdges[target]; !ok {
		s.inEdges[target] = make(map[string]graph.Edge[string])
	}
	s.inEdges[target][source] = edge

	return nil
}

func (s *StepStore) UpdateEdge(source, target string, edge graph.Edge[string]) error {
	if _, err := s.Edge(source, target); err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.outEdges[source][target] = edge
	s.inEdges[target][source] = edge

	return nil
}

func (s *StepStore) RemoveEdge(source, target string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.inEdges[target], source)
	delete(s.outEdges[source], target)

	return nil
}

func (s *StepStore) Edge(source, target string) (graph.Edge[string], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	targets, ok := s.outEdges[source]
	if !ok {
		return graph.Edge[string]{}, graph.ErrEdgeNotFound
	}

	edge, ok := targets[target]
	if !ok {
		return graph.Edge[string]{}, graph.ErrEdgeNotFound
	}

	return edge, nil
}

func (s *StepStore) ListEdges() ([]graph.Edge[string], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	res := make([]graph.Edge[string], 0)
	for _, edges := range s.outEdges {
		for _, edge := range edges {
			res = append(res, edge)
		}
	}

	return res, nil
}

// CreatesCycle reports whether an edge from source to target would close a
// cycle. It walks inEdges directly instead of going through [graph.CreatesCycle],
// which builds a full predecessor map on every call.
func (s *StepStore) CreatesCycle(source, target string) (bool, error) {
	if _, _, err := s.Vertex(source); err != nil {
		return false, fmt.Errorf("could not get vertex %q: %w", source, err)
	}
	if _, _, err := s.Vertex(target); err != nil {
		return false, fmt.Errorf("could not get vertex %q: %w", target, err)
	}

	if source == target {
		return true, nil
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	stack := []string{source}
	visited := make(map[string]struct{})

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := visited[current]; ok {
			continue
		}

		// The target being an ancestor of the source means the new edge
		// would close a loop.
		if current == target {
			return true, nil
		}

		visited[current] = struct{}{}

		for ancestor := range s.inEdges[current] {
			stack = append(stack, ancestor)
		}
	}

	return false, nil
}
