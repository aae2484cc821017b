package graph

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
)

const (
	// DefaultQueryLimit caps QueryElements when no positive limit is given.
	DefaultQueryLimit = 50
	// DefaultMaxDepth bounds GetDependencies when no positive depth is given.
	DefaultMaxDepth = 10
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu        sync.RWMutex
	elements  map[string]ElementNode
	edges     []Edge
	edgeIndex map[edgeKey]int
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		elements:  make(map[string]ElementNode),
		edgeIndex: make(map[edgeKey]int),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddElement stores an element keyed by GUID. A stub never replaces an
// existing element.
func (m *MemStore) AddElement(_ context.Context, node ElementNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.elements[node.GUID]; exists && node.Stub {
		return nil
	}
	node.Props = maps.Clone(node.Props)
	m.elements[node.GUID] = node
	return nil
}

// edgeKey identifies an edge. Two edges with the same key are the same edge.
type edgeKey struct {
	kind     EdgeKind
	src, dst string
	guid     string
}

func keyOf(e Edge) edgeKey {
	return edgeKey{kind: e.Kind, src: e.SourceID, dst: e.TargetID, guid: e.GUID}
}

// AddEdge stores an edge when both endpoints are known elements. An edge
// with the same kind, endpoints and GUID replaces the earlier one.
func (m *MemStore) AddEdge(_ context.Context, edge Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.elements[edge.SourceID]; !ok {
		return nil
	}
	if _, ok := m.elements[edge.TargetID]; !ok {
		return nil
	}
	edge.Props = maps.Clone(edge.Props)
	key := keyOf(edge)
	if i, ok := m.edgeIndex[key]; ok {
		m.edges[i] = edge
		return nil
	}
	m.edgeIndex[key] = len(m.edges)
	m.edges = append(m.edges, edge)
	return nil
}

// GetElement returns the element with the given GUID, or nil if not found.
func (m *MemStore) GetElement(_ context.Context, guid string) (*ElementNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.elements[guid]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// QueryElements returns elements whose name contains query (case-insensitive),
// optionally restricted to one element type, ordered by name.
func (m *MemStore) QueryElements(_ context.Context, query, elementType string, limit int) ([]ElementNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	lowerQuery := strings.ToLower(query)
	var results []ElementNode
	for _, e := range m.elements {
		if elementType != "" && e.Type != elementType {
			continue
		}
		if strings.Contains(strings.ToLower(e.Name), lowerQuery) {
			results = append(results, e)
		}
	}
	sortElements(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// GetChildren returns the elements contained by guid, ordered by name.
func (m *MemStore) GetChildren(_ context.Context, guid string) ([]ElementNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ElementNode
	for _, e := range m.edges {
		if e.Kind == EdgeKindContains && e.SourceID == guid {
			out = append(out, m.elements[e.TargetID])
		}
	}
	sortElements(out)
	return out, nil
}

// GetRelationships returns the relationship edges touching guid.
func (m *MemStore) GetRelationships(_ context.Context, guid string, direction Direction) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Edge
	for _, e := range m.edges {
		if e.Kind != EdgeKindRelates {
			continue
		}
		outgoing := direction != DirectionIncoming && e.SourceID == guid
		incoming := direction != DirectionOutgoing && e.TargetID == guid
		if outgoing || incoming {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetDependencies performs a BFS on relationship edges from guid in the given
// direction, up to maxDepth hops. It returns one DependencyChain per
// reachable element.
func (m *MemStore) GetDependencies(_ context.Context, guid string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	// BFS state: each entry tracks the path from guid to the current element.
	type bfsEntry struct {
		id   string
		path []string
	}

	visited := map[string]bool{guid: true}
	queue := []bfsEntry{{id: guid, path: []string{guid}}}
	var chains []DependencyChain

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var nextQueue []bfsEntry
		for _, entry := range queue {
			for _, nb := range m.neighbors(entry.id, direction) {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				newPath := make([]string, len(entry.path), len(entry.path)+1)
				copy(newPath, entry.path)
				newPath = append(newPath, nb)
				chains = append(chains, DependencyChain{
					Nodes: newPath,
					Depth: len(newPath) - 1,
				})
				nextQueue = append(nextQueue, bfsEntry{id: nb, path: newPath})
			}
		}
		queue = nextQueue
	}

	return chains, nil
}

// neighbors returns GUIDs reachable from id in one hop along relationship
// edges in the given direction.
func (m *MemStore) neighbors(id string, direction Direction) []string {
	var result []string
	for _, e := range m.edges {
		if e.Kind != EdgeKindRelates {
			continue
		}
		if direction != DirectionIncoming && e.SourceID == id {
			result = append(result, e.TargetID)
		}
		if direction != DirectionOutgoing && e.TargetID == id {
			result = append(result, e.SourceID)
		}
	}
	return result
}

// AssessImpact computes which elements reference the changed elements.
// A relationship edge A->B means A depends on B, so the elements affected by
// a change to B are the sources of its incoming edges, transitively.
func (m *MemStore) AssessImpact(_ context.Context, changed []string) (*ImpactResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	changedSet := make(map[string]bool, len(changed))
	for _, g := range changed {
		changedSet[g] = true
	}

	directSet := make(map[string]bool)
	for _, e := range m.edges {
		if e.Kind != EdgeKindRelates {
			continue
		}
		if changedSet[e.TargetID] && !changedSet[e.SourceID] {
			directSet[e.SourceID] = true
		}
	}

	allAffected := maps.Clone(directSet)
	frontier := maps.Clone(directSet)

	for len(frontier) > 0 {
		nextFrontier := make(map[string]bool)
		for _, e := range m.edges {
			if e.Kind != EdgeKindRelates {
				continue
			}
			if frontier[e.TargetID] && !changedSet[e.SourceID] && !allAffected[e.SourceID] {
				allAffected[e.SourceID] = true
				nextFrontier[e.SourceID] = true
			}
		}
		frontier = nextFrontier
	}

	transitivelyAffected := setToSlice(allAffected)

	var riskScore float64
	if len(m.elements) > 0 {
		riskScore = float64(len(transitivelyAffected)) / float64(len(m.elements))
	}

	return &ImpactResult{
		DirectlyAffected:     setToSlice(directSet),
		TransitivelyAffected: transitivelyAffected,
		RiskScore:            riskScore,
	}, nil
}

// GetAllEdges returns a copy of all edges in the store.
func (m *MemStore) GetAllEdges(_ context.Context) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Edge, len(m.edges))
	copy(out, m.edges)
	return out, nil
}

// Stats returns counts of elements, stubs and both edge kinds.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := &GraphStats{ElementCount: len(m.elements)}
	for _, e := range m.elements {
		if e.Stub {
			st.StubCount++
		}
	}
	for _, e := range m.edges {
		switch e.Kind {
		case EdgeKindRelates:
			st.RelationshipCount++
		case EdgeKindContains:
			st.ContainmentCount++
		}
	}
	return st, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}

// setToSlice converts a string bool map to a sorted slice.
func setToSlice(s map[string]bool) []string {
	return slices.Sorted(maps.Keys(s))
}

// sortElements orders elements by name, then GUID.
func sortElements(els []ElementNode) {
	slices.SortFunc(els, func(a, b ElementNode) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.GUID, b.GUID)
	})
}
