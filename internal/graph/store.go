package graph

import (
	"context"
	"io"
)

// Store is the interface for the model element graph index.
// Implementations: KuzuStore (production), MemStore (testing).
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations. AddElement replaces an existing element with the
	// same GUID unless the new element is a stub. AddEdge silently drops
	// edges whose endpoints are not present.
	AddElement(ctx context.Context, node ElementNode) error
	AddEdge(ctx context.Context, edge Edge) error

	// Read operations. Missing elements yield nil without error.
	GetElement(ctx context.Context, guid string) (*ElementNode, error)
	QueryElements(ctx context.Context, query, elementType string, limit int) ([]ElementNode, error)
	GetChildren(ctx context.Context, guid string) ([]ElementNode, error)
	GetRelationships(ctx context.Context, guid string, direction Direction) ([]Edge, error)

	// Graph traversal over relationship edges.
	GetDependencies(ctx context.Context, guid string, direction Direction, maxDepth int) ([]DependencyChain, error)
	AssessImpact(ctx context.Context, changed []string) (*ImpactResult, error)
	GetAllEdges(ctx context.Context) ([]Edge, error)

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}
