package graph

import (
	"context"
	"fmt"

	"github.com/dusk-indust/xmigraph/internal/extract"
	"github.com/dusk-indust/xmigraph/internal/uml"
)

// ElementFromEntity converts an extracted node entity into an index element.
func ElementFromEntity(e *uml.Entity) ElementNode {
	return ElementNode{
		GUID:    e.GUID,
		RawGUID: e.RawGUID,
		Name:    e.Name,
		Type:    string(e.Variant),
		Labels:  e.Labels(),
		Props:   e.Properties(),
	}
}

// ElementFromStub converts a placeholder into an index element.
func ElementFromStub(s uml.Stub) ElementNode {
	return ElementNode{
		GUID:   s.GUID,
		Name:   s.Name,
		Type:   uml.StubLabel,
		Labels: []string{uml.StubLabel},
		Stub:   true,
	}
}

// EdgeFromRelationship converts an extracted relationship entity into a
// RELATES edge.
func EdgeFromRelationship(e *uml.Entity) Edge {
	return Edge{
		SourceID: e.From,
		TargetID: e.To,
		Kind:     EdgeKindRelates,
		GUID:     e.GUID,
		Type:     e.RelationshipType(),
		Name:     e.Name,
		Props:    e.Properties(),
	}
}

// Load writes an extraction result into store: nodes, then stubs, then
// relationships, then containment edges. Containment edges whose parent lies
// outside the extracted model are dropped by the store.
func Load(ctx context.Context, store Store, r *extract.Result) error {
	for _, n := range r.Nodes {
		if err := store.AddElement(ctx, ElementFromEntity(n)); err != nil {
			return fmt.Errorf("load element %s: %w", n.GUID, err)
		}
	}
	for _, s := range r.Stubs {
		if err := store.AddElement(ctx, ElementFromStub(s)); err != nil {
			return fmt.Errorf("load stub %s: %w", s.GUID, err)
		}
	}
	for _, rel := range r.Relationships {
		if err := store.AddEdge(ctx, EdgeFromRelationship(rel)); err != nil {
			return fmt.Errorf("load relationship %s: %w", rel.GUID, err)
		}
	}
	for _, sr := range r.StructureRels {
		edge := Edge{SourceID: sr.Parent, TargetID: sr.Child, Kind: EdgeKindContains}
		if err := store.AddEdge(ctx, edge); err != nil {
			return fmt.Errorf("load containment %s->%s: %w", sr.Parent, sr.Child, err)
		}
	}
	return nil
}
