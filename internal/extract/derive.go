package extract

import "github.com/dusk-indust/xmigraph/internal/uml"

const (
	tvParent  = "parent"
	tvPackage = "package"
)

// deriveStructure emits one containment edge per node from its parent
// package. Packages use the "parent" tagged value; every node falls back to
// "package". The run root has no parent in scope and is skipped.
func (s *Session) deriveStructure() {
	r := s.result
	for _, e := range r.Nodes {
		if r.RootGUID != "" && e.GUID == r.RootGUID {
			continue
		}
		if e.Variant == uml.VariantPackage {
			if parent, ok := e.TaggedValues.Get(tvParent); ok && parent != "" {
				r.StructureRels = append(r.StructureRels, uml.StructuralRelationship{Parent: parent, Child: e.GUID})
				continue
			}
		}
		if pkg, ok := e.TaggedValues.Get(tvPackage); ok && pkg != "" {
			r.StructureRels = append(r.StructureRels, uml.StructuralRelationship{Parent: pkg, Child: e.GUID})
		}
	}
}

// generateStubs adds one placeholder per relationship endpoint that is not a
// known node, in first-reference order.
func (s *Session) generateStubs() {
	r := s.result
	known := make(map[string]bool, len(r.Nodes))
	for _, n := range r.Nodes {
		known[n.GUID] = true
	}
	for _, rel := range r.Relationships {
		for _, guid := range []string{rel.From, rel.To} {
			if known[guid] {
				continue
			}
			known[guid] = true
			r.Stubs = append(r.Stubs, uml.NewStub(guid))
		}
	}
}
