package extract

import (
	"maps"
	"slices"

	"github.com/dusk-indust/xmigraph/internal/uml"
	"github.com/dusk-indust/xmigraph/internal/xmi"
)

// endpointRule fills From and To (and any endpoint attributes) of a
// relationship entity. It returns a non-empty skip reason when the element is
// structurally missing its endpoints.
type endpointRule func(e *uml.Entity, el *xmi.Element) (skip string)

// elementSpec describes how one XMI tag is extracted.
type elementSpec struct {
	variant   uml.Variant
	kind      uml.Kind
	endpoints endpointRule
}

// registry maps XMI local tag names to their extraction spec. Tags absent
// from the registry are not extracted.
var registry = map[string]elementSpec{
	"Package":     {variant: uml.VariantPackage, kind: uml.KindNode},
	"Class":       {variant: uml.VariantClass, kind: uml.KindNode},
	"Actor":       {variant: uml.VariantActor, kind: uml.KindNode},
	"Event":       {variant: uml.VariantEvent, kind: uml.KindNode},
	"Interface":   {variant: uml.VariantInterface, kind: uml.KindNode},
	"Node":        {variant: uml.VariantNode, kind: uml.KindNode},
	"PseudoState": {variant: uml.VariantPseudoState, kind: uml.KindNode},
	"Transition":  {variant: uml.VariantTransition, kind: uml.KindNode},
	"UseCase":     {variant: uml.VariantUseCase, kind: uml.KindNode},
	"ActionState": {variant: uml.VariantActionState, kind: uml.KindNode},
	"Component":   {variant: uml.VariantComponent, kind: uml.KindNode},

	"Generalization":  {variant: uml.VariantGeneralization, kind: uml.KindRelationship, endpoints: attributeEndpoints("subtype", "supertype")},
	"Dependency":      {variant: uml.VariantDependency, kind: uml.KindRelationship, endpoints: attributeEndpoints("client", "supplier")},
	"Association":     {variant: uml.VariantAssociation, kind: uml.KindRelationship, endpoints: connectionEndpoints("AssociationEnd")},
	"AssociationRole": {variant: uml.VariantAssociationRole, kind: uml.KindRelationship, endpoints: connectionEndpoints("AssociationEndRole")},
}

// lookup returns the spec for tag.
func lookup(tag string) (elementSpec, bool) {
	spec, ok := registry[tag]
	return spec, ok
}

// ElementTags returns the sorted XMI tag names the extractor understands.
func ElementTags() []string {
	return slices.Sorted(maps.Keys(registry))
}
