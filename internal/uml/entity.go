// Package uml holds the flat entity model produced by XMI extraction: typed
// nodes and relationships, derived containment edges, and placeholder stubs.
package uml

import (
	"maps"
	"strings"
)

// Kind declares whether a variant is loaded as a graph node or a relationship.
type Kind string

const (
	KindNode         Kind = "node"
	KindRelationship Kind = "relationship"
)

// Variant is the UML element type of an entity. It doubles as the entity's
// type label in the graph.
type Variant string

const (
	VariantPackage     Variant = "Package"
	VariantClass       Variant = "Class"
	VariantActor       Variant = "Actor"
	VariantEvent       Variant = "Event"
	VariantInterface   Variant = "Interface"
	VariantNode        Variant = "Node"
	VariantPseudoState Variant = "PseudoState"
	VariantTransition  Variant = "Transition"
	VariantUseCase     Variant = "UseCase"
	VariantActionState Variant = "ActionState"
	VariantComponent   Variant = "Component"

	VariantGeneralization  Variant = "Generalization"
	VariantDependency      Variant = "Dependency"
	VariantAssociation     Variant = "Association"
	VariantAssociationRole Variant = "AssociationRole"
)

// StubLabel is the label given to placeholder nodes.
const StubLabel = "EAStub"

// StubName is the fallback name of placeholder nodes.
const StubName = "Unknown external reference"

// Entity is one extracted UML element. Relationship variants additionally
// carry canonical From and To endpoints.
type Entity struct {
	Variant Variant
	Kind    Kind

	GUID    string // canonical
	RawGUID string
	Name    string

	Stereotypes  []string
	TaggedValues *Props
	Attributes   *Props
	IsStub       bool

	From string
	To   string
}

// NewEntity returns an entity of the given variant with empty property maps.
func NewEntity(variant Variant, kind Kind) *Entity {
	return &Entity{
		Variant:      variant,
		Kind:         kind,
		TaggedValues: NewProps(),
		Attributes:   NewProps(),
	}
}

// IsRelationship reports whether the entity is a relationship variant.
func (e *Entity) IsRelationship() bool {
	return e.Kind == KindRelationship
}

// Labels returns the node labels: stereotypes followed by the variant.
func (e *Entity) Labels() []string {
	out := make([]string, 0, len(e.Stereotypes)+1)
	out = append(out, e.Stereotypes...)
	return append(out, string(e.Variant))
}

// RelationshipType returns the single relationship type label: the first
// stereotype if any, else the variant.
func (e *Entity) RelationshipType() string {
	if len(e.Stereotypes) > 0 {
		return e.Stereotypes[0]
	}
	return string(e.Variant)
}

// Properties merges the entity's descriptive properties into one map:
// UMLType, stereotype(s), attributes, then tagged values (tagged values win on
// key collisions). The name is not included.
func (e *Entity) Properties() map[string]string {
	props := map[string]string{"UMLType": string(e.Variant)}
	if len(e.Stereotypes) > 0 {
		props["stereotype"] = e.Stereotypes[0]
	}
	if len(e.Stereotypes) > 1 {
		props["stereotypes"] = strings.Join(e.Stereotypes, ",")
	}
	maps.Copy(props, e.Attributes.Map())
	maps.Copy(props, e.TaggedValues.Map())
	return props
}

// StructuralRelationship is a derived containment edge: Parent contains Child.
type StructuralRelationship struct {
	Parent string
	Child  string
}

// Stub is a placeholder for a relationship endpoint never observed as a node.
type Stub struct {
	GUID string
	Name string
}

// NewStub returns a stub with the fallback name.
func NewStub(guid string) Stub {
	return Stub{GUID: guid, Name: StubName}
}
