package graph

// --- Enums ---

// EdgeKind classifies relationships between elements.
type EdgeKind string

const (
	// EdgeKindRelates is an extracted UML relationship (generalization,
	// dependency, association, association role). Its Type carries the
	// relationship label.
	EdgeKindRelates EdgeKind = "RELATES"
	// EdgeKindContains is a derived package containment edge.
	EdgeKindContains EdgeKind = "CONTAINS"
)

// Direction controls relationship traversal direction.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing" // edges leaving the element
	DirectionIncoming Direction = "incoming" // edges arriving at the element
	DirectionBoth     Direction = "both"
)

// ParseDirection maps user input to a Direction, defaulting to both.
func ParseDirection(s string) Direction {
	switch Direction(s) {
	case DirectionOutgoing, DirectionIncoming:
		return Direction(s)
	default:
		return DirectionBoth
	}
}

// --- Models ---

// ElementNode is one model element or stub placeholder in the index.
type ElementNode struct {
	GUID    string            `json:"guid"`
	RawGUID string            `json:"rawGuid,omitempty"`
	Name    string            `json:"name"`
	Type    string            `json:"type"` // UML variant, or EAStub
	Labels  []string          `json:"labels"`
	Stub    bool              `json:"stub,omitempty"`
	Props   map[string]string `json:"props,omitempty"`
}

// Edge is a relationship or containment edge between two elements.
// Containment edges carry no GUID, type, name or props.
type Edge struct {
	SourceID string            `json:"sourceId"`
	TargetID string            `json:"targetId"`
	Kind     EdgeKind          `json:"kind"`
	GUID     string            `json:"guid,omitempty"`
	Type     string            `json:"type,omitempty"`
	Name     string            `json:"name,omitempty"`
	Props    map[string]string `json:"props,omitempty"`
}

// GraphStats summarizes an element graph.
type GraphStats struct {
	ElementCount      int `json:"elementCount"`
	StubCount         int `json:"stubCount"`
	RelationshipCount int `json:"relationshipCount"`
	ContainmentCount  int `json:"containmentCount"`
}

// DependencyChain is an ordered sequence of element GUIDs forming a path
// along relationship edges.
type DependencyChain struct {
	Nodes []string `json:"nodes"`
	Depth int      `json:"depth"`
}

// ImpactResult describes which elements reference a set of changed elements.
type ImpactResult struct {
	DirectlyAffected     []string `json:"directlyAffected"`     // elements with a relationship to a changed element
	TransitivelyAffected []string `json:"transitivelyAffected"` // full incoming closure
	RiskScore            float64  `json:"riskScore"`            // 0.0-1.0, affected share of all elements
}
