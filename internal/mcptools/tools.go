package mcptools

import (
	"github.com/dusk-indust/xmigraph/internal/export"
	"github.com/dusk-indust/xmigraph/internal/graph"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// ExtractModelInput is the input for the extract_model MCP tool.
type ExtractModelInput struct {
	EntryPath  string `json:"entryPath" jsonschema:"path to the XMI file of the top-level package"`
	Prefix     string `json:"prefix,omitempty" jsonschema:"if set, also write the interchange tables and run report with this path prefix"`
	SingleFile bool   `json:"singleFile,omitempty" jsonschema:"process only the entry file without following package references into other files"`
}

// ExtractModelOutput is the result of the extract_model MCP tool.
type ExtractModelOutput struct {
	RootGUID    string             `json:"rootGuid"`
	Counts      export.ReportCount `json:"counts"`
	Files       []string           `json:"files"`
	Duplicates  []string           `json:"duplicates"`
	SkippedTags []string           `json:"skippedTags"`
	Tables      []string           `json:"tables,omitempty"`
	Stats       graph.GraphStats   `json:"stats"`
}

// QueryElementsInput is the input for the query_elements MCP tool.
type QueryElementsInput struct {
	Query string `json:"query" jsonschema:"search query for element names (case-insensitive substring match)"`
	Type  string `json:"type,omitempty" jsonschema:"filter by UML type: Package, Class, Actor, UseCase, Component, Interface, Node, ActionState, EAStub, ..."`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// QueryElementsOutput is the result of the query_elements MCP tool.
type QueryElementsOutput struct {
	Elements []graph.ElementNode `json:"elements"`
	Total    int                 `json:"total"`
}

// GetElementInput is the input for the get_element MCP tool.
type GetElementInput struct {
	GUID string `json:"guid" jsonschema:"canonical element GUID, e.g. {0A1B2C3D-...}; vendor EAID_ forms are accepted"`
}

// GetElementOutput is the result of the get_element MCP tool.
type GetElementOutput struct {
	Found   bool               `json:"found"`
	Element *graph.ElementNode `json:"element,omitempty"`
}

// GetChildrenInput is the input for the get_children MCP tool.
type GetChildrenInput struct {
	GUID string `json:"guid" jsonschema:"GUID of the containing package"`
}

// GetChildrenOutput is the result of the get_children MCP tool.
type GetChildrenOutput struct {
	Children []graph.ElementNode `json:"children"`
}

// GetRelationshipsInput is the input for the get_relationships MCP tool.
type GetRelationshipsInput struct {
	GUID      string `json:"guid" jsonschema:"element GUID"`
	Direction string `json:"direction,omitempty" jsonschema:"outgoing, incoming or both (default: both)"`
}

// GetRelationshipsOutput is the result of the get_relationships MCP tool.
type GetRelationshipsOutput struct {
	Relationships []graph.Edge `json:"relationships"`
}

// GetDependenciesInput is the input for the get_dependencies MCP tool.
type GetDependenciesInput struct {
	GUID      string `json:"guid" jsonschema:"element GUID to start from"`
	Direction string `json:"direction,omitempty" jsonschema:"outgoing (what it references), incoming (what references it) or both. Default: outgoing"`
	MaxDepth  int    `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth (default: 5)"`
}

// GetDependenciesOutput is the result of the get_dependencies MCP tool.
type GetDependenciesOutput struct {
	Chains []graph.DependencyChain `json:"chains"`
}

// AssessImpactInput is the input for the assess_impact MCP tool.
type AssessImpactInput struct {
	Changed []string `json:"changed" jsonschema:"GUIDs of the elements that will be modified"`
}

// AssessImpactOutput is the result of the assess_impact MCP tool.
type AssessImpactOutput struct {
	Impact graph.ImpactResult `json:"impact"`
}

// GetStatsInput is the input for the get_stats MCP tool.
type GetStatsInput struct{}

// GetStatsOutput is the result of the get_stats MCP tool.
type GetStatsOutput struct {
	Stats graph.GraphStats `json:"stats"`
}

// GetDiagramInput is the input for the get_diagram MCP tool.
type GetDiagramInput struct{}

// GetDiagramOutput is the result of the get_diagram MCP tool.
type GetDiagramOutput struct {
	Mermaid string `json:"mermaid"`
}
