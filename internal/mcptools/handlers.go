package mcptools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/xmigraph/internal/export"
	"github.com/dusk-indust/xmigraph/internal/extract"
	"github.com/dusk-indust/xmigraph/internal/graph"
	"github.com/dusk-indust/xmigraph/internal/uml"
)

const (
	defaultToolLimit = 20
	defaultToolDepth = 5
)

// ModelService holds the graph store and extraction settings used by MCP
// tool handlers.
type ModelService struct {
	store graph.Store
	opts  extract.Options
	log   *slog.Logger

	// mu serializes extract_model runs so two loads never interleave.
	mu sync.Mutex
}

// NewModelService creates a ModelService over store. opts seeds every
// extract_model run.
func NewModelService(store graph.Store, opts extract.Options) *ModelService {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &ModelService{store: store, opts: opts, log: log}
}

// ExtractModel runs an extraction, optionally writes its tables and report,
// and loads the result into the store.
func (s *ModelService) ExtractModel(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractModelInput,
) (*mcp.CallToolResult, ExtractModelOutput, error) {
	if input.EntryPath == "" {
		return nil, ExtractModelOutput{}, errors.New("entryPath is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	opts := s.opts
	opts.SingleFile = opts.SingleFile || input.SingleFile
	result, err := extract.NewSession(opts).Run(input.EntryPath)
	if err != nil {
		return nil, ExtractModelOutput{}, err
	}

	var tables []string
	if input.Prefix != "" {
		tables, err = export.WriteTables(input.Prefix, result)
		if err != nil {
			return nil, ExtractModelOutput{}, err
		}
		if _, err := export.WriteReport(input.Prefix, result, tables); err != nil {
			return nil, ExtractModelOutput{}, err
		}
	}

	if err := s.store.InitSchema(ctx); err != nil {
		return nil, ExtractModelOutput{}, fmt.Errorf("init schema: %w", err)
	}
	if err := graph.Load(ctx, s.store, result); err != nil {
		return nil, ExtractModelOutput{}, err
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, ExtractModelOutput{}, fmt.Errorf("stats: %w", err)
	}
	s.log.Info("model extracted", "entry", input.EntryPath, "elements", stats.ElementCount)

	report := export.BuildReport(result, tables)
	return nil, ExtractModelOutput{
		RootGUID:    result.RootGUID,
		Counts:      report.Counts,
		Files:       nonNil(result.Files),
		Duplicates:  nonNil(result.Duplicates),
		SkippedTags: nonNil(result.SkippedTags),
		Tables:      tables,
		Stats:       *stats,
	}, nil
}

// QueryElements searches for elements by name substring match.
func (s *ModelService) QueryElements(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryElementsInput,
) (*mcp.CallToolResult, QueryElementsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultToolLimit
	}

	elements, err := s.store.QueryElements(ctx, input.Query, input.Type, limit)
	if err != nil {
		return nil, QueryElementsOutput{}, fmt.Errorf("query elements: %w", err)
	}
	if elements == nil {
		elements = []graph.ElementNode{}
	}

	return nil, QueryElementsOutput{
		Elements: elements,
		Total:    len(elements),
	}, nil
}

// GetElement looks up one element by GUID.
func (s *ModelService) GetElement(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetElementInput,
) (*mcp.CallToolResult, GetElementOutput, error) {
	guid, err := requireGUID(input.GUID)
	if err != nil {
		return nil, GetElementOutput{}, err
	}

	e, err := s.store.GetElement(ctx, guid)
	if err != nil {
		return nil, GetElementOutput{}, fmt.Errorf("get element: %w", err)
	}
	return nil, GetElementOutput{Found: e != nil, Element: e}, nil
}

// GetChildren lists the elements a package contains.
func (s *ModelService) GetChildren(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetChildrenInput,
) (*mcp.CallToolResult, GetChildrenOutput, error) {
	guid, err := requireGUID(input.GUID)
	if err != nil {
		return nil, GetChildrenOutput{}, err
	}

	children, err := s.store.GetChildren(ctx, guid)
	if err != nil {
		return nil, GetChildrenOutput{}, fmt.Errorf("get children: %w", err)
	}
	if children == nil {
		children = []graph.ElementNode{}
	}
	return nil, GetChildrenOutput{Children: children}, nil
}

// GetRelationships lists relationship edges touching an element.
func (s *ModelService) GetRelationships(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetRelationshipsInput,
) (*mcp.CallToolResult, GetRelationshipsOutput, error) {
	guid, err := requireGUID(input.GUID)
	if err != nil {
		return nil, GetRelationshipsOutput{}, err
	}

	rels, err := s.store.GetRelationships(ctx, guid, graph.ParseDirection(strings.ToLower(input.Direction)))
	if err != nil {
		return nil, GetRelationshipsOutput{}, fmt.Errorf("get relationships: %w", err)
	}
	if rels == nil {
		rels = []graph.Edge{}
	}
	return nil, GetRelationshipsOutput{Relationships: rels}, nil
}

// GetDependencies traverses relationship edges from a given element.
func (s *ModelService) GetDependencies(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDependenciesInput,
) (*mcp.CallToolResult, GetDependenciesOutput, error) {
	guid, err := requireGUID(input.GUID)
	if err != nil {
		return nil, GetDependenciesOutput{}, err
	}

	direction := graph.DirectionOutgoing
	if input.Direction != "" {
		direction = graph.ParseDirection(strings.ToLower(input.Direction))
	}

	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultToolDepth
	}

	chains, err := s.store.GetDependencies(ctx, guid, direction, maxDepth)
	if err != nil {
		return nil, GetDependenciesOutput{}, fmt.Errorf("get dependencies: %w", err)
	}
	if chains == nil {
		chains = []graph.DependencyChain{}
	}

	return nil, GetDependenciesOutput{Chains: chains}, nil
}

// AssessImpact computes which elements reference a set of changed elements.
func (s *ModelService) AssessImpact(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AssessImpactInput,
) (*mcp.CallToolResult, AssessImpactOutput, error) {
	if len(input.Changed) == 0 {
		return nil, AssessImpactOutput{}, errors.New("changed is required")
	}

	changed := make([]string, len(input.Changed))
	for i, g := range input.Changed {
		changed[i] = uml.CanonicalGUID(strings.TrimSpace(g))
	}

	impact, err := s.store.AssessImpact(ctx, changed)
	if err != nil {
		return nil, AssessImpactOutput{}, fmt.Errorf("assess impact: %w", err)
	}
	impact.DirectlyAffected = nonNil(impact.DirectlyAffected)
	impact.TransitivelyAffected = nonNil(impact.TransitivelyAffected)

	return nil, AssessImpactOutput{Impact: *impact}, nil
}

// GetStats returns element and edge counts.
func (s *ModelService) GetStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetStatsInput,
) (*mcp.CallToolResult, GetStatsOutput, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, GetStatsOutput{}, fmt.Errorf("stats: %w", err)
	}
	return nil, GetStatsOutput{Stats: *stats}, nil
}

// GetDiagram renders the indexed model as a Mermaid diagram.
func (s *ModelService) GetDiagram(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetDiagramInput,
) (*mcp.CallToolResult, GetDiagramOutput, error) {
	out, err := export.GenerateMermaid(ctx, s.store)
	if err != nil {
		return nil, GetDiagramOutput{}, err
	}
	return nil, GetDiagramOutput{Mermaid: out}, nil
}

// requireGUID validates and canonicalizes a GUID argument.
func requireGUID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("guid is required")
	}
	return uml.CanonicalGUID(raw), nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
