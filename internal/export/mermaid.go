package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/xmigraph/internal/graph"
)

// GenerateMermaid produces a Mermaid graph TD diagram from a graph store.
// Packages become subgraphs holding the elements they contain; relationship
// edges become labelled arrows. Stubs are drawn with a dashed outline.
func GenerateMermaid(ctx context.Context, store graph.Store) (string, error) {
	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return "", fmt.Errorf("get edges: %w", err)
	}

	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(guid string) string {
		if id, ok := nodeIDs[guid]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[guid] = id
		return id
	}

	elements := make(map[string]*graph.ElementNode)
	lookup := func(guid string) (*graph.ElementNode, error) {
		if e, ok := elements[guid]; ok {
			return e, nil
		}
		e, err := store.GetElement(ctx, guid)
		if err != nil {
			return nil, fmt.Errorf("get element %s: %w", guid, err)
		}
		if e == nil {
			e = &graph.ElementNode{GUID: guid, Name: guid}
		}
		elements[guid] = e
		return e, nil
	}

	// Group contained elements under their package, in first-seen order.
	var parents []string
	children := make(map[string][]string)
	contained := make(map[string]bool)
	var relations []graph.Edge
	for _, e := range edges {
		switch e.Kind {
		case graph.EdgeKindContains:
			if _, ok := children[e.SourceID]; !ok {
				parents = append(parents, e.SourceID)
			}
			children[e.SourceID] = append(children[e.SourceID], e.TargetID)
			contained[e.TargetID] = true
		case graph.EdgeKindRelates:
			relations = append(relations, e)
		}
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	declared := make(map[string]bool)
	declare := func(indent, guid string) error {
		if declared[guid] {
			return nil
		}
		declared[guid] = true
		e, err := lookup(guid)
		if err != nil {
			return err
		}
		open, closing := "[\"", "\"]"
		if e.Stub {
			open, closing = "([\"", "\"])"
		}
		sb.WriteString(fmt.Sprintf("%s%s%s%s%s\n", indent, getID(guid), open, nodeLabel(e), closing))
		return nil
	}

	// Emit package subgraphs.
	for _, p := range parents {
		pkg, err := lookup(p)
		if err != nil {
			return "", err
		}
		sb.WriteString(fmt.Sprintf("  subgraph %s[\"%.40s\"]\n", getID(p+"_package"), mermaidText(pkg.Name)))
		for _, c := range children[p] {
			if err := declare("    ", c); err != nil {
				return "", err
			}
		}
		sb.WriteString("  end\n")
	}

	// Emit relationship edges, declaring loose endpoints first.
	for _, e := range relations {
		for _, g := range []string{e.SourceID, e.TargetID} {
			if contained[g] {
				continue
			}
			if err := declare("  ", g); err != nil {
				return "", err
			}
		}
	}
	for _, e := range relations {
		sb.WriteString(fmt.Sprintf("  %s -->|%s| %s\n", getID(e.SourceID), mermaidText(e.Type), getID(e.TargetID)))
	}

	return sb.String(), nil
}

// nodeLabel renders an element as "Name<br/>«Type»".
func nodeLabel(e *graph.ElementNode) string {
	name := mermaidText(e.Name)
	if e.Type == "" {
		return name
	}
	return fmt.Sprintf("%s<br/>«%s»", name, mermaidText(e.Type))
}

// mermaidText strips characters that break Mermaid label syntax.
func mermaidText(s string) string {
	return strings.NewReplacer(`"`, "'", "|", "/", "\n", " ").Replace(s)
}
