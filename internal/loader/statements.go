package loader

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dusk-indust/xmigraph/internal/export"
	"github.com/dusk-indust/xmigraph/internal/uml"
)

// Property keys stamped on every loaded entity.
const (
	PropBranch = "__svn_branch"
	PropRunID  = "__load_run"
)

// Statement templates. Node templates take the full label expression,
// run label included. The relationship template takes the relationship type
// and the run label; the containment template takes only the run label.
// Nodes overwrite an earlier stub or an earlier run; stubs only add labels to
// an existing node.
const (
	nodeTemplate = "MERGE (n {guid: $guid}) ON CREATE SET n:%[1]s, n = $props " +
		"ON MATCH SET n:%[1]s, n = $props"
	stubTemplate = "MERGE (n {guid: $guid}) ON CREATE SET n:%[1]s, n = $props " +
		"ON MATCH SET n:%[1]s"
	relationshipTemplate = "MATCH (n:%[2]s {guid: $from}), (m:%[2]s {guid: $to}) " +
		"MERGE (n)-[r:%[1]s {guid: $guid}]->(m) ON CREATE SET r = $props"
	structureTemplate = "MATCH (n:%[1]s {guid: $parent}), (m:%[1]s {guid: $child}) " +
		"MERGE (n)-[r:CONTAINS]->(m) ON CREATE SET r = $props"
)

// Statement is one parameterized Cypher statement.
type Statement struct {
	Cypher string
	Params map[string]any
}

var plainLabel = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CypherLabel renders one label token for use in Cypher, backtick-quoting
// anything that is not a plain identifier.
func CypherLabel(token string) string {
	token = strings.Trim(token, "`")
	if plainLabel.MatchString(token) {
		return token
	}
	return "`" + strings.ReplaceAll(token, "`", "``") + "`"
}

// CypherLabels renders a label cell, plus any extra labels, as a
// colon-joined Cypher label expression.
func CypherLabels(cell string, extra ...string) string {
	tokens := append(uml.SplitLabels(cell), extra...)
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		out = append(out, CypherLabel(t))
	}
	return strings.Join(out, ":")
}

// builder turns table rows into statements for one run.
type builder struct {
	label string // run label, also the __svn_branch value
	runID string
}

func (b builder) stamp(props map[string]any) map[string]any {
	props[PropBranch] = b.label
	if b.runID != "" {
		props[PropRunID] = b.runID
	}
	return props
}

func (b builder) node(r row) (Statement, error) {
	if len(r.cells) < 2 {
		return Statement{}, fmt.Errorf("line %d: %w", r.line, ErrMalformedRow)
	}
	guid, labels := r.cells[0], r.cells[1]
	props, err := parseProps(r.cells[2:], r.line)
	if err != nil {
		return Statement{}, err
	}
	props["guid"] = guid
	return Statement{
		Cypher: fmt.Sprintf(nodeTemplate, CypherLabels(labels, b.label)),
		Params: map[string]any{"guid": guid, "props": b.stamp(props)},
	}, nil
}

func (b builder) stub(r row) (Statement, error) {
	if len(r.cells) != len(export.StubsHeader) {
		return Statement{}, fmt.Errorf("line %d: %w", r.line, ErrMalformedRow)
	}
	guid := r.cells[0]
	props := map[string]any{"guid": guid, "name": r.cells[2]}
	return Statement{
		Cypher: fmt.Sprintf(stubTemplate, CypherLabels(r.cells[1], b.label)),
		Params: map[string]any{"guid": guid, "props": b.stamp(props)},
	}, nil
}

func (b builder) relationship(r row) (Statement, error) {
	if len(r.cells) < 4 {
		return Statement{}, fmt.Errorf("line %d: %w", r.line, ErrMalformedRow)
	}
	relType := uml.SplitLabels(r.cells[1])
	if len(relType) == 0 {
		return Statement{}, fmt.Errorf("line %d: missing relationship type: %w", r.line, ErrMalformedRow)
	}
	guid, from, to := r.cells[0], r.cells[2], r.cells[3]
	props, err := parseProps(r.cells[4:], r.line)
	if err != nil {
		return Statement{}, err
	}
	props["guid"] = guid
	return Statement{
		Cypher: fmt.Sprintf(relationshipTemplate, CypherLabel(relType[0]), CypherLabel(b.label)),
		Params: map[string]any{"guid": guid, "from": from, "to": to, "props": b.stamp(props)},
	}, nil
}

func (b builder) structure(r row) (Statement, error) {
	if len(r.cells) != len(export.StructureRelsHeader) {
		return Statement{}, fmt.Errorf("line %d: %w", r.line, ErrMalformedRow)
	}
	return Statement{
		Cypher: fmt.Sprintf(structureTemplate, CypherLabel(b.label)),
		Params: map[string]any{
			"parent": r.cells[0],
			"child":  r.cells[1],
			"props":  b.stamp(map[string]any{}),
		},
	}, nil
}
