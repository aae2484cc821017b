//go:build cgo

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/dusk-indust/xmigraph/internal/uml"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(":memory:", cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path, so an extracted model can be queried across sessions.
// KuzuDB creates the leaf directory itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open file database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
// Labels and props are stored as text: labels in their colon-joined form,
// props as a JSON object.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Element(
		guid STRING,
		raw_guid STRING,
		name STRING,
		type STRING,
		labels STRING,
		stub BOOLEAN,
		props STRING,
		PRIMARY KEY(guid)
	)`,
	`CREATE REL TABLE IF NOT EXISTS RELATES(
		FROM Element TO Element,
		guid STRING,
		type STRING,
		name STRING,
		props STRING
	)`,
	`CREATE REL TABLE IF NOT EXISTS CONTAINS(FROM Element TO Element)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

const elementColumns = "e.guid, e.raw_guid, e.name, e.type, e.labels, e.stub, e.props"

// AddElement merges an Element node. Stubs are only created, never applied
// over an existing element.
func (s *KuzuStore) AddElement(_ context.Context, node ElementNode) error {
	props, err := encodeProps(node.Props)
	if err != nil {
		return err
	}
	params := map[string]any{
		"guid":   node.GUID,
		"raw":    node.RawGUID,
		"name":   node.Name,
		"type":   node.Type,
		"labels": uml.JoinLabels(node.Labels),
		"stub":   node.Stub,
		"props":  props,
	}
	set := `e.raw_guid = $raw, e.name = $name, e.type = $type,
			e.labels = $labels, e.stub = $stub, e.props = $props`
	cypher := "MERGE (e:Element {guid: $guid}) ON CREATE SET " + set
	if !node.Stub {
		cypher += " ON MATCH SET " + set
	}
	return s.exec(cypher, params)
}

// AddEdge merges an edge between two elements, so loading the same model
// twice leaves one edge. RELATES edges are keyed by GUID.
func (s *KuzuStore) AddEdge(_ context.Context, edge Edge) error {
	params := map[string]any{
		"src": edge.SourceID,
		"dst": edge.TargetID,
	}
	switch edge.Kind {
	case EdgeKindRelates:
		props, err := encodeProps(edge.Props)
		if err != nil {
			return err
		}
		params["guid"] = edge.GUID
		params["type"] = edge.Type
		params["name"] = edge.Name
		params["props"] = props
		return s.exec(`MATCH (a:Element {guid: $src}), (b:Element {guid: $dst})
			MERGE (a)-[r:RELATES {guid: $guid}]->(b)
			ON CREATE SET r.type = $type, r.name = $name, r.props = $props
			ON MATCH SET r.type = $type, r.name = $name, r.props = $props`, params)
	case EdgeKindContains:
		return s.exec(`MATCH (a:Element {guid: $src}), (b:Element {guid: $dst})
			MERGE (a)-[:CONTAINS]->(b)`, params)
	default:
		return fmt.Errorf("kuzu: unsupported edge kind: %s", edge.Kind)
	}
}

// ---------- Read operations ----------

// GetElement retrieves a single Element by GUID, or returns nil if not found.
func (s *KuzuStore) GetElement(_ context.Context, guid string) (*ElementNode, error) {
	rows, err := s.query(
		"MATCH (e:Element {guid: $guid}) RETURN "+elementColumns,
		map[string]any{"guid": guid},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToElement(rows[0])
}

// QueryElements returns elements whose name contains the query string
// (case-insensitive), optionally restricted to one element type.
func (s *KuzuStore) QueryElements(_ context.Context, queryStr, elementType string, limit int) ([]ElementNode, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	rows, err := s.query(
		`MATCH (e:Element)
		 WHERE lower(e.name) CONTAINS lower($q) AND ($t = '' OR e.type = $t)
		 RETURN `+elementColumns+`
		 ORDER BY e.name, e.guid
		 LIMIT $lim`,
		map[string]any{
			"q":   queryStr,
			"t":   elementType,
			"lim": int64(limit),
		},
	)
	if err != nil {
		return nil, err
	}
	return rowsToElements(rows)
}

// GetChildren returns the elements contained by guid, ordered by name.
func (s *KuzuStore) GetChildren(_ context.Context, guid string) ([]ElementNode, error) {
	rows, err := s.query(
		`MATCH (p:Element {guid: $guid})-[:CONTAINS]->(e:Element)
		 RETURN `+elementColumns+`
		 ORDER BY e.name, e.guid`,
		map[string]any{"guid": guid},
	)
	if err != nil {
		return nil, err
	}
	return rowsToElements(rows)
}

// GetRelationships returns the RELATES edges touching guid.
func (s *KuzuStore) GetRelationships(_ context.Context, guid string, dir Direction) ([]Edge, error) {
	var cyphers []string
	if dir != DirectionIncoming {
		cyphers = append(cyphers, `MATCH (a:Element {guid: $guid})-[r:RELATES]->(b:Element)
			RETURN a.guid, b.guid, r.guid, r.type, r.name, r.props`)
	}
	if dir != DirectionOutgoing {
		cyphers = append(cyphers, `MATCH (a:Element)-[r:RELATES]->(b:Element {guid: $guid})
			RETURN a.guid, b.guid, r.guid, r.type, r.name, r.props`)
	}

	var out []Edge
	seen := make(map[string]bool)
	for _, c := range cyphers {
		rows, err := s.query(c, map[string]any{"guid": guid})
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			e, err := rowToRelates(r)
			if err != nil {
				return nil, err
			}
			// a self-relationship matches both directions
			key := e.GUID + "|" + e.SourceID + "|" + e.TargetID
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, e)
		}
	}
	return out, nil
}

// ---------- Graph traversal ----------

// GetDependencies performs a BFS over RELATES edges starting from the given
// element. It returns one DependencyChain per reachable element.
func (s *KuzuStore) GetDependencies(_ context.Context, guid string, dir Direction, maxDepth int) ([]DependencyChain, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	// BFS state.
	type bfsEntry struct {
		path  []string
		depth int
	}
	visited := map[string]bool{guid: true}
	queue := []bfsEntry{{path: []string{guid}, depth: 0}}
	var chains []DependencyChain

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		tip := cur.path[len(cur.path)-1]
		neighbors, err := s.elementNeighbors(tip, dir)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbors {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			newPath := make([]string, len(cur.path)+1)
			copy(newPath, cur.path)
			newPath[len(cur.path)] = nb
			chains = append(chains, DependencyChain{
				Nodes: newPath,
				Depth: cur.depth + 1,
			})
			queue = append(queue, bfsEntry{path: newPath, depth: cur.depth + 1})
		}
	}
	return chains, nil
}

// elementNeighbors returns immediate neighbors along RELATES edges.
func (s *KuzuStore) elementNeighbors(guid string, dir Direction) ([]string, error) {
	var cyphers []string
	if dir != DirectionIncoming {
		cyphers = append(cyphers, "MATCH (a:Element {guid: $guid})-[:RELATES]->(b:Element) RETURN b.guid")
	}
	if dir != DirectionOutgoing {
		cyphers = append(cyphers, "MATCH (a:Element)-[:RELATES]->(b:Element {guid: $guid}) RETURN a.guid")
	}
	var out []string
	for _, c := range cyphers {
		rows, err := s.query(c, map[string]any{"guid": guid})
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, toString(r[0]))
		}
	}
	return out, nil
}

// AssessImpact computes which elements reference the changed elements by
// walking RELATES edges backwards, then computes a risk score from the share
// of affected elements.
func (s *KuzuStore) AssessImpact(ctx context.Context, changed []string) (*ImpactResult, error) {
	total, err := s.count("MATCH (e:Element) RETURN count(e)")
	if err != nil {
		return nil, err
	}

	directSet := map[string]bool{}
	transitiveSet := map[string]bool{}

	for _, g := range changed {
		chains, err := s.GetDependencies(ctx, g, DirectionIncoming, 1)
		if err != nil {
			return nil, err
		}
		for _, c := range chains {
			directSet[c.Nodes[len(c.Nodes)-1]] = true
		}

		allChains, err := s.GetDependencies(ctx, g, DirectionIncoming, DefaultMaxDepth)
		if err != nil {
			return nil, err
		}
		for _, c := range allChains {
			transitiveSet[c.Nodes[len(c.Nodes)-1]] = true
		}
	}

	// Remove changed elements themselves from result sets.
	changedMap := map[string]bool{}
	for _, g := range changed {
		changedMap[g] = true
	}
	direct := filterKeys(directSet, changedMap)
	transitive := filterKeys(transitiveSet, changedMap)

	risk := 0.0
	if total > 0 {
		risk = math.Min(1.0, float64(len(transitive))/float64(total))
	}

	return &ImpactResult{
		DirectlyAffected:     direct,
		TransitivelyAffected: transitive,
		RiskScore:            risk,
	}, nil
}

// ---------- Edge enumeration ----------

// GetAllEdges returns all RELATES and CONTAINS edges.
func (s *KuzuStore) GetAllEdges(_ context.Context) ([]Edge, error) {
	var edges []Edge

	rows, err := s.query(`MATCH (a:Element)-[r:RELATES]->(b:Element)
		RETURN a.guid, b.guid, r.guid, r.type, r.name, r.props`, nil)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		e, err := rowToRelates(r)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}

	rows, err = s.query("MATCH (a:Element)-[:CONTAINS]->(b:Element) RETURN a.guid, b.guid", nil)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		edges = append(edges, Edge{
			SourceID: toString(r[0]),
			TargetID: toString(r[1]),
			Kind:     EdgeKindContains,
		})
	}
	return edges, nil
}

// ---------- Stats ----------

// Stats returns counts of elements, stubs and both edge tables.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	elements, err := s.count("MATCH (e:Element) RETURN count(e)")
	if err != nil {
		return nil, err
	}
	stubs, err := s.count("MATCH (e:Element) WHERE e.stub = true RETURN count(e)")
	if err != nil {
		return nil, err
	}
	relates, err := s.count("MATCH ()-[r:RELATES]->() RETURN count(r)")
	if err != nil {
		return nil, err
	}
	contains, err := s.count("MATCH ()-[r:CONTAINS]->() RETURN count(r)")
	if err != nil {
		return nil, err
	}
	return &GraphStats{
		ElementCount:      elements,
		StubCount:         stubs,
		RelationshipCount: relates,
		ContainmentCount:  contains,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// count runs a single-value count query.
func (s *KuzuStore) count(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

func encodeProps(props map[string]string) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("kuzu: encode props: %w", err)
	}
	return string(b), nil
}

func decodeProps(v any) (map[string]string, error) {
	s := toString(v)
	if s == "" || s == "{}" {
		return nil, nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("kuzu: decode props: %w", err)
	}
	return out, nil
}

// rowToElement converts a 7-column result row into an ElementNode.
// Column order: guid, raw_guid, name, type, labels, stub, props.
func rowToElement(r []any) (*ElementNode, error) {
	props, err := decodeProps(r[6])
	if err != nil {
		return nil, err
	}
	return &ElementNode{
		GUID:    toString(r[0]),
		RawGUID: toString(r[1]),
		Name:    toString(r[2]),
		Type:    toString(r[3]),
		Labels:  uml.SplitLabels(toString(r[4])),
		Stub:    toBool(r[5]),
		Props:   props,
	}, nil
}

func rowsToElements(rows [][]any) ([]ElementNode, error) {
	out := make([]ElementNode, 0, len(rows))
	for _, r := range rows {
		e, err := rowToElement(r)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

// rowToRelates converts a 6-column result row into a RELATES Edge.
// Column order: source guid, target guid, guid, type, name, props.
func rowToRelates(r []any) (Edge, error) {
	props, err := decodeProps(r[5])
	if err != nil {
		return Edge{}, err
	}
	return Edge{
		SourceID: toString(r[0]),
		TargetID: toString(r[1]),
		Kind:     EdgeKindRelates,
		GUID:     toString(r[2]),
		Type:     toString(r[3]),
		Name:     toString(r[4]),
		Props:    props,
	}, nil
}

// filterKeys returns keys from set that are not in exclude, as a sorted slice.
func filterKeys(set, exclude map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		if !exclude[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).
// These helpers safely coerce any -> concrete type.

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
