// Package export writes extraction results to the tab-separated interchange
// tables, a JSON run report and Mermaid diagrams.
package export

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dusk-indust/xmigraph/internal/extract"
	"github.com/dusk-indust/xmigraph/internal/uml"
)

// Table names, in the order the loader consumes them.
const (
	TableNodes         = "nodes"
	TableStubs         = "stubs"
	TableRelationships = "relationships"
	TableStructureRels = "structureRels"
	TableGUIDs         = "GUIDs"
)

// Header rows.
var (
	NodesHeader         = []string{"guid", "labels", "props"}
	RelationshipsHeader = []string{"guid", "labels", "from", "to", "props"}
	StructureRelsHeader = []string{"parent", "child"}
	StubsHeader         = []string{"guid", "labels", "name"}
)

// PropSeparator splits a props cell into key and value.
const PropSeparator = "|"

var cellReplacer = strings.NewReplacer(
	`\`, "/",
	`"`, `\"`,
	"\r\n", "<br>",
	"\n", "<br>",
	"\r", "<br>",
	"\t", "    ",
)

// Escape makes a value safe for a single table cell.
func Escape(s string) string {
	return cellReplacer.Replace(s)
}

// TablePath returns the file name of one table for a run prefix.
func TablePath(prefix, table string) string {
	return prefix + "." + table + ".csv"
}

// PropCells renders the props group of an entity: the name first, then its
// merged properties in key order.
func PropCells(e *uml.Entity) []string {
	props := e.Properties()
	cells := make([]string, 0, len(props)+1)
	cells = append(cells, "name"+PropSeparator+Escape(e.Name))
	for _, k := range slices.Sorted(maps.Keys(props)) {
		cells = append(cells, Escape(k)+PropSeparator+Escape(props[k]))
	}
	return cells
}

// tableWriter writes tab-separated rows and remembers the first error.
type tableWriter struct {
	w   *bufio.Writer
	err error
}

func newTableWriter(w io.Writer) *tableWriter {
	return &tableWriter{w: bufio.NewWriter(w)}
}

func (t *tableWriter) row(cells ...string) {
	if t.err != nil {
		return
	}
	_, t.err = t.w.WriteString(strings.Join(cells, "\t") + "\n")
}

func (t *tableWriter) flush() error {
	if t.err != nil {
		return t.err
	}
	return t.w.Flush()
}

// WriteNodes writes the nodes table.
func WriteNodes(w io.Writer, nodes []*uml.Entity) error {
	tw := newTableWriter(w)
	tw.row(NodesHeader...)
	for _, n := range nodes {
		cells := []string{Escape(n.GUID), Escape(uml.JoinLabels(n.Labels()))}
		tw.row(append(cells, PropCells(n)...)...)
	}
	return tw.flush()
}

// WriteRelationships writes the relationships table. The label column holds
// the single relationship type.
func WriteRelationships(w io.Writer, rels []*uml.Entity) error {
	tw := newTableWriter(w)
	tw.row(RelationshipsHeader...)
	for _, r := range rels {
		cells := []string{
			Escape(r.GUID),
			Escape(uml.JoinLabels([]string{r.RelationshipType()})),
			Escape(r.From),
			Escape(r.To),
		}
		tw.row(append(cells, PropCells(r)...)...)
	}
	return tw.flush()
}

// WriteStructureRels writes the containment table.
func WriteStructureRels(w io.Writer, rels []uml.StructuralRelationship) error {
	tw := newTableWriter(w)
	tw.row(StructureRelsHeader...)
	for _, r := range rels {
		tw.row(Escape(r.Parent), Escape(r.Child))
	}
	return tw.flush()
}

// WriteStubs writes the stubs table.
func WriteStubs(w io.Writer, stubs []uml.Stub) error {
	tw := newTableWriter(w)
	tw.row(StubsHeader...)
	for _, s := range stubs {
		tw.row(Escape(s.GUID), uml.StubLabel, Escape(s.Name))
	}
	return tw.flush()
}

// WriteGUIDs writes raw identifiers one per line, without a header.
func WriteGUIDs(w io.Writer, raw []string) error {
	tw := newTableWriter(w)
	for _, g := range raw {
		tw.row(g)
	}
	return tw.flush()
}

// WriteTables writes all five tables for r next to prefix and returns the
// paths written, in write order.
func WriteTables(prefix string, r *extract.Result) ([]string, error) {
	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("export: create output directory: %w", err)
		}
	}

	writers := []struct {
		table string
		write func(io.Writer) error
	}{
		{TableNodes, func(w io.Writer) error { return WriteNodes(w, r.Nodes) }},
		{TableRelationships, func(w io.Writer) error { return WriteRelationships(w, r.Relationships) }},
		{TableStructureRels, func(w io.Writer) error { return WriteStructureRels(w, r.StructureRels) }},
		{TableStubs, func(w io.Writer) error { return WriteStubs(w, r.Stubs) }},
		{TableGUIDs, func(w io.Writer) error { return WriteGUIDs(w, r.RawGUIDs) }},
	}

	paths := make([]string, 0, len(writers))
	for _, tw := range writers {
		path := TablePath(prefix, tw.table)
		if err := writeFile(path, tw.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", path, err)
	}
	return nil
}
