package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/xmigraph/internal/extract"
	"github.com/dusk-indust/xmigraph/internal/uml"
)

func fixture(parts ...string) string {
	return filepath.Join(append([]string{"..", "..", "testdata", "fixtures", "xmi"}, parts...)...)
}

func extractBasic(t *testing.T) *extract.Result {
	t.Helper()
	r, err := extract.NewSession(extract.Options{}).Run(fixture("basic", "eaR", "root.xml"))
	require.NoError(t, err)
	return r
}

func sampleClass() *uml.Entity {
	e := uml.NewEntity(uml.VariantClass, uml.KindNode)
	e.GUID = "{BBBBBBBB-BBBB-BBBB-BBBB-BBBBBBBBBBBB}"
	e.Name = "Customer"
	e.Stereotypes = []string{"entity", "ArchiMate::BusinessObject"}
	e.Attributes.Set("namespace", "{AAAAAAAA-AAAA-AAAA-AAAA-AAAAAAAAAAAA}")
	e.TaggedValues.Set("documentation", `C:\docs "draft"`)
	return e
}

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Customer", "Customer"},
		{"backslash", `C:\model\root.xml`, "C:/model/root.xml"},
		{"quote", `say "hi"`, `say \"hi\"`},
		{"newline", "a\nb", "a<br>b"},
		{"crlf", "a\r\nb", "a<br>b"},
		{"tab", "a\tb", "a    b"},
		{"quote after backslash", `\"`, `/\"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in))
		})
	}
}

func TestTablePath(t *testing.T) {
	assert.Equal(t, "out/run.nodes.csv", TablePath("out/run", TableNodes))
	assert.Equal(t, "run.GUIDs.csv", TablePath("run", TableGUIDs))
}

func TestPropCells(t *testing.T) {
	cells := PropCells(sampleClass())
	assert.Equal(t, []string{
		"name|Customer",
		"UMLType|Class",
		`documentation|C:/docs \"draft\"`,
		"namespace|{AAAAAAAA-AAAA-AAAA-AAAA-AAAAAAAAAAAA}",
		"stereotype|entity",
		"stereotypes|entity,ArchiMate::BusinessObject",
	}, cells)
}

func TestWriteNodes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNodes(&buf, []*uml.Entity{sampleClass()}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "guid\tlabels\tprops", lines[0])

	cells := strings.Split(lines[1], "\t")
	assert.Equal(t, "{BBBBBBBB-BBBB-BBBB-BBBB-BBBBBBBBBBBB}", cells[0])
	assert.Equal(t, "entity:`ArchiMate::BusinessObject`:Class", cells[1])
	assert.Equal(t, "name|Customer", cells[2])
	assert.Len(t, cells, 8)
}

func TestWriteRelationships(t *testing.T) {
	rel := uml.NewEntity(uml.VariantDependency, uml.KindRelationship)
	rel.GUID = "{60000000-0000-0000-0000-000000000000}"
	rel.Stereotypes = []string{"trace"}
	rel.From = "{30000000-0000-0000-0000-000000000000}"
	rel.To = "{EEEEEEEE-EEEE-EEEE-EEEE-EEEEEEEEEEEE}"

	var buf bytes.Buffer
	require.NoError(t, WriteRelationships(&buf, []*uml.Entity{rel}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "guid\tlabels\tfrom\tto\tprops", lines[0])
	assert.Equal(t, strings.Join([]string{
		rel.GUID, "trace", rel.From, rel.To,
		"name|", "UMLType|Dependency", "stereotype|trace",
	}, "\t"), lines[1])
}

func TestWriteStubsAndStructure(t *testing.T) {
	var stubs, structure, guids bytes.Buffer
	require.NoError(t, WriteStubs(&stubs, []uml.Stub{uml.NewStub("{C}")}))
	require.NoError(t, WriteStructureRels(&structure, []uml.StructuralRelationship{{Parent: "{P}", Child: "{C}"}}))
	require.NoError(t, WriteGUIDs(&guids, []string{"EAID_1", "EAPK_2"}))

	assert.Equal(t, "guid\tlabels\tname\n{C}\tEAStub\t"+uml.StubName+"\n", stubs.String())
	assert.Equal(t, "parent\tchild\n{P}\t{C}\n", structure.String())
	assert.Equal(t, "EAID_1\nEAPK_2\n", guids.String())
}

func TestWriteTables(t *testing.T) {
	r := extractBasic(t)
	prefix := filepath.Join(t.TempDir(), "out", "basic")

	paths, err := WriteTables(prefix, r)
	require.NoError(t, err)
	assert.Equal(t, []string{
		prefix + ".nodes.csv",
		prefix + ".relationships.csv",
		prefix + ".structureRels.csv",
		prefix + ".stubs.csv",
		prefix + ".GUIDs.csv",
	}, paths)

	countLines := func(path string) int {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return strings.Count(string(data), "\n")
	}
	assert.Equal(t, 3, countLines(paths[0]), "header + 2 nodes")
	assert.Equal(t, 2, countLines(paths[1]), "header + 1 relationship")
	assert.Equal(t, 2, countLines(paths[2]), "header + 1 containment edge")
	assert.Equal(t, 2, countLines(paths[3]), "header + 1 stub")
	assert.Equal(t, 3, countLines(paths[4]), "3 raw GUIDs")

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "documentation|A paying<br>customer    of the shop   retail")
	assert.Contains(t, string(data), "author|jdoe")
}

func TestWriteTables_MatchesGolden(t *testing.T) {
	r := extractBasic(t)
	prefix := filepath.Join(t.TempDir(), "elsewhere", "basic")
	_, err := WriteTables(prefix, r)
	require.NoError(t, err)

	for _, table := range []string{TableNodes, TableRelationships, TableStructureRels, TableStubs, TableGUIDs} {
		t.Run(table, func(t *testing.T) {
			want, err := os.ReadFile(filepath.Join("..", "..", "testdata", "golden", "basic", table+".csv"))
			require.NoError(t, err)
			got, err := os.ReadFile(TablePath(prefix, table))
			require.NoError(t, err)
			assert.Equal(t, string(want), string(got))
		})
	}
}

func TestWriteTables_BadDirectory(t *testing.T) {
	r := extractBasic(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := WriteTables(filepath.Join(blocker, "run"), r)
	require.Error(t, err)
}
