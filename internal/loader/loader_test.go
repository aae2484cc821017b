package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/xmigraph/internal/export"
	"github.com/dusk-indust/xmigraph/internal/extract"
)

// recordingExecutor captures statements and transaction boundaries.
type recordingExecutor struct {
	statements []Statement
	begins     int
	commits    int
	rollbacks  int
	failOn     int // 1-based statement index that fails; 0 never fails
}

func (r *recordingExecutor) Begin(context.Context) (Tx, error) {
	r.begins++
	return &recordingTx{exec: r}, nil
}

func (r *recordingExecutor) Close(context.Context) error { return nil }

type recordingTx struct{ exec *recordingExecutor }

func (t *recordingTx) Run(_ context.Context, st Statement) error {
	t.exec.statements = append(t.exec.statements, st)
	if t.exec.failOn == len(t.exec.statements) {
		return errors.New("constraint violated")
	}
	return nil
}

func (t *recordingTx) Commit(context.Context) error {
	t.exec.commits++
	return nil
}

func (t *recordingTx) Rollback(context.Context) error {
	t.exec.rollbacks++
	return nil
}

// writeBasicTables extracts the basic fixture and writes its tables under a
// temp directory, returning the prefix.
func writeBasicTables(t *testing.T) string {
	t.Helper()
	entry := filepath.Join("..", "..", "testdata", "fixtures", "xmi", "basic", "eaR", "root.xml")
	r, err := extract.NewSession(extract.Options{}).Run(entry)
	require.NoError(t, err)

	prefix := filepath.Join(t.TempDir(), "trunk")
	_, err = export.WriteTables(prefix, r)
	require.NoError(t, err)
	return prefix
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Options{})
	require.Error(t, err)

	_, err = New(nil, Options{Prefix: "p"})
	assert.ErrorIs(t, err, ErrNoExecutor)

	l, err := New(nil, Options{Prefix: "out/trunk", DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, "trunk", l.opts.Label)
	assert.Equal(t, DefaultBatchSize, l.opts.BatchSize)
	assert.NotEmpty(t, l.opts.RunID)
}

func TestLoader_Load(t *testing.T) {
	prefix := writeBasicTables(t)
	exec := &recordingExecutor{}

	l, err := New(exec, Options{Prefix: prefix, RunID: "run-1"})
	require.NoError(t, err)
	sum, err := l.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "trunk", sum.Label)
	assert.Equal(t, "run-1", sum.RunID)
	require.Len(t, sum.Tables, 4)
	tables := make([]string, len(sum.Tables))
	counts := make([]int, len(sum.Tables))
	for i, ts := range sum.Tables {
		tables[i] = ts.Table
		counts[i] = ts.Statements
	}
	assert.Equal(t, []string{"nodes", "stubs", "relationships", "structureRels"}, tables)
	assert.Equal(t, []int{2, 1, 1, 1}, counts)

	// One transaction per table at the default batch size.
	assert.Equal(t, 4, exec.begins)
	assert.Equal(t, 4, exec.commits)
	assert.Zero(t, exec.rollbacks)

	require.Len(t, exec.statements, 5)
	first := exec.statements[0]
	assert.Contains(t, first.Cypher, "n:Package:trunk")
	props := first.Params["props"].(map[string]any)
	assert.Equal(t, "Root", props["name"])
	assert.Equal(t, "trunk", props[PropBranch])
	assert.Equal(t, "run-1", props[PropRunID])

	customer := exec.statements[1].Params["props"].(map[string]any)
	assert.Equal(t, "A paying<br>customer    of the shop   retail", customer["documentation"])

	rel := exec.statements[3]
	assert.Contains(t, rel.Cypher, "-[r:Generalization {guid: $guid}]->")
	assert.Equal(t, "{CCCCCCCC-CCCC-CCCC-CCCC-CCCCCCCCCCCC}", rel.Params["from"])
}

func TestLoader_Batching(t *testing.T) {
	prefix := writeBasicTables(t)
	exec := &recordingExecutor{}

	l, err := New(exec, Options{Prefix: prefix, BatchSize: 1})
	require.NoError(t, err)
	sum, err := l.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Tables[0].Batches)
	assert.Equal(t, 5, exec.begins)
	assert.Equal(t, 5, exec.commits)
}

func TestLoader_RollsBackOnFailure(t *testing.T) {
	prefix := writeBasicTables(t)
	exec := &recordingExecutor{failOn: 2}

	l, err := New(exec, Options{Prefix: prefix})
	require.NoError(t, err)
	_, err = l.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constraint violated")
	assert.Equal(t, 1, exec.rollbacks)
	assert.Zero(t, exec.commits)
}

func TestLoader_DryRun(t *testing.T) {
	prefix := writeBasicTables(t)

	l, err := New(nil, Options{Prefix: prefix, DryRun: true, RunID: "run-1"})
	require.NoError(t, err)
	sum, err := l.Load(context.Background())
	require.NoError(t, err)

	nodesDump := sum.Tables[0].DumpFile
	assert.Equal(t, filepath.Join(filepath.Dir(prefix), "cypherDump.trunk.nodes.csv.tmp"), nodesDump)

	data, err := os.ReadFile(nodesDump)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "MERGE (n {guid: $guid}) ON CREATE SET n:Package:trunk"))
	assert.Contains(t, lines[0], `, {"guid":"{AAAAAAAA-AAAA-AAAA-AAAA-AAAAAAAAAAAA}","props":{`)
	assert.Contains(t, lines[1], `"documentation":"A paying<br>customer    of the shop   retail"`)

	for _, ts := range sum.Tables {
		_, err := os.Stat(ts.DumpFile)
		assert.NoError(t, err, ts.Table)
	}
}

func TestLoader_MissingTable(t *testing.T) {
	l, err := New(nil, Options{Prefix: filepath.Join(t.TempDir(), "none"), DryRun: true})
	require.NoError(t, err)
	_, err = l.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestScanTable(t *testing.T) {
	header := []string{"parent", "child"}

	var rows []row
	err := scanTable(strings.NewReader("parent\tchild\r\n{P}\t{C}\r\n\n{Q}\t{say \\\"x\\\"}\n"), header, func(r row) error {
		rows = append(rows, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, row{line: 2, cells: []string{"{P}", "{C}"}}, rows[0])
	assert.Equal(t, row{line: 4, cells: []string{"{Q}", `{say "x"}`}}, rows[1])

	err = scanTable(strings.NewReader("guid\tlabels\n"), header, func(row) error { return nil })
	assert.ErrorContains(t, err, "unexpected header")

	err = scanTable(strings.NewReader(""), header, func(row) error { return nil })
	assert.ErrorContains(t, err, "missing header")
}
