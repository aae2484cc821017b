package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/xmigraph/internal/export"
	"github.com/dusk-indust/xmigraph/internal/loader"
)

func fixture(t *testing.T, parts ...string) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join(append([]string{"..", "..", "testdata", "fixtures", "xmi"}, parts...)...))
	require.NoError(t, err)
	return abs
}

// runCLI runs the command line with --dir pointing at dir and returns
// stdout.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), append([]string{"--dir", dir}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestExtract_SingleEntry(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "tables", "trunk")

	out, err := runCLI(t, dir, "extract", "--prefix", prefix, "--report", fixture(t, "basic", "eaR", "root.xml"))
	require.NoError(t, err)
	assert.Contains(t, out, "2 nodes, 1 relationships, 1 structural, 1 stubs, 0 duplicates")

	for _, table := range []string{
		export.TableNodes,
		export.TableRelationships,
		export.TableStructureRels,
		export.TableStubs,
		export.TableGUIDs,
	} {
		assert.FileExists(t, export.TablePath(prefix, table))
	}

	data, err := os.ReadFile(prefix + export.ReportSuffix)
	require.NoError(t, err)
	var report export.RunReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, 2, report.Counts.Nodes)
}

func TestExtract_SeveralEntries(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")

	_, err := runCLI(t, dir, "extract", "--out", outDir,
		fixture(t, "basic", "eaR", "root.xml"),
		fixture(t, "multi", "eaM", "main.xml"),
	)
	require.NoError(t, err)

	assert.FileExists(t, export.TablePath(filepath.Join(outDir, "root"), export.TableNodes))
	assert.FileExists(t, export.TablePath(filepath.Join(outDir, "main"), export.TableNodes))
	assert.NoFileExists(t, filepath.Join(outDir, "root"+export.ReportSuffix))
}

func TestExtract_PrefixNeedsOneEntry(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "extract", "--prefix", filepath.Join(dir, "p"),
		fixture(t, "basic", "eaR", "root.xml"),
		fixture(t, "multi", "eaM", "main.xml"),
	)
	assert.Error(t, err)
}

func TestExtract_ConfigDenylist(t *testing.T) {
	dir := t.TempDir()
	cfg := "prefix: model/trunk\nextract:\n  denyTaggedValues: [\"doc*\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xmigraph.yml"), []byte(cfg), 0o644))

	_, err := runCLI(t, dir, "extract", fixture(t, "basic", "eaR", "root.xml"))
	require.NoError(t, err)

	data, err := os.ReadFile(export.TablePath(filepath.Join(dir, "model", "trunk"), export.TableNodes))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "documentation|")
	assert.Contains(t, string(data), "name|Customer")
}

func TestExtract_MissingEntry(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "extract", "--prefix", filepath.Join(dir, "p"), filepath.Join(dir, "eaQ", "absent.xml"))
	assert.Error(t, err)
}

func TestLoad_DryRun(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "trunk")

	_, err := runCLI(t, dir, "extract", "--prefix", prefix, fixture(t, "basic", "eaR", "root.xml"))
	require.NoError(t, err)

	out, err := runCLI(t, dir, "load", "--dry-run", "--label", "release-1", prefix)
	require.NoError(t, err)
	assert.Contains(t, out, "dry run: label release-1")

	dump := loader.DumpPath(export.TablePath(prefix, export.TableNodes))
	data, err := os.ReadFile(dump)
	require.NoError(t, err)
	assert.Contains(t, string(data), "release-1")
	assert.Contains(t, string(data), "MERGE")
}

func TestLoad_MissingTables(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "load", "--dry-run", filepath.Join(dir, "nothing"))
	assert.Error(t, err)
}

func TestQuery_NoIndex(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "query", "--db", filepath.Join(dir, "missing"), "Customer")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no index found")
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "created xmigraph.yml")
	assert.Contains(t, out, "created .mcp.json")

	data, err := os.ReadFile(filepath.Join(dir, ".mcp.json"))
	require.NoError(t, err)
	var cfg mcpConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Contains(t, cfg.MCPServers, "xmigraph")

	out, err = runCLI(t, dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped xmigraph.yml")
	assert.Contains(t, out, "skipped .mcp.json")
}

func TestInit_MergesExistingMCPConfig(t *testing.T) {
	dir := t.TempDir()
	existing := `{"mcpServers": {"other": {"command": "other"}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mcp.json"), []byte(existing), 0o644))

	out, err := runCLI(t, dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "updated .mcp.json")

	data, err := os.ReadFile(filepath.Join(dir, ".mcp.json"))
	require.NoError(t, err)
	var cfg mcpConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Contains(t, cfg.MCPServers, "other")
	assert.Contains(t, cfg.MCPServers, "xmigraph")
}
