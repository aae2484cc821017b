package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad_Missing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &ProjectConfig{}, cfg)
	assert.True(t, cfg.FollowsLinks())
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xmigraph.yaml"), []byte(`
prefix: trunk
extract:
  denyAttributes: [visibility, "is*"]
  followLinks: false
  rootMarker: ModelRoot
neo4j:
  uri: bolt://graph:7687
  batchSize: 500
`), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "trunk", cfg.Prefix)
	assert.Equal(t, []string{"visibility", "is*"}, cfg.Extract.DenyAttributes)
	assert.Equal(t, "ModelRoot", cfg.Extract.RootMarker)
	assert.False(t, cfg.FollowsLinks())
	assert.Equal(t, "bolt://graph:7687", cfg.Neo4j.URI)
	assert.Equal(t, 500, cfg.Neo4j.BatchSize)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xmigraph.yml"), []byte("extract: [unclosed"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xmigraph.yml")
}

func TestResolve_EnvAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte(EnvNeo4jPassword+"=from-dotenv\n"+EnvNeo4jUser+"=dotenv-user\n"), 0o600))

	// Already-set variables win over .env.
	t.Setenv(EnvNeo4jUser, "shell-user")
	t.Setenv(EnvNeo4jPassword, "")
	require.NoError(t, os.Unsetenv(EnvNeo4jPassword))

	cfg, err := Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Neo4j.Password)
	assert.Equal(t, "shell-user", cfg.Neo4j.User)
	assert.Equal(t, DefaultNeo4jURI, cfg.Neo4j.URI)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, DefaultIndexPath, cfg.Index.Path)
}

func TestPasswordNotSerialized(t *testing.T) {
	cfg := ProjectConfig{Neo4j: Neo4jConfig{User: "neo4j", Password: "secret"}}
	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret")
}

func TestTemplateParses(t *testing.T) {
	var cfg ProjectConfig
	require.NoError(t, yaml.Unmarshal([]byte(Template), &cfg))
	assert.True(t, cfg.FollowsLinks())
	assert.Equal(t, 1000, cfg.Neo4j.BatchSize)
	assert.Equal(t, 4, cfg.Extract.Parallelism)
}
