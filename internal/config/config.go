// Package config loads project settings from xmigraph.yml and connection
// secrets from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileNames are the config files looked up, in order.
var FileNames = []string{"xmigraph.yml", "xmigraph.yaml"}

// Environment variables read by ApplyEnv.
const (
	EnvNeo4jURI      = "XMIGRAPH_NEO4J_URI"
	EnvNeo4jUser     = "XMIGRAPH_NEO4J_USER"
	EnvNeo4jPassword = "XMIGRAPH_NEO4J_PASSWORD"
	EnvNeo4jDatabase = "XMIGRAPH_NEO4J_DATABASE"
)

// Defaults applied by WithDefaults.
const (
	DefaultOutputDir = "out"
	DefaultIndexPath = ".xmigraph/index"
	DefaultNeo4jURI  = "bolt://localhost:7687"
	DefaultNeo4jUser = "neo4j"
)

// ProjectConfig holds project-level settings loaded from xmigraph.yml.
type ProjectConfig struct {
	OutputDir string `yaml:"outputDir,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	LogLevel  string `yaml:"logLevel,omitempty"`

	Extract ExtractConfig `yaml:"extract,omitempty"`
	Index   IndexConfig   `yaml:"index,omitempty"`
	Neo4j   Neo4jConfig   `yaml:"neo4j,omitempty"`
}

// ExtractConfig tunes extraction.
type ExtractConfig struct {
	// DenyAttributes and DenyTaggedValues extend the built-in denylists.
	// Entries may be glob patterns.
	DenyAttributes   []string `yaml:"denyAttributes,omitempty"`
	DenyTaggedValues []string `yaml:"denyTaggedValues,omitempty"`
	RootMarker       string   `yaml:"rootMarker,omitempty"`
	// FollowLinks nil means true.
	FollowLinks *bool `yaml:"followLinks,omitempty"`
	Parallelism int   `yaml:"parallelism,omitempty"`
}

// IndexConfig locates the embedded graph index.
type IndexConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Neo4jConfig holds loader connection settings. Password is never read from
// the config file.
type Neo4jConfig struct {
	URI       string `yaml:"uri,omitempty"`
	User      string `yaml:"user,omitempty"`
	Password  string `yaml:"-"`
	Database  string `yaml:"database,omitempty"`
	BatchSize int    `yaml:"batchSize,omitempty"`
	Label     string `yaml:"label,omitempty"`
}

// FollowsLinks reports whether stub packages are followed into other files.
func (c *ProjectConfig) FollowsLinks() bool {
	return c.Extract.FollowLinks == nil || *c.Extract.FollowLinks
}

// Load attempts to read xmigraph.yml or xmigraph.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// LoadDotEnv loads dir/.env into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays Neo4j connection settings from the environment.
func (c *ProjectConfig) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvNeo4jURI)); v != "" {
		c.Neo4j.URI = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvNeo4jUser)); v != "" {
		c.Neo4j.User = v
	}
	if v := os.Getenv(EnvNeo4jPassword); v != "" {
		c.Neo4j.Password = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvNeo4jDatabase)); v != "" {
		c.Neo4j.Database = v
	}
}

// WithDefaults fills unset fields with defaults.
func (c *ProjectConfig) WithDefaults() *ProjectConfig {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.Index.Path == "" {
		c.Index.Path = DefaultIndexPath
	}
	if c.Neo4j.URI == "" {
		c.Neo4j.URI = DefaultNeo4jURI
	}
	if c.Neo4j.User == "" {
		c.Neo4j.User = DefaultNeo4jUser
	}
	return c
}

// Resolve loads the config file and .env from dir, applies the environment,
// then defaults.
func Resolve(dir string) (*ProjectConfig, error) {
	cfg, err := Load(dir)
	if err != nil {
		return nil, err
	}
	if err := LoadDotEnv(dir); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg.WithDefaults(), nil
}

// Template is the starter config written by `xmigraph init`.
const Template = `# xmigraph project settings
outputDir: out
# prefix: trunk
logLevel: info

extract:
  # Extra attribute / tagged-value keys to drop. Glob patterns are allowed.
  denyAttributes: []
  denyTaggedValues: []
  # rootMarker: EARootClass
  followLinks: true
  parallelism: 4

index:
  path: .xmigraph/index

neo4j:
  uri: bolt://localhost:7687
  user: neo4j
  # database: neo4j
  batchSize: 1000
  # The password is read from XMIGRAPH_NEO4J_PASSWORD (or .env).
`
