package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/xmigraph/internal/config"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// xmigraphMCPEntry is the MCP server configuration for the xmigraph binary.
var xmigraphMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "xmigraph",
  "args": ["serve-mcp"]
}`)

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter xmigraph.yml and register the MCP server",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return runInit(a, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

// runInit writes the starter config and the .mcp.json entry into the project
// directory.
func runInit(a *app, force bool) error {
	abs, err := filepath.Abs(a.dir)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	cfgPath := filepath.Join(abs, config.FileNames[0])
	if err := writeConfig(a, cfgPath, force); err != nil {
		return err
	}
	if err := mergeMCPConfig(a, filepath.Join(abs, ".mcp.json"), force); err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "\nSetup complete. Set XMIGRAPH_NEO4J_PASSWORD (or add it to .env) before running 'xmigraph load'.")
	return nil
}

func writeConfig(a *app, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(a.stdout, "  skipped %s (exists, use --force to overwrite)\n", filepath.Base(path))
			return nil
		}
	}
	if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(a.stdout, "  created %s\n", filepath.Base(path))
	return nil
}

// mergeMCPConfig creates or merges the xmigraph entry into .mcp.json.
func mergeMCPConfig(a *app, mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("reading %s: %w", mcpPath, err)
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["xmigraph"]; exists && !force {
		fmt.Fprintln(a.stdout, "  skipped .mcp.json xmigraph entry (exists, use --force to overwrite)")
		return nil
	}

	cfg.MCPServers["xmigraph"] = xmigraphMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(a.stdout, "  %s .mcp.json with xmigraph MCP server\n", action)
	return nil
}
