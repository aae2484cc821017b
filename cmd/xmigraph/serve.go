package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/xmigraph/internal/graph"
	"github.com/dusk-indust/xmigraph/internal/mcptools"
)

func newServeMCPCmd(a *app) *cobra.Command {
	var (
		addr string
		db   string
	)
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the model tools over MCP",
		Long: `Serve the extract and query tools over the Model Context Protocol.

By default the server speaks MCP on stdin/stdout. With --http it serves the
streamable HTTP transport on ADDR instead. The graph lives in memory unless
--db names a Kuzu index, which is then opened and kept up to date by
extract_model.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var store graph.Store = graph.NewMemStore()
			if db != "" {
				s, err := openIndex(db)
				if err != nil {
					return err
				}
				if err := s.InitSchema(cmd.Context()); err != nil {
					s.Close()
					return err
				}
				store = s
			}
			defer store.Close()

			opts, err := a.extractOptions(false)
			if err != nil {
				return err
			}
			svc := mcptools.NewModelService(store, opts)

			if addr != "" {
				a.log.Info("serving MCP over HTTP", "addr", addr)
				return mcptools.RunMCPServer(cmd.Context(), svc, addr)
			}
			return mcptools.RunMCPServerStdio(cmd.Context(), svc)
		},
	}
	cmd.Flags().StringVar(&addr, "http", "", "serve streamable HTTP on this address instead of stdio")
	cmd.Flags().StringVar(&db, "db", "", "persist the graph in the Kuzu index at this path")
	return cmd
}
