package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/xmigraph/internal/export"
	"github.com/dusk-indust/xmigraph/internal/extract"
	"github.com/dusk-indust/xmigraph/internal/graph"
)

// indexPath returns the --db flag value or the configured index path.
func (a *app) indexPath(flag string) string {
	if flag != "" {
		return flag
	}
	return a.projectPath(a.cfg.Index.Path)
}

// openExistingIndex opens the index at path and fails if none was built.
func openExistingIndex(path string) (graph.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no index found at %s\nRun 'xmigraph index ENTRY' first", path)
	}
	return openIndex(path)
}

func newIndexCmd(a *app) *cobra.Command {
	var (
		db         string
		singleFile bool
	)
	cmd := &cobra.Command{
		Use:   "index ENTRY",
		Short: "Build the local graph index from an XMI model",
		Long: `Extract the model rooted at ENTRY and write it into the embedded graph
index, replacing any previous index at the same path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := a.indexPath(db)

			opts, err := a.extractOptions(singleFile)
			if err != nil {
				return err
			}
			r, err := extract.NewSession(opts).Run(args[0])
			if err != nil {
				return err
			}

			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("remove old index: %w", err)
			}
			store, err := openIndex(path)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.InitSchema(ctx); err != nil {
				return err
			}
			if err := graph.Load(ctx, store, r); err != nil {
				return err
			}
			st, err := store.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "indexed %d elements (%d stubs), %d relationships, %d containment edges into %s\n",
				st.ElementCount, st.StubCount, st.RelationshipCount, st.ContainmentCount, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "index path (default from config)")
	cmd.Flags().BoolVar(&singleFile, "single-file", false, "do not follow package references into other files")
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	var (
		db    string
		typ   string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "query PATTERN",
		Short: "Search indexed elements by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openExistingIndex(a.indexPath(db))
			if err != nil {
				return err
			}
			defer store.Close()

			elements, err := store.QueryElements(cmd.Context(), args[0], typ, limit)
			if err != nil {
				return err
			}
			printElements(a, elements)
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "index path (default from config)")
	cmd.Flags().StringVar(&typ, "type", "", "only elements of this UML type")
	cmd.Flags().IntVar(&limit, "limit", graph.DefaultQueryLimit, "maximum number of results")
	return cmd
}

func printElements(a *app, elements []graph.ElementNode) {
	if len(elements) == 0 {
		fmt.Fprintln(a.stdout, "No matching elements.")
		return
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GUID\tTYPE\tNAME\tLABELS")
	for _, e := range elements {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.GUID, e.Type, e.Name, strings.Join(e.Labels, ":"))
	}
	tw.Flush()
}

func newDiagramCmd(a *app) *cobra.Command {
	var db string
	cmd := &cobra.Command{
		Use:   "diagram",
		Short: "Print the indexed model as a Mermaid diagram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openExistingIndex(a.indexPath(db))
			if err != nil {
				return err
			}
			defer store.Close()

			mermaid, err := export.GenerateMermaid(cmd.Context(), store)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(a.stdout, mermaid)
			return err
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "index path (default from config)")
	return cmd
}
