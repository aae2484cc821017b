package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/xmigraph/internal/export"
	"github.com/dusk-indust/xmigraph/internal/extract"
)

type extractFlags struct {
	prefix     string
	outDir     string
	singleFile bool
	report     bool
}

func newExtractCmd(a *app) *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "extract ENTRY...",
		Short: "Extract XMI models into interchange tables",
		Long: `Extract one or more models. Each ENTRY is the XMI file of a top-level
package; packages it saved as stubs are followed into their own files.

Tables are written to <prefix>.<table>.csv. With a single ENTRY the prefix
is --prefix (or the configured prefix); otherwise each entry gets
<out>/<entry base name>. Several entries are extracted concurrently.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, a, f, args)
		},
	}
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "output path prefix (single entry only)")
	cmd.Flags().StringVar(&f.outDir, "out", "", "output directory for derived prefixes")
	cmd.Flags().BoolVar(&f.singleFile, "single-file", false, "do not follow package references into other files")
	cmd.Flags().BoolVar(&f.report, "report", false, "also write <prefix>.report.json")
	return cmd
}

func runExtract(cmd *cobra.Command, a *app, f extractFlags, entries []string) error {
	prefixes, err := extractPrefixes(a, f, entries)
	if err != nil {
		return err
	}

	opts, err := a.extractOptions(f.singleFile)
	if err != nil {
		return err
	}

	results, err := extract.RunAll(cmd.Context(), entries, opts, a.cfg.Extract.Parallelism)
	if err != nil {
		return err
	}

	for i, r := range results {
		tables, err := export.WriteTables(prefixes[i], r)
		if err != nil {
			return err
		}
		a.log.Info("tables written", "entry", r.Entry, "prefix", prefixes[i])

		if f.report {
			path, err := export.WriteReport(prefixes[i], r, tables)
			if err != nil {
				return err
			}
			a.log.Info("report written", "path", path)
		}

		fmt.Fprintf(a.stdout, "%s: %d nodes, %d relationships, %d structural, %d stubs, %d duplicates -> %s\n",
			r.Entry, len(r.Nodes), len(r.Relationships), len(r.StructureRels), len(r.Stubs),
			len(r.Duplicates), prefixes[i])
	}
	return nil
}

// extractOptions builds extraction options from the project config.
func (a *app) extractOptions(singleFile bool) (extract.Options, error) {
	filters, err := extract.NewFilters(a.cfg.Extract.DenyAttributes, a.cfg.Extract.DenyTaggedValues)
	if err != nil {
		return extract.Options{}, fmt.Errorf("config: %w", err)
	}
	return extract.Options{
		Filters:    filters,
		RootMarker: a.cfg.Extract.RootMarker,
		SingleFile: singleFile || !a.cfg.FollowsLinks(),
		Logger:     a.log,
	}, nil
}

// extractPrefixes picks one output prefix per entry and rejects collisions.
func extractPrefixes(a *app, f extractFlags, entries []string) ([]string, error) {
	outDir := f.outDir
	if outDir == "" {
		outDir = a.projectPath(a.cfg.OutputDir)
	}

	if len(entries) == 1 {
		switch {
		case f.prefix != "":
			return []string{f.prefix}, nil
		case a.cfg.Prefix != "":
			return []string{a.projectPath(a.cfg.Prefix)}, nil
		}
	} else if f.prefix != "" {
		return nil, errors.New("--prefix needs exactly one entry; use --out for several")
	}

	prefixes := make([]string, len(entries))
	seen := make(map[string]string, len(entries))
	for i, entry := range entries {
		base := filepath.Base(entry)
		p := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base)))
		if other, dup := seen[p]; dup {
			return nil, fmt.Errorf("entries %s and %s would both write %s", other, entry, p)
		}
		seen[p] = entry
		prefixes[i] = p
	}
	return prefixes, nil
}
