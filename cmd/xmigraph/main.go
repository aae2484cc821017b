package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/xmigraph/internal/config"
	"github.com/dusk-indust/xmigraph/internal/logging"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// app carries state shared by every subcommand. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	dir     string
	verbose bool

	cfg    *config.ProjectConfig
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "xmigraph",
		Short: "Extract Enterprise Architect XMI models into a graph",
		Long: `xmigraph walks Enterprise Architect XMI 1.1 exports, following package
references across files, and flattens the model into tab-separated node,
relationship, containment and stub tables. The tables can be loaded into
Neo4j, or the model indexed locally and queried over MCP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.dir, "dir", ".", "project directory holding xmigraph.yml and .env")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newExtractCmd(a),
		newLoadCmd(a),
		newIndexCmd(a),
		newQueryCmd(a),
		newDiagramCmd(a),
		newServeMCPCmd(a),
		newInitCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup resolves the project config and installs the logger.
func (a *app) setup() error {
	cfg, err := config.Resolve(a.dir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := logging.ParseLevel(cfg.LogLevel)
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = logging.New(a.stderr, level)
	return nil
}

// projectPath resolves p against the project directory unless it is absolute.
func (a *app) projectPath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.dir, p)
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := fmt.Fprintln(a.stdout, version)
			return err
		},
	}
}
