// Package loader reads the interchange tables of an extraction run and
// merges them into a Neo4j database in fixed-size transactions.
package loader

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dusk-indust/xmigraph/internal/export"
)

// DefaultBatchSize is the number of statements per transaction.
const DefaultBatchSize = 1000

// ErrNoExecutor is returned when a non-dry run has no executor.
var ErrNoExecutor = errors.New("loader: executor required unless dry run")

// Options configures a load.
type Options struct {
	// Prefix locates the tables: <Prefix>.<table>.csv.
	Prefix string

	// Label tags every loaded node and is stored as __svn_branch.
	// Empty means the base name of Prefix.
	Label string

	// BatchSize overrides DefaultBatchSize.
	BatchSize int

	// DryRun renders statements to cypherDump.<table file>.tmp beside each
	// table instead of executing them.
	DryRun bool

	// RunID is stamped on every entity as __load_run. Empty generates one.
	RunID string

	// Logger receives progress output. Nil discards it.
	Logger *slog.Logger
}

// TableSummary reports one processed table.
type TableSummary struct {
	Table      string `json:"table"`
	File       string `json:"file"`
	Statements int    `json:"statements"`
	Batches    int    `json:"batches"`
	DumpFile   string `json:"dumpFile,omitempty"`
}

// Summary reports a finished load.
type Summary struct {
	RunID  string         `json:"runId"`
	Label  string         `json:"label"`
	DryRun bool           `json:"dryRun"`
	Tables []TableSummary `json:"tables"`
}

// tableSpec binds a table to its header and statement builder.
type tableSpec struct {
	table  string
	header []string
	build  func(builder, row) (Statement, error)
}

// tableOrder lists tables in load order: nodes before anything that MATCHes
// them.
var tableOrder = []tableSpec{
	{export.TableNodes, export.NodesHeader, builder.node},
	{export.TableStubs, export.StubsHeader, builder.stub},
	{export.TableRelationships, export.RelationshipsHeader, builder.relationship},
	{export.TableStructureRels, export.StructureRelsHeader, builder.structure},
}

// Loader loads one run's tables.
type Loader struct {
	exec  Executor
	opts  Options
	build builder
	log   *slog.Logger
}

// New returns a loader. exec may be nil for a dry run.
func New(exec Executor, opts Options) (*Loader, error) {
	if opts.Prefix == "" {
		return nil, errors.New("loader: prefix required")
	}
	if exec == nil && !opts.DryRun {
		return nil, ErrNoExecutor
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Label == "" {
		opts.Label = filepath.Base(opts.Prefix)
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		exec:  exec,
		opts:  opts,
		build: builder{label: opts.Label, runID: opts.RunID},
		log:   log,
	}, nil
}

// Load processes every table in order and stops at the first error. Batches
// committed before the error stay committed.
func (l *Loader) Load(ctx context.Context) (*Summary, error) {
	sum := &Summary{RunID: l.opts.RunID, Label: l.opts.Label, DryRun: l.opts.DryRun}
	for _, spec := range tableOrder {
		ts, err := l.loadTable(ctx, spec)
		if err != nil {
			return sum, err
		}
		sum.Tables = append(sum.Tables, *ts)
	}
	return sum, nil
}

func (l *Loader) loadTable(ctx context.Context, spec tableSpec) (*TableSummary, error) {
	path := export.TablePath(l.opts.Prefix, spec.table)
	ts := &TableSummary{Table: spec.table, File: path}
	l.log.Info("loading table", "file", path, "dryRun", l.opts.DryRun)

	var sink statementSink
	if l.opts.DryRun {
		ts.DumpFile = DumpPath(path)
		d, err := newDumpSink(ts.DumpFile)
		if err != nil {
			return nil, err
		}
		sink = d
	} else {
		sink = &txSink{exec: l.exec}
	}

	err := readTable(path, spec.header, func(r row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		st, err := spec.build(l.build, r)
		if err != nil {
			return err
		}
		if err := sink.add(ctx, st); err != nil {
			return err
		}
		ts.Statements++
		if ts.Statements%l.opts.BatchSize == 0 {
			ts.Batches++
			l.log.Debug("committing batch", "file", path, "statements", ts.Statements)
			return sink.flush(ctx)
		}
		return nil
	})
	if err != nil {
		_ = sink.abort(ctx)
		return nil, err
	}
	if ts.Statements%l.opts.BatchSize != 0 {
		ts.Batches++
	}
	if err := sink.flush(ctx); err != nil {
		return nil, err
	}
	if err := sink.close(); err != nil {
		return nil, err
	}
	l.log.Info("table loaded", "file", path, "statements", ts.Statements, "batches", ts.Batches)
	return ts, nil
}

// DumpPath returns the dry-run dump file for a table file.
func DumpPath(tablePath string) string {
	return filepath.Join(filepath.Dir(tablePath), "cypherDump."+filepath.Base(tablePath)+".tmp")
}

// statementSink receives the statements of one table.
type statementSink interface {
	add(ctx context.Context, st Statement) error
	flush(ctx context.Context) error // end the current batch
	abort(ctx context.Context) error
	close() error
}

// txSink runs statements in lazily opened transactions.
type txSink struct {
	exec Executor
	tx   Tx
}

func (s *txSink) add(ctx context.Context, st Statement) error {
	if s.tx == nil {
		tx, err := s.exec.Begin(ctx)
		if err != nil {
			return err
		}
		s.tx = tx
	}
	return s.tx.Run(ctx, st)
}

func (s *txSink) flush(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	return tx.Commit(ctx)
}

func (s *txSink) abort(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	return tx.Rollback(ctx)
}

func (s *txSink) close() error { return nil }

// dumpSink renders statements as "cypher, params" lines.
type dumpSink struct {
	f   *os.File
	w   *bufio.Writer
	enc *json.Encoder
}

func newDumpSink(path string) (*dumpSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &dumpSink{f: f, w: w, enc: enc}, nil
}

func (d *dumpSink) add(_ context.Context, st Statement) error {
	if _, err := fmt.Fprintf(d.w, "%s, ", st.Cypher); err != nil {
		return err
	}
	if err := d.enc.Encode(st.Params); err != nil {
		return fmt.Errorf("loader: render params: %w", err)
	}
	return nil
}

func (d *dumpSink) flush(context.Context) error { return d.w.Flush() }

func (d *dumpSink) abort(context.Context) error { return d.close() }

func (d *dumpSink) close() error {
	if err := d.w.Flush(); err != nil {
		d.f.Close()
		return err
	}
	return d.f.Close()
}
