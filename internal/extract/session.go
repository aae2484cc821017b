// Package extract walks XMI model exports and flattens them into typed
// nodes, relationships, derived containment edges and placeholder stubs.
package extract

import (
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/xmigraph/internal/uml"
)

// DefaultRootMarker is the name of the synthetic class EA writes into every
// exported file. Elements with this name are never extracted.
const DefaultRootMarker = "EARootClass"

// Options configures an extraction session.
type Options struct {
	// Filters holds the attribute and tagged-value denylists.
	// Nil means DefaultFilters().
	Filters *Filters

	// RootMarker overrides DefaultRootMarker.
	RootMarker string

	// SingleFile processes only the entry file and does not follow
	// stub-package references into other files.
	SingleFile bool

	// Logger receives progress and diagnostic output. Nil discards it.
	Logger *slog.Logger
}

// Result holds everything one run produced.
type Result struct {
	Entry    string
	RootGUID string

	Nodes         []*uml.Entity
	Relationships []*uml.Entity
	StructureRels []uml.StructuralRelationship
	Stubs         []uml.Stub

	// RawGUIDs lists retained raw identifiers in traversal order.
	RawGUIDs []string
	// Duplicates lists raw identifiers discarded because already seen.
	Duplicates []string
	// SkippedTags lists each unrecognized owned-element tag once.
	SkippedTags []string
	// Skipped lists element-local skip reasons.
	Skipped []string
	// Files lists processed files in processing order.
	Files []string
	// NonCanonical lists retained identifiers and relationship endpoints
	// that did not rewrite to a brace-dashed GUID, once each.
	NonCanonical []string
}

// Session holds the cross-file state of one extraction run. A Session is not
// safe for concurrent use; RunAll runs independent sessions in parallel.
type Session struct {
	filters    *Filters
	rootMarker string
	singleFile bool
	log        *slog.Logger

	// baseDir is the controlled-package root that queued names resolve against.
	baseDir  string
	queue    []string
	enqueued map[string]bool
	rawSeen  map[string]bool
	skipTags map[string]bool

	// guidSeen holds the canonical GUIDs of retained entities. Duplicates
	// are decided on raw identifiers; guidSeen only flags collisions.
	guidSeen     map[string]bool
	nonCanonical map[string]bool

	result *Result
}

// NewSession returns a session configured by opts.
func NewSession(opts Options) *Session {
	s := &Session{
		filters:    opts.Filters,
		rootMarker: opts.RootMarker,
		singleFile: opts.SingleFile,
		log:        opts.Logger,
	}
	if s.filters == nil {
		s.filters = DefaultFilters()
	}
	if s.rootMarker == "" {
		s.rootMarker = DefaultRootMarker
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	s.Reset()
	return s
}

// Reset clears all state left over from a previous run.
func (s *Session) Reset() {
	s.baseDir = ""
	s.queue = nil
	s.enqueued = make(map[string]bool)
	s.rawSeen = make(map[string]bool)
	s.guidSeen = make(map[string]bool)
	s.nonCanonical = make(map[string]bool)
	s.skipTags = make(map[string]bool)
	s.result = &Result{}
}

// Run extracts the model rooted at entry. Unless SingleFile is set, the queue
// is seeded with the entry's companion name (its directory and base name,
// resolved against the parent of the entry's directory) and every file named
// by a stub package is processed once, in enqueue order. The derivation
// passes run after the queue drains.
func (s *Session) Run(entry string) (*Result, error) {
	s.Reset()
	s.result.Entry = entry

	if s.singleFile {
		s.log.Info("extracting single file", "file", entry)
		if err := s.processFile(entry); err != nil {
			return nil, err
		}
	} else {
		abs, err := filepath.Abs(entry)
		if err != nil {
			return nil, fileErr(entry, fmt.Errorf("%w: %v", ErrNotAFile, err))
		}
		dir := filepath.Dir(abs)
		s.baseDir = filepath.Dir(dir)
		s.log.Info("extracting model", "entry", entry, "root", s.baseDir)
		s.enqueue(filepath.Base(dir) + "/" + filepath.Base(abs))

		for len(s.queue) > 0 {
			next := s.queue[0]
			s.queue = s.queue[1:]
			s.log.Debug("files waiting", "count", len(s.queue)+1)
			if err := s.processFile(filepath.Join(s.baseDir, filepath.FromSlash(next))); err != nil {
				return nil, err
			}
		}
	}

	s.deriveStructure()
	s.generateStubs()

	r := s.result
	s.log.Info("extraction finished",
		"files", len(r.Files),
		"nodes", len(r.Nodes),
		"relationships", len(r.Relationships),
		"structureRels", len(r.StructureRels),
		"stubs", len(r.Stubs),
		"duplicates", len(r.Duplicates),
	)
	return r, nil
}

// enqueue appends name to the pending queue unless it was ever enqueued in
// this run. Backslash separators are normalized.
func (s *Session) enqueue(name string) {
	name = path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if s.enqueued[name] {
		return
	}
	s.enqueued[name] = true
	s.queue = append(s.queue, name)
	s.log.Debug("queued file", "file", name)
}

// register stores a populated entity unless it is the root marker, a stub,
// or a duplicate of an already retained identifier.
func (s *Session) register(e *uml.Entity) error {
	if e.Name == s.rootMarker {
		s.log.Debug("skipping root marker", "guid", uml.ShortGUID(e.GUID))
		return nil
	}
	if e.IsStub {
		s.log.Info("package saved as stub, not storing", "guid", uml.ShortGUID(e.GUID), "name", e.Name)
		return nil
	}
	if s.rawSeen[e.RawGUID] {
		s.log.Warn("duplicate identifier", "variant", e.Variant, "guid", e.RawGUID)
		s.result.Duplicates = append(s.result.Duplicates, e.RawGUID)
		return nil
	}

	switch {
	case e.Kind == uml.KindNode:
		s.result.Nodes = append(s.result.Nodes, e)
	case e.IsRelationship():
		s.result.Relationships = append(s.result.Relationships, e)
		s.checkCanonical(e.From, e.RawGUID)
		s.checkCanonical(e.To, e.RawGUID)
	default:
		return fmt.Errorf("extract: %w %q for %s", ErrUnknownKind, e.Kind, e.RawGUID)
	}
	if s.guidSeen[e.GUID] {
		s.log.Warn("distinct identifiers share a GUID", "guid", e.GUID, "raw", e.RawGUID)
	}
	s.rawSeen[e.RawGUID] = true
	s.guidSeen[e.GUID] = true
	s.result.RawGUIDs = append(s.result.RawGUIDs, e.RawGUID)
	s.checkCanonical(e.GUID, e.RawGUID)
	return nil
}

// checkCanonical records guid when it is not a well-formed GUID. Such
// identifiers still pass through unchanged.
func (s *Session) checkCanonical(guid, owner string) {
	if uml.IsCanonicalGUID(guid) || s.nonCanonical[guid] {
		return
	}
	s.nonCanonical[guid] = true
	s.log.Warn("identifier is not a GUID", "id", guid, "element", owner)
	s.result.NonCanonical = append(s.result.NonCanonical, guid)
}

func (s *Session) noteSkippedTag(tag string) {
	if s.skipTags[tag] {
		return
	}
	s.skipTags[tag] = true
	s.result.SkippedTags = append(s.result.SkippedTags, tag)
}
