// Package workspace coordinates the semantic model across files: it owns
// the symbol table and relationship graphs, orders population, reruns the
// pipeline on edits and hands out generation-scoped snapshots to readers.
package workspace

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/minio/highwayhash"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mohammed-j-mahmoud/syster/internal/analyzer"
	domainerrors "github.com/mohammed-j-mahmoud/syster/internal/core/errors"
	"github.com/mohammed-j-mahmoud/syster/internal/diag"
	"github.com/mohammed-j-mahmoud/syster/internal/graph"
	"github.com/mohammed-j-mahmoud/syster/internal/observability"
	"github.com/mohammed-j-mahmoud/syster/internal/parser"
	"github.com/mohammed-j-mahmoud/syster/internal/populator"
	"github.com/mohammed-j-mahmoud/syster/internal/resolver"
	"github.com/mohammed-j-mahmoud/syster/internal/symbols"
	"github.com/mohammed-j-mahmoud/syster/internal/syntax"
)

// FileState tracks where a file is in the pipeline.
type FileState int

const (
	StateUnloaded FileState = iota
	StateParsed
	StatePopulated
	StateValidated
)

func (s FileState) String() string {
	switch s {
	case StateParsed:
		return "parsed"
	case StatePopulated:
		return "populated"
	case StateValidated:
		return "validated"
	default:
		return "unloaded"
	}
}

// File is one loaded source file with its syntax tree and diagnostics.
type File struct {
	Path      string
	Tree      *syntax.File
	State     FileState
	Version   int
	Hash      uint64
	IsLibrary bool

	// parseDiags persist across repopulation; Diags is rebuilt each cycle
	// from parseDiags plus the population and analysis findings.
	parseDiags []diag.Diagnostic
	Diags      []diag.Diagnostic
}

// hashKey is fixed: the hash only guards against re-analyzing identical
// content, it carries no security meaning.
var hashKey = make([]byte, 32)

// Workspace is the single writer over the semantic model. Mutations are
// serialized by the mutex; the generation counter is bumped before the
// lock is taken so an in-flight population can observe that it has been
// superseded and unwind.
type Workspace struct {
	mu     sync.Mutex
	files  map[string]*File
	table  *symbols.Table
	graph  *graph.Graph
	parser *parser.Parser
	logger *slog.Logger

	// fileDeps maps each file to the files it imports from or points
	// relationships at, rebuilt on every population.
	fileDeps map[string]map[string]bool

	generation atomic.Uint64
}

func New(logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{
		files:    make(map[string]*File),
		table:    symbols.NewTable(),
		graph:    graph.New(),
		parser:   parser.New(),
		logger:   logger,
		fileDeps: make(map[string]map[string]bool),
	}
}

// Generation returns the current model generation.
func (w *Workspace) Generation() uint64 { return w.generation.Load() }

// AddFile parses and registers a file, then repopulates the whole model.
// A population superseded by a newer edit returns a cancellation error;
// the next trigger redoes the work wholesale.
func (w *Workspace) AddFile(path, content string) error {
	return w.upsert(path, content, false)
}

// UpdateFile replaces a file's content. An edit whose content hash matches
// the loaded version is skipped without touching the model.
func (w *Workspace) UpdateFile(path, content string) error {
	w.mu.Lock()
	if f, ok := w.files[path]; ok && f.Hash == hashContent(content) {
		w.mu.Unlock()
		observability.UnchangedEditsSkipped.Inc()
		w.logger.Debug("content unchanged, skipping", "path", path)
		return nil
	}
	w.mu.Unlock()
	return w.upsert(path, content, false)
}

func (w *Workspace) upsert(path, content string, library bool) error {
	start := time.Now()
	tree, parseDiags := w.parser.Parse(path, content)
	observability.ParsingDuration.Observe(time.Since(start).Seconds())

	w.generation.Add(1)
	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.files[path]
	if !ok {
		f = &File{Path: path, IsLibrary: library}
		w.files[path] = f
	}
	f.Tree = tree
	f.State = StateParsed
	f.Version++
	f.Hash = hashContent(content)
	f.parseDiags = parseDiags
	f.Diags = append([]diag.Diagnostic(nil), parseDiags...)

	return w.populateLocked()
}

// SeedLibrary loads the standard library files in one population cycle,
// before any project file.
func (w *Workspace) SeedLibrary(files map[string]string) error {
	w.generation.Add(1)
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, content := range files {
		tree, parseDiags := w.parser.Parse(path, content)
		f := &File{Path: path, IsLibrary: true, Version: 1, State: StateParsed}
		f.Tree = tree
		f.Hash = hashContent(content)
		f.parseDiags = parseDiags
		f.Diags = append([]diag.Diagnostic(nil), parseDiags...)
		w.files[path] = f
	}
	return w.populateLocked()
}

// RemoveFile retracts a file and repopulates the model without it.
// Removing an unknown path is a no-op that leaves the generation alone.
func (w *Workspace) RemoveFile(path string) error {
	w.mu.Lock()
	_, ok := w.files[path]
	w.mu.Unlock()
	if !ok {
		return nil
	}

	w.generation.Add(1)
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; !ok {
		return nil
	}
	delete(w.files, path)
	return w.populateLocked()
}

// PopulateAll rebuilds the semantic model from every loaded file.
func (w *Workspace) PopulateAll() error {
	w.generation.Add(1)
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.populateLocked()
}

// populateLocked rebuilds the table and graphs from scratch. Population is
// best-effort across the file set: a file's own failures land in its
// diagnostics and never block siblings. On cancellation the partially
// built model is dropped and the previous generation's state stays live.
func (w *Workspace) populateLocked() error {
	gen := w.generation.Load()
	cancelled := func() bool { return w.generation.Load() != gen }
	start := time.Now()

	_, span := observability.Tracer.Start(context.Background(), "workspace.populate",
		trace.WithAttributes(attribute.Int64("generation", int64(gen)), attribute.Int("files", len(w.files))))
	defer span.End()

	table := symbols.NewTable()
	g := graph.New()
	pop := populator.New(table)

	var directives []resolver.Directive
	var refs []populator.PendingRef
	var hints []populator.FlagHint
	perFile := make(map[string][]diag.Diagnostic)

	for _, f := range w.orderedFiles() {
		if cancelled() {
			return w.abandon(gen)
		}
		res := pop.PopulateFile(f.Tree)
		perFile[f.Path] = append(perFile[f.Path], res.Diagnostics...)
		directives = append(directives, res.Directives...)
		refs = append(refs, res.Refs...)
		hints = append(hints, res.Hints...)
	}

	importDiags, err := resolver.NewImportResolver(table).Run(directives, cancelled)
	if err != nil {
		return w.abandon(gen)
	}

	analysisDiags, err := analyzer.New(table, g).Analyze(refs, hints, cancelled)
	if err != nil {
		return w.abandon(gen)
	}

	// States advance only once the cycle can no longer be abandoned, so a
	// superseded population never leaves files half-marked.
	for _, f := range w.files {
		f.State = StatePopulated
	}

	for _, d := range append(importDiags, analysisDiags...) {
		perFile[d.File] = append(perFile[d.File], d)
	}

	// Swap in the fresh model.
	w.table = table
	w.graph = g
	w.fileDeps = buildFileDeps(table, g, directives)
	total := 0
	for _, f := range w.files {
		f.Diags = append(append([]diag.Diagnostic(nil), f.parseDiags...), perFile[f.Path]...)
		f.State = StateValidated
		total += len(f.Diags)
		for _, d := range f.Diags {
			observability.DiagnosticsTotal.WithLabelValues(string(d.Kind)).Inc()
		}
	}

	observability.PopulationDuration.Observe(time.Since(start).Seconds())
	observability.SymbolsTotal.Set(float64(len(table.AllSymbols())))
	observability.RelationshipEdges.Set(float64(g.EdgeCount()))

	w.logger.Info("population complete",
		"generation", gen,
		"files", len(w.files),
		"symbols", len(table.AllSymbols()),
		"edges", g.EdgeCount(),
		"diagnostics", total,
	)
	return nil
}

func (w *Workspace) abandon(gen uint64) error {
	observability.PopulationsCancelled.Inc()
	w.logger.Debug("population superseded", "generation", gen)
	return &domainerrors.DomainError{
		Code:    domainerrors.CodeCancelled,
		Message: "population superseded by a newer edit",
		Context: map[string]interface{}{domainerrors.CtxGeneration: gen},
	}
}

// buildFileDeps derives file-to-file dependency edges from resolved import
// directives and relationship targets. Population is wholesale, so the
// edges serve impact queries rather than a partial-rebuild scheduler.
func buildFileDeps(table *symbols.Table, g *graph.Graph, directives []resolver.Directive) map[string]map[string]bool {
	deps := make(map[string]map[string]bool)
	add := func(from, to string) {
		if from == "" || to == "" || from == to {
			return
		}
		if deps[from] == nil {
			deps[from] = make(map[string]bool)
		}
		deps[from][to] = true
	}

	res := resolver.New(table)
	for _, d := range directives {
		if sym, err := res.Resolve(d.Target, d.ScopeID); err == nil {
			add(d.File, sym.SourceFile)
		}
	}
	for _, k := range graph.Kinds {
		for _, e := range g.Edges(k) {
			if target, ok := table.LookupQualified(e.To); ok {
				add(e.File, target.SourceFile)
			}
		}
	}
	return deps
}

// DependentsOf returns every file that transitively depends on path,
// sorted by path. An edit to path invalidates these files; they pick up
// the change on the population cycle the edit already triggered.
func (w *Workspace) DependentsOf(path string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	seen := make(map[string]bool)
	queue := []string{path}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for from, targets := range w.fileDeps {
			if targets[cur] && !seen[from] {
				seen[from] = true
				queue = append(queue, from)
			}
		}
	}
	delete(seen, path)

	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// orderedFiles returns library files first, then project files, each group
// sorted by path so population order is deterministic.
func (w *Workspace) orderedFiles() []*File {
	out := make([]*File, 0, len(w.files))
	for _, f := range w.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsLibrary != out[j].IsLibrary {
			return out[i].IsLibrary
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Files returns the loaded paths, library files first.
func (w *Workspace) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for _, f := range w.orderedFiles() {
		out = append(out, f.Path)
	}
	return out
}

// Health implements the observability health source.
func (w *Workspace) Health() observability.HealthStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return observability.HealthStatus{
		Status:     "up",
		Generation: w.generation.Load(),
		Files:      len(w.files),
		Symbols:    len(w.table.AllSymbols()),
	}
}

func hashContent(content string) uint64 {
	return highwayhash.Sum64([]byte(content), hashKey)
}
