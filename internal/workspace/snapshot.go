package workspace

import (
	"github.com/google/uuid"

	domainerrors "github.com/mohammed-j-mahmoud/syster/internal/core/errors"
	"github.com/mohammed-j-mahmoud/syster/internal/diag"
	"github.com/mohammed-j-mahmoud/syster/internal/graph"
	"github.com/mohammed-j-mahmoud/syster/internal/observability"
	"github.com/mohammed-j-mahmoud/syster/internal/resolver"
	"github.com/mohammed-j-mahmoud/syster/internal/symbols"
)

// Snapshot is a read-only view of the model scoped to one generation. The
// table and graphs it holds are swapped wholesale on repopulation, so a
// snapshot stays internally consistent even after it goes stale; queries
// refuse to answer once the workspace has moved on, so results computed
// against retracted state are discarded rather than published.
type Snapshot struct {
	ID         uuid.UUID
	Generation uint64

	ws    *Workspace
	table *symbols.Table
	graph *graph.Graph
	diags map[string][]diag.Diagnostic
}

// Snapshot captures the current generation's view.
func (w *Workspace) Snapshot() *Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	diags := make(map[string][]diag.Diagnostic, len(w.files))
	for path, f := range w.files {
		diags[path] = append([]diag.Diagnostic(nil), f.Diags...)
	}
	return &Snapshot{
		ID:         uuid.New(),
		Generation: w.generation.Load(),
		ws:         w,
		table:      w.table,
		graph:      w.graph,
		diags:      diags,
	}
}

// Stale reports whether the workspace has advanced past this snapshot.
func (s *Snapshot) Stale() bool {
	return s.ws.generation.Load() != s.Generation
}

func (s *Snapshot) guard() error {
	if s.Stale() {
		observability.StaleSnapshotsDropped.Inc()
		s.ws.logger.Debug("stale snapshot query refused",
			"snapshot", s.ID,
			"snapshot_generation", s.Generation,
			"current_generation", s.ws.generation.Load(),
		)
		return &domainerrors.DomainError{
			Code:    domainerrors.CodeStale,
			Message: "snapshot superseded",
			Context: map[string]interface{}{domainerrors.CtxGeneration: s.Generation},
		}
	}
	return nil
}

// IsStale reports whether an error came from querying a superseded
// snapshot.
func IsStale(err error) bool {
	return domainerrors.IsCode(err, domainerrors.CodeStale)
}

// LookupQualified finds a symbol by its exact qualified name.
func (s *Snapshot) LookupQualified(name string) (*symbols.Symbol, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	sym, ok := s.table.LookupQualified(name)
	if !ok {
		return nil, &domainerrors.DomainError{
			Code:    domainerrors.CodeNotFound,
			Message: "no symbol " + name,
		}
	}
	return sym, nil
}

// LookupSimple resolves a bare name as seen from a position in a file: the
// scope of the nearest enclosing declaration at or before that line.
func (s *Snapshot) LookupSimple(name, file string, line int) (*symbols.Symbol, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return resolver.New(s.table).Resolve(name, s.scopeAt(file, line))
}

// scopeAt approximates the scope a position sits in: the scope owned by
// the last scope-owning symbol declared in the file at or before the line.
func (s *Snapshot) scopeAt(file string, line int) int {
	best := s.table.RootScope()
	for _, sym := range s.table.SymbolsInFile(file) {
		if sym.Span.Start.Line > line {
			continue
		}
		if id, ok := s.table.ScopeByOwner(sym.QualifiedName); ok {
			best = id
		}
	}
	return best
}

// SymbolsInFile lists a file's declarations in source order.
func (s *Snapshot) SymbolsInFile(file string) ([]*symbols.Symbol, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.table.SymbolsInFile(file), nil
}

// AllSymbols lists every declaration in stable insertion order.
func (s *Snapshot) AllSymbols() ([]*symbols.Symbol, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.table.AllSymbols(), nil
}

// Diagnostics returns the diagnostics recorded against one file.
func (s *Snapshot) Diagnostics(file string) ([]diag.Diagnostic, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.diags[file], nil
}

// AllDiagnostics returns every diagnostic keyed by file.
func (s *Snapshot) AllDiagnostics() (map[string][]diag.Diagnostic, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.diags, nil
}

// SpecializationsOf returns the direct specialization targets of a name.
func (s *Snapshot) SpecializationsOf(name string) ([]string, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.graph.SpecializationsOf(name), nil
}

// IsSpecialization reports whether a transitively specializes b.
func (s *Snapshot) IsSpecialization(a, b string) (bool, error) {
	if err := s.guard(); err != nil {
		return false, err
	}
	return s.graph.IsSpecialization(a, b), nil
}

// SatisfactionsOf returns the symbols that satisfy a requirement.
func (s *Snapshot) SatisfactionsOf(requirement string) ([]string, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.graph.SatisfactionsOf(requirement), nil
}

// Edges returns the edges of one relationship kind.
func (s *Snapshot) Edges(kind graph.Kind) ([]graph.Edge, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.graph.Edges(kind), nil
}
