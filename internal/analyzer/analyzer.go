// Package analyzer runs the validation passes over a populated model.
// Every pass collects diagnostics instead of aborting: a cycle or a
// dangling reference marks the symbols involved and leaves the rest of
// the model queryable.
package analyzer

import (
	"strings"

	domainerrors "github.com/mohammed-j-mahmoud/syster/internal/core/errors"
	"github.com/mohammed-j-mahmoud/syster/internal/diag"
	"github.com/mohammed-j-mahmoud/syster/internal/graph"
	"github.com/mohammed-j-mahmoud/syster/internal/populator"
	"github.com/mohammed-j-mahmoud/syster/internal/resolver"
	"github.com/mohammed-j-mahmoud/syster/internal/symbols"
)

type Analyzer struct {
	table    *symbols.Table
	graph    *graph.Graph
	resolver *resolver.Resolver
}

func New(table *symbols.Table, g *graph.Graph) *Analyzer {
	return &Analyzer{table: table, graph: g, resolver: resolver.New(table)}
}

var cycleKinds = map[graph.Kind]diag.Kind{
	graph.Specialization: diag.KindCircularSpecialization,
	graph.Subsetting:     diag.KindCircularSubsetting,
	graph.Redefinition:   diag.KindCircularRedefinition,
}

// Analyze links pending relationship references into the graph and runs
// the validation passes. The cancelled hook is polled at checkpoints; a
// true return unwinds with a cancellation error and the caller discards
// the partial results.
func (a *Analyzer) Analyze(refs []populator.PendingRef, hints []populator.FlagHint, cancelled func() bool) ([]diag.Diagnostic, error) {
	if cancelled == nil {
		cancelled = func() bool { return false }
	}
	var diags []diag.Diagnostic

	diags = append(diags, a.checkDuplicates()...)
	if cancelled() {
		return nil, cancelledErr()
	}

	linkDiags, err := a.linkRefs(refs, cancelled)
	if err != nil {
		return nil, err
	}
	diags = append(diags, linkDiags...)

	diags = append(diags, a.checkCycles()...)
	if cancelled() {
		return nil, cancelledErr()
	}

	a.applyFlags(hints)
	return diags, nil
}

// checkDuplicates re-verifies that every declared symbol is the one its
// qualified name resolves to. Declaration already rejects duplicates; this
// pass catches registry corruption from partial retractions.
func (a *Analyzer) checkDuplicates() []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, sym := range a.table.AllSymbols() {
		got, ok := a.table.LookupQualified(sym.QualifiedName)
		if !ok || got == sym {
			continue
		}
		d := diag.Error(diag.KindDuplicateDefinition, sym.SourceFile, sym.Span,
			"duplicate definition of %s", sym.QualifiedName)
		d.Symbol = sym.QualifiedName
		diags = append(diags, d)
	}
	return diags
}

// linkRefs resolves every pending relationship target and materializes the
// edge under the target's canonical qualified name. Targets that cannot be
// resolved after all import passes are dangling references.
func (a *Analyzer) linkRefs(refs []populator.PendingRef, cancelled func() bool) ([]diag.Diagnostic, error) {
	var diags []diag.Diagnostic
	for i, ref := range refs {
		if i%64 == 0 && cancelled() {
			return nil, cancelledErr()
		}
		target, err := a.resolver.Resolve(ref.Target, ref.FromScope)
		if err != nil {
			diags = append(diags, referenceFailure(ref, err))
			continue
		}
		a.graph.AddEdge(ref.Kind, graph.Edge{
			From: ref.From,
			To:   target.QualifiedName,
			File: ref.File,
			Span: ref.Span,
		})
	}
	return diags, nil
}

func referenceFailure(ref populator.PendingRef, err error) diag.Diagnostic {
	var d diag.Diagnostic
	switch {
	case resolver.IsAliasCycle(err):
		d = diag.Error(diag.KindAliasCycle, ref.File, ref.Span,
			"alias cycle while resolving %s", ref.Target)
	case resolver.IsAmbiguous(err):
		d = diag.Error(diag.KindAmbiguousSimpleName, ref.File, ref.Span,
			"ambiguous reference %s", ref.Target)
	default:
		d = diag.Error(diag.KindUndefinedSymbol, ref.File, ref.Span,
			"undefined symbol %s in %s relationship of %s", ref.Target, ref.Kind, ref.From)
	}
	d.Symbol = ref.From
	return d
}

// checkCycles walks each acyclicity-constrained graph and reports every
// cycle with its full path. Typing and satisfaction edges may legally
// point both ways between peers, so only the hierarchy kinds are checked.
func (a *Analyzer) checkCycles() []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, kind := range []graph.Kind{graph.Specialization, graph.Subsetting, graph.Redefinition} {
		for _, cycle := range a.graph.FindCycles(kind) {
			diags = append(diags, a.cycleDiagnostic(kind, cycle))
		}
	}
	return diags
}

func (a *Analyzer) cycleDiagnostic(kind graph.Kind, cycle []string) diag.Diagnostic {
	to := cycle[0]
	from := cycle[len(cycle)-1]
	edge, _ := a.graph.EdgeBetween(kind, from, to)

	path := strings.Join(append(append([]string{}, cycle...), cycle[0]), " -> ")
	d := diag.Error(cycleKinds[kind], edge.File, edge.Span, "circular %s: %s", kind, path)
	d.Symbol = cycle[0]
	return d
}

// applyFlags attaches the syntactic prefixes collected during population to
// their symbols. This is the single post-insertion mutation the table
// permits.
func (a *Analyzer) applyFlags(hints []populator.FlagHint) {
	for _, h := range hints {
		sym, ok := a.table.LookupQualified(h.QualifiedName)
		if !ok {
			continue
		}
		sym.IsAbstract = sym.IsAbstract || h.Abstract
		sym.IsVariation = sym.IsVariation || h.Variation
		if h.Direction != "" {
			sym.Direction = h.Direction
		}
	}
}

func cancelledErr() error {
	return &domainerrors.DomainError{
		Code:    domainerrors.CodeCancelled,
		Message: "analysis cancelled",
	}
}
