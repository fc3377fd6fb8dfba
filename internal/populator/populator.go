// Package populator walks per-file syntax trees and fills the symbol
// table: pass 0 of the semantic pipeline. It declares genuine definitions
// only; identifiers in relationship-target or value positions never reach
// the table. Relationship clauses are collected as raw references to be
// linked once imports are resolved, and import statements are collected as
// directives for the import resolver.
package populator

import (
	domainerrors "github.com/mohammed-j-mahmoud/syster/internal/core/errors"
	"github.com/mohammed-j-mahmoud/syster/internal/diag"
	"github.com/mohammed-j-mahmoud/syster/internal/graph"
	"github.com/mohammed-j-mahmoud/syster/internal/resolver"
	"github.com/mohammed-j-mahmoud/syster/internal/symbols"
	"github.com/mohammed-j-mahmoud/syster/internal/syntax"
)

// PendingRef is a relationship clause whose target is still a raw
// reference. Linking resolves it from the scope it occurred in.
type PendingRef struct {
	Kind      graph.Kind
	From      string
	FromScope int
	Target    string
	File      string
	Span      diag.Span
}

// FlagHint carries syntactic prefixes to be attached to the declared
// symbol by the analyzer's flag-extraction pass.
type FlagHint struct {
	QualifiedName string
	Abstract      bool
	Variation     bool
	Direction     string
}

// Result is everything one file contributed beyond its declarations.
type Result struct {
	Directives  []resolver.Directive
	Refs        []PendingRef
	Hints       []FlagHint
	Diagnostics []diag.Diagnostic
}

type Populator struct {
	table *symbols.Table
}

func New(table *symbols.Table) *Populator {
	return &Populator{table: table}
}

// PopulateFile declares every definition in the file. Duplicates are
// diagnostics, not failures: the first declaration stays authoritative and
// population of the rest of the file continues.
func (p *Populator) PopulateFile(f *syntax.File) *Result {
	res := &Result{}
	for _, el := range f.Elements {
		p.populate(el, p.table.RootScope(), "", f.Path, res)
	}
	return res
}

func (p *Populator) populate(el *syntax.Element, scopeID int, parentQName, file string, res *Result) {
	switch el.Kind {
	case syntax.KindImport:
		res.Directives = append(res.Directives, resolver.Directive{
			Kind:    el.Import,
			Target:  el.ImportPath,
			Alias:   el.ImportAs,
			ScopeID: scopeID,
			File:    file,
			Span:    el.Span,
		})
		return

	case syntax.KindAlias:
		sym := &symbols.Symbol{
			Name:          el.Name,
			QualifiedName: symbols.Qualify(parentQName, el.Name),
			Kind:          symbols.KindAlias,
			ScopeID:       scopeID,
			SourceFile:    file,
			Span:          el.Span,
			AliasTarget:   el.AliasTarget,
		}
		if err := p.table.Declare(sym); err != nil {
			res.Diagnostics = append(res.Diagnostics, duplicate(file, el.Span, sym.QualifiedName))
		}
		return

	case syntax.KindComment:
		return
	}

	name := el.Name
	if name == "" && el.Kind == syntax.KindUsage && len(el.Redefines) > 0 {
		// An anonymous usage redefining a simple name takes that name for
		// itself. A qualified target stays a pure reference: none of its
		// segments may surface as a declaration here.
		if ns, last := resolver.SplitTarget(el.Redefines[0].Target); ns == "" {
			name = last
		}
	}
	if name == "" {
		// Nothing to declare; clauses and children still count against
		// the enclosing element.
		p.collectRefs(el, parentQName, scopeID, file, res)
		for _, child := range el.Children {
			p.populate(child, scopeID, parentQName, file, res)
		}
		return
	}

	qname := symbols.Qualify(parentQName, name)
	sym := &symbols.Symbol{
		Name:          name,
		QualifiedName: qname,
		Kind:          symbolKind(el.Kind),
		ScopeID:       scopeID,
		SourceFile:    file,
		Span:          el.Span,
		Direction:     el.Direction,
		Role:          el.DefKind,
	}

	declared := true
	if err := p.table.Declare(sym); err != nil {
		declared = false
		existing, _ := p.table.LookupQualified(qname)
		// Two files both declaring the same package merge into one
		// namespace rather than conflicting.
		merge := domainerrors.IsCode(err, domainerrors.CodeConflict) &&
			el.Kind == syntax.KindPackage &&
			existing != nil && existing.Kind == symbols.KindPackage
		if !merge {
			res.Diagnostics = append(res.Diagnostics, duplicate(file, el.Span, qname))
		}
	}

	if declared && (el.Abstract || el.Variation || el.Direction != "") {
		res.Hints = append(res.Hints, FlagHint{
			QualifiedName: qname,
			Abstract:      el.Abstract,
			Variation:     el.Variation,
			Direction:     el.Direction,
		})
	}

	p.collectRefs(el, qname, scopeID, file, res)

	if len(el.Children) > 0 {
		child := p.table.EnsureScope(scopeID, qname)
		for _, c := range el.Children {
			p.populate(c, child, qname, file, res)
		}
	}
}

func (p *Populator) collectRefs(el *syntax.Element, fromQName string, scopeID int, file string, res *Result) {
	if fromQName == "" {
		return
	}
	add := func(kind graph.Kind, refs []syntax.Ref) {
		for _, r := range refs {
			res.Refs = append(res.Refs, PendingRef{
				Kind:      kind,
				From:      fromQName,
				FromScope: scopeID,
				Target:    r.Target,
				File:      file,
				Span:      r.Span,
			})
		}
	}
	if el.TypedBy != nil {
		add(graph.Typing, []syntax.Ref{*el.TypedBy})
	}
	add(graph.Specialization, el.Specializes)
	add(graph.Subsetting, el.Subsets)
	add(graph.Redefinition, el.Redefines)
	add(graph.Satisfaction, el.Satisfies)
}

func symbolKind(k syntax.ElementKind) symbols.Kind {
	switch k {
	case syntax.KindPackage:
		return symbols.KindPackage
	case syntax.KindClassifier:
		return symbols.KindClassifier
	case syntax.KindDefinition:
		return symbols.KindDefinition
	case syntax.KindFeature:
		return symbols.KindFeature
	default:
		return symbols.KindUsage
	}
}

func duplicate(file string, span diag.Span, qname string) diag.Diagnostic {
	d := diag.Error(diag.KindDuplicateDefinition, file, span, "duplicate definition of %s", qname)
	d.Symbol = qname
	return d
}
