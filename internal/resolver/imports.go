package resolver

import (
	"strings"

	domainerrors "github.com/mohammed-j-mahmoud/syster/internal/core/errors"
	"github.com/mohammed-j-mahmoud/syster/internal/diag"
	"github.com/mohammed-j-mahmoud/syster/internal/symbols"
	"github.com/mohammed-j-mahmoud/syster/internal/syntax"
)

// Directive is one import awaiting resolution. Directives are created
// during population and consumed exactly once per pass run.
type Directive struct {
	Kind    syntax.ImportKind
	Target  string
	Alias   string
	ScopeID int
	File    string
	Span    diag.Span
}

// ImportResolver expands import directives into visibility bindings on the
// symbol table, in three sequential passes.
//
// Pass 1 handles namespace imports (Pkg::*) and is order independent: the
// targets are resolved against declared names before any binding is added.
// Pass 2 handles member imports, which may consume visibility that pass 1
// introduced. Pass 3 handles recursive imports (Pkg::**), which need the
// namespace tree fully populated before walking descendant scopes.
// Across all passes the first binding registered for a name wins, and a
// local declaration always shadows imported visibility.
type ImportResolver struct {
	table    *symbols.Table
	resolver *Resolver
}

func NewImportResolver(table *symbols.Table) *ImportResolver {
	return &ImportResolver{table: table, resolver: New(table)}
}

// Run executes the three passes over the full directive set. A directive
// whose target cannot be resolved produces an unresolved-import diagnostic
// and does not stop its siblings. The cancelled hook is polled at cheap
// checkpoints; a true return unwinds with a cancellation error and the
// bindings added so far are expected to be discarded by the caller.
func (ir *ImportResolver) Run(directives []Directive, cancelled func() bool) ([]diag.Diagnostic, error) {
	if cancelled == nil {
		cancelled = func() bool { return false }
	}
	var diags []diag.Diagnostic

	var namespace, member, recursive []Directive
	for _, d := range directives {
		switch d.Kind {
		case syntax.ImportNamespace:
			namespace = append(namespace, d)
		case syntax.ImportMember:
			member = append(member, d)
		case syntax.ImportRecursive:
			recursive = append(recursive, d)
		}
	}

	if err := ir.passNamespace(namespace, &diags, cancelled); err != nil {
		return nil, err
	}
	if err := ir.passMember(member, &diags, cancelled); err != nil {
		return nil, err
	}
	if err := ir.passRecursive(recursive, &diags, cancelled); err != nil {
		return nil, err
	}
	return diags, nil
}

// passNamespace resolves every Pkg::* target first, then applies the
// bindings, so no directive can observe the output of another.
func (ir *ImportResolver) passNamespace(directives []Directive, diags *[]diag.Diagnostic, cancelled func() bool) error {
	type expansion struct {
		directive  Directive
		sourceScope int
	}
	var resolved []expansion

	for _, d := range directives {
		if cancelled() {
			return cancelledErr()
		}
		scopeID, ok := ir.targetScope(d)
		if !ok {
			*diags = append(*diags, unresolvedImport(d, d.Target+"::*"))
			continue
		}
		resolved = append(resolved, expansion{d, scopeID})
	}

	for _, e := range resolved {
		src := ir.table.Scope(e.sourceScope)
		for name, sym := range src.Names {
			ir.table.AddBinding(e.directive.ScopeID, name, sym, true)
		}
	}
	return nil
}

func (ir *ImportResolver) passMember(directives []Directive, diags *[]diag.Diagnostic, cancelled func() bool) error {
	for _, d := range directives {
		if cancelled() {
			return cancelledErr()
		}
		sym, err := ir.resolver.Resolve(d.Target, d.ScopeID)
		if err != nil {
			*diags = append(*diags, unresolvedImport(d, d.Target))
			continue
		}
		name := d.Alias
		if name == "" {
			name = sym.Name
		}
		ir.table.AddBinding(d.ScopeID, name, sym, false)
	}
	return nil
}

func (ir *ImportResolver) passRecursive(directives []Directive, diags *[]diag.Diagnostic, cancelled func() bool) error {
	for _, d := range directives {
		if cancelled() {
			return cancelledErr()
		}
		scopeID, ok := ir.targetScope(d)
		if !ok {
			*diags = append(*diags, unresolvedImport(d, d.Target+"::**"))
			continue
		}
		if err := ir.bindRecursive(scopeID, d.ScopeID, cancelled); err != nil {
			return err
		}
	}
	return nil
}

func (ir *ImportResolver) bindRecursive(sourceScope, importingScope int, cancelled func() bool) error {
	if cancelled() {
		return cancelledErr()
	}
	src := ir.table.Scope(sourceScope)
	if src == nil {
		return nil
	}
	for name, sym := range src.Names {
		ir.table.AddBinding(importingScope, name, sym, true)
	}
	for _, child := range src.Children {
		if err := ir.bindRecursive(child, importingScope, cancelled); err != nil {
			return err
		}
	}
	return nil
}

// targetScope resolves a directive's target to the scope it owns. The
// target is resolved from the importing scope so nested and re-exported
// package paths work.
func (ir *ImportResolver) targetScope(d Directive) (int, bool) {
	sym, err := ir.resolver.Resolve(d.Target, d.ScopeID)
	if err != nil {
		// Root-level packages may be referenced by their full path even
		// when not visible from the importing scope.
		if s, found := ir.table.LookupQualified(d.Target); found {
			sym = s
		} else {
			return 0, false
		}
	}
	return ir.table.ScopeByOwner(sym.QualifiedName)
}

func unresolvedImport(d Directive, shown string) diag.Diagnostic {
	return diag.Error(diag.KindUnresolvedImport, d.File, d.Span, "unresolved import %s", shown)
}

func cancelledErr() error {
	return &domainerrors.DomainError{
		Code:    domainerrors.CodeCancelled,
		Message: "import resolution cancelled",
	}
}

// SplitTarget returns the namespace and final segment of a qualified path.
func SplitTarget(target string) (string, string) {
	if i := strings.LastIndex(target, "::"); i >= 0 {
		return target[:i], target[i+2:]
	}
	return "", target
}
