package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-j-mahmoud/syster/internal/diag"
	"github.com/mohammed-j-mahmoud/syster/internal/symbols"
	"github.com/mohammed-j-mahmoud/syster/internal/syntax"
)

// fixture builds a small two-package table:
//
//	package Lib { part def Vehicle; part def Wheel; package Nested { part def Axle; } }
//	package App { }
type fixture struct {
	table    *symbols.Table
	libScope int
	nested   int
	appScope int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tbl := symbols.NewTable()

	mustDeclare := func(scope int, kind symbols.Kind, qname string) *symbols.Symbol {
		name := qname
		if _, last := SplitTarget(qname); last != "" {
			name = last
		}
		sym := &symbols.Symbol{Name: name, QualifiedName: qname, Kind: kind, ScopeID: scope, SourceFile: "lib.sysml"}
		require.NoError(t, tbl.Declare(sym))
		return sym
	}

	mustDeclare(tbl.RootScope(), symbols.KindPackage, "Lib")
	libScope := tbl.EnsureScope(tbl.RootScope(), "Lib")
	mustDeclare(libScope, symbols.KindDefinition, "Lib::Vehicle")
	mustDeclare(libScope, symbols.KindDefinition, "Lib::Wheel")
	mustDeclare(libScope, symbols.KindPackage, "Lib::Nested")
	nested := tbl.EnsureScope(libScope, "Lib::Nested")
	mustDeclare(nested, symbols.KindDefinition, "Lib::Nested::Axle")

	mustDeclare(tbl.RootScope(), symbols.KindPackage, "App")
	appScope := tbl.EnsureScope(tbl.RootScope(), "App")

	return &fixture{table: tbl, libScope: libScope, nested: nested, appScope: appScope}
}

func TestResolveQualified(t *testing.T) {
	f := newFixture(t)
	r := New(f.table)

	sym, err := r.Resolve("Lib::Vehicle", f.appScope)
	require.NoError(t, err)
	assert.Equal(t, "Lib::Vehicle", sym.QualifiedName)

	_, err = r.Resolve("Lib::Rocket", f.appScope)
	assert.Error(t, err)
}

func TestResolveSimpleInScope(t *testing.T) {
	f := newFixture(t)
	r := New(f.table)

	sym, err := r.Resolve("Axle", f.nested)
	require.NoError(t, err)
	assert.Equal(t, "Lib::Nested::Axle", sym.QualifiedName)

	// Unique global fallback works from an unrelated scope.
	sym, err = r.Resolve("Wheel", f.appScope)
	require.NoError(t, err)
	assert.Equal(t, "Lib::Wheel", sym.QualifiedName)
}

func TestResolveThroughAlias(t *testing.T) {
	f := newFixture(t)
	alias := &symbols.Symbol{
		Name: "Car", QualifiedName: "App::Car", Kind: symbols.KindAlias,
		ScopeID: f.appScope, AliasTarget: "Lib::Vehicle", SourceFile: "app.sysml",
	}
	require.NoError(t, f.table.Declare(alias))

	r := New(f.table)
	sym, err := r.Resolve("Car", f.appScope)
	require.NoError(t, err)
	assert.Equal(t, "Lib::Vehicle", sym.QualifiedName)

	// Qualified path through the alias head also lands on the target's scope.
	sym, err = r.Resolve("App::Car", f.appScope)
	require.NoError(t, err)
	assert.Equal(t, "Lib::Vehicle", sym.QualifiedName)
}

func TestResolveAliasCycle(t *testing.T) {
	f := newFixture(t)
	a := &symbols.Symbol{Name: "A", QualifiedName: "App::A", Kind: symbols.KindAlias, ScopeID: f.appScope, AliasTarget: "App::B"}
	b := &symbols.Symbol{Name: "B", QualifiedName: "App::B", Kind: symbols.KindAlias, ScopeID: f.appScope, AliasTarget: "App::A"}
	require.NoError(t, f.table.Declare(a))
	require.NoError(t, f.table.Declare(b))

	r := New(f.table)
	_, err := r.Resolve("A", f.appScope)
	require.Error(t, err)
	assert.True(t, IsAliasCycle(err))
}

func directive(kind syntax.ImportKind, target string, scope int) Directive {
	return Directive{Kind: kind, Target: target, ScopeID: scope, File: "app.sysml", Span: diag.SpanAt(0, 0, len(target))}
}

func TestNamespaceImportBindsMembers(t *testing.T) {
	f := newFixture(t)
	ir := NewImportResolver(f.table)

	diags, err := ir.Run([]Directive{directive(syntax.ImportNamespace, "Lib", f.appScope)}, nil)
	require.NoError(t, err)
	assert.Empty(t, diags)

	sym, err := f.table.LookupSimple("Vehicle", f.appScope)
	require.NoError(t, err)
	assert.Equal(t, "Lib::Vehicle", sym.QualifiedName)

	// Namespace import is not recursive.
	_, err = f.table.LookupSimple("Axle", f.appScope)
	assert.Error(t, err)
}

func TestMemberImportSeesPassOneVisibility(t *testing.T) {
	f := newFixture(t)
	ir := NewImportResolver(f.table)

	// "Nested" only becomes visible in App through the Lib::* import, and
	// the member import of Nested::Axle must still resolve.
	diags, err := ir.Run([]Directive{
		directive(syntax.ImportMember, "Nested::Axle", f.appScope),
		directive(syntax.ImportNamespace, "Lib", f.appScope),
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, diags)

	sym, err := f.table.LookupSimple("Axle", f.appScope)
	require.NoError(t, err)
	assert.Equal(t, "Lib::Nested::Axle", sym.QualifiedName)
}

func TestUnresolvedImportIsDiagnosticNotFatal(t *testing.T) {
	f := newFixture(t)
	ir := NewImportResolver(f.table)

	diags, err := ir.Run([]Directive{
		directive(syntax.ImportMember, "Missing::Thing", f.appScope),
		directive(syntax.ImportMember, "Lib::Wheel", f.appScope),
	}, nil)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindUnresolvedImport, diags[0].Kind)

	// The sibling import still landed.
	sym, err := f.table.LookupSimple("Wheel", f.appScope)
	require.NoError(t, err)
	assert.Equal(t, "Lib::Wheel", sym.QualifiedName)
}

func TestRecursiveImportReachesNestedMembers(t *testing.T) {
	f := newFixture(t)
	ir := NewImportResolver(f.table)

	diags, err := ir.Run([]Directive{directive(syntax.ImportRecursive, "Lib", f.appScope)}, nil)
	require.NoError(t, err)
	assert.Empty(t, diags)

	sym, err := f.table.LookupSimple("Axle", f.appScope)
	require.NoError(t, err)
	assert.Equal(t, "Lib::Nested::Axle", sym.QualifiedName)
}

func TestLocalDeclarationShadowsImport(t *testing.T) {
	f := newFixture(t)
	local := &symbols.Symbol{Name: "Vehicle", QualifiedName: "App::Vehicle", Kind: symbols.KindDefinition, ScopeID: f.appScope, SourceFile: "app.sysml"}
	require.NoError(t, f.table.Declare(local))

	ir := NewImportResolver(f.table)
	diags, err := ir.Run([]Directive{
		directive(syntax.ImportNamespace, "Lib", f.appScope),
		directive(syntax.ImportMember, "Lib::Vehicle", f.appScope),
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, diags)

	sym, err := f.table.LookupSimple("Vehicle", f.appScope)
	require.NoError(t, err)
	assert.Same(t, local, sym)
}

func TestMemberImportAlias(t *testing.T) {
	f := newFixture(t)
	d := directive(syntax.ImportMember, "Lib::Vehicle", f.appScope)
	d.Alias = "Auto"

	ir := NewImportResolver(f.table)
	_, err := ir.Run([]Directive{d}, nil)
	require.NoError(t, err)

	sym, err := f.table.LookupSimple("Auto", f.appScope)
	require.NoError(t, err)
	assert.Equal(t, "Lib::Vehicle", sym.QualifiedName)
}

func TestImportRunCancellation(t *testing.T) {
	f := newFixture(t)
	ir := NewImportResolver(f.table)

	_, err := ir.Run([]Directive{directive(syntax.ImportNamespace, "Lib", f.appScope)}, func() bool { return true })
	require.Error(t, err)
}
