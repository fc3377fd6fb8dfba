package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/mohammed-j-mahmoud/syster/internal/core/errors"
)

func declare(t *testing.T, tbl *Table, scopeID int, kind Kind, qname, file string) *Symbol {
	t.Helper()
	name := qname
	if i := lastSep(qname); i >= 0 {
		name = qname[i+2:]
	}
	sym := &Symbol{
		Name:          name,
		QualifiedName: qname,
		Kind:          kind,
		ScopeID:       scopeID,
		SourceFile:    file,
	}
	require.NoError(t, tbl.Declare(sym))
	return sym
}

func lastSep(s string) int {
	for i := len(s) - 2; i >= 0; i-- {
		if s[i] == ':' && s[i+1] == ':' {
			return i
		}
	}
	return -1
}

func TestDeclareAndLookupQualified(t *testing.T) {
	tbl := NewTable()
	pkg := declare(t, tbl, tbl.RootScope(), KindPackage, "Vehicles", "a.sysml")
	scope := tbl.EnsureScope(tbl.RootScope(), pkg.QualifiedName)
	car := declare(t, tbl, scope, KindDefinition, "Vehicles::Car", "a.sysml")

	got, ok := tbl.LookupQualified("Vehicles::Car")
	require.True(t, ok)
	assert.Same(t, car, got)

	_, ok = tbl.LookupQualified("Vehicles::Bike")
	assert.False(t, ok)
}

func TestDeclareDuplicateKeepsFirst(t *testing.T) {
	tbl := NewTable()
	first := declare(t, tbl, tbl.RootScope(), KindDefinition, "Car", "a.sysml")

	dup := &Symbol{Name: "Car", QualifiedName: "Car", Kind: KindDefinition, ScopeID: tbl.RootScope(), SourceFile: "b.sysml"}
	err := tbl.Declare(dup)
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeConflict))

	got, ok := tbl.LookupQualified("Car")
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.Len(t, tbl.AllSymbols(), 1)
}

func TestDeclareOverwritesAliasWithoutGhost(t *testing.T) {
	tbl := NewTable()
	pkg := declare(t, tbl, tbl.RootScope(), KindPackage, "P", "a.sysml")
	scope := tbl.EnsureScope(tbl.RootScope(), pkg.QualifiedName)
	declare(t, tbl, scope, KindAlias, "P::X", "a.sysml")

	part := declare(t, tbl, scope, KindDefinition, "P::X", "a.sysml")

	got, ok := tbl.LookupQualified("P::X")
	require.True(t, ok)
	assert.Same(t, part, got)

	// Exactly P and P::X remain; the alias left no stale entries.
	assert.Len(t, tbl.AllSymbols(), 2)
	assert.Len(t, tbl.SymbolsInFile("a.sysml"), 2)

	fromScope, err := tbl.LookupSimple("X", scope)
	require.NoError(t, err)
	assert.Same(t, part, fromScope)
}

func TestLookupSimpleWalksScopeChain(t *testing.T) {
	tbl := NewTable()
	pkg := declare(t, tbl, tbl.RootScope(), KindPackage, "Outer", "a.sysml")
	outer := tbl.EnsureScope(tbl.RootScope(), pkg.QualifiedName)
	base := declare(t, tbl, outer, KindDefinition, "Outer::Base", "a.sysml")

	inner := declare(t, tbl, outer, KindPackage, "Outer::Inner", "a.sysml")
	innerScope := tbl.EnsureScope(outer, inner.QualifiedName)

	got, err := tbl.LookupSimple("Base", innerScope)
	require.NoError(t, err)
	assert.Same(t, base, got)
}

func TestLookupSimpleGlobalFallback(t *testing.T) {
	tbl := NewTable()
	pkg := declare(t, tbl, tbl.RootScope(), KindPackage, "Lib", "a.sysml")
	libScope := tbl.EnsureScope(tbl.RootScope(), pkg.QualifiedName)
	unique := declare(t, tbl, libScope, KindDefinition, "Lib::Widget", "a.sysml")

	got, err := tbl.LookupSimple("Widget", tbl.RootScope())
	require.NoError(t, err)
	assert.Same(t, unique, got)
}

func TestLookupSimpleAmbiguousFallback(t *testing.T) {
	tbl := NewTable()
	for _, p := range []string{"A", "B"} {
		pkg := declare(t, tbl, tbl.RootScope(), KindPackage, p, "a.sysml")
		scope := tbl.EnsureScope(tbl.RootScope(), pkg.QualifiedName)
		declare(t, tbl, scope, KindDefinition, p+"::Widget", "a.sysml")
	}

	_, err := tbl.LookupSimple("Widget", tbl.RootScope())
	require.Error(t, err)
	assert.True(t, IsAmbiguous(err))
}

func TestBindingShadowedByLocalDeclaration(t *testing.T) {
	tbl := NewTable()
	pkg := declare(t, tbl, tbl.RootScope(), KindPackage, "P", "a.sysml")
	scope := tbl.EnsureScope(tbl.RootScope(), pkg.QualifiedName)
	local := declare(t, tbl, scope, KindDefinition, "P::Car", "a.sysml")

	other := &Symbol{Name: "Car", QualifiedName: "Q::Car", Kind: KindDefinition}
	tbl.AddBinding(scope, "Car", other, false)

	got, err := tbl.LookupSimple("Car", scope)
	require.NoError(t, err)
	assert.Same(t, local, got)
}

func TestBindingFirstWins(t *testing.T) {
	tbl := NewTable()
	pkg := declare(t, tbl, tbl.RootScope(), KindPackage, "P", "a.sysml")
	scope := tbl.EnsureScope(tbl.RootScope(), pkg.QualifiedName)

	first := &Symbol{Name: "Car", QualifiedName: "Q::Car", Kind: KindDefinition}
	second := &Symbol{Name: "Car", QualifiedName: "R::Car", Kind: KindDefinition}
	tbl.AddBinding(scope, "Car", first, false)
	tbl.AddBinding(scope, "Car", second, false)

	got, err := tbl.LookupSimple("Car", scope)
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestWildcardCollisionAmbiguousAtUseSite(t *testing.T) {
	tbl := NewTable()
	pkg := declare(t, tbl, tbl.RootScope(), KindPackage, "P", "a.sysml")
	scope := tbl.EnsureScope(tbl.RootScope(), pkg.QualifiedName)

	a := &Symbol{Name: "Car", QualifiedName: "A::Car", Kind: KindDefinition}
	b := &Symbol{Name: "Car", QualifiedName: "B::Car", Kind: KindDefinition}
	tbl.AddBinding(scope, "Car", a, true)
	tbl.AddBinding(scope, "Car", b, true)

	_, err := tbl.LookupSimple("Car", scope)
	require.Error(t, err)
	assert.True(t, IsAmbiguous(err))
	assert.Len(t, tbl.Scope(scope).AmbiguousCandidates("Car"), 2)
}

func TestMemberImportThenWildcardNotAmbiguous(t *testing.T) {
	tbl := NewTable()
	pkg := declare(t, tbl, tbl.RootScope(), KindPackage, "P", "a.sysml")
	scope := tbl.EnsureScope(tbl.RootScope(), pkg.QualifiedName)

	member := &Symbol{Name: "Car", QualifiedName: "A::Car", Kind: KindDefinition}
	wild := &Symbol{Name: "Car", QualifiedName: "B::Car", Kind: KindDefinition}
	tbl.AddBinding(scope, "Car", member, false)
	tbl.AddBinding(scope, "Car", wild, true)

	got, err := tbl.LookupSimple("Car", scope)
	require.NoError(t, err)
	assert.Same(t, member, got)
}

func TestRemoveFileRetractsSymbols(t *testing.T) {
	tbl := NewTable()
	pkg := declare(t, tbl, tbl.RootScope(), KindPackage, "P", "a.sysml")
	scope := tbl.EnsureScope(tbl.RootScope(), pkg.QualifiedName)
	declare(t, tbl, scope, KindDefinition, "P::Car", "a.sysml")
	declare(t, tbl, scope, KindDefinition, "P::Bike", "b.sysml")

	tbl.RemoveFile("a.sysml")

	_, ok := tbl.LookupQualified("P::Car")
	assert.False(t, ok)
	_, ok = tbl.LookupQualified("P")
	assert.False(t, ok)

	bike, ok := tbl.LookupQualified("P::Bike")
	require.True(t, ok)
	assert.Equal(t, "b.sysml", bike.SourceFile)
	assert.Empty(t, tbl.SymbolsInFile("a.sysml"))
}

func TestEnsureScopeReusedOnRepopulation(t *testing.T) {
	tbl := NewTable()
	a := tbl.EnsureScope(tbl.RootScope(), "P")
	b := tbl.EnsureScope(tbl.RootScope(), "P")
	assert.Equal(t, a, b)

	id, ok := tbl.ScopeByOwner("P")
	require.True(t, ok)
	assert.Equal(t, a, id)
}

func TestAllSymbolsInsertionOrder(t *testing.T) {
	tbl := NewTable()
	declare(t, tbl, tbl.RootScope(), KindDefinition, "Zed", "a.sysml")
	declare(t, tbl, tbl.RootScope(), KindDefinition, "Alpha", "a.sysml")
	declare(t, tbl, tbl.RootScope(), KindDefinition, "Mid", "a.sysml")

	var names []string
	for _, s := range tbl.AllSymbols() {
		names = append(names, s.QualifiedName)
	}
	assert.Equal(t, []string{"Zed", "Alpha", "Mid"}, names)
}
