package symbols

import (
	"strings"

	domainerrors "github.com/mohammed-j-mahmoud/syster/internal/core/errors"
)

// Table is the global symbol registry: a scope arena plus qualified-name
// and simple-name indexes. The table is not safe for concurrent mutation;
// the workspace serializes all writers.
type Table struct {
	scopes       []*Scope
	global       map[string]*Symbol
	scopeByOwner map[string]int
	byFile       map[string][]*Symbol
	order        []*Symbol
}

func NewTable() *Table {
	t := &Table{
		global:       make(map[string]*Symbol),
		scopeByOwner: make(map[string]int),
		byFile:       make(map[string][]*Symbol),
	}
	t.scopes = append(t.scopes, newScope(0, -1, ""))
	return t
}

// RootScope is the scope owning top-level packages.
func (t *Table) RootScope() int { return 0 }

func (t *Table) Scope(id int) *Scope {
	if id < 0 || id >= len(t.scopes) {
		return nil
	}
	return t.scopes[id]
}

func (t *Table) ScopeCount() int { return len(t.scopes) }

// EnsureScope returns the scope owned by the symbol with the given
// qualified name, creating it under parent when it does not exist yet.
// Re-populating a file reuses the package scopes it contributed before.
func (t *Table) EnsureScope(parent int, owner string) int {
	if id, ok := t.scopeByOwner[owner]; ok {
		return id
	}
	id := len(t.scopes)
	s := newScope(id, parent, owner)
	t.scopes = append(t.scopes, s)
	t.scopes[parent].Children = append(t.scopes[parent].Children, id)
	t.scopeByOwner[owner] = id
	return id
}

// ScopeByOwner looks up the scope a qualified name owns, if any.
func (t *Table) ScopeByOwner(owner string) (int, bool) {
	id, ok := t.scopeByOwner[owner]
	return id, ok
}

// Declare inserts a symbol into its owning scope and the global index.
// A qualified name already held by a non-alias symbol is a conflict: the
// first declaration stays authoritative and an error is returned. An
// existing alias may be overwritten by a genuine declaration.
func (t *Table) Declare(sym *Symbol) error {
	existing, taken := t.global[sym.QualifiedName]
	if taken && existing.Kind != KindAlias {
		return &domainerrors.DomainError{
			Code:    domainerrors.CodeConflict,
			Message: "duplicate definition of " + sym.QualifiedName,
			Context: map[string]interface{}{
				domainerrors.CtxSymbol: sym.QualifiedName,
				domainerrors.CtxPath:   sym.SourceFile,
			},
		}
	}

	scope := t.Scope(sym.ScopeID)
	if scope == nil {
		return &domainerrors.DomainError{
			Code:    domainerrors.CodeInternal,
			Message: "declare into unknown scope",
			Context: map[string]interface{}{domainerrors.CtxSymbol: sym.QualifiedName},
		}
	}

	if taken {
		// The overwritten alias must leave no trace in the listings.
		t.retract(existing)
	}

	t.global[sym.QualifiedName] = sym
	scope.Names[sym.Name] = sym
	t.byFile[sym.SourceFile] = append(t.byFile[sym.SourceFile], sym)
	t.order = append(t.order, sym)
	return nil
}

// retract removes one symbol from every index it appears in.
func (t *Table) retract(sym *Symbol) {
	if t.global[sym.QualifiedName] == sym {
		delete(t.global, sym.QualifiedName)
	}
	if s := t.Scope(sym.ScopeID); s != nil && s.Names[sym.Name] == sym {
		delete(s.Names, sym.Name)
	}

	file := t.byFile[sym.SourceFile]
	keptFile := file[:0]
	for _, s := range file {
		if s != sym {
			keptFile = append(keptFile, s)
		}
	}
	if len(keptFile) == 0 {
		delete(t.byFile, sym.SourceFile)
	} else {
		t.byFile[sym.SourceFile] = keptFile
	}

	kept := t.order[:0]
	for _, s := range t.order {
		if s != sym {
			kept = append(kept, s)
		}
	}
	t.order = kept
}

// LookupQualified performs an exact global lookup.
func (t *Table) LookupQualified(name string) (*Symbol, bool) {
	sym, ok := t.global[name]
	return sym, ok
}

// LookupSimple resolves a bare name from the given scope: the scope and its
// ancestors first, then import-introduced bindings along the same chain,
// then any globally unique symbol with that simple name. A simple name with
// more than one candidate is an error, never a silent pick.
func (t *Table) LookupSimple(name string, scopeID int) (*Symbol, error) {
	for id := scopeID; id >= 0; {
		s := t.Scope(id)
		if s == nil {
			break
		}
		if sym, ok := s.Names[name]; ok {
			return sym, nil
		}
		id = s.Parent
	}

	for id := scopeID; id >= 0; {
		s := t.Scope(id)
		if s == nil {
			break
		}
		if cands := s.AmbiguousCandidates(name); len(cands) > 0 {
			return nil, t.ambiguityError(name, cands)
		}
		if sym, ok := s.Bindings[name]; ok {
			return sym, nil
		}
		id = s.Parent
	}

	var found []*Symbol
	for _, sym := range t.order {
		if sym.Name == name {
			found = append(found, sym)
		}
	}
	switch len(found) {
	case 0:
		return nil, &domainerrors.DomainError{
			Code:    domainerrors.CodeNotFound,
			Message: "no symbol named " + name,
			Context: map[string]interface{}{domainerrors.CtxSymbol: name},
		}
	case 1:
		return found[0], nil
	default:
		return nil, t.ambiguityError(name, found)
	}
}

func (t *Table) ambiguityError(name string, candidates []*Symbol) error {
	var names []string
	for _, c := range candidates {
		names = append(names, c.QualifiedName)
	}
	return &domainerrors.DomainError{
		Code:    domainerrors.CodeConflict,
		Message: "ambiguous simple name " + name + ": " + strings.Join(names, ", "),
		Context: map[string]interface{}{domainerrors.CtxSymbol: name},
	}
}

// IsAmbiguous reports whether an error from LookupSimple was an ambiguity
// rather than a plain miss.
func IsAmbiguous(err error) bool {
	return domainerrors.IsCode(err, domainerrors.CodeConflict)
}

// AddBinding records import-introduced visibility of sym under name in the
// given scope. Local declarations shadow bindings, and the first binding
// registered for a name wins. Two wildcard imports introducing the same
// name from different symbols mark the name ambiguous for that scope.
func (t *Table) AddBinding(scopeID int, name string, sym *Symbol, wildcard bool) {
	s := t.Scope(scopeID)
	if s == nil {
		return
	}
	if _, declared := s.Names[name]; declared {
		return
	}
	existing, bound := s.Bindings[name]
	if !bound {
		s.Bindings[name] = sym
		if wildcard {
			if s.fromWildcard == nil {
				s.fromWildcard = make(map[string]bool)
			}
			s.fromWildcard[name] = true
		}
		return
	}
	if existing == sym {
		return
	}
	if wildcard && s.fromWildcard[name] {
		if s.ambiguous == nil {
			s.ambiguous = make(map[string][]*Symbol)
		}
		if len(s.ambiguous[name]) == 0 {
			s.ambiguous[name] = append(s.ambiguous[name], existing)
		}
		s.ambiguous[name] = append(s.ambiguous[name], sym)
	}
}

// ClearBindings drops all import-introduced visibility so the import passes
// can be re-run from scratch.
func (t *Table) ClearBindings() {
	for _, s := range t.scopes {
		s.Bindings = make(map[string]*Symbol)
		s.ambiguous = nil
		s.fromWildcard = nil
	}
}

// AllSymbols returns every declared symbol in stable insertion order.
func (t *Table) AllSymbols() []*Symbol {
	out := make([]*Symbol, len(t.order))
	copy(out, t.order)
	return out
}

// SymbolsInFile returns the symbols a file declared, in declaration order.
func (t *Table) SymbolsInFile(path string) []*Symbol {
	syms := t.byFile[path]
	out := make([]*Symbol, len(syms))
	copy(out, syms)
	return out
}

// RemoveFile retracts every symbol the file declared from the global index,
// the owning scopes and the listing order. Scopes themselves are kept: a
// package scope may still hold symbols contributed by other files.
func (t *Table) RemoveFile(path string) {
	removed := t.byFile[path]
	if len(removed) == 0 {
		return
	}
	drop := make(map[*Symbol]bool, len(removed))
	for _, sym := range removed {
		drop[sym] = true
		if t.global[sym.QualifiedName] == sym {
			delete(t.global, sym.QualifiedName)
		}
		if s := t.Scope(sym.ScopeID); s != nil && s.Names[sym.Name] == sym {
			delete(s.Names, sym.Name)
		}
	}
	kept := t.order[:0]
	for _, sym := range t.order {
		if !drop[sym] {
			kept = append(kept, sym)
		}
	}
	t.order = kept
	delete(t.byFile, path)
}

// Files returns the paths that contributed at least one symbol.
func (t *Table) Files() []string {
	out := make([]string, 0, len(t.byFile))
	for path := range t.byFile {
		out = append(out, path)
	}
	return out
}
