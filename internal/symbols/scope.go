package symbols

// Scope is a node in the tree mirroring package and definition nesting.
// Scopes live in the table's arena and refer to each other by index, so
// parent links are plain integers rather than pointers.
type Scope struct {
	ID       int
	Parent   int // -1 for the root
	Children []int

	// Owner is the qualified name of the symbol this scope belongs to,
	// empty for the root scope.
	Owner string

	// Names maps simple name to the symbol declared directly here.
	Names map[string]*Symbol

	// Bindings maps simple name to import-introduced visibility. A local
	// declaration in Names always shadows a binding.
	Bindings map[string]*Symbol

	// ambiguous records simple names that two different wildcard imports
	// introduced from different namespaces. Such a name stays visible but
	// resolving it is an error at the use site.
	ambiguous map[string][]*Symbol

	// fromWildcard marks bindings that a wildcard import introduced, so a
	// second wildcard hit on the same name can be told apart from an
	// explicit member import that simply wins.
	fromWildcard map[string]bool
}

func newScope(id, parent int, owner string) *Scope {
	return &Scope{
		ID:       id,
		Parent:   parent,
		Owner:    owner,
		Names:    make(map[string]*Symbol),
		Bindings: make(map[string]*Symbol),
	}
}

// AmbiguousCandidates returns the conflicting targets for a simple name, or
// nil when the name is unambiguous in this scope.
func (s *Scope) AmbiguousCandidates(name string) []*Symbol {
	return s.ambiguous[name]
}
