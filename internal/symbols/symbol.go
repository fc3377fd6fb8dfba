// Package symbols holds the global registry of named semantic entities:
// the symbol values themselves, the scope tree that owns them, and the
// table that indexes both by simple and qualified name.
package symbols

import "github.com/mohammed-j-mahmoud/syster/internal/diag"

// Kind discriminates the symbol variants.
type Kind int

const (
	KindPackage Kind = iota
	KindClassifier
	KindDefinition
	KindUsage
	KindFeature
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindPackage:
		return "package"
	case KindClassifier:
		return "classifier"
	case KindDefinition:
		return "definition"
	case KindUsage:
		return "usage"
	case KindFeature:
		return "feature"
	case KindAlias:
		return "alias"
	default:
		return "unknown"
	}
}

// Symbol is a named semantic entity. The table owns every Symbol after
// Declare; the only later mutation allowed is the analyzer's one-time
// flag extraction.
type Symbol struct {
	Name          string
	QualifiedName string
	Kind          Kind
	ScopeID       int
	SourceFile    string
	Span          diag.Span

	IsAbstract  bool
	IsVariation bool
	Direction   string
	Role        string

	// AliasTarget is the qualified name an alias points at, resolved
	// lazily by the resolver.
	AliasTarget string
}

// Qualify joins a parent qualified name with a simple name.
func Qualify(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "::" + name
}
