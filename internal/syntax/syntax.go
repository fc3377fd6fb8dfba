// Package syntax defines the immutable per-file syntax tree handed to the
// semantic engine. The tree is a closed tagged union: every node carries an
// ElementKind discriminator so the populator can tell genuine declarations
// apart from relationship-part and value positions without type assertions.
package syntax

import "github.com/mohammed-j-mahmoud/syster/internal/diag"

type ElementKind int

const (
	KindPackage ElementKind = iota
	KindClassifier
	KindDefinition
	KindUsage
	KindFeature
	KindAlias
	KindImport
	KindComment
)

func (k ElementKind) String() string {
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
	case KindImport:
		return "import"
	default:
		return "comment"
	}
}

type ImportKind int

const (
	// ImportMember brings one named member into scope (Pkg::Member).
	ImportMember ImportKind = iota
	// ImportNamespace brings every direct member of a package into scope (Pkg::*).
	ImportNamespace
	// ImportRecursive brings every transitive member into scope (Pkg::**).
	ImportRecursive
)

// Ref is a name occurring in a relationship-part position: the target of a
// typing, specialization, subsetting, redefinition or satisfaction clause.
// Targets are references only; they never introduce declarations.
type Ref struct {
	Target string
	Span   diag.Span
}

// Element is one node of the syntax tree. Which fields are meaningful
// depends on Kind; the zero value of the rest is ignored.
type Element struct {
	Kind ElementKind
	Name string
	Span diag.Span

	// DefKind is the declaration keyword ("part", "port", "requirement",
	// "class", ...) for classifiers, definitions and usages.
	DefKind string

	Abstract  bool
	Variation bool
	Direction string

	TypedBy     *Ref  // usage/feature typing    (: Type)
	Specializes []Ref // specialization          (:> General)
	Subsets     []Ref // subsetting              (:> general, on usages)
	Redefines   []Ref // redefinition            (:>> inherited)
	Satisfies   []Ref // satisfaction            (satisfy Requirement)

	// Alias declarations.
	AliasTarget string

	// Import directives. ImportAs carries the optional local rename of a
	// member import.
	Import     ImportKind
	ImportPath string
	ImportAs   string

	Children []*Element
}

// File is the root of one parsed source file. Files are immutable once
// produced by the parser; the engine never writes into them.
type File struct {
	Path     string
	Elements []*Element
}

