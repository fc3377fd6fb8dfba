// Package resolver turns name references into symbol identities. It covers
// both directions the engine needs: resolving a qualified or simple name
// from the scope it occurs in, and expanding import directives into the
// per-scope visibility bindings the simple-name path relies on.
package resolver

import (
	"strings"

	domainerrors "github.com/mohammed-j-mahmoud/syster/internal/core/errors"
	"github.com/mohammed-j-mahmoud/syster/internal/symbols"
)

type Resolver struct {
	table *symbols.Table
}

func New(table *symbols.Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve produces the symbol a reference denotes from the given scope.
// Qualified references resolve the first segment by simple-name search and
// the rest by exact path; aliases are chased with a cycle guard.
func (r *Resolver) Resolve(ref string, scopeID int) (*symbols.Symbol, error) {
	sym, err := r.resolveRaw(ref, scopeID)
	if err != nil {
		return nil, err
	}
	return r.chaseAlias(sym, map[string]bool{})
}

func (r *Resolver) resolveRaw(ref string, scopeID int) (*symbols.Symbol, error) {
	if strings.Contains(ref, "::") {
		if sym, ok := r.table.LookupQualified(ref); ok {
			return sym, nil
		}
		// The leading segment may itself be a simple name or alias made
		// visible in this scope; anchor it, then follow the rest exactly.
		segs := strings.Split(ref, "::")
		head, err := r.resolveRaw(segs[0], scopeID)
		if err != nil {
			return nil, notFound(ref)
		}
		head, err = r.chaseAlias(head, map[string]bool{})
		if err != nil {
			return nil, err
		}
		full := head.QualifiedName + "::" + strings.Join(segs[1:], "::")
		if sym, ok := r.table.LookupQualified(full); ok {
			return sym, nil
		}
		return nil, notFound(ref)
	}
	return r.table.LookupSimple(ref, scopeID)
}

// chaseAlias follows alias targets until a concrete symbol is reached. A
// chain revisiting a name already seen fails instead of looping.
func (r *Resolver) chaseAlias(sym *symbols.Symbol, seen map[string]bool) (*symbols.Symbol, error) {
	for sym.Kind == symbols.KindAlias {
		if seen[sym.QualifiedName] {
			return nil, &domainerrors.DomainError{
				Code:    domainerrors.CodeValidationError,
				Message: "alias cycle through " + sym.QualifiedName,
				Context: map[string]interface{}{domainerrors.CtxSymbol: sym.QualifiedName},
			}
		}
		seen[sym.QualifiedName] = true

		next, err := r.resolveRaw(sym.AliasTarget, sym.ScopeID)
		if err != nil {
			return nil, err
		}
		sym = next
	}
	return sym, nil
}

// IsAliasCycle reports whether a resolution failure came from a circular
// alias chain rather than a plain miss.
func IsAliasCycle(err error) bool {
	return domainerrors.IsCode(err, domainerrors.CodeValidationError)
}

// IsAmbiguous reports whether resolution failed on an ambiguous simple name.
func IsAmbiguous(err error) bool {
	return symbols.IsAmbiguous(err)
}

func notFound(ref string) error {
	return &domainerrors.DomainError{
		Code:    domainerrors.CodeNotFound,
		Message: "unresolved reference " + ref,
		Context: map[string]interface{}{domainerrors.CtxSymbol: ref},
	}
}
