// Package graph holds the directed relationship multigraphs over symbol
// qualified names: one graph per relationship kind. Insertion is total;
// cycle detection and reporting belong to the analyzer so that graph
// construction stays side-effect free.
package graph

import (
	"sort"
	"sync"

	"github.com/mohammed-j-mahmoud/syster/internal/diag"
)

// Kind discriminates the relationship graphs.
type Kind int

const (
	Specialization Kind = iota
	Typing
	Subsetting
	Redefinition
	Satisfaction
)

func (k Kind) String() string {
	switch k {
	case Specialization:
		return "specialization"
	case Typing:
		return "typing"
	case Subsetting:
		return "subsetting"
	case Redefinition:
		return "redefinition"
	case Satisfaction:
		return "satisfaction"
	default:
		return "unknown"
	}
}

// Kinds lists every relationship kind in a stable order.
var Kinds = []Kind{Specialization, Typing, Subsetting, Redefinition, Satisfaction}

// Edge records one directed relationship with the source position that
// declared it.
type Edge struct {
	From string
	To   string
	File string
	Span diag.Span
}

// Graph is the set of per-kind relationship multigraphs. Reads take a
// shared lock and return copies; the workspace serializes writers.
type Graph struct {
	mu sync.RWMutex

	// forward and reverse adjacency per kind: from -> to -> edge.
	forward map[Kind]map[string]map[string]*Edge
	reverse map[Kind]map[string]map[string]bool

	// byFile tracks which edges each file contributed, for retraction.
	byFile map[string][]*Edge
	kindOf map[*Edge]Kind
}

func New() *Graph {
	g := &Graph{
		forward: make(map[Kind]map[string]map[string]*Edge),
		reverse: make(map[Kind]map[string]map[string]bool),
		byFile:  make(map[string][]*Edge),
		kindOf:  make(map[*Edge]Kind),
	}
	for _, k := range Kinds {
		g.forward[k] = make(map[string]map[string]*Edge)
		g.reverse[k] = make(map[string]map[string]bool)
	}
	return g
}

// AddEdge inserts a directed edge. It never rejects: self-edges and edges
// that close a cycle are inserted as-is and flagged later by validation.
func (g *Graph) AddEdge(kind Kind, edge Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fwd := g.forward[kind]
	if fwd[edge.From] == nil {
		fwd[edge.From] = make(map[string]*Edge)
	}
	if _, exists := fwd[edge.From][edge.To]; exists {
		return
	}
	e := &edge
	fwd[edge.From][edge.To] = e

	rev := g.reverse[kind]
	if rev[edge.To] == nil {
		rev[edge.To] = make(map[string]bool)
	}
	rev[edge.To][edge.From] = true

	g.byFile[edge.File] = append(g.byFile[edge.File], e)
	g.kindOf[e] = kind
}

// TargetsOf returns the direct targets of a node in one graph, sorted.
func (g *Graph) TargetsOf(kind Kind, from string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.forward[kind][from])
}

// SpecializationsOf returns the direct specialization targets of a name.
func (g *Graph) SpecializationsOf(name string) []string {
	return g.TargetsOf(Specialization, name)
}

// IsSpecialization reports whether a transitively specializes b. The walk
// carries a visited set so it terminates on graphs that have not been
// validated yet; revisiting a node short-circuits that branch to false.
func (g *Graph) IsSpecialization(a, b string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[string]bool)
	var walk func(string) bool
	walk = func(cur string) bool {
		if cur == b {
			return true
		}
		if visited[cur] {
			return false
		}
		visited[cur] = true
		for next := range g.forward[Specialization][cur] {
			if walk(next) {
				return true
			}
		}
		return false
	}
	if a == b {
		return false
	}
	return walk(a)
}

// SatisfactionsOf returns the names that declare satisfaction of the given
// requirement, sorted.
func (g *Graph) SatisfactionsOf(requirement string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	sources := g.reverse[Satisfaction][requirement]
	out := make([]string, 0, len(sources))
	for from := range sources {
		out = append(out, from)
	}
	sort.Strings(out)
	return out
}

// EdgeBetween returns the edge from one node to another, if present.
func (g *Graph) EdgeBetween(kind Kind, from, to string) (Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if e, ok := g.forward[kind][from][to]; ok {
		return *e, true
	}
	return Edge{}, false
}

// Edges returns a copy of every edge of one kind, ordered by (from, to).
func (g *Graph) Edges(kind Kind) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []Edge
	for _, from := range sortedKeys(g.forward[kind]) {
		for _, to := range sortedKeys(g.forward[kind][from]) {
			out = append(out, *g.forward[kind][from][to])
		}
	}
	return out
}

// EdgeCount returns the total number of edges across all kinds.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, k := range Kinds {
		for _, tos := range g.forward[k] {
			n += len(tos)
		}
	}
	return n
}

// RemoveFile retracts every edge the file contributed.
func (g *Graph) RemoveFile(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, e := range g.byFile[path] {
		kind := g.kindOf[e]
		if fwd := g.forward[kind][e.From]; fwd != nil && fwd[e.To] == e {
			delete(fwd, e.To)
			if len(fwd) == 0 {
				delete(g.forward[kind], e.From)
			}
			if rev := g.reverse[kind][e.To]; rev != nil {
				delete(rev, e.From)
				if len(rev) == 0 {
					delete(g.reverse[kind], e.To)
				}
			}
		}
		delete(g.kindOf, e)
	}
	delete(g.byFile, path)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
