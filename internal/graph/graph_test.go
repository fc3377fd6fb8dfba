package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edge(from, to, file string) Edge {
	return Edge{From: from, To: to, File: file}
}

func TestAddEdgeAndDirectQueries(t *testing.T) {
	g := New()
	g.AddEdge(Specialization, edge("P::Car", "P::Vehicle", "a.sysml"))
	g.AddEdge(Specialization, edge("P::Car", "P::Asset", "a.sysml"))
	g.AddEdge(Typing, edge("P::wheels", "P::Wheel", "a.sysml"))

	assert.Equal(t, []string{"P::Asset", "P::Vehicle"}, g.SpecializationsOf("P::Car"))
	assert.Equal(t, []string{"P::Wheel"}, g.TargetsOf(Typing, "P::wheels"))
	assert.Empty(t, g.SpecializationsOf("P::Vehicle"))
	assert.Equal(t, 3, g.EdgeCount())
}

func TestAddEdgeIdempotent(t *testing.T) {
	g := New()
	g.AddEdge(Specialization, edge("A", "B", "a.sysml"))
	g.AddEdge(Specialization, edge("A", "B", "a.sysml"))
	assert.Equal(t, 1, g.EdgeCount())
}

func TestIsSpecializationTransitive(t *testing.T) {
	g := New()
	g.AddEdge(Specialization, edge("A", "B", "f"))
	g.AddEdge(Specialization, edge("B", "C", "f"))
	g.AddEdge(Specialization, edge("C", "D", "f"))

	assert.True(t, g.IsSpecialization("A", "D"))
	assert.True(t, g.IsSpecialization("B", "C"))
	assert.False(t, g.IsSpecialization("D", "A"))
	assert.False(t, g.IsSpecialization("A", "A"))
}

func TestIsSpecializationTerminatesOnCycle(t *testing.T) {
	g := New()
	g.AddEdge(Specialization, edge("A", "B", "f"))
	g.AddEdge(Specialization, edge("B", "A", "f"))

	assert.True(t, g.IsSpecialization("A", "B"))
	assert.False(t, g.IsSpecialization("A", "Missing"))
}

func TestFindCycles(t *testing.T) {
	g := New()
	g.AddEdge(Specialization, edge("A", "B", "f"))
	g.AddEdge(Specialization, edge("B", "C", "f"))
	g.AddEdge(Specialization, edge("C", "A", "f"))
	g.AddEdge(Specialization, edge("C", "D", "f"))

	cycles := g.FindCycles(Specialization)
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, cycles[0])
}

func TestFindCyclesSelfEdge(t *testing.T) {
	g := New()
	g.AddEdge(Subsetting, edge("A", "A", "f"))

	cycles := g.FindCycles(Subsetting)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"A"}, cycles[0])
}

func TestSatisfactionsOfReverseLookup(t *testing.T) {
	g := New()
	g.AddEdge(Satisfaction, edge("Sys::Engine", "Req::Power", "f"))
	g.AddEdge(Satisfaction, edge("Sys::Motor", "Req::Power", "f"))
	g.AddEdge(Satisfaction, edge("Sys::Brake", "Req::Stop", "f"))

	assert.Equal(t, []string{"Sys::Engine", "Sys::Motor"}, g.SatisfactionsOf("Req::Power"))
	assert.Equal(t, []string{"Sys::Brake"}, g.SatisfactionsOf("Req::Stop"))
	assert.Empty(t, g.SatisfactionsOf("Req::Missing"))
}

func TestRemoveFileRetractsEdges(t *testing.T) {
	g := New()
	g.AddEdge(Specialization, edge("A", "B", "a.sysml"))
	g.AddEdge(Specialization, edge("B", "C", "b.sysml"))
	g.AddEdge(Satisfaction, edge("A", "R", "a.sysml"))

	g.RemoveFile("a.sysml")

	assert.Empty(t, g.SpecializationsOf("A"))
	assert.Equal(t, []string{"C"}, g.SpecializationsOf("B"))
	assert.Empty(t, g.SatisfactionsOf("R"))
	assert.Equal(t, 1, g.EdgeCount())
}

func TestEdgesSortedCopy(t *testing.T) {
	g := New()
	g.AddEdge(Redefinition, edge("B", "X", "f"))
	g.AddEdge(Redefinition, edge("A", "Y", "f"))

	edges := g.Edges(Redefinition)
	require.Len(t, edges, 2)
	assert.Equal(t, "A", edges[0].From)
	assert.Equal(t, "B", edges[1].From)
}
