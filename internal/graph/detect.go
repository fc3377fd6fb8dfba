package graph

// FindCycles walks one relationship graph and returns every cycle found,
// each as the path of qualified names that closes it. A self-edge comes
// back as a single-element cycle.
func (g *Graph) FindCycles(kind Kind) [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, from := range sortedKeys(g.forward[kind]) {
		if !visited[from] {
			g.findCycles(kind, from, visited, onStack, []string{}, &cycles)
		}
	}
	return cycles
}

func (g *Graph) findCycles(kind Kind, curr string, visited, onStack map[string]bool, path []string, cycles *[][]string) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range sortedKeys(g.forward[kind][curr]) {
		if onStack[next] {
			cycleStart := -1
			for i, name := range path {
				if name == next {
					cycleStart = i
					break
				}
			}
			if cycleStart != -1 {
				cycle := make([]string, len(path)-cycleStart)
				copy(cycle, path[cycleStart:])
				*cycles = append(*cycles, cycle)
			}
		} else if !visited[next] {
			g.findCycles(kind, next, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}
