package layout

import "github.com/matzehuels/nnviz/pkg/graph"

// Layers is the ordered column assignment produced by [Assign].
type Layers [][]string

// Len returns the number of columns.
func (ls Layers) Len() int { return len(ls) }

// Index maps every placed id to its column.
func (ls Layers) Index() map[string]int {
	idx := make(map[string]int)
	for i, ids := range ls {
		for _, id := range ids {
			idx[id] = i
		}
	}
	return idx
}

// Count returns the total number of placed ids.
func (ls Layers) Count() int {
	n := 0
	for _, ids := range ls {
		n += len(ids)
	}
	return n
}

// Widest returns the size of the largest column.
func (ls Layers) Widest() int {
	w := 0
	for _, ids := range ls {
		w = max(w, len(ids))
	}
	return w
}

// Assign computes the column of every declared node of g.
func Assign(g graph.Graph) Layers {
	declared := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		declared[n.ID] = true
	}

	indeg := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		indeg[e.To]++
	}
	parents := g.Parents()

	var frontier []string
	for _, n := range g.Nodes {
		if indeg[n.ID] == 0 {
			frontier = append(frontier, n.ID)
		}
	}

	var layers Layers
	seen := make(map[string]bool, len(g.Nodes))
	for len(frontier) > 0 {
		var col []string
		for _, id := range frontier {
			if !seen[id] {
				seen[id] = true
				col = append(col, id)
			}
		}
		layers = append(layers, col)
		frontier = nextFrontier(g.Edges, parents, declared, seen)
	}

	return fallback(g, layers, seen)
}

// nextFrontier scans edges in order and returns the unseen declared targets
// whose parents are all seen, de-duplicated by first qualification.
func nextFrontier(edges []graph.Edge, parents map[string][]string, declared, seen map[string]bool) []string {
	var next []string
	queued := make(map[string]bool)
	for _, e := range edges {
		v := e.To
		if !seen[e.From] || seen[v] || queued[v] || !declared[v] {
			continue
		}
		if allSeen(parents[v], seen) {
			queued[v] = true
			next = append(next, v)
		}
	}
	return next
}

func allSeen(ids []string, seen map[string]bool) bool {
	for _, id := range ids {
		if !seen[id] {
			return false
		}
	}
	return true
}

// fallback appends every declared node the traversal never reached to column 0.
func fallback(g graph.Graph, layers Layers, seen map[string]bool) Layers {
	for _, n := range g.Nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		if len(layers) == 0 {
			layers = append(layers, nil)
		}
		layers[0] = append(layers[0], n.ID)
	}
	return layers
}
