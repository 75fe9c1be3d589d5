package auction

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/kilianp07/trackauction/core/model"
)

// conflictGraph links every pair of bids whose cell sets intersect.
type conflictGraph struct {
	g     *simple.UndirectedGraph
	adj   []bitset
	edges int
	// cliques lists, per contested cell, the bids that want it. Identical
	// bid groups appear once.
	cliques [][]int
}

// buildConflictGraph indexes bids by packed cell key so that only bids
// actually sharing a cell are ever compared.
func buildConflictGraph(grid model.Grid, bids []model.Bid) *conflictGraph {
	n := len(bids)
	cg := &conflictGraph{g: simple.NewUndirectedGraph(), adj: make([]bitset, n)}
	for i := range bids {
		cg.g.AddNode(simple.Node(i))
		cg.adj[i] = newBitset(n)
	}

	index := make(map[int][]int)
	for i, b := range bids {
		for _, c := range b.Cells {
			k := grid.Key(c)
			index[k] = append(index[k], i)
		}
	}

	keys := make([]int, 0, len(index))
	for k, owners := range index {
		if len(owners) > 1 {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	seen := make(map[string]struct{})
	for _, k := range keys {
		owners := index[k]
		for a := 0; a < len(owners); a++ {
			for b := a + 1; b < len(owners); b++ {
				i, j := owners[a], owners[b]
				if cg.adj[i].has(j) {
					continue
				}
				cg.adj[i].set(j)
				cg.adj[j].set(i)
				cg.g.SetEdge(simple.Edge{F: simple.Node(i), T: simple.Node(j)})
				cg.edges++
			}
		}
		sig := cliqueSignature(owners)
		if _, dup := seen[sig]; !dup {
			seen[sig] = struct{}{}
			cg.cliques = append(cg.cliques, owners)
		}
	}
	return cg
}

func cliqueSignature(owners []int) string {
	var sb strings.Builder
	for _, o := range owners {
		sb.WriteString(strconv.Itoa(o))
		sb.WriteByte(',')
	}
	return sb.String()
}

// components returns the connected components of the conflict graph. Each
// component lists its bids in increasing index order and components are
// ordered by their smallest index.
func (cg *conflictGraph) components() [][]int {
	var out [][]int
	for _, nodes := range topo.ConnectedComponents(cg.g) {
		comp := make([]int, 0, len(nodes))
		for _, nd := range nodes {
			comp = append(comp, int(nd.ID()))
		}
		slices.Sort(comp)
		out = append(out, comp)
	}
	slices.SortFunc(out, func(a, b []int) int { return cmp.Compare(a[0], b[0]) })
	return out
}

// conflicts reports whether bids i and j share a cell.
func (cg *conflictGraph) conflicts(i, j int) bool {
	return cg.g.HasEdgeBetween(int64(i), int64(j))
}
