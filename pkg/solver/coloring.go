package solver

import (
	"sort"

	"github.com/vanderheijden86/reliefplan/pkg/debug"
	"github.com/vanderheijden86/reliefplan/pkg/metrics"
	"github.com/vanderheijden86/reliefplan/pkg/model"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Color assigns each zone a slot so that neighbouring zones differ.
//
// Zones i and j are neighbours when either adj[i][j] or adj[j][i] is
// non-zero. A non-zero diagonal cell never separates a zone from itself but
// counts towards its degree. Zones are visited by descending degree (ties
// in request order) and get the smallest slot not used by an already
// slotted neighbour. A positive MaxColors folds slots into 1..MaxColors,
// which can put neighbours on the same slot; those pairs are reported as
// conflicts.
func Color(req model.ColoringRequest) (model.ColoringResponse, error) {
	defer metrics.Timer(metrics.Coloring)()

	if err := req.Network.Validate(); err != nil {
		metrics.Coloring.RecordError()
		return model.ColoringResponse{}, invalidf("Invalid network: %v.", err)
	}
	if req.MaxColors < 0 {
		metrics.Coloring.RecordError()
		return model.ColoringResponse{}, invalidf("max_colors must not be negative.")
	}

	g := conflictGraph(req.Adjacency)
	loops := make([]bool, len(req.Names))
	for i := range loops {
		loops[i] = req.Adjacency[i][i] != 0
	}
	slots := greedySlots(g, loops)

	if req.MaxColors > 0 {
		for i, s := range slots {
			slots[i] = (s-1)%req.MaxColors + 1
		}
	}

	resp := model.ColoringResponse{Coloring: make(map[string]int, len(slots))}
	used := make(map[int]bool)
	for i, s := range slots {
		resp.Coloring[req.Names[i]] = s
		used[s] = true
	}
	resp.NumColors = len(used)

	for a := range slots {
		for b := a + 1; b < len(slots); b++ {
			if slots[a] == slots[b] && g.HasEdgeBetween(int64(a), int64(b)) {
				resp.Conflicts = append(resp.Conflicts, [2]string{req.Names[a], req.Names[b]})
			}
		}
	}
	sort.Slice(resp.Conflicts, func(i, j int) bool {
		if resp.Conflicts[i][0] != resp.Conflicts[j][0] {
			return resp.Conflicts[i][0] < resp.Conflicts[j][0]
		}
		return resp.Conflicts[i][1] < resp.Conflicts[j][1]
	})

	debug.Log("coloring: %d zones, %d slots, %d conflicts", len(slots), resp.NumColors, len(resp.Conflicts))
	return resp, nil
}

func conflictGraph(adj [][]float64) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for i := range adj {
		g.AddNode(simple.Node(i))
	}
	for i := range adj {
		for j := i + 1; j < len(adj); j++ {
			if adj[i][j] != 0 || adj[j][i] != 0 {
				g.SetEdge(simple.Edge{F: simple.Node(i), T: simple.Node(j)})
			}
		}
	}
	return g
}

// greedySlots runs largest-degree-first greedy coloring. Slots start at 1.
// loops[i] adds one to the degree of zone i.
func greedySlots(g graph.Undirected, loops []bool) []int {
	n := len(loops)
	order := make([]int, n)
	degree := make([]int, n)
	for i := range order {
		order[i] = i
		degree[i] = g.From(int64(i)).Len()
		if loops[i] {
			degree[i]++
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return degree[order[a]] > degree[order[b]]
	})

	slots := make([]int, n)
	for _, u := range order {
		taken := make(map[int]bool)
		nbrs := g.From(int64(u))
		for nbrs.Next() {
			if s := slots[nbrs.Node().ID()]; s > 0 {
				taken[s] = true
			}
		}
		s := 1
		for taken[s] {
			s++
		}
		slots[u] = s
	}
	return slots
}

// ThresholdAdjacency marks places within thresholdKm of each other as
// connected (1). The diagonal is always 0.
func ThresholdAdjacency(dist [][]float64, thresholdKm float64) [][]int {
	adj := make([][]int, len(dist))
	for i, row := range dist {
		adj[i] = make([]int, len(row))
		for j, d := range row {
			if i != j && d <= thresholdKm {
				adj[i][j] = 1
			}
		}
	}
	return adj
}
