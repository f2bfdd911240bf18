package solver

import (
	"math"

	"github.com/vanderheijden86/reliefplan/pkg/debug"
	"github.com/vanderheijden86/reliefplan/pkg/metrics"
	"github.com/vanderheijden86/reliefplan/pkg/model"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// ShortestPath finds the cheapest route between two named places.
//
// Every non-zero off-diagonal cell adj[i][j] is a directed edge i->j, so
// asymmetric matrices describe one-way roads. Negative weights are allowed as
// long as no negative cycle is reachable from the source; a negative diagonal
// cell is such a cycle.
func ShortestPath(req model.ShortestPathRequest) (model.ShortestPathResponse, error) {
	defer metrics.Timer(metrics.ShortestPath)()

	resp, err := shortestPath(req)
	if err != nil {
		metrics.ShortestPath.RecordError()
	}
	return resp, err
}

func shortestPath(req model.ShortestPathRequest) (model.ShortestPathResponse, error) {
	if err := req.Network.Validate(); err != nil {
		return model.ShortestPathResponse{}, invalidf("Invalid network: %v.", err)
	}

	src := req.Index(req.Source)
	dst := req.Index(req.Destination)
	if src < 0 || dst < 0 {
		return model.ShortestPathResponse{}, ErrUnknownEndpoint
	}

	g := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	for i := range req.Names {
		g.AddNode(simple.Node(i))
	}
	edges := 0
	for i, row := range req.Adjacency {
		for j, w := range row {
			if i == j || w == 0 {
				continue
			}
			g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(i), T: simple.Node(j), W: w})
			edges++
		}
	}
	debug.Log("shortest path: %d nodes, %d edges, %s -> %s", len(req.Names), edges, req.Source, req.Destination)

	tree, ok := path.BellmanFordFrom(simple.Node(src), g)
	if !ok {
		return model.ShortestPathResponse{}, ErrNegativeCycle
	}
	for i := range req.Names {
		if req.Adjacency[i][i] < 0 && !math.IsInf(tree.WeightTo(int64(i)), 1) {
			return model.ShortestPathResponse{}, ErrNegativeCycle
		}
	}

	nodes, dist := tree.To(int64(dst))
	if len(nodes) == 0 || math.IsInf(dist, 1) {
		return model.ShortestPathResponse{}, ErrNoPath
	}

	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = req.Names[n.ID()]
	}
	return model.ShortestPathResponse{Distance: dist, Path: names}, nil
}
