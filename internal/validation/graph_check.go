package validation

import (
	"fmt"
	"sort"

	"github.com/acso/flowcanvas/pkg/schema"
)

// validateConnectivity performs graph analysis: every intermediate node
// needs at least one incoming and one outgoing connection, every node should
// be reachable from the start node, and cycles earn a warning (the simulator
// follows first-match edges, so a cycle can loop a run forever). Unwired
// start and end nodes are warnings, not errors: a bare start-and-end graph
// is still runnable and stalls visibly instead.
func validateConnectivity(g *schema.Graph) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	inDegree := make(map[string]int, len(g.Nodes))
	outDegree := make(map[string]int, len(g.Nodes))
	forward := make(map[string][]string, len(g.Nodes))
	for _, c := range g.Connections {
		outDegree[c.Source]++
		inDegree[c.Target]++
		forward[c.Source] = append(forward[c.Source], c.Target)
	}

	// Deterministic iteration for stable issue ordering.
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		n := g.Nodes[id]
		switch n.Type {
		case schema.NodeTypeStart:
			if outDegree[id] == 0 {
				result.AddWarning(id, schema.ErrCodeValidation, "start node has no outgoing connection")
			}
		case schema.NodeTypeEnd:
			if inDegree[id] == 0 {
				result.AddWarning(id, schema.ErrCodeValidation, "end node has no incoming connection")
			}
		default:
			if inDegree[id] == 0 || outDegree[id] == 0 {
				result.AddError(id, schema.ErrCodeValidation,
					fmt.Sprintf("node %q is disconnected: needs at least one incoming and one outgoing connection", n.Label))
			}
		}
	}

	// Reachability BFS from the start node.
	starts := g.StartNodes()
	if len(starts) == 1 {
		reachable := map[string]bool{starts[0].ID: true}
		queue := []string{starts[0].ID}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range forward[cur] {
				if !reachable[next] {
					reachable[next] = true
					queue = append(queue, next)
				}
			}
		}
		for _, id := range ids {
			if !reachable[id] {
				result.AddWarning(id, schema.ErrCodeValidation,
					fmt.Sprintf("node %q is unreachable from the start node", g.Nodes[id].Label))
			}
		}
	}

	if hasCycle(ids, forward) {
		result.AddWarning("/connections", schema.ErrCodeValidation,
			"graph contains a cycle; a simulation run may revisit nodes indefinitely")
	}

	return result
}

// hasCycle runs Kahn's algorithm over the forward adjacency and reports
// whether any node was left unvisited.
func hasCycle(ids []string, forward map[string][]string) bool {
	inDegree := make(map[string]int, len(ids))
	for _, id := range ids {
		inDegree[id] = 0
	}
	for _, targets := range forward {
		for _, t := range targets {
			inDegree[t]++
		}
	}

	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		visited++
		for _, t := range forward[cur] {
			inDegree[t]--
			if inDegree[t] == 0 {
				queue = append(queue, t)
			}
		}
	}

	return visited != len(ids)
}
