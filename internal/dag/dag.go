// Package dag provides directed graph operations for schema-unit dependencies.
// It supports cycle detection, dependency-ordered load planning with a
// deterministic fallback for cyclic schemas, and level grouping for parallel
// imports.
package dag

import (
	"fmt"
	"sort"
)

// Node represents a node in the graph.
type Node struct {
	// ID is the unique identifier (schema-unit identifier)
	ID string
	// Data holds arbitrary node data
	Data interface{}
}

// Graph represents a directed dependency graph. Unlike a strict DAG it may
// contain cycles; load planning handles that case explicitly.
type Graph struct {
	nodes   map[string]*Node
	edges   map[string][]string // parent -> children (dependents)
	parents map[string][]string // child -> parents (dependencies)
	order   []string            // node IDs in discovery order
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node to the graph. Discovery order is preserved for
// deterministic planning.
func (g *Graph) AddNode(id string, data interface{}) {
	if _, exists := g.nodes[id]; !exists {
		g.nodes[id] = &Node{ID: id, Data: data}
		g.edges[id] = []string{}
		g.parents[id] = []string{}
		g.order = append(g.order, id)
	} else {
		g.nodes[id].Data = data
	}
}

// AddEdge adds a directed edge from parent to child (child depends on parent,
// i.e. parent must load first). Self-loops are rejected.
func (g *Graph) AddEdge(parentID, childID string) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child node %q does not exist", childID)
	}

	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", parentID)
	}

	// Add edge (avoid duplicates)
	if !contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}

	return nil
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// GetParents returns the parents (dependencies) of a node.
func (g *Graph) GetParents(id string) []string {
	return g.parents[id]
}

// GetChildren returns the children (dependents) of a node.
func (g *Graph) GetChildren(id string) []string {
	return g.edges[id]
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// HasCycle returns true if the graph contains a cycle, along with the cycle path.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.edges[id] {
			if !visited[childID] {
				path[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				// Found cycle, reconstruct path
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for _, id := range g.order {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}

	return false, nil
}

// LoadPlan returns all nodes in an order where dependencies precede
// dependents, using Kahn's algorithm. Ties among simultaneously-ready nodes
// are broken by discovery order, keeping plans reproducible run-to-run.
//
// When the graph contains a cycle no such order exists; instead of failing,
// the plan falls back to ALL nodes sorted lexicographically by ID and
// hadCycle is true. The plan always contains every node exactly once.
func (g *Graph) LoadPlan() (plan []*Node, hadCycle bool) {
	inDegree := make(map[string]int, len(g.nodes))
	for _, id := range g.order {
		inDegree[id] = len(g.parents[id])
	}

	var queue []string
	for _, id := range g.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		plan = append(plan, g.nodes[id])

		for _, childID := range g.edges[id] {
			inDegree[childID]--
			if inDegree[childID] == 0 {
				queue = append(queue, childID)
			}
		}
	}

	if len(plan) == len(g.nodes) {
		return plan, false
	}

	// Residual in-degree means a cycle: substitute a deterministic total
	// order over the whole node set rather than halting.
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	sort.Strings(ids)

	plan = make([]*Node, 0, len(ids))
	for _, id := range ids {
		plan = append(plan, g.nodes[id])
	}
	return plan, true
}

// ExecutionLevels groups nodes by dependency depth. Nodes at level N can be
// imported in parallel after level N-1 completes. For cyclic graphs the
// fallback plan is returned as one node per level, forcing sequential import.
func (g *Graph) ExecutionLevels() (levels [][]*Node, hadCycle bool) {
	plan, hadCycle := g.LoadPlan()
	if hadCycle {
		levels = make([][]*Node, 0, len(plan))
		for _, n := range plan {
			levels = append(levels, []*Node{n})
		}
		return levels, true
	}

	depth := make(map[string]int, len(plan))
	maxDepth := 0
	for _, n := range plan {
		d := 0
		for _, parentID := range g.parents[n.ID] {
			if pd := depth[parentID] + 1; pd > d {
				d = pd
			}
		}
		depth[n.ID] = d
		if d > maxDepth {
			maxDepth = d
		}
	}

	levels = make([][]*Node, maxDepth+1)
	for _, n := range plan {
		levels[depth[n.ID]] = append(levels[depth[n.ID]], n)
	}
	return levels, false
}

// contains checks if a slice contains a string.
func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
