package dag

import (
	"github.com/leapstack-labs/sqldoctor/internal/schema"
)

// Build constructs the dependency graph for a set of schema units.
//
// Each unit becomes a node (discovery order preserved). A unit referencing a
// table created by another unit gains a "must load after" dependency on that
// unit. A table is expected to be created in exactly one unit; on duplicates
// the first writer wins. Self-references (a unit referencing its own table,
// e.g. a self-referencing foreign key) never create a self-edge.
func Build(units []*schema.Unit) *Graph {
	g := NewGraph()

	creator := make(map[string]string)
	for _, u := range units {
		g.AddNode(u.ID, u)
		for _, table := range u.Creates {
			if _, taken := creator[table]; !taken {
				creator[table] = u.ID
			}
		}
	}

	for _, u := range units {
		for _, table := range u.References {
			owner, ok := creator[table]
			if !ok || owner == u.ID {
				continue
			}
			// owner must load before u
			_ = g.AddEdge(owner, u.ID)
		}
	}

	return g
}
