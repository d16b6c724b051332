package dag

import (
	"testing"
)

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := NewGraph()

	g.AddNode("a", nil)
	g.AddNode("b", nil)
	g.AddNode("c", nil)

	if g.NodeCount() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.NodeCount())
	}

	if err := g.AddEdge("a", "b"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}
	if err := g.AddEdge("b", "c"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}

	if g.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", g.EdgeCount())
	}
}

func TestGraph_AddEdge_InvalidNodes(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)

	if err := g.AddEdge("a", "nonexistent"); err == nil {
		t.Error("expected error for nonexistent child node")
	}
	if err := g.AddEdge("nonexistent", "a"); err == nil {
		t.Error("expected error for nonexistent parent node")
	}
}

func TestGraph_AddEdge_SelfLoop(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)

	if err := g.AddEdge("a", "a"); err == nil {
		t.Error("expected error for self-loop")
	}
}

func TestGraph_HasCycle(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)
	g.AddNode("b", nil)
	g.AddNode("c", nil)
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")

	if has, _ := g.HasCycle(); has {
		t.Error("acyclic graph reported a cycle")
	}

	g.AddEdge("c", "a")
	has, path := g.HasCycle()
	if !has {
		t.Error("cyclic graph not detected")
	}
	if len(path) == 0 {
		t.Error("expected a non-empty cycle path")
	}
}

func TestLoadPlan_RespectsEdges(t *testing.T) {
	g := NewGraph()
	g.AddNode("jobs", nil)
	g.AddNode("users", nil)
	g.AddNode("teams", nil)
	// jobs depends on users, users depends on teams
	g.AddEdge("users", "jobs")
	g.AddEdge("teams", "users")

	plan, hadCycle := g.LoadPlan()
	if hadCycle {
		t.Fatal("unexpected cycle")
	}
	if len(plan) != 3 {
		t.Fatalf("expected 3 nodes in plan, got %d", len(plan))
	}

	pos := planPositions(plan)
	if pos["teams"] > pos["users"] || pos["users"] > pos["jobs"] {
		t.Errorf("plan violates dependency order: %v", planIDs(plan))
	}
}

// Worked example: A creates orders and references customers; B creates
// customers; C creates products. B must precede A, C floats free.
func TestLoadPlan_WorkedExample(t *testing.T) {
	g := NewGraph()
	g.AddNode("A", nil)
	g.AddNode("B", nil)
	g.AddNode("C", nil)
	g.AddEdge("B", "A")

	plan, hadCycle := g.LoadPlan()
	if hadCycle {
		t.Fatal("unexpected cycle")
	}
	if len(plan) != 3 {
		t.Fatalf("expected every unit scheduled exactly once, got %d", len(plan))
	}

	pos := planPositions(plan)
	if pos["B"] > pos["A"] {
		t.Errorf("B must precede A, got %v", planIDs(plan))
	}
	seen := map[string]int{}
	for _, n := range plan {
		seen[n.ID]++
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("unit %s scheduled %d times", id, count)
		}
	}
}

func TestLoadPlan_StableDiscoveryOrderTieBreak(t *testing.T) {
	// z, m, a are all independent; the plan must preserve discovery order,
	// not sort alphabetically.
	g := NewGraph()
	g.AddNode("z", nil)
	g.AddNode("m", nil)
	g.AddNode("a", nil)

	plan, hadCycle := g.LoadPlan()
	if hadCycle {
		t.Fatal("unexpected cycle")
	}

	got := planIDs(plan)
	want := []string{"z", "m", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected discovery order %v, got %v", want, got)
		}
	}
}

func TestLoadPlan_CycleFallbackLexicographic(t *testing.T) {
	g := NewGraph()
	g.AddNode("zeta", nil)
	g.AddNode("beta", nil)
	g.AddNode("alpha", nil)
	// beta <-> zeta cycle; alpha independent
	g.AddEdge("zeta", "beta")
	g.AddEdge("beta", "zeta")

	plan, hadCycle := g.LoadPlan()
	if !hadCycle {
		t.Fatal("expected cycle to be reported")
	}
	if len(plan) != 3 {
		t.Fatalf("fallback plan must contain every node, got %d", len(plan))
	}

	// Whole set lexicographic, not just the cyclic residue.
	got := planIDs(plan)
	want := []string{"alpha", "beta", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected lexicographic fallback %v, got %v", want, got)
		}
	}
}

func TestExecutionLevels(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)
	g.AddNode("b", nil)
	g.AddNode("c", nil)
	g.AddNode("d", nil)
	g.AddEdge("a", "c")
	g.AddEdge("b", "c")
	g.AddEdge("c", "d")

	levels, hadCycle := g.ExecutionLevels()
	if hadCycle {
		t.Fatal("unexpected cycle")
	}
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(levels))
	}
	if len(levels[0]) != 2 {
		t.Errorf("expected a and b at level 0, got %v", planIDs(levels[0]))
	}
	if len(levels[1]) != 1 || levels[1][0].ID != "c" {
		t.Errorf("expected c at level 1, got %v", planIDs(levels[1]))
	}
	if len(levels[2]) != 1 || levels[2][0].ID != "d" {
		t.Errorf("expected d at level 2, got %v", planIDs(levels[2]))
	}
}

func TestExecutionLevels_CycleFallsBackToSequential(t *testing.T) {
	g := NewGraph()
	g.AddNode("b", nil)
	g.AddNode("a", nil)
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")

	levels, hadCycle := g.ExecutionLevels()
	if !hadCycle {
		t.Fatal("expected cycle")
	}
	if len(levels) != 2 {
		t.Fatalf("expected one node per level, got %d levels", len(levels))
	}
	for _, level := range levels {
		if len(level) != 1 {
			t.Errorf("cyclic fallback must be sequential, got level of size %d", len(level))
		}
	}
}

func planPositions(plan []*Node) map[string]int {
	pos := make(map[string]int, len(plan))
	for i, n := range plan {
		pos[n.ID] = i
	}
	return pos
}

func planIDs(plan []*Node) []string {
	ids := make([]string, 0, len(plan))
	for _, n := range plan {
		ids = append(ids, n.ID)
	}
	return ids
}
