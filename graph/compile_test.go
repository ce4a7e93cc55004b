package graph

import "testing"

func stepIndex(t *testing.T, p *Plan, nodeID string) int {
	t.Helper()
	for i, s := range p.Steps {
		if s.NodeID == nodeID {
			return i
		}
	}
	t.Fatalf("node %q not in plan", nodeID)
	return -1
}

func hasStep(p *Plan, nodeID string) bool {
	for _, s := range p.Steps {
		if s.NodeID == nodeID {
			return true
		}
	}
	return false
}

func TestCompileTopologicalOrder(t *testing.T) {
	reg := Builtin()
	nodes := []Node{
		{ID: "viewer", Type: "Add"},
		{ID: "sine", Type: "Sine"},
		{ID: "time", Type: "Time"},
	}
	conns := []Connection{
		{FromNode: "time", FromPin: "t", ToNode: "sine", ToPin: "in"},
		{FromNode: "sine", FromPin: "out", ToNode: "viewer", ToPin: "a"},
	}
	plan := Compile(nodes, conns, reg)

	if len(plan.Steps) != 3 {
		t.Fatalf("plan has %d steps, want 3", len(plan.Steps))
	}
	// For every connection, the producer's step must appear strictly before
	// the consumer's.
	for _, c := range conns {
		if stepIndex(t, plan, c.FromNode) >= stepIndex(t, plan, c.ToNode) {
			t.Errorf("connection %s->%s violates topological order", c.FromNode, c.ToNode)
		}
	}
	if len(plan.Cycles) != 0 {
		t.Errorf("acyclic graph reported cycles: %v", plan.Cycles)
	}
}

func TestCompileCoversDisconnectedComponents(t *testing.T) {
	reg := Builtin()
	nodes := []Node{
		{ID: "a", Type: "Float", Data: Data{"value": 1.0}},
		{ID: "island", Type: "Time"},
	}
	plan := Compile(nodes, nil, reg)
	if !hasStep(plan, "a") || !hasStep(plan, "island") {
		t.Error("disconnected node missing from plan")
	}
}

func TestCompileSkipsUnknownKinds(t *testing.T) {
	reg := Builtin()
	nodes := []Node{
		{ID: "known", Type: "Time"},
		{ID: "mystery", Type: "FluxCapacitor"},
	}
	plan := Compile(nodes, nil, reg)
	if hasStep(plan, "mystery") {
		t.Error("unknown kind should be skipped, not planned")
	}
	if !hasStep(plan, "known") {
		t.Error("known kind missing from plan")
	}
}

func TestCompileSharedProducerAppearsOnce(t *testing.T) {
	reg := Builtin()
	nodes := []Node{
		{ID: "t", Type: "Time"},
		{ID: "s1", Type: "Sine"},
		{ID: "s2", Type: "Sine"},
	}
	conns := []Connection{
		{FromNode: "t", FromPin: "t", ToNode: "s1", ToPin: "in"},
		{FromNode: "t", FromPin: "t", ToNode: "s2", ToPin: "in"},
	}
	plan := Compile(nodes, conns, reg)
	count := 0
	for _, s := range plan.Steps {
		if s.NodeID == "t" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("shared producer planned %d times, want 1", count)
	}
	if stepIndex(t, plan, "t") >= stepIndex(t, plan, "s1") ||
		stepIndex(t, plan, "t") >= stepIndex(t, plan, "s2") {
		t.Error("producer must precede both consumers")
	}
}

func TestCompileCycleDoesNotCrash(t *testing.T) {
	reg := Builtin()
	nodes := []Node{
		{ID: "a", Type: "Add"},
		{ID: "b", Type: "Add"},
	}
	conns := []Connection{
		{FromNode: "a", FromPin: "out", ToNode: "b", ToPin: "a"},
		{FromNode: "b", FromPin: "out", ToNode: "a", ToPin: "a"},
	}
	plan := Compile(nodes, conns, reg)
	if len(plan.Steps) != 2 {
		t.Fatalf("cyclic pair compiled to %d steps, want 2", len(plan.Steps))
	}
	if len(plan.Cycles) == 0 {
		t.Error("cycle not surfaced in Plan.Cycles")
	}
}

func TestCompileSelfLoop(t *testing.T) {
	reg := Builtin()
	nodes := []Node{{ID: "a", Type: "Add"}}
	conns := []Connection{{FromNode: "a", FromPin: "out", ToNode: "a", ToPin: "a"}}
	plan := Compile(nodes, conns, reg)
	if len(plan.Steps) != 1 {
		t.Fatalf("self-loop compiled to %d steps, want 1", len(plan.Steps))
	}
	if len(plan.Cycles) != 1 || plan.Cycles[0] != "a" {
		t.Errorf("Cycles = %v, want [a]", plan.Cycles)
	}
}

func TestCompileDanglingSourceIsUnconnected(t *testing.T) {
	reg := Builtin()
	nodes := []Node{{ID: "s", Type: "Sine"}}
	conns := []Connection{{FromNode: "ghost", FromPin: "out", ToNode: "s", ToPin: "in"}}
	plan := Compile(nodes, conns, reg)

	i := stepIndex(t, plan, "s")
	if plan.Steps[i].Inputs[0].Connected {
		t.Error("connection from a nonexistent node must resolve to unconnected")
	}
}

func TestCompileDuplicateInputLastWins(t *testing.T) {
	reg := Builtin()
	nodes := []Node{
		{ID: "f1", Type: "Float", Data: Data{"value": 1.0}},
		{ID: "f2", Type: "Float", Data: Data{"value": 2.0}},
		{ID: "s", Type: "Sine"},
	}
	conns := []Connection{
		{FromNode: "f1", FromPin: "value", ToNode: "s", ToPin: "in"},
		{FromNode: "f2", FromPin: "value", ToNode: "s", ToPin: "in"},
	}
	plan := Compile(nodes, conns, reg)
	i := stepIndex(t, plan, "s")
	ref := plan.Steps[i].Inputs[0]
	if !ref.Connected || ref.Node != "f2" {
		t.Errorf("input ref = %+v, want connection from f2 (reconnect replaces)", ref)
	}
}
