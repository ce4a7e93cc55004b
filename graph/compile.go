package graph

// InputRef records where one declared input pin of an execution step gets its
// value: the source node and output pin when connected, or "unconnected"
// (fall back to instance data / defaults).
type InputRef struct {
	Node      string
	Pin       string
	Connected bool
}

// Step is one entry of a compiled plan: a node, its kind, and one InputRef
// per declared input pin.
type Step struct {
	NodeID string
	Kind   *Kind
	Inputs []InputRef
	Data   Data
}

// Plan is the compiled artifact: execution steps in a valid topological order
// of the node graph. For every connection A→B present in the plan, A's step
// appears strictly before B's.
//
// Cycles lists the ids of nodes that had an input link truncated by the
// cycle guard. Plans for acyclic graphs always have an empty Cycles list;
// cyclic subgraphs still compile and run, just with the back edge dropped.
type Plan struct {
	Steps  []Step
	Cycles []string
}

// visit marks for the iterative depth-first traversal.
const (
	unvisited = iota
	visiting
	done
)

// Compile orders the node graph into an execution plan. Every node in the
// input set is used as a traversal root, so disconnected components are
// covered. Nodes whose type has no registered kind are skipped, not errors:
// the editor may reference kinds from a newer catalogue. Cyclic subgraphs are
// broken by the visit guard and reported via Plan.Cycles.
func Compile(nodes []Node, conns []Connection, reg *Registry) *Plan {
	byID := make(map[string]*Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	// inbound[node][input pin] = connection feeding that pin. Last one wins
	// when the editor let a duplicate through.
	inbound := make(map[string]map[string]Connection)
	for _, c := range conns {
		m := inbound[c.ToNode]
		if m == nil {
			m = make(map[string]Connection)
			inbound[c.ToNode] = m
		}
		m[c.ToPin] = c
	}

	plan := &Plan{}
	mark := make(map[string]int, len(nodes))
	cycled := make(map[string]bool)

	// Explicit worklist instead of recursion: editor graphs can chain
	// arbitrarily deep, and the cycle guard stays auditable.
	var stack []string
	for _, n := range nodes {
		if mark[n.ID] != 0 {
			continue
		}
		stack = append(stack[:0], n.ID)
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			switch mark[id] {
			case done:
				stack = stack[:len(stack)-1]
			case visiting:
				// All producers emitted; this node comes after them.
				stack = stack[:len(stack)-1]
				mark[id] = done
				emitStep(plan, byID[id], inbound[id], byID, reg)
			default:
				node := byID[id]
				kind, ok := reg.Lookup(node.Type)
				if !ok {
					// Unknown kind: skip the node entirely.
					stack = stack[:len(stack)-1]
					mark[id] = done
					continue
				}
				mark[id] = visiting
				for i := len(kind.Inputs) - 1; i >= 0; i-- {
					conn, connected := inbound[id][kind.Inputs[i].ID]
					if !connected {
						continue
					}
					if _, exists := byID[conn.FromNode]; !exists {
						continue // dangling reference, treated as unconnected
					}
					switch mark[conn.FromNode] {
					case unvisited:
						stack = append(stack, conn.FromNode)
					case visiting:
						// Back edge: the producer is mid-visit, so this
						// input stays under-specified rather than failing
						// the compile.
						if !cycled[id] {
							cycled[id] = true
							plan.Cycles = append(plan.Cycles, id)
						}
					}
				}
			}
		}
	}
	return plan
}

// emitStep appends the execution step for node, resolving each declared input
// pin to its feeding connection or to "unconnected".
func emitStep(plan *Plan, node *Node, pins map[string]Connection, byID map[string]*Node, reg *Registry) {
	kind, _ := reg.Lookup(node.Type)
	inputs := make([]InputRef, len(kind.Inputs))
	for i, pin := range kind.Inputs {
		conn, ok := pins[pin.ID]
		if !ok {
			continue
		}
		if _, exists := byID[conn.FromNode]; !exists {
			continue
		}
		inputs[i] = InputRef{Node: conn.FromNode, Pin: conn.FromPin, Connected: true}
	}
	plan.Steps = append(plan.Steps, Step{
		NodeID: node.ID,
		Kind:   kind,
		Inputs: inputs,
		Data:   node.Data,
	})
}
