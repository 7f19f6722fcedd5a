package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/fixpoint/internal/graph"
)

// BuildGraph materializes a ModelSpec as a computation graph. The
// returned map resolves model-level names to the built nodes; nodes
// deduplicated by interning may share an entry.
//
// Fails if an input references an unknown name, if the references form
// a cycle, or if a node's operand count does not match its kind.
func BuildGraph(spec *ModelSpec) (*graph.Graph, map[string]*graph.Node, error) {
	byName := make(map[string]NodeSpec, len(spec.Nodes))
	for _, ns := range spec.Nodes {
		byName[ns.Name] = ns
	}

	hasRoot := false
	for _, ns := range spec.Nodes {
		if ns.Kind == graph.KindObserve || ns.Kind == graph.KindQuery {
			hasRoot = true
		}
		for _, ref := range ns.Inputs {
			if _, ok := byName[ref]; !ok {
				return nil, nil, &CompileError{
					Field:   fmt.Sprintf("nodes.%s.inputs", ns.Name),
					Message: fmt.Sprintf("unknown node %q", ref),
					Pos:     ns.Pos,
				}
			}
		}
	}
	if !hasRoot {
		return nil, nil, &CompileError{
			Field:   "nodes",
			Message: "at least one OBSERVE or QUERY node is required",
		}
	}

	if cycle := findReferenceCycle(spec.Nodes); len(cycle) > 0 {
		first := byName[cycle[0]]
		return nil, nil, &CompileError{
			Field:   fmt.Sprintf("nodes.%s", cycle[0]),
			Message: fmt.Sprintf("node references form a cycle: %s", strings.Join(cycle, " -> ")),
			Pos:     first.Pos,
		}
	}

	g := graph.New()
	b := graph.NewBuilder(g)
	built := make(map[string]*graph.Node, len(spec.Nodes))

	// References are acyclic, so a memoized descent terminates.
	var build func(name string) (*graph.Node, error)
	build = func(name string) (*graph.Node, error) {
		if n, ok := built[name]; ok {
			return n, nil
		}
		ns := byName[name]
		ins := make([]*graph.Node, len(ns.Inputs))
		for i, ref := range ns.Inputs {
			in, err := build(ref)
			if err != nil {
				return nil, err
			}
			ins[i] = in
		}
		n, err := appendNode(b, ns, ins)
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("nodes.%s", name),
				Message: err.Error(),
				Pos:     ns.Pos,
			}
		}
		built[name] = n
		return n, nil
	}

	for _, ns := range spec.Nodes {
		if _, err := build(ns.Name); err != nil {
			return nil, nil, err
		}
	}

	return g, built, nil
}

// appendNode dispatches one node definition to the builder.
func appendNode(b *graph.Builder, ns NodeSpec, ins []*graph.Node) (*graph.Node, error) {
	switch ns.Kind {
	case graph.KindConstant:
		if len(ins) != 0 {
			return nil, fmt.Errorf("CONSTANT takes no inputs, got %d", len(ins))
		}
		return b.AddConstant(ns.Value), nil
	case graph.KindAdd:
		if err := wantInputs(ns, ins, 2); err != nil {
			return nil, err
		}
		return b.AddAdd(ins[0], ins[1])
	case graph.KindMultiAdd:
		return b.AddMultiAdd(ins...)
	case graph.KindMultiply:
		if err := wantInputs(ns, ins, 2); err != nil {
			return nil, err
		}
		return b.AddMultiply(ins[0], ins[1])
	case graph.KindNegate:
		if err := wantInputs(ns, ins, 1); err != nil {
			return nil, err
		}
		return b.AddNegate(ins[0])
	case graph.KindExp:
		if err := wantInputs(ns, ins, 1); err != nil {
			return nil, err
		}
		return b.AddExp(ins[0])
	case graph.KindLog:
		if err := wantInputs(ns, ins, 1); err != nil {
			return nil, err
		}
		return b.AddLog(ins[0])
	case graph.KindLogSumExp:
		return b.AddLogSumExp(ins...)
	case graph.KindNormal:
		if err := wantInputs(ns, ins, 2); err != nil {
			return nil, err
		}
		return b.AddNormal(ins[0], ins[1])
	case graph.KindBeta:
		if err := wantInputs(ns, ins, 2); err != nil {
			return nil, err
		}
		return b.AddBeta(ins[0], ins[1])
	case graph.KindBernoulli:
		if err := wantInputs(ns, ins, 1); err != nil {
			return nil, err
		}
		return b.AddBernoulli(ins[0])
	case graph.KindSample:
		if err := wantInputs(ns, ins, 1); err != nil {
			return nil, err
		}
		return b.AddSample(ins[0], ns.Label)
	case graph.KindObserve:
		if err := wantInputs(ns, ins, 1); err != nil {
			return nil, err
		}
		return b.AddObserve(ins[0], ns.Value)
	case graph.KindQuery:
		if err := wantInputs(ns, ins, 1); err != nil {
			return nil, err
		}
		return b.AddQuery(ins[0], ns.Label)
	default:
		return nil, fmt.Errorf("unsupported kind %s", ns.Kind)
	}
}

func wantInputs(ns NodeSpec, ins []*graph.Node, n int) error {
	if len(ins) != n {
		return fmt.Errorf("%s takes %d inputs, got %d", ns.Kind, n, len(ins))
	}
	return nil
}

// findReferenceCycle detects a cycle in the name-reference graph using
// Tarjan's strongly-connected-components algorithm. Returns a cycle
// path like [a, b, a], or nil when the references form a DAG.
func findReferenceCycle(nodes []NodeSpec) []string {
	order := make([]string, len(nodes))
	edges := make(map[string][]string, len(nodes))
	for i, ns := range nodes {
		order[i] = ns.Name
		edges[ns.Name] = append([]string{}, ns.Inputs...)
	}

	for _, scc := range tarjanSCC(order, edges) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], edges)) {
			return reconstructCyclePath(scc, edges)
		}
	}
	return nil
}

func hasSelfLoop(node string, edges map[string][]string) bool {
	for _, neighbor := range edges[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components, visiting roots in the
// given order so a model with several cycles always reports the same
// one.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(order []string, edges map[string][]string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// reconstructCyclePath builds a closed path through an SCC, ending
// where it starts.
func reconstructCyclePath(scc []string, edges map[string][]string) []string {
	if len(scc) == 0 {
		return nil
	}
	if len(scc) == 1 {
		return []string{scc[0], scc[0]}
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range edges[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
