package graph

import "fmt"

// Builder constructs and interns nodes in a graph.
//
// Construction order makes cycles unrepresentable: every operand must
// already be live in the graph before its consumer is added.
//
// Deterministic nodes (operators, constants, distributions) are
// interned structurally: requesting the same kind over the same
// operands returns the existing node. Sample nodes are never interned,
// two samples of one distribution are distinct random variables.
// Observe and Query are never interned and register as graph roots.
type Builder struct {
	g *Graph
}

// NewBuilder creates a builder over an existing graph. Builders are
// cheap wrappers; fixers create one inside GetReplacement to splice
// replacement nodes into the graph under rewrite.
func NewBuilder(g *Graph) *Builder {
	return &Builder{g: g}
}

// Graph returns the graph under construction.
func (b *Builder) Graph() *Graph { return b.g }

// AddConstant adds (or reuses) a constant node.
func (b *Builder) AddConstant(value float64) *Node {
	n, err := b.addNode(KindConstant, value, "", nil, true)
	if err != nil {
		// Constants take no operands; addNode cannot fail.
		panic(err)
	}
	return n
}

// AddAdd adds a binary addition node.
func (b *Builder) AddAdd(left, right *Node) (*Node, error) {
	return b.addNode(KindAdd, 0, "", []*Node{left, right}, true)
}

// AddMultiAdd adds an n-ary addition node over two or more operands.
// Operand order is preserved; it is significant for reproducibility.
func (b *Builder) AddMultiAdd(operands ...*Node) (*Node, error) {
	if len(operands) < 2 {
		return nil, fmt.Errorf("add %s: need at least 2 operands, got %d", KindMultiAdd, len(operands))
	}
	return b.addNode(KindMultiAdd, 0, "", operands, true)
}

// AddMultiply adds a binary multiplication node.
func (b *Builder) AddMultiply(left, right *Node) (*Node, error) {
	return b.addNode(KindMultiply, 0, "", []*Node{left, right}, true)
}

// AddNegate adds a negation node.
func (b *Builder) AddNegate(operand *Node) (*Node, error) {
	return b.addNode(KindNegate, 0, "", []*Node{operand}, true)
}

// AddExp adds an exponential node.
func (b *Builder) AddExp(operand *Node) (*Node, error) {
	return b.addNode(KindExp, 0, "", []*Node{operand}, true)
}

// AddLog adds a natural-log node.
func (b *Builder) AddLog(operand *Node) (*Node, error) {
	return b.addNode(KindLog, 0, "", []*Node{operand}, true)
}

// AddLogSumExp adds a fused log-sum-exp node over two or more
// operands. Operand order is preserved: the backend's stabilized
// evaluation is order-sensitive for bit-for-bit reproducibility even
// though the mathematical result is order-invariant.
func (b *Builder) AddLogSumExp(operands ...*Node) (*Node, error) {
	if len(operands) < 2 {
		return nil, fmt.Errorf("add %s: need at least 2 operands, got %d", KindLogSumExp, len(operands))
	}
	return b.addNode(KindLogSumExp, 0, "", operands, true)
}

// AddNormal adds a normal-distribution node with mean and stddev
// operands.
func (b *Builder) AddNormal(mean, stddev *Node) (*Node, error) {
	return b.addNode(KindNormal, 0, "", []*Node{mean, stddev}, true)
}

// AddBeta adds a beta-distribution node with alpha and beta operands.
func (b *Builder) AddBeta(alpha, beta *Node) (*Node, error) {
	return b.addNode(KindBeta, 0, "", []*Node{alpha, beta}, true)
}

// AddBernoulli adds a bernoulli-distribution node.
func (b *Builder) AddBernoulli(probability *Node) (*Node, error) {
	return b.addNode(KindBernoulli, 0, "", []*Node{probability}, true)
}

// AddSample adds a sample of a distribution node. Samples are never
// interned: each call is a fresh random variable.
func (b *Builder) AddSample(distribution *Node, label string) (*Node, error) {
	if distribution != nil && !isDistribution(distribution.kind) {
		return nil, fmt.Errorf("add %s: operand %s is not a distribution", KindSample, distribution)
	}
	return b.addNode(KindSample, 0, label, []*Node{distribution}, false)
}

// AddObserve pins a sampled variable to an observed value and
// registers the observation as a graph root.
func (b *Builder) AddObserve(sample *Node, value float64) (*Node, error) {
	if sample != nil && sample.kind != KindSample {
		return nil, fmt.Errorf("add %s: operand %s is not a sample", KindObserve, sample)
	}
	n, err := b.addNode(KindObserve, value, "", []*Node{sample}, false)
	if err != nil {
		return nil, err
	}
	b.g.addRoot(n)
	return n, nil
}

// AddQuery marks a value of interest for inference and registers it as
// a graph root.
func (b *Builder) AddQuery(operand *Node, label string) (*Node, error) {
	if operand != nil && isDistribution(operand.kind) {
		return nil, fmt.Errorf("add %s: operand %s is a distribution, query a sample of it", KindQuery, operand)
	}
	n, err := b.addNode(KindQuery, 0, label, []*Node{operand}, false)
	if err != nil {
		return nil, err
	}
	b.g.addRoot(n)
	return n, nil
}

// addNode validates operands, deduplicates against the intern table,
// and places the node into the arena.
func (b *Builder) addNode(kind Kind, value float64, label string, inputs []*Node, intern bool) (*Node, error) {
	for i, in := range inputs {
		if in == nil {
			return nil, fmt.Errorf("add %s: operand %d is nil", kind, i)
		}
		if !b.g.Contains(in) {
			return nil, fmt.Errorf("add %s: operand %d (%s) is not in the graph", kind, i, in)
		}
	}
	if want, fixed := fixedArity[kind]; fixed && len(inputs) != want {
		return nil, fmt.Errorf("add %s: want %d operand(s), got %d", kind, want, len(inputs))
	}

	var key string
	if intern {
		key = internKey(kind, value, label, inputs)
		if existing, ok := b.g.interned[key]; ok {
			return existing, nil
		}
	}

	n := &Node{
		kind:      kind,
		inputs:    append([]*Node(nil), inputs...),
		value:     value,
		label:     label,
		internKey: key,
	}
	b.g.add(n)
	if key != "" {
		b.g.interned[key] = n
	}
	return n, nil
}

// fixedArity lists kinds with an exact operand count. MultiAdd and
// LogSumExp are variadic and validated at their call sites.
var fixedArity = map[Kind]int{
	KindConstant:  0,
	KindAdd:       2,
	KindMultiply:  2,
	KindNegate:    1,
	KindExp:       1,
	KindLog:       1,
	KindNormal:    2,
	KindBeta:      2,
	KindBernoulli: 1,
	KindSample:    1,
	KindObserve:   1,
	KindQuery:     1,
}

func isDistribution(k Kind) bool {
	return k == KindNormal || k == KindBeta || k == KindBernoulli
}
