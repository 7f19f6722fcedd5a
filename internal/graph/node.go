package graph

import "fmt"

// Kind is the closed set of node kinds. Pattern predicates in fixers
// match on Kind tags plus recursive shape checks on inputs' tags; no
// numeric evaluation happens at compile time.
type Kind int

const (
	KindInvalid Kind = iota

	// Deterministic operators
	KindConstant
	KindAdd
	KindMultiAdd
	KindMultiply
	KindNegate
	KindExp
	KindLog
	KindLogSumExp

	// Distributions
	KindNormal
	KindBeta
	KindBernoulli

	// Stochastic and root-forming operators
	KindSample
	KindObserve
	KindQuery
)

// kindNames maps kinds to their canonical wire names.
// These names appear in model files, dumps, and store records.
var kindNames = map[Kind]string{
	KindConstant:  "CONSTANT",
	KindAdd:       "ADD",
	KindMultiAdd:  "MULTI_ADD",
	KindMultiply:  "MULTIPLY",
	KindNegate:    "NEGATE",
	KindExp:       "EXP",
	KindLog:       "LOG",
	KindLogSumExp: "LOGSUMEXP",
	KindNormal:    "DISTRIBUTION_NORMAL",
	KindBeta:      "DISTRIBUTION_BETA",
	KindBernoulli: "DISTRIBUTION_BERNOULLI",
	KindSample:    "SAMPLE",
	KindObserve:   "OBSERVE",
	KindQuery:     "QUERY",
}

var namesToKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

// String returns the canonical name for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND(%d)", int(k))
}

// KindFromName resolves a canonical kind name (e.g. "MULTI_ADD").
// Returns KindInvalid and false for unknown names.
func KindFromName(name string) (Kind, bool) {
	k, ok := namesToKind[name]
	if !ok {
		return KindInvalid, false
	}
	return k, ok
}

// Node is an immutable graph vertex.
//
// Identity is the stable sequence number assigned at construction,
// never content: two structurally identical Sample nodes are distinct
// random variables. Equality and map keys use the *Node pointer.
//
// The inputs slice and consumers multiset are private; they are
// touched only by the Builder and by Graph.Replace so the
// input/consumer inverse invariant cannot be broken from outside.
type Node struct {
	seq    uint64
	kind   Kind
	inputs []*Node
	value  float64 // Constant and Observe payloads
	label  string  // Sample and Query names

	// consumers maps each consumer to the number of operand slots it
	// fills with this node (Add(x, x) counts twice).
	consumers map[*Node]int

	// internKey is the structural fingerprint under which the Builder
	// interned this node, or "" when the node is not interned.
	internKey string
}

// Seq returns the node's stable sequence identity.
func (n *Node) Seq() uint64 { return n.seq }

// Kind returns the node's kind tag.
func (n *Node) Kind() Kind { return n.kind }

// NumInputs returns the operand count.
func (n *Node) NumInputs() int { return len(n.inputs) }

// Input returns the i-th operand. Panics on out-of-range i, matching
// slice semantics.
func (n *Node) Input(i int) *Node { return n.inputs[i] }

// Inputs returns a copy of the ordered operand list. The copy prevents
// callers from mutating operands behind the graph's back.
func (n *Node) Inputs() []*Node {
	out := make([]*Node, len(n.inputs))
	copy(out, n.inputs)
	return out
}

// Value returns the numeric payload (Constant, Observe).
func (n *Node) Value() float64 { return n.value }

// Label returns the model-level name (Sample, Query), or "".
func (n *Node) Label() string { return n.label }

func (n *Node) String() string {
	switch n.kind {
	case KindConstant:
		return fmt.Sprintf("%s[%d](%s)", n.kind, n.seq, formatValue(n.value))
	case KindSample, KindQuery:
		if n.label != "" {
			return fmt.Sprintf("%s[%d](%q)", n.kind, n.seq, n.label)
		}
	}
	return fmt.Sprintf("%s[%d]", n.kind, n.seq)
}

// addConsumer records one operand slot of c referencing n.
func (n *Node) addConsumer(c *Node) {
	if n.consumers == nil {
		n.consumers = make(map[*Node]int)
	}
	n.consumers[c]++
}

// dropConsumer removes one operand slot of c referencing n.
func (n *Node) dropConsumer(c *Node) {
	if n.consumers[c] <= 1 {
		delete(n.consumers, c)
		return
	}
	n.consumers[c]--
}
