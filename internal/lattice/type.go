package lattice

// Type is an abstract value type in the lattice.
//
// The scalar types form a diamond:
//
//	Boolean ≤ Natural     ≤ PositiveReal ≤ Real
//	Boolean ≤ Probability ≤ PositiveReal ≤ Real
//
// Distribution stands apart: it never joins with a scalar type.
type Type int

const (
	Untypable Type = iota
	Boolean
	Natural
	Probability
	PositiveReal
	Real
	Distribution
)

var typeNames = map[Type]string{
	Untypable:    "UNTYPABLE",
	Boolean:      "BOOLEAN",
	Natural:      "NATURAL",
	Probability:  "PROBABILITY",
	PositiveReal: "POSITIVE_REAL",
	Real:         "REAL",
	Distribution: "DISTRIBUTION",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNTYPABLE"
}

// Scalar reports whether t is a numeric scalar type.
func (t Type) Scalar() bool {
	switch t {
	case Boolean, Natural, Probability, PositiveReal, Real:
		return true
	}
	return false
}

// leq is the lattice partial order restricted to scalar types.
func leq(a, b Type) bool {
	if a == b {
		return true
	}
	switch a {
	case Boolean:
		return b.Scalar()
	case Natural, Probability:
		return b == PositiveReal || b == Real
	case PositiveReal:
		return b == Real
	}
	return false
}

// Sup returns the least upper bound of two types. Joining anything
// with Untypable or Distribution yields Untypable.
func Sup(a, b Type) Type {
	if !a.Scalar() || !b.Scalar() {
		return Untypable
	}
	if leq(a, b) {
		return b
	}
	if leq(b, a) {
		return a
	}
	// The only incomparable scalar pair is {Natural, Probability}.
	return PositiveReal
}
