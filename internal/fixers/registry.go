package fixers

import (
	"fmt"

	"github.com/roach88/fixpoint/internal/lattice"
	"github.com/roach88/fixpoint/internal/rewrite"
)

// Canonical fixer names as they appear in pipeline configuration.
const (
	NameMultiaryAddition = "multiadd"
	NameLogSumExp        = "logsumexp"
)

// constructors maps each name to its factory. Every fixer takes the
// shared type oracle even when it does not consult it, keeping the
// registry uniform.
var constructors = map[string]func(*lattice.Typer) rewrite.Fixer{
	NameMultiaryAddition: func(*lattice.Typer) rewrite.Fixer { return NewMultiaryAddition() },
	NameLogSumExp:        func(t *lattice.Typer) rewrite.Fixer { return NewLogSumExp(t) },
}

// defaultOrder is the canonical pipeline. Normalizers come first:
// MultiaryAddition establishes the form LogSumExp matches on.
var defaultOrder = []string{
	NameMultiaryAddition,
	NameLogSumExp,
}

// New constructs a fixer by name.
func New(name string, typer *lattice.Typer) (rewrite.Fixer, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown fixer %q (known: %v)", name, defaultOrder)
	}
	return ctor(typer), nil
}

// Default returns the canonical ordered pipeline.
func Default(typer *lattice.Typer) []rewrite.Fixer {
	fixers, err := Resolve(defaultOrder, typer)
	if err != nil {
		// defaultOrder only names registered fixers.
		panic(err)
	}
	return fixers
}

// Resolve maps configuration names to fixers, preserving order.
// An empty name list resolves to the default pipeline.
func Resolve(names []string, typer *lattice.Typer) ([]rewrite.Fixer, error) {
	if len(names) == 0 {
		names = defaultOrder
	}
	fixers := make([]rewrite.Fixer, 0, len(names))
	for _, name := range names {
		f, err := New(name, typer)
		if err != nil {
			return nil, err
		}
		fixers = append(fixers, f)
	}
	return fixers, nil
}
