package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fixpoint/internal/graph"
)

// NodeSpec is one parsed node definition, still referencing operands
// by name.
type NodeSpec struct {
	Name   string
	Kind   graph.Kind
	Value  float64
	Inputs []string
	Label  string
	Pos    token.Pos
}

// ModelSpec is the parsed form of a model, independent of any graph.
// Nodes appear in CUE field order.
type ModelSpec struct {
	Name  string
	Nodes []NodeSpec
}

// CompileModel parses a CUE value into a ModelSpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the model struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`model: { nodes: {...} }`)
//	spec, err := CompileModel(v.LookupPath(cue.ParsePath("model")))
func CompileModel(v cue.Value) (*ModelSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ModelSpec{}

	// Model name defaults to the struct label (the path selector).
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	// An explicit name field overrides the label.
	nameVal := v.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Name = name
	}

	nodesVal := v.LookupPath(cue.ParsePath("nodes"))
	if !nodesVal.Exists() {
		return nil, &CompileError{
			Field:   "nodes",
			Message: "nodes are required",
			Pos:     v.Pos(),
		}
	}

	iter, err := nodesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		node, err := parseNode(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Nodes = append(spec.Nodes, node)
	}

	if len(spec.Nodes) == 0 {
		return nil, &CompileError{
			Field:   "nodes",
			Message: "at least one node is required",
			Pos:     nodesVal.Pos(),
		}
	}

	return spec, nil
}

// parseNode parses a single node definition.
func parseNode(name string, v cue.Value) (NodeSpec, error) {
	node := NodeSpec{Name: name, Pos: v.Pos()}
	field := func(sub string) string { return fmt.Sprintf("nodes.%s.%s", name, sub) }

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return node, &CompileError{
			Field:   field("kind"),
			Message: "kind is required",
			Pos:     v.Pos(),
		}
	}
	kindName, err := kindVal.String()
	if err != nil {
		return node, formatCUEError(err)
	}
	kind, ok := graph.KindFromName(kindName)
	if !ok {
		return node, &CompileError{
			Field:   field("kind"),
			Message: fmt.Sprintf("unknown kind %q", kindName),
			Pos:     kindVal.Pos(),
		}
	}
	node.Kind = kind

	inputsVal := v.LookupPath(cue.ParsePath("inputs"))
	if inputsVal.Exists() {
		inIter, err := inputsVal.List()
		if err != nil {
			return node, formatCUEError(err)
		}
		for inIter.Next() {
			ref, err := inIter.Value().String()
			if err != nil {
				return node, formatCUEError(err)
			}
			node.Inputs = append(node.Inputs, ref)
		}
	}

	valueVal := v.LookupPath(cue.ParsePath("value"))
	switch kind {
	case graph.KindConstant, graph.KindObserve:
		if !valueVal.Exists() {
			return node, &CompileError{
				Field:   field("value"),
				Message: fmt.Sprintf("%s requires a value", kind),
				Pos:     v.Pos(),
			}
		}
		value, err := valueVal.Float64()
		if err != nil {
			return node, formatCUEError(err)
		}
		node.Value = value
	default:
		if valueVal.Exists() {
			return node, &CompileError{
				Field:   field("value"),
				Message: fmt.Sprintf("value is not valid for %s", kind),
				Pos:     valueVal.Pos(),
			}
		}
	}

	labelVal := v.LookupPath(cue.ParsePath("label"))
	if labelVal.Exists() {
		label, err := labelVal.String()
		if err != nil {
			return node, formatCUEError(err)
		}
		node.Label = label
	}
	// Samples and queries are identified by label in results; default
	// to the node's own name.
	if node.Label == "" && (kind == graph.KindSample || kind == graph.KindQuery) {
		node.Label = name
	}

	return node, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
