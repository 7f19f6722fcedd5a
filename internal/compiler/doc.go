// Package compiler turns CUE model definitions into computation
// graphs.
//
// A model is a CUE struct with a `nodes` field mapping names to node
// definitions. Each definition carries a kind tag, operand references
// by name, and kind-specific payloads (value for constants and
// observations, label for samples and queries):
//
//	model: {
//		nodes: {
//			half: {kind: "CONSTANT", value: 0.5}
//			e:    {kind: "EXP", inputs: ["half"]}
//			q:    {kind: "QUERY", inputs: ["e"], label: "posterior"}
//		}
//	}
//
// Compilation is two-phase: CompileModel parses the CUE value into a
// ModelSpec without touching graph state, then BuildGraph resolves the
// name references and materializes nodes through the graph builder.
// Reference cycles are detected before building and reported with the
// offending path.
package compiler
