// Package rewrite drives fixers over a model graph to fixpoint.
//
// The engine is the generic half of the compiler: it owns traversal
// order, the replacement protocol, typer invalidation, and the
// termination policy. Fixers supply only a pattern predicate and a
// replacement constructor.
//
// INVARIANTS:
//   - Traversal is a full topological pass, repeated until a pass
//     performs zero replacements; a replacement may expose a new match
//     at its consumers, so a single linear sweep is not enough
//   - Every fixer must strictly shrink some well-founded measure per
//     replacement; the engine converts a violation into a fatal
//     PASS_LIMIT_EXCEEDED error via a defensive pass ceiling
//   - A fixpoint run either fully completes or fails fatally; no
//     partially rewritten graph is ever handed to the caller
package rewrite
