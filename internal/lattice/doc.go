// Package lattice classifies graph nodes into abstract value types.
//
// The Typer is the oracle fixers consult for applicability checks. It
// derives a node's type bottom-up from its kind and input types,
// memoizes the result, and is invalidated for a node and its
// transitive consumers whenever a replacement changes what the node
// sees as its ancestors.
//
// A node that cannot be classified yields Untypable with an
// UntypableError. Fixers must treat that as "pattern does not apply";
// type-checking the whole model is a separate, prior concern.
package lattice
