// Package fixers contains the concrete rewrite rules.
//
// Each fixer implements rewrite.Fixer: a structural pattern predicate
// over node kinds plus a replacement constructor that builds the fused
// node through a graph.Builder. The registry maps configuration names
// to fixers and defines the default pipeline order; order matters
// because the n-ary addition normalizer establishes the MULTI_ADD
// normal form the log-sum-exp pattern matches against.
package fixers
