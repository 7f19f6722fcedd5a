// Package graph provides the probabilistic-model computation DAG.
//
// Nodes are immutable after construction: kind, operand list, and
// payload never change. The only sanctioned mutation is Graph.Replace,
// which rewires every consumer of one node to another and releases
// whatever becomes unreachable. All other internal packages build on
// graph; graph imports nothing internal.
//
// Key design constraints:
//   - The graph is acyclic; the Builder makes cycles unrepresentable
//     (inputs must already exist), and Replace re-verifies defensively
//   - A node's consumer multiset is the exact inverse of the input
//     relation, maintained only inside Replace and Builder adds
//   - Traversal order is deterministic: topological, ties broken by
//     node sequence number
package graph
