// Package store provides SQLite-backed durable storage for rewrite
// runs.
//
// The store keeps three tables:
//   - Graphs: content-addressed canonical dumps, keyed by hash
//   - Runs: one record per pipeline run, linking source and result
//     graphs
//   - Rewrites: per-fixer pass and replacement counts for a run
//
// Graph rows are idempotent: the hash is derived from the dump bytes,
// so re-inserting an existing graph is a no-op. Run writes are atomic;
// a run never appears without its graphs and rewrite records.
//
// All ordering uses the store's own insertion sequence, never
// timestamps, so listings replay identically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
