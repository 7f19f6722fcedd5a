package store

import (
	"context"
	"fmt"
)

// Run is one persisted pipeline run. SourceHash and ResultHash name
// graph rows; Rewrites holds per-fixer outcomes in pipeline order.
type Run struct {
	ID           string
	Model        string
	SourceHash   string
	ResultHash   string
	Replacements int
	Rewrites     []Rewrite
}

// Rewrite is the persisted outcome of one fixer within a run.
type Rewrite struct {
	Fixer        string
	Passes       int
	Replacements int
}

// WriteGraph inserts a content-addressed graph dump.
// Uses ON CONFLICT(hash) DO NOTHING for idempotency - the hash is
// derived from the dump, so a duplicate insert carries identical bytes.
func (s *Store) WriteGraph(ctx context.Context, hash string, dump []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO graphs (hash, dump)
		VALUES (?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, string(dump))
	if err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	return nil
}

// WriteRun atomically persists a run together with its source and
// result dumps and per-fixer rewrite records. A run never becomes
// visible without its graphs.
//
// Re-writing a run ID is idempotent: the run row is claimed with
// ON CONFLICT(id) DO NOTHING and the rewrite records are skipped when
// the claim loses.
func (s *Store) WriteRun(ctx context.Context, run Run, sourceDump, resultDump []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, g := range []struct {
		hash string
		dump []byte
	}{
		{run.SourceHash, sourceDump},
		{run.ResultHash, resultDump},
	} {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO graphs (hash, dump)
			VALUES (?, ?)
			ON CONFLICT(hash) DO NOTHING
		`, g.hash, string(g.dump))
		if err != nil {
			return fmt.Errorf("write run: insert graph: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, model, source_hash, result_hash, replacements)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Model,
		run.SourceHash,
		run.ResultHash,
		run.Replacements,
	)
	if err != nil {
		return fmt.Errorf("write run: insert run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Run already persisted; graphs are content-addressed so
		// nothing else can differ.
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("write run: commit (existing): %w", err)
		}
		return nil
	}

	for i, rw := range run.Rewrites {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rewrites (run_id, position, fixer, passes, replacements)
			VALUES (?, ?, ?, ?, ?)
		`,
			run.ID,
			i,
			rw.Fixer,
			rw.Passes,
			rw.Replacements,
		)
		if err != nil {
			return fmt.Errorf("write run: insert rewrite: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}

	return nil
}
