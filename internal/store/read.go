package store

import (
	"context"
	"fmt"
)

// ReadGraph retrieves a graph dump by hash.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadGraph(ctx context.Context, hash string) ([]byte, error) {
	var dump string
	err := s.db.QueryRowContext(ctx, `
		SELECT dump FROM graphs WHERE hash = ?
	`, hash).Scan(&dump)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	return []byte(dump), nil
}

// ReadRun retrieves a run by ID, including its rewrite records in
// pipeline order. Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, model, source_hash, result_hash, replacements
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Model, &run.SourceHash, &run.ResultHash, &run.Replacements)
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}

	run.Rewrites, err = s.readRewrites(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns runs in insertion order, oldest first. An empty
// model filter matches every run; limit <= 0 means no limit.
//
// Ordering is deterministic: ORDER BY seq ASC, id COLLATE BINARY ASC.
func (s *Store) ListRuns(ctx context.Context, model string, limit int) ([]Run, error) {
	query := `
		SELECT id, model, source_hash, result_hash, replacements
		FROM runs
	`
	var args []any
	if model != "" {
		query += ` WHERE model = ?`
		args = append(args, model)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Model, &run.SourceHash, &run.ResultHash, &run.Replacements); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		runs[i].Rewrites, err = s.readRewrites(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
	}

	// Return empty slice instead of nil
	if runs == nil {
		runs = []Run{}
	}
	return runs, nil
}

// readRewrites returns a run's rewrite records in pipeline order.
func (s *Store) readRewrites(ctx context.Context, runID string) ([]Rewrite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fixer, passes, replacements
		FROM rewrites
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query rewrites: %w", err)
	}
	defer rows.Close()

	var rewrites []Rewrite
	for rows.Next() {
		var rw Rewrite
		if err := rows.Scan(&rw.Fixer, &rw.Passes, &rw.Replacements); err != nil {
			return nil, fmt.Errorf("scan rewrite: %w", err)
		}
		rewrites = append(rewrites, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rewrites: %w", err)
	}
	return rewrites, nil
}
