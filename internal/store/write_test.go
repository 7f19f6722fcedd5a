package store

import (
	"context"
	"testing"
)

// createTestRun builds a run record over two small graph dumps.
func createTestRun(id string) (Run, []byte, []byte) {
	run := Run{
		ID:           id,
		Model:        "mixture",
		SourceHash:   "hash-source-" + id,
		ResultHash:   "hash-result-" + id,
		Replacements: 2,
		Rewrites: []Rewrite{
			{Fixer: "multiadd", Passes: 2, Replacements: 1},
			{Fixer: "logsumexp", Passes: 2, Replacements: 1},
		},
	}
	source := []byte(`{"nodes":[],"roots":[]}`)
	result := []byte(`{"nodes":[],"roots":[]}`)
	return run, source, result
}

func TestWriteGraph_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	dump := []byte(`{"nodes":[{"kind":"CONSTANT","value":"0.5"}],"roots":[]}`)
	for i := 0; i < 2; i++ {
		if err := s.WriteGraph(ctx, "hash-a", dump); err != nil {
			t.Fatalf("WriteGraph() iteration %d failed: %v", i, err)
		}
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM graphs").Scan(&count); err != nil {
		t.Fatalf("count graphs: %v", err)
	}
	if count != 1 {
		t.Errorf("graphs count = %d, expected 1", count)
	}
}

func TestWriteRun_PersistsEverything(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, source, result := createTestRun("run-1")
	if err := s.WriteRun(ctx, run, source, result); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	var graphs, runs, rewrites int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM graphs").Scan(&graphs); err != nil {
		t.Fatalf("count graphs: %v", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs); err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM rewrites").Scan(&rewrites); err != nil {
		t.Fatalf("count rewrites: %v", err)
	}

	if graphs != 2 {
		t.Errorf("graphs count = %d, expected 2", graphs)
	}
	if runs != 1 {
		t.Errorf("runs count = %d, expected 1", runs)
	}
	if rewrites != 2 {
		t.Errorf("rewrites count = %d, expected 2", rewrites)
	}
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, source, result := createTestRun("run-1")
	for i := 0; i < 2; i++ {
		if err := s.WriteRun(ctx, run, source, result); err != nil {
			t.Fatalf("WriteRun() iteration %d failed: %v", i, err)
		}
	}

	var runs, rewrites int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs); err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM rewrites").Scan(&rewrites); err != nil {
		t.Fatalf("count rewrites: %v", err)
	}

	if runs != 1 {
		t.Errorf("runs count = %d, expected 1", runs)
	}
	if rewrites != 2 {
		t.Errorf("rewrites count = %d, expected 2 (no duplicates)", rewrites)
	}
}

func TestWriteRun_SharedGraphAcrossRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Two runs over the same source graph: the graph row dedupes.
	run1, source, result := createTestRun("run-1")
	run2 := run1
	run2.ID = "run-2"
	run2.ResultHash = run1.ResultHash // identical outcome
	run2.SourceHash = run1.SourceHash

	if err := s.WriteRun(ctx, run1, source, result); err != nil {
		t.Fatalf("WriteRun(run-1) failed: %v", err)
	}
	if err := s.WriteRun(ctx, run2, source, result); err != nil {
		t.Fatalf("WriteRun(run-2) failed: %v", err)
	}

	var graphs, runs int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM graphs").Scan(&graphs); err != nil {
		t.Fatalf("count graphs: %v", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs); err != nil {
		t.Fatalf("count runs: %v", err)
	}

	if graphs != 2 {
		t.Errorf("graphs count = %d, expected 2", graphs)
	}
	if runs != 2 {
		t.Errorf("runs count = %d, expected 2", runs)
	}
}
