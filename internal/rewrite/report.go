package rewrite

// Report summarizes one fixer's fixpoint run.
type Report struct {
	Fixer        string `json:"fixer"`
	Passes       int    `json:"passes"`
	Replacements int    `json:"replacements"`
	PerPass      []int  `json:"per_pass,omitempty"`
}

// Result summarizes a whole pipeline run.
type Result struct {
	// RunID is a unique token correlating logs, reports, and store
	// records for one pipeline execution.
	RunID string `json:"run_id"`

	// Reports holds one entry per fixer, in pipeline order.
	Reports []Report `json:"reports"`

	// Replacements is the total across all fixers.
	Replacements int `json:"replacements"`
}
