package rewrite

import (
	"errors"
	"fmt"
)

// RewriteError represents a fatal defect detected during a fixpoint
// run.
//
// Rewrite errors include:
//   - Contract violation: NeedsFixing claimed a fix exists but
//     GetReplacement produced none (or failed)
//   - Cycle introduced: a replacement would make the graph cyclic
//   - Pass limit exceeded: a fixer violated its termination guarantee
//
// All of these signal a bug in a fixer, not bad input; they abort the
// whole pipeline run rather than yield a partially rewritten graph.
type RewriteError struct {
	// Code identifies the error category.
	Code RewriteErrorCode

	// Message is a human-readable description.
	Message string

	// Fixer names the offending fixer.
	Fixer string

	// Node describes the node under examination, if any.
	Node string

	// Passes is the pass count at failure (for pass-limit errors).
	Passes int
}

// RewriteErrorCode categorizes rewrite errors.
type RewriteErrorCode string

const (
	// ErrCodeContractViolation indicates NeedsFixing and
	// GetReplacement disagreed.
	ErrCodeContractViolation RewriteErrorCode = "CONTRACT_VIOLATION"

	// ErrCodeCycleIntroduced indicates a replacement would create a
	// cycle.
	ErrCodeCycleIntroduced RewriteErrorCode = "CYCLE_INTRODUCED"

	// ErrCodePassLimitExceeded indicates the defensive pass ceiling
	// was hit, i.e. a termination-guarantee violation.
	ErrCodePassLimitExceeded RewriteErrorCode = "PASS_LIMIT_EXCEEDED"
)

// Error implements the error interface.
func (e *RewriteError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s: %s (fixer=%s, node=%s)", e.Code, e.Message, e.Fixer, e.Node)
	}
	return fmt.Sprintf("%s: %s (fixer=%s)", e.Code, e.Message, e.Fixer)
}

// IsContractViolation reports whether err is a fixer contract
// violation. Uses errors.As to handle wrapped errors.
func IsContractViolation(err error) bool {
	var re *RewriteError
	if errors.As(err, &re) {
		return re.Code == ErrCodeContractViolation
	}
	return false
}

// IsPassLimitExceeded reports whether err is a termination-guarantee
// violation. Uses errors.As to handle wrapped errors.
func IsPassLimitExceeded(err error) bool {
	var re *RewriteError
	if errors.As(err, &re) {
		return re.Code == ErrCodePassLimitExceeded
	}
	return false
}

// IsCycleIntroduced reports whether err is a cycle-introduction error.
// Uses errors.As to handle wrapped errors.
func IsCycleIntroduced(err error) bool {
	var re *RewriteError
	if errors.As(err, &re) {
		return re.Code == ErrCodeCycleIntroduced
	}
	return false
}

// NewContractError creates a RewriteError for a predicate/replacement
// mismatch.
func NewContractError(fixer, node, message string) *RewriteError {
	return &RewriteError{
		Code:    ErrCodeContractViolation,
		Message: message,
		Fixer:   fixer,
		Node:    node,
	}
}

// NewCycleError creates a RewriteError for a cycle-introducing
// replacement.
func NewCycleError(fixer, node string) *RewriteError {
	return &RewriteError{
		Code:    ErrCodeCycleIntroduced,
		Message: "replacement would make the graph cyclic",
		Fixer:   fixer,
		Node:    node,
	}
}

// NewPassLimitError creates a RewriteError naming the fixer that
// failed to converge.
func NewPassLimitError(fixer string, passes int) *RewriteError {
	return &RewriteError{
		Code:    ErrCodePassLimitExceeded,
		Message: fmt.Sprintf("no fixpoint after %d passes", passes),
		Fixer:   fixer,
		Passes:  passes,
	}
}
