// Package transition validates phase transitions before they are
// committed. Validation is purely additive: a single call reports every
// violated rule at once rather than stopping at the first.
package transition

import (
	"fmt"
	"sync"

	"github.com/fyrsmithlabs/okrd/internal/phase"
	"github.com/fyrsmithlabs/okrd/internal/scoring"
	"github.com/fyrsmithlabs/okrd/internal/session"
)

// Result is the outcome of validating one transition attempt.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Validator checks preconditions and quality gates for entering a phase.
type Validator struct {
	mu    sync.RWMutex
	table phase.Table
}

// NewValidator creates a validator over the given phase table.
func NewValidator(table phase.Table) *Validator {
	if table == nil {
		table = phase.DefaultTable()
	}
	return &Validator{table: table}
}

// SetTable swaps the phase table, used for config hot reload.
func (v *Validator) SetTable(table phase.Table) {
	v.mu.Lock()
	v.table = table
	v.mu.Unlock()
}

func (v *Validator) currentTable() phase.Table {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.table
}

// Validate checks whether the session may move from one phase to another.
func (v *Validator) Validate(from, to phase.Phase, sess *session.Session, scores scoring.QualityScore) Result {
	var result Result

	if !from.IsValid() {
		result.Errors = append(result.Errors, fmt.Sprintf("unknown source phase %q", from))
	}
	if !to.IsValid() {
		result.Errors = append(result.Errors, fmt.Sprintf("unknown target phase %q", to))
	}

	if from == phase.Completed {
		result.Errors = append(result.Errors, "session is completed; no further transitions are possible")
	} else if from.IsValid() && to.IsValid() && to.Index() < from.Index() {
		result.Errors = append(result.Errors, fmt.Sprintf("backward transition %s -> %s is not allowed", from, to))
	}

	if from.IsValid() && from == to {
		result.Warnings = append(result.Warnings, fmt.Sprintf("transition to the same phase %s is a no-op", to))
	}

	if to.IsValid() && from != phase.Completed {
		v.checkRequiredData(to, sess, &result)
		v.checkMinQuality(to, scores, &result)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// checkRequiredData verifies the target phase's required data paths exist
// in the typed session state.
func (v *Validator) checkRequiredData(to phase.Phase, sess *session.Session, result *Result) {
	for _, path := range v.currentTable()[to].RequiresData {
		if !hasDataPath(sess, path) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("phase %s requires %s to be present", to, path))
		}
	}
}

// hasDataPath resolves the legacy dotted path names against the typed
// conversation state.
func hasDataPath(sess *session.Session, path string) bool {
	if sess == nil {
		return false
	}
	switch path {
	case "okrData.objective":
		return sess.State.OKR.Objective != ""
	case "okrData.keyResults":
		return len(sess.State.OKR.KeyResults) > 0
	default:
		_, ok := sess.State.Extra[path]
		return ok
	}
}

// checkMinQuality applies the target phase's minimum data quality to each
// score that has been computed, and to the objective score, which must
// exist for every phase past discovery.
func (v *Validator) checkMinQuality(to phase.Phase, scores scoring.QualityScore, result *Result) {
	minQuality := v.currentTable()[to].MinDataQuality
	if minQuality <= 0 || to == phase.Discovery {
		return
	}

	objQuality := scores.ObjectiveOverall()
	if objQuality < minQuality {
		result.Errors = append(result.Errors,
			fmt.Sprintf("objective quality %d is below the %d required to enter %s", objQuality, minQuality, to))
	}

	if len(scores.KeyResults) > 0 {
		if mean := int(scores.KeyResultMean()); mean < minQuality {
			result.Errors = append(result.Errors,
				fmt.Sprintf("key result quality %d is below the %d required to enter %s", mean, minQuality, to))
		}
	}

	if scores.Overall != nil && scores.Overall.Score < minQuality {
		result.Errors = append(result.Errors,
			fmt.Sprintf("overall quality %d is below the %d required to enter %s", scores.Overall.Score, minQuality, to))
	}
}
