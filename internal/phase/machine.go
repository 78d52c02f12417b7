package phase

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/okrd/internal/scoring"
)

// Liveness constants. No phase may trap a session indefinitely.
const (
	// ForcedProgressionTurns is the global guard: after this many turns in
	// one phase the orchestrator forces a transition attempt.
	ForcedProgressionTurns = 10

	// krStuckTurns is the kr_discovery stuck-progress fallback ceiling.
	krStuckTurns = 8

	// krMinTurnsSingle allows leaving kr_discovery with a single key
	// result once this many turns have been spent there.
	krMinTurnsSingle = 4

	// validationStuckTurns is the validation escape-valve ceiling.
	validationStuckTurns = 12
)

// Signals are the discovered-context counts extracted from the
// conversation so far, used to estimate discovery readiness.
type Signals struct {
	BusinessObjectives int
	Stakeholders       int
	DesiredOutcomes    int
	CandidateMetrics   int
	Constraints        int

	// ReadinessPhrases counts explicit "I'm ready to move on" style turns.
	ReadinessPhrases int

	// FrustrationSignals counts repeated-clarification turns. Frustration
	// raises readiness so the conversation moves forward instead of
	// looping on the same questions.
	FrustrationSignals int
}

// EvaluateInput is everything readiness evaluation needs for one turn.
type EvaluateInput struct {
	Phase              Phase
	Scores             scoring.QualityScore
	Signals            Signals
	MessageCount       int
	TurnsInPhase       int
	FinalizationSignal bool
}

// Readiness is the per-turn readiness verdict. It is computed fresh every
// turn and never persisted.
type Readiness struct {
	CurrentPhase      Phase    `json:"current_phase"`
	ReadinessScore    float64  `json:"readiness_score"`
	ReadyToTransition bool     `json:"ready_to_transition"`
	MissingElements   []string `json:"missing_elements,omitempty"`
}

// Machine evaluates per-phase readiness against a config table. The table
// may be swapped at runtime by config hot reload, so access goes through
// the mutex.
type Machine struct {
	mu     sync.RWMutex
	table  Table
	logger *zap.Logger
}

// NewMachine creates a state machine over the given config table.
func NewMachine(table Table, logger *zap.Logger) (*Machine, error) {
	if table == nil {
		table = DefaultTable()
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid phase table: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{table: table, logger: logger}, nil
}

// Table returns the machine's config table. The table itself is never
// mutated, only replaced, so the returned map is safe to read.
func (m *Machine) Table() Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.table
}

// SetTable swaps the config table, used for config hot reload. The new
// table must be valid.
func (m *Machine) SetTable(table Table) error {
	if err := table.Validate(); err != nil {
		return fmt.Errorf("invalid phase table: %w", err)
	}
	m.mu.Lock()
	m.table = table
	m.mu.Unlock()
	return nil
}

// EvaluateReadiness computes the readiness verdict for the current turn.
func (m *Machine) EvaluateReadiness(in EvaluateInput) Readiness {
	var r Readiness
	switch in.Phase {
	case Discovery:
		r = m.evaluateDiscovery(in)
	case Refinement:
		r = m.evaluateRefinement(in)
	case KRDiscovery:
		r = m.evaluateKRDiscovery(in)
	case Validation:
		r = m.evaluateValidation(in)
	case Completed:
		r = Readiness{CurrentPhase: Completed, ReadinessScore: 1.0, ReadyToTransition: false}
	default:
		r = Readiness{
			CurrentPhase:    in.Phase,
			MissingElements: []string{fmt.Sprintf("unknown phase %q", in.Phase)},
		}
	}

	m.logger.Debug("readiness evaluated",
		zap.String("phase", string(in.Phase)),
		zap.Float64("score", r.ReadinessScore),
		zap.Bool("ready", r.ReadyToTransition),
		zap.Int("turns_in_phase", in.TurnsInPhase),
	)
	return r
}

// ShouldForceProgress is the forced-progression guard: after
// ForcedProgressionTurns turns in any non-terminal phase the session must
// move on regardless of the computed score.
func ShouldForceProgress(p Phase, turnsInPhase int) bool {
	return !p.Terminal() && turnsInPhase >= ForcedProgressionTurns
}

// evaluateDiscovery builds the readiness score from discovered-context
// signals, each with a bounded contribution.
func (m *Machine) evaluateDiscovery(in EvaluateInput) Readiness {
	cfg := m.Table()[Discovery]
	sig := in.Signals

	score := 0.0
	score += boundedContribution(sig.BusinessObjectives, 2, 0.125) // up to 0.25
	score += boundedContribution(sig.DesiredOutcomes, 2, 0.10)     // up to 0.20
	score += boundedContribution(sig.CandidateMetrics, 2, 0.10)    // up to 0.20
	score += boundedContribution(sig.Stakeholders, 1, 0.10)
	score += boundedContribution(sig.Constraints, 1, 0.10)
	score += boundedContribution(sig.ReadinessPhrases, 2, 0.05) // up to 0.10
	score += boundedContribution(sig.FrustrationSignals, 2, 0.075)
	if score > 1.0 {
		score = 1.0
	}

	var missing []string
	if sig.BusinessObjectives == 0 {
		missing = append(missing, "business objectives")
	}
	if sig.DesiredOutcomes == 0 {
		missing = append(missing, "desired outcomes")
	}
	if sig.CandidateMetrics == 0 {
		missing = append(missing, "candidate metrics")
	}

	objQuality := in.Scores.ObjectiveOverall()
	if objQuality <= cfg.MinDataQuality {
		missing = append(missing, fmt.Sprintf("objective quality above %d (currently %d)", cfg.MinDataQuality, objQuality))
	}

	ready := score > cfg.QualityThreshold &&
		in.MessageCount >= cfg.MinMessages &&
		objQuality > cfg.MinDataQuality
	if in.FinalizationSignal && !in.Scores.Objective.Empty() {
		ready = true
	}

	return Readiness{
		CurrentPhase:      Discovery,
		ReadinessScore:    score,
		ReadyToTransition: ready,
		MissingElements:   missing,
	}
}

// evaluateRefinement gates on objective quality even when the user signals
// finalization, so a weak objective cannot be approved prematurely.
func (m *Machine) evaluateRefinement(in EvaluateInput) Readiness {
	cfg := m.Table()[Refinement]
	objQuality := in.Scores.ObjectiveOverall()
	score := float64(objQuality) / 100.0

	var missing []string
	if objQuality < cfg.MinDataQuality {
		missing = append(missing, fmt.Sprintf("objective quality of at least %d (currently %d)", cfg.MinDataQuality, objQuality))
	}

	qualityReady := score > cfg.QualityThreshold && in.MessageCount >= cfg.MinMessages
	ready := objQuality >= cfg.MinDataQuality && (qualityReady || in.FinalizationSignal)

	return Readiness{
		CurrentPhase:      Refinement,
		ReadinessScore:    score,
		ReadyToTransition: ready,
		MissingElements:   missing,
	}
}

// evaluateKRDiscovery requires two decent key results, with stuck-progress
// fallbacks so the phase cannot loop forever.
func (m *Machine) evaluateKRDiscovery(in EvaluateInput) Readiness {
	krCount := len(in.Scores.KeyResults)
	mean := in.Scores.KeyResultMean() / 100.0

	score := boundedContribution(krCount, 2, 0.35) + mean*0.3
	if score > 1.0 {
		score = 1.0
	}

	var missing []string
	if krCount < 2 {
		missing = append(missing, fmt.Sprintf("at least 2 measurable key results (currently %d)", krCount))
	}
	if krCount > 0 && mean <= 0.5 {
		missing = append(missing, "key result quality above 50")
	}

	ready := (krCount >= 2 && mean > 0.5) ||
		in.TurnsInPhase >= krStuckTurns ||
		(krCount >= 1 && in.TurnsInPhase >= krMinTurnsSingle) ||
		(in.FinalizationSignal && krCount >= 1)

	return Readiness{
		CurrentPhase:      KRDiscovery,
		ReadinessScore:    score,
		ReadyToTransition: ready,
		MissingElements:   missing,
	}
}

// evaluateValidation requires an explicit finalization signal over a
// complete draft, with a hard turn ceiling as the escape valve.
func (m *Machine) evaluateValidation(in EvaluateInput) Readiness {
	hasObjective := !in.Scores.Objective.Empty()
	krCount := len(in.Scores.KeyResults)

	score := 0.0
	if hasObjective {
		score += 0.25
	}
	if krCount >= 1 {
		score += 0.25
	}
	if in.FinalizationSignal {
		score += 0.5
	}

	var missing []string
	if !hasObjective {
		missing = append(missing, "a scored objective")
	}
	if krCount == 0 {
		missing = append(missing, "at least 1 key result")
	}
	if !in.FinalizationSignal {
		missing = append(missing, "explicit approval to finalize")
	}

	ready := (hasObjective && krCount >= 1 && in.FinalizationSignal) ||
		in.TurnsInPhase >= validationStuckTurns

	return Readiness{
		CurrentPhase:      Validation,
		ReadinessScore:    score,
		ReadyToTransition: ready,
		MissingElements:   missing,
	}
}

// boundedContribution awards perUnit for each counted signal up to maxUnits.
func boundedContribution(count, maxUnits int, perUnit float64) float64 {
	if count > maxUnits {
		count = maxUnits
	}
	if count < 0 {
		count = 0
	}
	return float64(count) * perUnit
}
