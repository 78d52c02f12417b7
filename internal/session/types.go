// Package session defines the coached session model and its store
// boundary. The engine reads and proposes mutations to a session; durable
// persistence belongs to the embedding application.
package session

import (
	"time"

	"github.com/fyrsmithlabs/okrd/internal/phase"
	"github.com/fyrsmithlabs/okrd/internal/scoring"
)

// OKRData is the draft goal artifact built up over the conversation.
type OKRData struct {
	Objective  string   `json:"objective,omitempty"`
	KeyResults []string `json:"key_results,omitempty"`
}

// DiscoverySignals accumulates context discovered from the user's turns.
type DiscoverySignals struct {
	BusinessObjectives []string `json:"business_objectives,omitempty"`
	Stakeholders       []string `json:"stakeholders,omitempty"`
	DesiredOutcomes    []string `json:"desired_outcomes,omitempty"`
	CandidateMetrics   []string `json:"candidate_metrics,omitempty"`
	Constraints        []string `json:"constraints,omitempty"`

	ReadinessPhrases   int `json:"readiness_phrases,omitempty"`
	FrustrationSignals int `json:"frustration_signals,omitempty"`
}

// ConversationState is the typed session context. Only Extra is
// open-ended; everything the engine gates on has a schema.
type ConversationState struct {
	OKR       OKRData           `json:"okr"`
	Discovery DiscoverySignals  `json:"discovery"`
	Extra     map[string]string `json:"extra,omitempty"`

	// RecentTurns holds the last few dialogue turns, newest last, for
	// finalization-signal detection.
	RecentTurns []string `json:"recent_turns,omitempty"`
}

// Session is one coached conversation.
type Session struct {
	ID           string                `json:"id"`
	Phase        phase.Phase           `json:"phase"`
	State        ConversationState     `json:"state"`
	Scores       scoring.QualityScore  `json:"scores"`
	MessageCount int                   `json:"message_count"`
	TurnsInPhase int                   `json:"turns_in_phase"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.State = s.State.Clone()
	out.Scores = s.Scores.Clone()
	return &out
}

// Clone returns a deep copy of the conversation state.
func (c ConversationState) Clone() ConversationState {
	out := c
	out.OKR.KeyResults = append([]string(nil), c.OKR.KeyResults...)
	out.Discovery.BusinessObjectives = append([]string(nil), c.Discovery.BusinessObjectives...)
	out.Discovery.Stakeholders = append([]string(nil), c.Discovery.Stakeholders...)
	out.Discovery.DesiredOutcomes = append([]string(nil), c.Discovery.DesiredOutcomes...)
	out.Discovery.CandidateMetrics = append([]string(nil), c.Discovery.CandidateMetrics...)
	out.Discovery.Constraints = append([]string(nil), c.Discovery.Constraints...)
	out.RecentTurns = append([]string(nil), c.RecentTurns...)
	if c.Extra != nil {
		out.Extra = make(map[string]string, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// SignalCounts converts the accumulated signals into the counts the state
// machine consumes.
func (c ConversationState) SignalCounts() phase.Signals {
	return phase.Signals{
		BusinessObjectives: len(c.Discovery.BusinessObjectives),
		Stakeholders:       len(c.Discovery.Stakeholders),
		DesiredOutcomes:    len(c.Discovery.DesiredOutcomes),
		CandidateMetrics:   len(c.Discovery.CandidateMetrics),
		Constraints:        len(c.Discovery.Constraints),
		ReadinessPhrases:   c.Discovery.ReadinessPhrases,
		FrustrationSignals: c.Discovery.FrustrationSignals,
	}
}
