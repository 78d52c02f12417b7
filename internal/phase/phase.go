// Package phase implements the forward-only conversation state machine for
// OKR coaching. A session moves through discovery, refinement, key result
// discovery, and validation before completing; no phase can be skipped and
// completed is terminal.
package phase

// Phase is a named stage in the guided conversation.
type Phase string

const (
	Discovery   Phase = "discovery"
	Refinement  Phase = "refinement"
	KRDiscovery Phase = "kr_discovery"
	Validation  Phase = "validation"
	Completed   Phase = "completed"
)

// AllPhases returns the phases in transition order.
func AllPhases() []Phase {
	return []Phase{Discovery, Refinement, KRDiscovery, Validation, Completed}
}

// Index returns the position of the phase in transition order, or -1 for an
// unknown phase.
func (p Phase) Index() int {
	for i, candidate := range AllPhases() {
		if p == candidate {
			return i
		}
	}
	return -1
}

// IsValid reports whether p is a known phase.
func (p Phase) IsValid() bool {
	return p.Index() >= 0
}

// Terminal reports whether the phase has no outgoing transitions.
func (p Phase) Terminal() bool {
	return p == Completed
}

// Next returns the following phase in order. ok is false for the terminal
// phase and for unknown phases.
func (p Phase) Next() (Phase, bool) {
	idx := p.Index()
	if idx < 0 || idx >= len(AllPhases())-1 {
		return "", false
	}
	return AllPhases()[idx+1], true
}
