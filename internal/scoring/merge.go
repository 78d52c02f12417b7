package scoring

// Merge folds a newly computed score into the accumulated session score.
// A field already carrying data is only replaced by a non-empty
// replacement; an empty incoming field never discards accumulated state.
// Merge is pure: neither argument is mutated.
func Merge(existing, incoming QualityScore) QualityScore {
	out := existing.Clone()

	if !incoming.Objective.Empty() {
		obj := *incoming.Objective
		obj.Feedback = append([]string(nil), incoming.Objective.Feedback...)
		out.Objective = &obj
	}
	if len(incoming.KeyResults) > 0 {
		out.KeyResults = make([]KeyResultScore, len(incoming.KeyResults))
		copy(out.KeyResults, incoming.KeyResults)
	}
	if incoming.Overall != nil {
		overall := *incoming.Overall
		out.Overall = &overall
	}

	return out
}
