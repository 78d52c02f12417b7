package scoring

// DimensionScore is the result of scoring a single rubric dimension.
// Score is always one of 0, 25, 50, 75, 100.
type DimensionScore struct {
	Score       int      `json:"score"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// KeyResultDimensions holds the five rubric dimensions for a key result.
type KeyResultDimensions struct {
	Measurability DimensionScore `json:"measurability"`
	Specificity   DimensionScore `json:"specificity"`
	Achievability DimensionScore `json:"achievability"`
	Relevance     DimensionScore `json:"relevance"`
	TimeBound     DimensionScore `json:"time_bound"`
}

// KeyResultScore is the full rubric result for one key result string.
type KeyResultScore struct {
	Text       string              `json:"text"`
	Overall    int                 `json:"overall"`
	Grade      string              `json:"grade"`
	Dimensions KeyResultDimensions `json:"dimensions"`
}

// Issues collects the issues from all dimensions in rubric order.
func (k KeyResultScore) Issues() []string {
	var issues []string
	for _, d := range []DimensionScore{
		k.Dimensions.Measurability,
		k.Dimensions.Specificity,
		k.Dimensions.Achievability,
		k.Dimensions.Relevance,
		k.Dimensions.TimeBound,
	} {
		issues = append(issues, d.Issues...)
	}
	return issues
}

// ObjectiveDimensions holds the objective rubric sub-scores, each 0-100.
type ObjectiveDimensions struct {
	OutcomeOrientation int `json:"outcome_orientation"`
	Inspiration        int `json:"inspiration"`
	Clarity            int `json:"clarity"`
	Alignment          int `json:"alignment"`
	Ambition           int `json:"ambition"`
}

// ObjectiveScore is the rubric result for an objective string.
type ObjectiveScore struct {
	Text       string              `json:"text"`
	Overall    int                 `json:"overall"`
	Dimensions ObjectiveDimensions `json:"dimensions"`
	Feedback   []string            `json:"feedback,omitempty"`
}

// Empty reports whether the score carries no information.
func (o *ObjectiveScore) Empty() bool {
	return o == nil || (o.Text == "" && o.Overall == 0)
}

// OverallScore aggregates objective and key result quality for a session.
type OverallScore struct {
	Score         int `json:"score"`
	Achievability int `json:"achievability"`
}

// QualityScore is the accumulated quality state for a session. Fields are
// nil/empty until first computed; see Merge for accumulation rules.
type QualityScore struct {
	Objective  *ObjectiveScore  `json:"objective,omitempty"`
	KeyResults []KeyResultScore `json:"key_results,omitempty"`
	Overall    *OverallScore    `json:"overall,omitempty"`
}

// ObjectiveOverall returns the objective's overall score, or 0 when the
// objective has not been scored yet.
func (q QualityScore) ObjectiveOverall() int {
	if q.Objective == nil {
		return 0
	}
	return q.Objective.Overall
}

// KeyResultMean returns the mean overall score (0-100) across scored key
// results, or 0 when none have been scored.
func (q QualityScore) KeyResultMean() float64 {
	if len(q.KeyResults) == 0 {
		return 0
	}
	sum := 0
	for _, kr := range q.KeyResults {
		sum += kr.Overall
	}
	return float64(sum) / float64(len(q.KeyResults))
}

// Empty reports whether no field has been scored yet.
func (q QualityScore) Empty() bool {
	return q.Objective.Empty() && len(q.KeyResults) == 0 && q.Overall == nil
}

// Clone returns a deep copy of the quality score.
func (q QualityScore) Clone() QualityScore {
	out := QualityScore{}
	if q.Objective != nil {
		obj := *q.Objective
		obj.Feedback = append([]string(nil), q.Objective.Feedback...)
		out.Objective = &obj
	}
	if len(q.KeyResults) > 0 {
		out.KeyResults = make([]KeyResultScore, len(q.KeyResults))
		copy(out.KeyResults, q.KeyResults)
	}
	if q.Overall != nil {
		overall := *q.Overall
		out.Overall = &overall
	}
	return out
}
