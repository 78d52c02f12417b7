package scoring

import (
	"math"
	"time"
)

// Fixed rubric weights. These sum to 1.0.
const (
	weightMeasurability = 0.30
	weightSpecificity   = 0.25
	weightAchievability = 0.20
	weightRelevance     = 0.15
	weightTimeBound     = 0.10
)

// Scorer scores key results and objectives against the fixed rubric.
// The zero value is not usable; construct with NewScorer.
type Scorer struct {
	now func() time.Time
}

// NewScorer creates a scorer using the wall clock.
func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// NewScorerAt creates a scorer with a fixed clock, for deterministic
// time-bound validation.
func NewScorerAt(now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{now: now}
}

// ScoreKeyResult scores a single key result string. The objective string is
// optional context for the relevance dimension; pass "" when unknown.
func (s *Scorer) ScoreKeyResult(text, objective string) KeyResultScore {
	dims := KeyResultDimensions{
		Measurability: scoreMeasurability(text),
		Specificity:   scoreSpecificity(text),
		Achievability: scoreAchievability(text),
		Relevance:     scoreRelevance(text, objective),
		TimeBound:     scoreTimeBound(text, s.now()),
	}

	overall := int(math.Round(
		float64(dims.Measurability.Score)*weightMeasurability +
			float64(dims.Specificity.Score)*weightSpecificity +
			float64(dims.Achievability.Score)*weightAchievability +
			float64(dims.Relevance.Score)*weightRelevance +
			float64(dims.TimeBound.Score)*weightTimeBound,
	))

	return KeyResultScore{
		Text:       text,
		Overall:    overall,
		Grade:      Grade(overall),
		Dimensions: dims,
	}
}

// ScoreKeyResults scores a batch of key results against a shared objective.
func (s *Scorer) ScoreKeyResults(texts []string, objective string) []KeyResultScore {
	scores := make([]KeyResultScore, 0, len(texts))
	for _, t := range texts {
		scores = append(scores, s.ScoreKeyResult(t, objective))
	}
	return scores
}

// ScoreOverall aggregates objective and key result scores for a session.
func (s *Scorer) ScoreOverall(obj *ObjectiveScore, krs []KeyResultScore) *OverallScore {
	if obj.Empty() && len(krs) == 0 {
		return nil
	}

	sum, n := 0, 0
	achSum, achN := 0, 0
	if !obj.Empty() {
		sum += obj.Overall
		n++
	}
	for _, kr := range krs {
		sum += kr.Overall
		n++
		achSum += kr.Dimensions.Achievability.Score
		achN++
	}

	out := &OverallScore{Score: sum / n}
	if achN > 0 {
		out.Achievability = achSum / achN
	}
	return out
}

// Grade maps an overall score to a letter grade.
func Grade(overall int) string {
	switch {
	case overall >= 97:
		return "A+"
	case overall >= 93:
		return "A"
	case overall >= 90:
		return "A-"
	case overall >= 87:
		return "B+"
	case overall >= 83:
		return "B"
	case overall >= 80:
		return "B-"
	case overall >= 77:
		return "C+"
	case overall >= 73:
		return "C"
	case overall >= 70:
		return "C-"
	case overall >= 60:
		return "D"
	default:
		return "F"
	}
}
