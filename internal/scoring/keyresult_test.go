package scoring

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow pins the clock to mid-January 2024 so "Q2 2024" style deadlines
// are in the future.
func fixedNow() time.Time {
	return time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
}

func newTestScorer() *Scorer {
	return NewScorerAt(fixedNow)
}

func TestScoreKeyResult_FullyQualified(t *testing.T) {
	s := newTestScorer()

	score := s.ScoreKeyResult("Increase monthly active users from 10K to 20K by Q2 2024", "")

	assert.Equal(t, 100, score.Dimensions.Measurability.Score)
	assert.Equal(t, 100, score.Dimensions.Achievability.Score)
	assert.Equal(t, 100, score.Dimensions.TimeBound.Score)
	assert.GreaterOrEqual(t, score.Overall, 85)
}

func TestScoreKeyResult_MissingBaseline(t *testing.T) {
	s := newTestScorer()

	score := s.ScoreKeyResult("Achieve 20K monthly active users by Q2 2024", "")

	assert.Equal(t, 75, score.Dimensions.Measurability.Score)
	assert.Contains(t, score.Dimensions.Measurability.Issues, "Missing baseline (where you start from)")
}

func TestScoreKeyResult_NotAmbitious(t *testing.T) {
	s := newTestScorer()

	score := s.ScoreKeyResult("Increase MAU from 10K to 10.5K by Q2 2024", "")

	assert.Equal(t, 25, score.Dimensions.Achievability.Score)
	require.NotEmpty(t, score.Dimensions.Achievability.Issues)
	assert.Contains(t, score.Dimensions.Achievability.Issues[0], "not ambitious enough")
}

func TestScoreKeyResult_NoTimeframe(t *testing.T) {
	s := newTestScorer()

	score := s.ScoreKeyResult("Increase MAU from 10K to 20K", "")

	assert.Equal(t, 0, score.Dimensions.TimeBound.Score)
	assert.Contains(t, score.Dimensions.TimeBound.Issues, "No timeframe detected")
}

func TestScoreKeyResult_NoMetric(t *testing.T) {
	s := newTestScorer()

	score := s.ScoreKeyResult("Make the product much better", "")

	assert.Equal(t, 0, score.Dimensions.Measurability.Score)
	assert.Contains(t, score.Dimensions.Measurability.Issues, "No measurable metric detected")
}

func TestAchievability_IncreaseBands(t *testing.T) {
	tests := []struct {
		name     string
		baseline string
		target   string
		want     int
	}{
		{"regression", "100", "90", 0},
		{"under 20 percent", "100", "110", 25},
		{"modest", "100", "130", 75},
		{"just below healthy band", "100", "149", 75},
		{"band lower edge", "100", "150", 100},
		{"band middle", "100", "200", 100},
		{"band upper edge", "100", "300", 100},
		{"aggressive", "100", "400", 50},
		{"unrealistic", "100", "600", 50},
	}

	s := newTestScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := fmt.Sprintf("Increase revenue from $%s to $%s", tt.baseline, tt.target)
			score := s.ScoreKeyResult(text, "")
			assert.Equal(t, tt.want, score.Dimensions.Achievability.Score)
		})
	}
}

func TestAchievability_UnrealisticFlagAboveFiveX(t *testing.T) {
	s := newTestScorer()

	score := s.ScoreKeyResult("Increase revenue from $100 to $600", "")

	require.NotEmpty(t, score.Dimensions.Achievability.Issues)
	assert.Contains(t, score.Dimensions.Achievability.Issues[0], "unrealistic")
}

func TestAchievability_ReductionBands(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"healthy reduction", "Reduce churn from 10% to 6%", 100},
		{"modest reduction", "Reduce churn from 10% to 8%", 75},
		{"token reduction", "Reduce churn from 10% to 9.5%", 25},
		{"regression", "Reduce churn from 10% to 12%", 0},
		{"over cap for non-duration", "Reduce costs from $100 to $10", 50},
		{"deep cut allowed for latency", "Reduce API latency from 500 to 50 milliseconds", 100},
	}

	s := newTestScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := s.ScoreKeyResult(tt.text, "")
			assert.Equal(t, tt.want, score.Dimensions.Achievability.Score, tt.text)
		})
	}
}

func TestAchievability_NeutralWhenUnparseable(t *testing.T) {
	s := newTestScorer()

	score := s.ScoreKeyResult("Increase NPS meaningfully this period", "")

	assert.Equal(t, 75, score.Dimensions.Achievability.Score)
	assert.Empty(t, score.Dimensions.Achievability.Issues)
}

func TestRelevance(t *testing.T) {
	tests := []struct {
		name      string
		kr        string
		objective string
		want      int
	}{
		{"no objective context", "Increase MAU from 10K to 20K", "", 75},
		{"two shared buckets", "Grow active users from 10K to 20K", "Accelerate user growth across the product", 100},
		{"one shared bucket", "Increase retention from 60% to 80%", "Delight our customers", 75},
		{"adjacent buckets", "Reduce churn from 8% to 4%", "Double our revenue", 75},
		{"unrelated", "Launch 3 features by Q2 2024", "Double our revenue", 50},
	}

	s := newTestScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := s.ScoreKeyResult(tt.kr, tt.objective)
			assert.Equal(t, tt.want, score.Dimensions.Relevance.Score)
		})
	}
}

func TestRelevance_UnclearIssue(t *testing.T) {
	s := newTestScorer()

	score := s.ScoreKeyResult("Launch 3 features by Q2 2024", "Double our revenue")

	assert.Contains(t, score.Dimensions.Relevance.Issues, "Relevance to the objective is unclear")
}

func TestOverall_WeightedSum(t *testing.T) {
	// The overall must equal the rounded weighted sum for every dimension
	// combination in {0,25,50,75,100}.
	levels := []int{0, 25, 50, 75, 100}
	for _, m := range levels {
		for _, sp := range levels {
			for _, a := range levels {
				for _, r := range levels {
					for _, tb := range levels {
						want := int(math.Round(
							float64(m)*0.30 + float64(sp)*0.25 + float64(a)*0.20 +
								float64(r)*0.15 + float64(tb)*0.10,
						))
						got := int(math.Round(
							float64(m)*weightMeasurability +
								float64(sp)*weightSpecificity +
								float64(a)*weightAchievability +
								float64(r)*weightRelevance +
								float64(tb)*weightTimeBound,
						))
						require.Equal(t, want, got)
					}
				}
			}
		}
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		overall int
		want    string
	}{
		{100, "A+"}, {97, "A+"}, {96, "A"}, {93, "A"}, {90, "A-"},
		{87, "B+"}, {83, "B"}, {80, "B-"}, {77, "C+"}, {73, "C"},
		{70, "C-"}, {69, "D"}, {60, "D"}, {59, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Grade(tt.overall), "overall=%d", tt.overall)
	}
}

func TestSpecificity(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"units cadence and source", "Increase monthly active users from 10K to 20K measured in Amplitude", 100},
		{"units and cadence", "Increase monthly active users from 10K to 20K", 75},
		{"units only", "Increase revenue from $1M to $2M", 50},
		{"vague only", "Significantly improve the experience", 25},
		{"nothing concrete", "Do better work", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreSpecificity(tt.text)
			assert.Equal(t, tt.want, got.Score, tt.text)
		})
	}
}

func TestScoreKeyResults_Batch(t *testing.T) {
	s := newTestScorer()

	scores := s.ScoreKeyResults([]string{
		"Increase MAU from 10K to 20K by Q2 2024",
		"Reduce churn from 8% to 4% by Q3 2024",
	}, "Accelerate user growth")

	require.Len(t, scores, 2)
	for _, sc := range scores {
		assert.NotZero(t, sc.Overall)
		assert.NotEmpty(t, sc.Grade)
	}
}

func TestScoreOverall(t *testing.T) {
	s := newTestScorer()

	obj := s.ScoreObjective("Become the most beloved product in our market")
	krs := s.ScoreKeyResults([]string{"Increase MAU from 10K to 20K by Q2 2024"}, obj.Text)

	overall := s.ScoreOverall(&obj, krs)
	require.NotNil(t, overall)
	assert.Equal(t, (obj.Overall+krs[0].Overall)/2, overall.Score)
	assert.Equal(t, krs[0].Dimensions.Achievability.Score, overall.Achievability)
}

func TestScoreOverall_NilWhenEmpty(t *testing.T) {
	s := newTestScorer()
	assert.Nil(t, s.ScoreOverall(nil, nil))
}
