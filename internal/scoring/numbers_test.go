package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractQuantities(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantBaseline float64
		wantTarget   float64
	}{
		{
			name:         "plain numbers",
			text:         "Increase signups from 100 to 250 by Q2 2024",
			wantBaseline: 100,
			wantTarget:   250,
		},
		{
			name:         "k suffix",
			text:         "Increase monthly active users from 10K to 20K by Q2 2024",
			wantBaseline: 10_000,
			wantTarget:   20_000,
		},
		{
			name:         "currency with m suffix",
			text:         "Grow ARR from $1.2M to $2.4M",
			wantBaseline: 1_200_000,
			wantTarget:   2_400_000,
		},
		{
			name:         "percentages",
			text:         "Reduce churn rate from 6% to 4% by Q2 2024",
			wantBaseline: 6,
			wantTarget:   4,
		},
		{
			// A following word starting with k/m/b is not a magnitude
			// suffix.
			name:         "unit word after number",
			text:         "Reduce API latency from 500 to 50 milliseconds",
			wantBaseline: 500,
			wantTarget:   50,
		},
		{
			name:         "count noun after number",
			text:         "Expand from 3 markets to 10 markets",
			wantBaseline: 3,
			wantTarget:   10,
		},
		{
			name:         "thousands separators",
			text:         "Grow from 1,500 to 12,000 subscribers",
			wantBaseline: 1_500,
			wantTarget:   12_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseline, ok := extractBaseline(tt.text)
			require.True(t, ok, "baseline not found")
			assert.InDelta(t, tt.wantBaseline, baseline, 0.001)

			target, ok := extractTarget(tt.text)
			require.True(t, ok, "target not found")
			assert.InDelta(t, tt.wantTarget, target, 0.001)
		})
	}
}

func TestExtractQuantities_NoNumbers(t *testing.T) {
	_, ok := extractBaseline("improve the onboarding flow substantially")
	assert.False(t, ok)
	_, ok = extractTarget("improve the onboarding flow substantially")
	assert.False(t, ok)
}

func TestScoreKeyResult_DurationMetricDeepCut(t *testing.T) {
	s := newTestScorer()

	score := s.ScoreKeyResult("Reduce API latency from 500 to 50 milliseconds by Q2 2024", "")

	assert.Equal(t, 100, score.Dimensions.Achievability.Score)
}
