package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreTimeBound_ExplicitFormats(t *testing.T) {
	now := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC) // Q2, H1

	tests := []struct {
		name string
		text string
		want int
	}{
		{"future quarter", "Increase MAU by Q4 2024", 100},
		{"current quarter", "Increase MAU by Q2 2024", 100},
		{"past quarter", "Increase MAU by Q1 2024", 0},
		{"next year quarter", "Increase MAU by Q1 2025", 100},
		{"end of quarter", "Increase MAU by end of Q3 2024", 100},
		{"future month", "Increase MAU by December 2024", 100},
		{"current month", "Increase MAU by May 2024", 100},
		{"past month", "Increase MAU by February 2024", 0},
		{"past year month", "Increase MAU by December 2023", 0},
		{"current half", "Increase MAU by H1 2024", 100},
		{"future half", "Increase MAU by end of H2 2024", 100},
		{"past half year", "Increase MAU by H2 2023", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreTimeBound(tt.text, now)
			assert.Equal(t, tt.want, got.Score, tt.text)
		})
	}
}

func TestScoreTimeBound_PastIssue(t *testing.T) {
	now := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)

	got := scoreTimeBound("Increase MAU by Q1 2024", now)

	require.Equal(t, 0, got.Score)
	assert.Contains(t, got.Issues, "Date appears to be in the past")
}

func TestScoreTimeBound_VagueTerms(t *testing.T) {
	now := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		text string
		term string
	}{
		{"Increase MAU soon", "soon"},
		{"Increase MAU eventually", "eventually"},
		{"Increase MAU by next quarter", "next quarter"},
		{"Increase MAU this year", "this year"},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := scoreTimeBound(tt.text, now)
			require.Equal(t, 0, got.Score)
			require.NotEmpty(t, got.Issues)
			assert.Contains(t, got.Issues[0], tt.term)
		})
	}
}

func TestScoreTimeBound_NoTimeframe(t *testing.T) {
	now := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)

	got := scoreTimeBound("Increase MAU from 10K to 20K", now)

	require.Equal(t, 0, got.Score)
	assert.Contains(t, got.Issues, "No timeframe detected")
}

func TestCurrentQuarterAndHalf(t *testing.T) {
	jan := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
	jul := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, currentQuarter(jan))
	assert.Equal(t, 2, currentQuarter(jun))
	assert.Equal(t, 3, currentQuarter(jul))
	assert.Equal(t, 4, currentQuarter(dec))

	assert.Equal(t, 1, currentHalf(jun))
	assert.Equal(t, 2, currentHalf(jul))
}
