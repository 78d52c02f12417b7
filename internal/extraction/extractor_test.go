package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectiveExtraction(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{
			name: "our objective is to",
			text: "Our objective is to become the market leader in APAC.",
			want: "become the market leader in APAC",
			ok:   true,
		},
		{
			name: "we want to",
			text: "We want to double our enterprise revenue this year",
			want: "double our enterprise revenue this year",
			ok:   true,
		},
		{
			name: "objective colon",
			text: "Objective: delight every customer at scale",
			want: "delight every customer at scale",
			ok:   true,
		},
		{
			name: "question is not an objective",
			text: "How does this work?",
			ok:   false,
		},
		{
			name: "only first sentence is captured",
			text: "Our goal is to expand into Europe. Also we like pizza.",
			want: "expand into Europe",
			ok:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Objective(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestKeyResultExtraction(t *testing.T) {
	e := NewExtractor()

	t.Run("baseline target sentence", func(t *testing.T) {
		got := e.KeyResults("Increase MAU from 10K to 20K by Q2 2024")
		require.Len(t, got, 1)
		assert.Contains(t, got[0], "Increase MAU")
	})

	t.Run("bullet list", func(t *testing.T) {
		text := "Here are my ideas:\n- Increase MAU from 10K to 20K\n- Reduce churn from 5% to 3%\n- Just a note"
		got := e.KeyResults(text)
		require.Len(t, got, 2)
		assert.Equal(t, "Increase MAU from 10K to 20K", got[0])
		assert.Equal(t, "Reduce churn from 5% to 3%", got[1])
	})

	t.Run("target with deadline", func(t *testing.T) {
		got := e.KeyResults("Achieve 99.9% uptime by Q3")
		require.Len(t, got, 1)
	})

	t.Run("verb with number clears the floor", func(t *testing.T) {
		got := e.KeyResults("We should launch 3 new features")
		require.Len(t, got, 1)
	})

	t.Run("no measurable phrasing", func(t *testing.T) {
		assert.Empty(t, e.KeyResults("Our team is great and morale is high"))
	})

	t.Run("duplicates collapsed", func(t *testing.T) {
		text := "Increase MAU from 10K to 20K.\nIncrease MAU from 10K to 20K"
		got := e.KeyResults(text)
		assert.Len(t, got, 1)
	})
}

func TestSignalExtraction(t *testing.T) {
	e := NewExtractor()

	text := "The CEO wants more revenue. We only have a limited budget. " +
		"Our NPS is 40. We're ready to move on. As I said before, retention matters."
	got := e.Signals(text)

	assert.Contains(t, got.Stakeholders, "ceo")
	assert.NotEmpty(t, got.BusinessObjectives)
	assert.Contains(t, got.CandidateMetrics, "nps")
	assert.NotEmpty(t, got.Constraints)
	assert.Equal(t, 1, got.ReadinessPhrases)
	assert.Equal(t, 1, got.FrustrationSignals)
}

func TestSignalExtractionEmptyTurn(t *testing.T) {
	e := NewExtractor()
	got := e.Signals("hello there")
	assert.Empty(t, got.BusinessObjectives)
	assert.Zero(t, got.ReadinessPhrases)
	assert.Zero(t, got.FrustrationSignals)
}
