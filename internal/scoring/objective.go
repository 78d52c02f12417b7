package scoring

import (
	"math"
	"regexp"
	"strings"
)

// Objective rubric heuristics. Unlike key result dimensions these are
// continuous 0-100 values, averaged into the overall.
var (
	outcomeVerbRe  = regexp.MustCompile(`(?i)\b(become|achieve|establish|transform|lead|win|earn|delight|dominate)\b`)
	activityVerbRe = regexp.MustCompile(`(?i)\b(implement|build|create|launch|write|develop|deploy|migrate|set\s+up|configure)\b`)
	inspirationRe  = regexp.MustCompile(`(?i)\b(best|leading|world-class|beloved|delightful|trusted|premier|standout|exceptional|remarkable)\b`)
	ambitionRe     = regexp.MustCompile(`(?i)\b(double|triple|10x|market-leading|best-in-class|every|all|industry-leading)\b`)
	orgContextRe   = regexp.MustCompile(`(?i)\b(team|company|org|organization|business|market|product)\b`)
)

// ScoreObjective scores an objective string on the objective rubric.
func (s *Scorer) ScoreObjective(text string) ObjectiveScore {
	text = strings.TrimSpace(text)
	if text == "" {
		return ObjectiveScore{}
	}

	dims := ObjectiveDimensions{
		OutcomeOrientation: scoreOutcomeOrientation(text),
		Inspiration:        scoreInspiration(text),
		Clarity:            scoreClarity(text),
		Alignment:          scoreAlignment(text),
		Ambition:           scoreAmbition(text),
	}

	overall := int(math.Round(float64(
		dims.OutcomeOrientation+dims.Inspiration+dims.Clarity+dims.Alignment+dims.Ambition,
	) / 5.0))

	return ObjectiveScore{
		Text:       text,
		Overall:    overall,
		Dimensions: dims,
		Feedback:   objectiveFeedback(text, dims),
	}
}

func scoreOutcomeOrientation(text string) int {
	outcome := outcomeVerbRe.MatchString(text)
	activity := activityVerbRe.MatchString(text)
	switch {
	case outcome && !activity:
		return 90
	case outcome:
		return 70
	case activity:
		return 40
	default:
		return 60
	}
}

func scoreInspiration(text string) int {
	matches := inspirationRe.FindAllString(text, -1)
	switch {
	case len(matches) >= 2:
		return 90
	case len(matches) == 1:
		return 75
	default:
		return 50
	}
}

func scoreClarity(text string) int {
	words := len(strings.Fields(text))
	switch {
	case words >= 5 && words <= 14:
		return 90
	case words >= 15 && words <= 24:
		return 70
	case words < 5:
		return 50
	default:
		return 40
	}
}

func scoreAlignment(text string) int {
	// Without organizational context to compare against, alignment can only
	// be estimated from whether the objective names a scope at all.
	if orgContextRe.MatchString(text) {
		return 80
	}
	return 70
}

func scoreAmbition(text string) int {
	if ambitionRe.MatchString(text) {
		return 85
	}
	return 60
}

func objectiveFeedback(text string, dims ObjectiveDimensions) []string {
	var feedback []string
	if dims.OutcomeOrientation <= 40 {
		feedback = append(feedback, "Reads as an activity, not an outcome - describe the end state, not the work")
	}
	if dims.Inspiration <= 50 {
		feedback = append(feedback, "Could be more inspiring - an objective should make the team want to get up in the morning")
	}
	if dims.Clarity == 50 {
		feedback = append(feedback, "Too short to stand alone - add enough context that a newcomer understands it")
	}
	if dims.Clarity == 40 {
		feedback = append(feedback, "Too long - trim to a single memorable sentence")
	}
	if dims.Ambition <= 60 {
		feedback = append(feedback, "Consider raising the ambition - objectives should stretch the team")
	}
	return feedback
}
