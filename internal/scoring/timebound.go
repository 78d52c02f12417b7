package scoring

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Time-bound validation recognizes three explicit formats:
//
//	"by [end of] Q[1-4] YYYY"       quarterly
//	"by [end of] <Month> YYYY"      monthly
//	"by [end of] H[1-2] YYYY"       half-year
//
// The encoded period must be the current period or later relative to the
// supplied clock. Vague terms ("soon", "next quarter" without a year) are
// rejected with an issue naming the term.
var (
	quarterDateRe = regexp.MustCompile(`(?i)\bby\s+(?:the\s+)?(?:end\s+of\s+)?q([1-4])\s+(\d{4})\b`)
	halfDateRe    = regexp.MustCompile(`(?i)\bby\s+(?:the\s+)?(?:end\s+of\s+)?h([12])\s+(\d{4})\b`)
	monthDateRe   = regexp.MustCompile(`(?i)\bby\s+(?:the\s+)?(?:end\s+of\s+)?(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{4})\b`)

	vagueTimeRe = regexp.MustCompile(`(?i)\b(soon|eventually|asap|someday|later|in\s+the\s+future|next\s+quarter|next\s+year|this\s+year)\b`)
)

var monthNumbers = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

// scoreTimeBound validates the timeframe in a key result against now.
func scoreTimeBound(text string, now time.Time) DimensionScore {
	if m := quarterDateRe.FindStringSubmatch(text); m != nil {
		quarter, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		return checkPeriod(year, quarter, currentQuarter(now), now.Year())
	}

	if m := halfDateRe.FindStringSubmatch(text); m != nil {
		half, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		return checkPeriod(year, half, currentHalf(now), now.Year())
	}

	if m := monthDateRe.FindStringSubmatch(text); m != nil {
		month := monthNumbers[strings.ToLower(m[1])]
		year, _ := strconv.Atoi(m[2])
		return checkPeriod(year, month, int(now.Month()), now.Year())
	}

	if m := vagueTimeRe.FindString(text); m != "" {
		return DimensionScore{
			Score:       0,
			Issues:      []string{fmt.Sprintf("Vague timeframe %q - use an explicit period like \"by Q2 2027\"", strings.ToLower(m))},
			Suggestions: []string{"Anchor the deadline to a quarter, month, or half-year with a year"},
		}
	}

	return DimensionScore{
		Score:       0,
		Issues:      []string{"No timeframe detected"},
		Suggestions: []string{`Add a deadline, e.g. "by Q2 2027" or "by end of June 2027"`},
	}
}

// checkPeriod accepts the current period or anything later.
func checkPeriod(year, period, nowPeriod, nowYear int) DimensionScore {
	if year > nowYear || (year == nowYear && period >= nowPeriod) {
		return DimensionScore{Score: 100}
	}
	return DimensionScore{
		Score:       0,
		Issues:      []string{"Date appears to be in the past"},
		Suggestions: []string{"Move the deadline to the current period or later"},
	}
}

func currentQuarter(now time.Time) int {
	return (int(now.Month())-1)/3 + 1
}

func currentHalf(now time.Time) int {
	if now.Month() <= time.June {
		return 1
	}
	return 2
}
