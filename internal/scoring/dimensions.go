package scoring

import (
	"fmt"
	"regexp"
	"strings"
)

// Metric token recognition. A metric token is a percentage, a currency
// amount, a count noun paired with a number, a named business metric, or a
// launch-count pattern ("launch 3 features").
var (
	percentRe      = regexp.MustCompile(`\d+(?:\.\d+)?\s*%`)
	currencyRe     = regexp.MustCompile(`[$€£]\s*\d`)
	namedMetricRe  = regexp.MustCompile(`(?i)\b(nps|mau|dau|mrr|arr)\b`)
	metricPhraseRe = regexp.MustCompile(`(?i)\b(monthly active users|daily active users|weekly active users|net promoter score|recurring revenue|conversion rate|churn rate|retention rate|customer satisfaction)\b`)
	countNounRe    = regexp.MustCompile(`(?i)\b\d[\d,]*(?:\.\d+)?\s*[kmb]?\s+(?:[a-z]+\s+){0,2}(users|customers|subscribers|accounts|deals|leads|signups|sessions|downloads|installs|tickets|visits|features|stores|partners)\b`)
	launchRe       = regexp.MustCompile(`(?i)\b(launch|ship|release)\s+\d+\s+\w+`)

	cadenceRe = regexp.MustCompile(`(?i)\b(daily|weekly|monthly|quarterly|annually|annual|yearly|per\s+(day|week|month|quarter|year))\b`)
	sourceRe  = regexp.MustCompile(`(?i)\b(measured\s+(by|via|in|using)|tracked\s+(by|via|in|using)|reported\s+(by|via|in)|according\s+to|google analytics|amplitude|mixpanel|salesforce|stripe|datadog|looker|tableau|hubspot)\b`)
	vagueRe   = regexp.MustCompile(`(?i)\b(significant(?:ly)?|substantial(?:ly)?|considerably|noticeably|dramatically)\b`)
	unitsRe   = regexp.MustCompile(`(?i)\b(points?|hours?|minutes?|seconds?|days?)\b`)

	reduceVerbRe     = regexp.MustCompile(`(?i)\b(reduce|decrease|cut|lower|drop|shrink|minimi[sz]e)\b`)
	durationMetricRe = regexp.MustCompile(`(?i)\b(latency|response\s+time|load\s+time|deployment\s+time|cycle\s+time|lead\s+time|downtime|mttr|build\s+time|time\s+to\b)`)
)

// hasMetricToken reports whether the text contains a recognized metric.
func hasMetricToken(text string) bool {
	return percentRe.MatchString(text) ||
		currencyRe.MatchString(text) ||
		namedMetricRe.MatchString(text) ||
		metricPhraseRe.MatchString(text) ||
		countNounRe.MatchString(text) ||
		launchRe.MatchString(text)
}

// scoreMeasurability requires a metric token, a baseline ("from X") and a
// target ("to Y") for full credit.
func scoreMeasurability(text string) DimensionScore {
	metric := hasMetricToken(text)
	baseline := hasBaseline(text)
	target := hasTarget(text)

	switch {
	case metric && baseline && target:
		return DimensionScore{Score: 100}
	case metric && target:
		return DimensionScore{
			Score:       75,
			Issues:      []string{"Missing baseline (where you start from)"},
			Suggestions: []string{`State the starting value, e.g. "from 10K"`},
		}
	case metric:
		return DimensionScore{
			Score:       50,
			Issues:      []string{"Missing target value (where you want to end up)"},
			Suggestions: []string{`State the target value, e.g. "to 20K"`},
		}
	default:
		return DimensionScore{
			Score:       0,
			Issues:      []string{"No measurable metric detected"},
			Suggestions: []string{"Include a number with a unit: a percentage, an amount, or a count"},
		}
	}
}

// scoreSpecificity rewards concrete units, an explicit cadence, and a named
// measurement source. Named metrics like MAU carry an implicit cadence.
func scoreSpecificity(text string) DimensionScore {
	units := percentRe.MatchString(text) ||
		currencyRe.MatchString(text) ||
		namedMetricRe.MatchString(text) ||
		metricPhraseRe.MatchString(text) ||
		countNounRe.MatchString(text) ||
		unitsRe.MatchString(text)
	cadence := cadenceRe.MatchString(text) || namedMetricRe.MatchString(text)
	source := sourceRe.MatchString(text)

	switch {
	case units && cadence && source:
		return DimensionScore{Score: 100}
	case units && cadence:
		return DimensionScore{
			Score:       75,
			Suggestions: []string{`Name where the metric is measured, e.g. "measured in Amplitude"`},
		}
	case units:
		return DimensionScore{
			Score:       50,
			Issues:      []string{"No measurement cadence stated"},
			Suggestions: []string{"Add how often the metric is read (monthly, quarterly, ...)"},
		}
	case vagueRe.MatchString(text):
		return DimensionScore{
			Score:       25,
			Issues:      []string{fmt.Sprintf("Only a vague quantifier (%q) without units", strings.ToLower(vagueRe.FindString(text)))},
			Suggestions: []string{"Replace vague quantifiers with concrete numbers and units"},
		}
	default:
		return DimensionScore{
			Score:  0,
			Issues: []string{"No units or concrete quantities detected"},
		}
	}
}

// scoreAchievability bands the improvement ratio target/baseline by verb
// polarity. When baseline or target cannot be parsed it returns a neutral
// 75 rather than penalizing.
func scoreAchievability(text string) DimensionScore {
	baseline, okB := extractBaseline(text)
	target, okT := extractTarget(text)
	if !okB || !okT || baseline == 0 {
		return DimensionScore{
			Score:       75,
			Suggestions: []string{"Add a parseable baseline and target so ambition can be assessed"},
		}
	}

	if reduceVerbRe.MatchString(text) {
		return scoreReduction(text, baseline, target)
	}
	return scoreIncrease(baseline, target)
}

func scoreIncrease(baseline, target float64) DimensionScore {
	ratio := target / baseline
	switch {
	case ratio < 1:
		return DimensionScore{
			Score:  0,
			Issues: []string{"Target is below the baseline (a regression for an increase goal)"},
		}
	case ratio < 1.2:
		return DimensionScore{
			Score:       25,
			Issues:      []string{"Target is not ambitious enough (under 20% improvement)"},
			Suggestions: []string{"Aim for at least a 1.5x improvement over the baseline"},
		}
	case ratio < 1.5:
		return DimensionScore{
			Score:       75,
			Suggestions: []string{"Consider a more ambitious target (1.5x-3x is a healthy stretch)"},
		}
	case ratio <= 3:
		return DimensionScore{Score: 100}
	case ratio <= 5:
		return DimensionScore{
			Score:  50,
			Issues: []string{"Very aggressive target (more than 3x the baseline)"},
		}
	default:
		return DimensionScore{
			Score:  50,
			Issues: []string{"Target may be unrealistic (more than 5x the baseline)"},
		}
	}
}

// scoreReduction mirrors the increase bands over the reduction fraction
// 1 - target/baseline. Time-duration metrics (latency, response time, ...)
// may credibly be cut by up to 95%; everything else caps at 80%.
func scoreReduction(text string, baseline, target float64) DimensionScore {
	reduction := 1 - target/baseline
	maxReduction := 0.80
	if durationMetricRe.MatchString(text) {
		maxReduction = 0.95
	}

	switch {
	case reduction < 0:
		return DimensionScore{
			Score:  0,
			Issues: []string{"Target is above the baseline (a regression for a reduction goal)"},
		}
	case reduction > maxReduction:
		return DimensionScore{
			Score:  50,
			Issues: []string{fmt.Sprintf("Reduction of %.0f%% may be unrealistic", reduction*100)},
		}
	case reduction >= 1.0/3.0:
		return DimensionScore{Score: 100}
	case reduction >= 1.0/6.0:
		return DimensionScore{
			Score:       75,
			Suggestions: []string{"Consider a deeper reduction (a third or more is a healthy stretch)"},
		}
	default:
		return DimensionScore{
			Score:       25,
			Issues:      []string{"Reduction target is not ambitious enough"},
			Suggestions: []string{"Aim to cut the metric by at least a sixth"},
		}
	}
}

// Domain keyword buckets for relevance scoring.
var relevanceBuckets = map[string][]string{
	"revenue":  {"revenue", "sales", "mrr", "arr", "income", "profit", "deal", "deals", "pricing", "bookings"},
	"customer": {"user", "users", "customer", "customers", "engagement", "retention", "churn", "active", "adoption", "mau", "dau", "signup", "signups", "nps", "satisfaction"},
	"quality":  {"quality", "performance", "latency", "reliability", "uptime", "bug", "bugs", "defect", "defects", "speed", "stability", "errors"},
	"growth":   {"growth", "grow", "expand", "expansion", "scale", "acquisition", "reach"},
	"cost":     {"cost", "costs", "expense", "expenses", "spend", "budget", "efficiency", "savings"},
	"market":   {"market", "competitor", "competitors", "brand", "awareness", "share", "positioning"},
}

// bucketAdjacency maps an objective's bucket to key-result buckets that are
// close enough to count as partially relevant.
var bucketAdjacency = map[string][]string{
	"revenue":  {"customer", "growth", "market"},
	"customer": {"revenue", "quality", "growth"},
	"quality":  {"customer", "cost"},
	"growth":   {"revenue", "customer", "market"},
	"cost":     {"revenue", "quality"},
	"market":   {"growth", "revenue"},
}

// extractBuckets returns the set of domain buckets mentioned in the text.
func extractBuckets(text string) map[string]bool {
	words := tokenize(text)
	buckets := make(map[string]bool)
	for bucket, keywords := range relevanceBuckets {
		for _, kw := range keywords {
			if words[kw] {
				buckets[bucket] = true
				break
			}
		}
	}
	return buckets
}

// tokenize lowercases and splits text into a word set.
func tokenize(text string) map[string]bool {
	words := make(map[string]bool)
	var current strings.Builder
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			current.WriteRune(r)
		} else if current.Len() > 0 {
			words[current.String()] = true
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words[current.String()] = true
	}
	return words
}

// scoreRelevance compares domain keyword buckets between the key result and
// its objective. Without an objective it returns a neutral 75.
func scoreRelevance(text, objective string) DimensionScore {
	if strings.TrimSpace(objective) == "" {
		return DimensionScore{Score: 75}
	}

	krBuckets := extractBuckets(text)
	objBuckets := extractBuckets(objective)

	shared := 0
	for b := range objBuckets {
		if krBuckets[b] {
			shared++
		}
	}

	switch {
	case shared >= 2:
		return DimensionScore{Score: 100}
	case shared == 1:
		return DimensionScore{Score: 75}
	}

	// No direct overlap; check the adjacency table.
	for ob := range objBuckets {
		for _, adjacent := range bucketAdjacency[ob] {
			if krBuckets[adjacent] {
				return DimensionScore{Score: 75}
			}
		}
	}

	return DimensionScore{
		Score:       50,
		Issues:      []string{"Relevance to the objective is unclear"},
		Suggestions: []string{"Tie the key result to the objective's domain (same metric family or outcome)"},
	}
}
