// Package extraction pulls candidate objective strings, candidate key
// result strings, and discovery-context signals out of freeform
// conversational text using weighted pattern matching. The decision engine
// consumes its output as plain strings and counts.
package extraction

import (
	"regexp"
	"strings"
)

// Pattern is a weighted extraction pattern.
type Pattern struct {
	Name   string
	Regex  string
	Weight float64
}

type compiledPattern struct {
	Pattern
	regex *regexp.Regexp
}

// defaultKeyResultPatterns recognize measurable-result phrasing, highest
// confidence first.
func defaultKeyResultPatterns() []Pattern {
	return []Pattern{
		{
			Name:   "baseline_target",
			Regex:  `(?i)\b(increase|grow|raise|boost|improve|reduce|decrease|cut|lower)\b.*\bfrom\b.*\bto\b.*\d`,
			Weight: 0.9,
		},
		{
			Name:   "target_with_deadline",
			Regex:  `(?i)\b(achieve|reach|hit|attain|launch|ship)\b.*\d.*\bby\b\s+(q[1-4]|h[12]|january|february|march|april|may|june|july|august|september|october|november|december)`,
			Weight: 0.75,
		},
		{
			Name:   "verb_with_number",
			Regex:  `(?i)\b(increase|grow|reduce|decrease|achieve|reach|launch|ship)\b.*\d`,
			Weight: 0.55,
		},
	}
}

// Extractor finds objective and key result candidates in user turns.
type Extractor struct {
	krPatterns    []*compiledPattern
	minConfidence float64
}

// NewExtractor creates an extractor with the default patterns.
func NewExtractor() *Extractor {
	patterns := defaultKeyResultPatterns()
	compiled := make([]*compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			continue
		}
		compiled = append(compiled, &compiledPattern{Pattern: p, regex: re})
	}
	return &Extractor{
		krPatterns:    compiled,
		minConfidence: 0.5,
	}
}

var objectivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:our|my|the)\s+(?:objective|goal)\s+(?:is|would be)(?:\s+to)?\s*:?\s*(.+)`),
	regexp.MustCompile(`(?i)\bobjective\s*:\s*(.+)`),
	regexp.MustCompile(`(?i)\bwe\s+want\s+to\s+(.+)`),
	regexp.MustCompile(`(?i)\bwe(?:'re| are)\s+aiming\s+to\s+(.+)`),
}

// Objective extracts a candidate objective string from a turn. The second
// return is false when no objective phrasing is found.
func (e *Extractor) Objective(text string) (string, bool) {
	for _, re := range objectivePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return firstSentence(m[1]), true
		}
	}
	return "", false
}

// KeyResults extracts candidate key result strings from a turn. Each line
// and sentence is matched against the weighted patterns; only candidates
// at or above the confidence floor are returned.
func (e *Extractor) KeyResults(text string) []string {
	var results []string
	seen := make(map[string]bool)

	for _, fragment := range splitFragments(text) {
		best := 0.0
		for _, p := range e.krPatterns {
			if p.regex.MatchString(fragment) && p.Weight > best {
				best = p.Weight
			}
		}
		if best < e.minConfidence {
			continue
		}
		candidate := strings.TrimSpace(strings.TrimLeft(fragment, "-*• \t"))
		if candidate == "" || seen[candidate] {
			continue
		}
		seen[candidate] = true
		results = append(results, candidate)
	}

	return results
}

// splitFragments breaks a turn into bullet lines and sentences.
func splitFragments(text string) []string {
	var fragments []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		trimmed := strings.TrimLeft(line, "-*• \t")
		if trimmed != line {
			// Bullet lines are taken whole.
			fragments = append(fragments, trimmed)
			continue
		}
		fragments = append(fragments, splitSentences(line)...)
	}
	return fragments
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == ';' {
			s := strings.TrimSpace(strings.Trim(current.String(), ".!?;"))
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func firstSentence(text string) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	return sentences[0]
}
