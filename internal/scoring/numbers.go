package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

// Quantity parsing for baseline/target detection. Accepts plain numbers,
// currency prefixes, K/M/B suffixes, and percentages ("10K", "$1.2M", "85%").

var (
	// The K/M/B suffix must end at a word boundary so "50 milliseconds"
	// parses as 50, not 50 million.
	baselineRe = regexp.MustCompile(`(?i)\bfrom\s+([$€£]?\s*\d[\d,]*(?:\.\d+)?(?:\s*[kmb]\b)?\s*%?)`)
	targetRe   = regexp.MustCompile(`(?i)\b(?:to|achieve|reach|hit|attain)\s+([$€£]?\s*\d[\d,]*(?:\.\d+)?(?:\s*[kmb]\b)?\s*%?)`)

	amountRe = regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*([kmb]\b)?`)
)

// parseAmount parses a quantity token like "10K", "$1.2M" or "85%" into a
// plain number. Returns false when no number is present.
func parseAmount(s string) (float64, bool) {
	m := amountRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(m[2]) {
	case "k":
		n *= 1e3
	case "m":
		n *= 1e6
	case "b":
		n *= 1e9
	}
	return n, true
}

// extractBaseline finds the "from X" value in a key result.
func extractBaseline(text string) (float64, bool) {
	m := baselineRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return parseAmount(m[1])
}

// extractTarget finds the "to Y" (or "achieve Y" style) value.
func extractTarget(text string) (float64, bool) {
	m := targetRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return parseAmount(m[1])
}

// hasBaseline reports whether the text states a starting value.
func hasBaseline(text string) bool {
	return baselineRe.MatchString(text)
}

// hasTarget reports whether the text states a target value.
func hasTarget(text string) bool {
	return targetRe.MatchString(text)
}
