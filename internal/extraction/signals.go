package extraction

import (
	"regexp"
	"strings"
)

// Signals is what one turn contributed to the discovery context. Slice
// fields carry the matched fragments; the int fields are occurrence
// counts for phrasing where the fragment itself carries no information.
type Signals struct {
	BusinessObjectives []string
	Stakeholders       []string
	DesiredOutcomes    []string
	CandidateMetrics   []string
	Constraints        []string

	ReadinessPhrases   int
	FrustrationSignals int
}

var (
	businessObjectiveRe = regexp.MustCompile(`(?i)\b(revenue|growth|market share|expansion|profitab\w+|retention|customer base)\b`)
	stakeholderRe       = regexp.MustCompile(`(?i)\b(ceo|cto|cfo|vp of \w+|vp|board|head of \w+|leadership|sales team|marketing team|engineering team|product team|stakeholders?)\b`)
	outcomeRe           = regexp.MustCompile(`(?i)\b(so that|outcome|result in|leads? to|end up with|ultimately)\b`)
	metricTokenRe       = regexp.MustCompile(`(?i)\b(nps|mau|dau|mrr|arr|churn|conversion rate|retention rate|signups?|\d+\s*%)\b`)
	constraintRe        = regexp.MustCompile(`(?i)\b(budget|deadline|limited|constraint|headcount|can't|cannot|only have|no more than)\b`)
	readinessRe         = regexp.MustCompile(`(?i)\b(ready to|let's move on|next step|what's next|move forward|makes sense, let's)\b`)
	frustrationRe       = regexp.MustCompile(`(?i)(i already (said|told)|as i (said|mentioned)|like i said|i keep (saying|telling)|again,)`)
)

// Signals scans one turn for discovery-context signals.
func (e *Extractor) Signals(text string) Signals {
	var out Signals
	for _, fragment := range splitFragments(text) {
		if businessObjectiveRe.MatchString(fragment) {
			out.BusinessObjectives = appendUnique(out.BusinessObjectives, fragment)
		}
		if m := stakeholderRe.FindString(fragment); m != "" {
			out.Stakeholders = appendUnique(out.Stakeholders, strings.ToLower(m))
		}
		if outcomeRe.MatchString(fragment) {
			out.DesiredOutcomes = appendUnique(out.DesiredOutcomes, fragment)
		}
		if m := metricTokenRe.FindString(fragment); m != "" {
			out.CandidateMetrics = appendUnique(out.CandidateMetrics, strings.ToLower(m))
		}
		if constraintRe.MatchString(fragment) {
			out.Constraints = appendUnique(out.Constraints, fragment)
		}
		if readinessRe.MatchString(fragment) {
			out.ReadinessPhrases++
		}
		if frustrationRe.MatchString(fragment) {
			out.FrustrationSignals++
		}
	}
	return out
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
