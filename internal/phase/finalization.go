package phase

import "strings"

// Finalization-signal detection is two-tier: strong phrases always count;
// weak approval phrases count only once the conversation is long enough
// that enthusiasm plausibly means approval rather than politeness.
const (
	// finalizationWindow is how many recent turns are scanned.
	finalizationWindow = 3

	// weakSignalMinMessages is the conversation length below which weak
	// approval phrases are ignored.
	weakSignalMinMessages = 6
)

var strongFinalizationPhrases = []string{
	"let's finalize",
	"lets finalize",
	"finalize it",
	"i approve",
	"approved",
	"lock it in",
	"let's lock it in",
	"let's proceed",
	"i'm done refining",
	"ship it",
	"that's final",
}

var weakFinalizationPhrases = []string{
	"looks good",
	"looks great",
	"sounds good",
	"perfect",
	"that works",
	"love it",
	"great, thanks",
	"happy with that",
}

// DetectFinalization scans the last few turns of dialogue for a
// finalization signal.
func DetectFinalization(turns []string, messageCount int) bool {
	start := len(turns) - finalizationWindow
	if start < 0 {
		start = 0
	}

	for _, turn := range turns[start:] {
		lower := strings.ToLower(turn)
		for _, phrase := range strongFinalizationPhrases {
			if strings.Contains(lower, phrase) {
				return true
			}
		}
		if messageCount >= weakSignalMinMessages {
			for _, phrase := range weakFinalizationPhrases {
				if strings.Contains(lower, phrase) {
					return true
				}
			}
		}
	}
	return false
}
