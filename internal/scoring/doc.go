// Package scoring implements the content-quality rubric for OKR coaching.
//
// A candidate Key Result string is scored on five weighted dimensions
// (measurability, specificity, achievability, relevance, time-bound), each
// producing a score in {0, 25, 50, 75, 100} plus free-text issues and
// suggestions. An Objective string is scored on a parallel rubric
// (outcome orientation, inspiration, clarity, alignment, ambition).
//
// Every dimension is a pure function of the input text, an optional
// objective context, and an injected clock. Malformed or ambiguous input
// degrades to a neutral score; scoring never returns an error.
//
// Accumulated scores for a session are combined with Merge, which never
// replaces a non-empty score with an empty one.
package scoring
