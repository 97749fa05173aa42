package usecase

import (
	"math"

	"marketplace-reviews/internal/analysis"
	"marketplace-reviews/pkg/utils"
)

const (
	genericPenalty    = 0.6
	suspiciousPenalty = 0.5

	neutralDetailMinLength = 100
	neutralSentimentBound  = 0.5
	detailMinLength        = 150

	minWeight = 0.1
	maxWeight = 2.0
)

// SynthesizeWeight turns the analyzer output, text length and authorship into
// the review's confidence weight. Factors apply multiplicatively in a fixed
// order, the anonymous discount last, then the result clamps to [0.1, 2.0].
// The weight is a confidence multiplier for aggregation, not a correctness
// judgment: longer, calmer, unflagged, identity-linked reviews count for more
// without anything being discarded.
func SynthesizeWeight(result analysis.Result, textLength int, authenticated bool, cfg utils.ReviewConfig) float64 {
	weight := 1.0

	if result.Flags.Generic {
		weight *= genericPenalty
	}
	if result.Flags.SuspiciousPattern {
		weight *= suspiciousPenalty
	}

	// Long but emotionally neutral text reads as considered rather than reflexive
	if textLength > neutralDetailMinLength && math.Abs(result.SentimentScore) < neutralSentimentBound {
		weight *= cfg.WeightNeutral
	}

	if textLength > detailMinLength {
		weight *= cfg.WeightDetailed
	}

	if !authenticated {
		weight *= cfg.WeightAnonymous
	}

	return clampWeight(weight)
}

func clampWeight(weight float64) float64 {
	return math.Max(minWeight, math.Min(maxWeight, weight))
}
