// Package analysis wraps the external language-model judgment used to score
// review content. The engine only depends on the Analyzer contract, so the
// live model can be swapped for a deterministic stub in tests.
package analysis

import (
	"context"
)

// Flags are the structured content judgments returned by the model.
type Flags struct {
	Generic             bool `json:"genericContent"`
	ExcessivePositivity bool `json:"excessivePositivity"`
	SuspiciousPattern   bool `json:"suspiciousPatterns"`
	Inappropriate       bool `json:"inappropriateContent"`
}

// Result is the fixed output contract of one analysis call.
type Result struct {
	SentimentScore float64 `json:"sentimentScore"` // [-1, 1]
	IsManipulative bool    `json:"isManipulative"`
	Flags          Flags   `json:"flags"`
}

// Neutral is the fallback when the model is unavailable or returns garbage:
// submission must never block on this dependency.
func Neutral() Result {
	return Result{}
}

type Analyzer interface {
	Analyze(ctx context.Context, text string, rating int) (Result, error)
}
