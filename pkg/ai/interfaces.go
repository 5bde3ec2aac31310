// Package ai provides question generation and answer grading capabilities.
//
// Both capabilities are dependency-injected interfaces so the fact lifecycle
// engine can be tested against the deterministic mock and deployed against an
// external model provider without code changes.
package ai

import "context"

// QuestionAnswer is a generated question and its canonical answer.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// GradeResult is the outcome of grading a free-text answer against a
// canonical answer.
type GradeResult struct {
	Grade      string  `json:"grade"` // "correct", "partial" or "incorrect"
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// Generator derives a question/canonical-answer pair from fact content.
type Generator interface {
	// GenerateQuestionAnswer produces a question and answer for the given
	// non-empty content. Fails with *GenerationError when the provider is
	// unreachable, times out, or returns malformed output.
	GenerateQuestionAnswer(ctx context.Context, content string) (*QuestionAnswer, error)
}

// Grader scores a user's free-text answer against a canonical answer.
type Grader interface {
	// GradeAnswer returns a grade tier, a confidence in [0,1] and a short
	// rationale. Fails with *GradingError under the same conditions as
	// Generator.
	GradeAnswer(ctx context.Context, userAnswer, canonicalAnswer string) (*GradeResult, error)
}

// Service combines both capabilities. Every provider implements it.
type Service interface {
	Generator
	Grader
}
