package ai

import (
	"context"
	"strings"
)

// MockService is a deterministic Service implementation for tests and
// offline development. Generation derives a fixed-pattern question/answer
// from a content prefix; grading uses word-overlap similarity.
type MockService struct {
	// Call tracking for verification in tests.
	GenerateCalls int
	GradeCalls    int

	// GenerateErr and GradeErr, when set, are returned instead of the
	// deterministic result.
	GenerateErr error
	GradeErr    error
}

// NewMockService creates a new deterministic mock.
func NewMockService() *MockService {
	return &MockService{}
}

// GenerateQuestionAnswer implements Generator.
func (m *MockService) GenerateQuestionAnswer(ctx context.Context, content string) (*QuestionAnswer, error) {
	m.GenerateCalls++
	if m.GenerateErr != nil {
		return nil, m.GenerateErr
	}
	if strings.TrimSpace(content) == "" {
		return nil, &GenerationError{Message: "content is empty"}
	}
	return &QuestionAnswer{
		Question: `What is the main topic of: "` + truncate(content, 50) + `"?`,
		Answer:   "The main topic is about " + truncate(content, 30) + ".",
	}, nil
}

// GradeAnswer implements Grader. The policy is fixed:
//   - exact match after lowercasing and trimming -> correct, confidence 1.0
//   - more than 70% of canonical-answer words (whitespace split, lowercased)
//     appear as substrings of the user answer -> partial, confidence 0.7
//   - otherwise -> incorrect, confidence 0.8
func (m *MockService) GradeAnswer(ctx context.Context, userAnswer, canonicalAnswer string) (*GradeResult, error) {
	m.GradeCalls++
	if m.GradeErr != nil {
		return nil, m.GradeErr
	}

	userLower := strings.ToLower(strings.TrimSpace(userAnswer))
	canonicalLower := strings.ToLower(strings.TrimSpace(canonicalAnswer))

	if userLower == canonicalLower {
		return &GradeResult{
			Grade:      "correct",
			Confidence: 1.0,
			Rationale:  "Answer matches the canonical answer exactly.",
		}, nil
	}

	words := strings.Fields(canonicalLower)
	matching := 0
	for _, word := range words {
		if strings.Contains(userLower, word) {
			matching++
		}
	}
	if len(words) > 0 && float64(matching)/float64(len(words)) > 0.7 {
		return &GradeResult{
			Grade:      "partial",
			Confidence: 0.7,
			Rationale:  "Answer contains most key concepts from the canonical answer.",
		}, nil
	}

	return &GradeResult{
		Grade:      "incorrect",
		Confidence: 0.8,
		Rationale:  "Answer does not match the canonical answer.",
	}, nil
}

// Reset clears call tracking counters.
func (m *MockService) Reset() {
	m.GenerateCalls = 0
	m.GradeCalls = 0
}

// truncate returns the first max characters of s, appending "..." when
// truncated. Slicing runes keeps multibyte characters intact.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// Ensure MockService implements Service at compile time.
var _ Service = (*MockService)(nil)
