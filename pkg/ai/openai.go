package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/recallhq/recall-engine/pkg/retry"
)

const (
	generateSystemPrompt = "You are an expert at creating educational questions and answers. " +
		"Generate a question and its answer based on the provided content. " +
		"Return only valid JSON with 'question' and 'answer' fields."

	gradeSystemPrompt = "You are an expert grader. Compare the user's answer to the canonical " +
		"answer and grade it. Return only valid JSON with 'grade' (correct/partial/incorrect), " +
		"'confidence' (0-1), and 'rationale' fields."

	generateTemperature = 0.7
	gradeTemperature    = 0.3
)

// ProviderConfig holds configuration for creating a real AI provider.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string        // optional, for OpenAI-compatible endpoints
	Timeout time.Duration // per-call deadline; zero means 8s
	Retry   *retry.Config // nil disables retries
}

const defaultProviderTimeout = 8 * time.Second

// OpenAIService implements Service against an OpenAI-compatible chat
// completion endpoint, requesting structured JSON responses.
type OpenAIService struct {
	client   *openai.Client
	model    string
	timeout  time.Duration
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewOpenAIService creates a new OpenAI-backed AI service.
func NewOpenAIService(cfg *ProviderConfig, logger *zap.Logger) (*OpenAIService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}

	return &OpenAIService{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    cfg.Model,
		timeout:  timeout,
		retryCfg: cfg.Retry,
		logger:   logger.Named("openai"),
	}, nil
}

// GenerateQuestionAnswer implements Generator.
func (s *OpenAIService) GenerateQuestionAnswer(ctx context.Context, content string) (*QuestionAnswer, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &GenerationError{Message: "content is empty"}
	}

	prompt := "Create a question and answer pair from this content:\n\n" + content
	raw, err := s.complete(ctx, generateSystemPrompt, prompt, generateTemperature)
	if err != nil {
		return nil, newGenerationError("provider request failed", openAIErrorCode(err), err)
	}

	var parsed QuestionAnswer
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &GenerationError{Message: "invalid JSON in provider response", Cause: err}
	}
	if parsed.Question == "" || parsed.Answer == "" {
		return nil, &GenerationError{Message: "provider response missing question or answer"}
	}

	return &parsed, nil
}

// GradeAnswer implements Grader.
func (s *OpenAIService) GradeAnswer(ctx context.Context, userAnswer, canonicalAnswer string) (*GradeResult, error) {
	prompt := fmt.Sprintf("Canonical answer: %s\n\nUser's answer: %s\n\nGrade the user's answer.",
		canonicalAnswer, userAnswer)

	raw, err := s.complete(ctx, gradeSystemPrompt, prompt, gradeTemperature)
	if err != nil {
		return nil, newGradingError("provider request failed", openAIErrorCode(err), err)
	}

	var parsed GradeResult
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &GradingError{Message: "invalid JSON in provider response", Cause: err}
	}
	if err := validateGradeResult(&parsed); err != nil {
		return nil, &GradingError{Message: err.Error()}
	}

	return &parsed, nil
}

// complete issues one chat completion with a JSON response format, retrying
// transient failures when a retry config is set.
func (s *OpenAIService) complete(ctx context.Context, system, prompt string, temperature float32) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	content, err := retry.ResultIfRetryable(callCtx, s.retryCfg, func() (string, error) {
		resp, err := s.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: temperature,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return "", fmt.Errorf("no response from provider")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		s.logger.Error("Provider request failed",
			zap.String("model", s.model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", err
	}

	s.logger.Debug("Provider request completed",
		zap.String("model", s.model),
		zap.Duration("elapsed", time.Since(start)))
	return content, nil
}

// validateGradeResult enforces the Grader output contract.
func validateGradeResult(g *GradeResult) error {
	switch g.Grade {
	case "correct", "partial", "incorrect":
	default:
		return fmt.Errorf("invalid grade value: %q", g.Grade)
	}
	if g.Confidence < 0 || g.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range [0,1]", g.Confidence)
	}
	if g.Rationale == "" {
		return fmt.Errorf("provider response missing rationale")
	}
	return nil
}

// openAIErrorCode extracts the provider error code, if present.
func openAIErrorCode(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok {
			return code
		}
	}
	return ""
}

// Ensure OpenAIService implements Service at compile time.
var _ Service = (*OpenAIService)(nil)
