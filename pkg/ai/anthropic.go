package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/recallhq/recall-engine/pkg/retry"
)

const anthropicMaxTokens = 1000

// AnthropicService implements Service against the Anthropic Messages API.
// Anthropic has no structured-output mode, so responses are parsed by
// extracting the first balanced JSON object from the completion text.
type AnthropicService struct {
	client   *anthropic.Client
	model    string
	timeout  time.Duration
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewAnthropicService creates a new Anthropic-backed AI service.
func NewAnthropicService(cfg *ProviderConfig, logger *zap.Logger) (*AnthropicService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}

	return &AnthropicService{
		client:   anthropic.NewClient(cfg.APIKey),
		model:    cfg.Model,
		timeout:  timeout,
		retryCfg: cfg.Retry,
		logger:   logger.Named("anthropic"),
	}, nil
}

// GenerateQuestionAnswer implements Generator.
func (s *AnthropicService) GenerateQuestionAnswer(ctx context.Context, content string) (*QuestionAnswer, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &GenerationError{Message: "content is empty"}
	}

	prompt := "Create a question and answer pair from this content:\n\n" + content
	raw, err := s.complete(ctx, generateSystemPrompt, prompt, generateTemperature)
	if err != nil {
		return nil, newGenerationError("provider request failed", anthropicErrorCode(err), err)
	}

	jsonStr, err := extractJSON(raw)
	if err != nil {
		return nil, &GenerationError{Message: "invalid JSON in provider response", Cause: err}
	}
	var parsed QuestionAnswer
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, &GenerationError{Message: "invalid JSON in provider response", Cause: err}
	}
	if parsed.Question == "" || parsed.Answer == "" {
		return nil, &GenerationError{Message: "provider response missing question or answer"}
	}

	return &parsed, nil
}

// GradeAnswer implements Grader.
func (s *AnthropicService) GradeAnswer(ctx context.Context, userAnswer, canonicalAnswer string) (*GradeResult, error) {
	prompt := fmt.Sprintf("Canonical answer: %s\n\nUser's answer: %s\n\nGrade the user's answer.",
		canonicalAnswer, userAnswer)

	raw, err := s.complete(ctx, gradeSystemPrompt, prompt, gradeTemperature)
	if err != nil {
		return nil, newGradingError("provider request failed", anthropicErrorCode(err), err)
	}

	jsonStr, err := extractJSON(raw)
	if err != nil {
		return nil, &GradingError{Message: "invalid JSON in provider response", Cause: err}
	}
	var parsed GradeResult
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, &GradingError{Message: "invalid JSON in provider response", Cause: err}
	}
	if err := validateGradeResult(&parsed); err != nil {
		return nil, &GradingError{Message: err.Error()}
	}

	return &parsed, nil
}

// complete issues one Messages API call, retrying transient failures when a
// retry config is set.
func (s *AnthropicService) complete(ctx context.Context, system, prompt string, temperature float32) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := retry.ResultIfRetryable(callCtx, s.retryCfg, func() (string, error) {
		resp, err := s.client.CreateMessages(callCtx, anthropic.MessagesRequest{
			Model:       anthropic.Model(s.model),
			System:      system,
			MaxTokens:   anthropicMaxTokens,
			Temperature: &temperature,
			Messages: []anthropic.Message{
				{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				}},
			},
		})
		if err != nil {
			return "", err
		}
		content := resp.GetFirstContentText()
		if content == "" {
			return "", fmt.Errorf("no response from provider")
		}
		return content, nil
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
	return text, nil
}

// anthropicErrorCode extracts the provider error type, if present.
func anthropicErrorCode(err error) string {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		return string(apiErr.Type)
	}
	return ""
}

// Ensure AnthropicService implements Service at compile time.
var _ Service = (*AnthropicService)(nil)
