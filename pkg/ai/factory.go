package ai

import (
	"fmt"

	"go.uber.org/zap"
)

// Provider names accepted by NewService.
const (
	ProviderMock      = "mock"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// NewService creates the configured AI service implementation.
// The mock provider needs no credentials and is the default for local
// development and tests.
func NewService(provider string, cfg *ProviderConfig, logger *zap.Logger) (Service, error) {
	switch provider {
	case ProviderMock, "":
		return NewMockService(), nil
	case ProviderOpenAI:
		return NewOpenAIService(cfg, logger)
	case ProviderAnthropic:
		return NewAnthropicService(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown AI provider: %q", provider)
	}
}
