package factory

import (
	"fmt"

	"github.com/studiumlabs/voicebridge/pkg/infra/providers"
	"github.com/studiumlabs/voicebridge/pkg/infra/providers/anthropic"
	"github.com/studiumlabs/voicebridge/pkg/infra/providers/bedrock"
	"github.com/studiumlabs/voicebridge/pkg/infra/providers/gemini"
	"github.com/studiumlabs/voicebridge/pkg/infra/providers/openai"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

//go:generate mockery --name=ProviderLocator --dir=. --output=./mocks --filename=provider_locator_mock.go --case=underscore --with-expecter

type ProviderLocator interface {
	Get(provider string) (providers.Client, error)
}

type providerLocator struct{}

func NewProviderLocator() ProviderLocator {
	return &providerLocator{}
}

func (f *providerLocator) Get(provider string) (providers.Client, error) {
	switch provider {
	case ProviderGemini:
		return gemini.NewGeminiClient(), nil
	case ProviderOpenAI:
		return openai.NewOpenaiClient(), nil
	case ProviderAnthropic:
		return anthropic.NewAnthropicClient(), nil
	case ProviderBedrock:
		return bedrock.NewBedrockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
