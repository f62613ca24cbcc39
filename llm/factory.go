// LLM Provider Factory - creates providers from model identifiers.
//
// Callers hand the orchestrator a bare model name ("claude-sonnet-4-20250514",
// "gpt-4o", ...); the factory routes it to the provider that serves it.

package llm

import (
	"fmt"
	"strings"
)

// ProviderType represents supported LLM providers.
type ProviderType int

const (
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic ProviderType = iota
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI
	// ProviderDeepSeek is the DeepSeek provider.
	ProviderDeepSeek
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderAnthropic:
		return "anthropic"
	case ProviderOpenAI:
		return "openai"
	case ProviderDeepSeek:
		return "deepseek"
	case ProviderGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(s) {
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "deepseek":
		return ProviderDeepSeek, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("unknown provider: %q", s)
	}
}

// ProviderForModel infers the provider type from a model identifier.
func ProviderForModel(model string) (ProviderType, error) {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "claude"):
		return ProviderAnthropic, nil
	case strings.HasPrefix(m, "gpt"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "chatgpt"):
		return ProviderOpenAI, nil
	case strings.HasPrefix(m, "deepseek"):
		return ProviderDeepSeek, nil
	case strings.HasPrefix(m, "gemini"):
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("cannot infer provider for model %q", model)
	}
}

// Options holds provider construction parameters.
type Options struct {
	MaxTokens   uint32
	Temperature float32
}

// DefaultOptions returns the default provider options.
func DefaultOptions() Options {
	return Options{
		MaxTokens:   4096,
		Temperature: 0.7,
	}
}

// ForModel creates a provider for the given model identifier.
func ForModel(model, apiKey string, opts Options) (Provider, error) {
	pt, err := ProviderForModel(model)
	if err != nil {
		return nil, err
	}
	return New(pt, apiKey, model, opts)
}

// New creates a provider of the given type.
func New(pt ProviderType, apiKey, model string, opts Options) (Provider, error) {
	switch pt {
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, model, opts.MaxTokens, opts.Temperature), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model, opts.MaxTokens, opts.Temperature), nil
	case ProviderDeepSeek:
		return NewDeepSeekProvider(apiKey, model, opts.MaxTokens, opts.Temperature), nil
	case ProviderGemini:
		return NewGeminiProvider(apiKey, model, opts.MaxTokens, opts.Temperature), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %d", pt)
	}
}
