// Package ai selects among configured text-generation providers and speaks
// each provider's wire format. The provider set is closed and the selection
// order is fixed; each provider has its own request shape and its own nested
// response path, extracted by an explicit per-provider function so the API
// differences stay visible instead of hiding behind a generic JSON walker.
package ai

import (
	"fmt"
	"time"
)

// ProviderID identifies a text-generation provider.
type ProviderID string

const (
	ProviderAnthropic ProviderID = "anthropic"
	ProviderGemini    ProviderID = "gemini"
	ProviderOpenAI    ProviderID = "openai"
)

// Priority is the fixed selection order. The first provider whose credential
// resolves wins.
var Priority = []ProviderID{ProviderAnthropic, ProviderGemini, ProviderOpenAI}

// Defaults per provider. Overridable through Config.
const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-3-5-haiku-20241022"
	anthropicVersion        = "2023-06-01"

	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-1.5-flash"

	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultOpenAIModel   = "gpt-4o-mini"

	defaultTimeout = 60 * time.Second
)

// GenerateRequest is a provider-independent text generation request.
type GenerateRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// ProviderError indicates a provider rejected a call.
type ProviderError struct {
	Provider ProviderID
	Status   int
	Message  string
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("[%s] provider error %d: %s", e.Provider, e.Status, e.Message)
}
