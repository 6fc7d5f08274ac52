package ai

import (
	"fmt"

	"mindbody-backend/pkg/gemini"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "gemini", "ollama" or "auto"

	GeminiAPIKey string

	// Ollama settings are read through getters so they can change at runtime.
	OllamaBaseURL func() string
	OllamaModel   func() string
}

// NewTextGenerator creates a TextGenerator based on the config.
// "auto" chains Gemini and Ollama with fallback when a Gemini key is present.
func NewTextGenerator(cfg Config) (TextGenerator, error) {
	ollama := NewOllamaServiceWithGetters(cfg.OllamaBaseURL, cfg.OllamaModel)

	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return gemini.NewGeminiService(cfg.GeminiAPIKey), nil

	case ProviderOllama:
		return ollama, nil

	case ProviderAuto, "":
		if cfg.GeminiAPIKey != "" {
			return NewFallbackService(gemini.NewGeminiService(cfg.GeminiAPIKey), ollama), nil
		}
		return ollama, nil

	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
