package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackService routes coach prompts to Gemini first and falls back to the
// local Ollama model when Gemini is out of quota or unreachable.
type FallbackService struct {
	primary   TextGenerator
	secondary TextGenerator
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(primary, secondary TextGenerator) *FallbackService {
	return &FallbackService{
		primary:   primary,
		secondary: secondary,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}
	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"resource_exhausted",
	}
	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// Generate tries the primary provider, then the secondary.
func (f *FallbackService) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	var primaryErr error
	if f.primary != nil {
		result, err := f.primary.Generate(ctx, prompt, opts)
		if err == nil {
			return result, nil
		}
		primaryErr = err
		if isQuotaError(err) {
			log.Printf("[AI] Gemini quota exhausted: %v, falling back to Ollama", err)
		} else {
			log.Printf("[AI] Gemini error: %v, falling back to Ollama", err)
		}
	}

	if f.secondary != nil {
		result, err := f.secondary.Generate(ctx, prompt, opts)
		if err == nil {
			log.Println("[AI] Ollama reply successful")
			return result, nil
		}
		if isConnectionError(err) {
			log.Printf("[AI] Ollama unreachable: %v", err)
		}
		if primaryErr != nil {
			return "", fmt.Errorf("all AI providers failed: %v; ollama: %w", primaryErr, err)
		}
		return "", fmt.Errorf("ollama generation failed: %w", err)
	}

	if primaryErr != nil {
		return "", primaryErr
	}
	return "", fmt.Errorf("no AI provider available")
}
