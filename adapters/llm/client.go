package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"kisanrakshak/internal/config"
	"kisanrakshak/models"
	"kisanrakshak/ports"
)

// Provider names
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds LLM adapter configuration
type Config struct {
	Model       string        // e.g., "gemini-2.0-flash"
	APIKey      string        // provider API key
	BaseURL     string        // Optional override for OpenAI-compatible endpoints
	Temperature float64       // 0.0-1.0, lower = more deterministic
	MaxTokens   int           // Max tokens in response
	Timeout     time.Duration // Request timeout
}

// New creates the LLM client selected by the configuration. Gemini clients
// also implement ports.SpeechSynthesizer.
func New(ctx context.Context, cfg config.LLMConfig) (ports.LLMClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		client, err := NewGeminiClient(ctx, Config{
			Model:       cfg.Model,
			APIKey:      cfg.GeminiKey,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return client.WithSpeech(cfg.TTSModel, cfg.TTSVoice), nil
	case ProviderOpenAI:
		client, err := NewOpenAIClient(Config{
			Model:       cfg.Model,
			APIKey:      cfg.OpenAIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// MockLLMClient is a mock LLM client for testing
type MockLLMClient struct {
	Response string            // Set this for testing
	Error    error             // Set this to simulate errors
	Usage    *models.UsageData // Optional usage attached to every response

	mu       sync.Mutex
	Requests []*ports.LLMRequest
}

// Generate records the request and returns the canned response
func (m *MockLLMClient) Generate(ctx context.Context, req *ports.LLMRequest) (*ports.LLMResponse, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.Error != nil {
		return nil, m.Error
	}
	return &ports.LLMResponse{Content: m.Response, Usage: m.Usage}, nil
}

// Provider implements ports.LLMClient
func (m *MockLLMClient) Provider() string {
	return "mock"
}

// LastRequest returns the most recent request, or nil
func (m *MockLLMClient) LastRequest() *ports.LLMRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}
