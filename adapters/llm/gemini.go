package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"kisanrakshak/models"
	"kisanrakshak/ports"

	"google.golang.org/genai"
)

// Gemini TTS returns 16-bit little-endian mono PCM at 24 kHz unless the
// response MIME type says otherwise.
const (
	defaultPCMRate = 24000
	pcmChannels    = 1
	pcmBits        = 16
)

// GeminiClient implements ports.LLMClient and ports.SpeechSynthesizer with the Gemini API
type GeminiClient struct {
	client   *genai.Client
	config   Config
	ttsModel string
	voice    string
}

// NewGeminiClient creates a Gemini client
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing Gemini API key")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("missing model")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client, config: cfg}, nil
}

// WithSpeech sets the TTS model and default voice used by Synthesize
func (c *GeminiClient) WithSpeech(model, voice string) *GeminiClient {
	c.ttsModel = model
	c.voice = voice
	return c
}

// Provider implements ports.LLMClient
func (c *GeminiClient) Provider() string {
	return ProviderGemini
}

// Generate sends one prompt, with any images as inline parts
func (c *GeminiClient) Generate(ctx context.Context, req *ports.LLMRequest) (*ports.LLMResponse, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = float32(c.config.Temperature)
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.config.MaxTokens
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: int32(maxTokens),
	}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		gc.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, gc)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned an empty response")
	}
	return &ports.LLMResponse{Content: text, Usage: geminiUsage(resp, model)}, nil
}

// Synthesize renders text to speech and returns raw PCM
func (c *GeminiClient) Synthesize(ctx context.Context, text, voice string) (*ports.SpeechAudio, error) {
	if c.ttsModel == "" {
		return nil, fmt.Errorf("no TTS model configured")
	}
	if voice == "" {
		voice = c.voice
	}

	gc := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.ttsModel, genai.Text(text), gc)
	if err != nil {
		return nil, fmt.Errorf("gemini speech request failed: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return &ports.SpeechAudio{
				PCM:           part.InlineData.Data,
				SampleRate:    pcmRate(part.InlineData.MIMEType),
				Channels:      pcmChannels,
				BitsPerSample: pcmBits,
				Usage:         geminiUsage(resp, c.ttsModel),
			}, nil
		}
	}
	return nil, fmt.Errorf("gemini speech response contained no audio")
}

func geminiUsage(resp *genai.GenerateContentResponse, model string) *models.UsageData {
	u := &models.UsageData{Model: model, Provider: ProviderGemini}
	if md := resp.UsageMetadata; md != nil {
		u.PromptTokens = int(md.PromptTokenCount)
		u.CompletionTokens = int(md.CandidatesTokenCount)
		u.TotalTokens = int(md.TotalTokenCount)
	}
	return u
}

// pcmRate reads the rate parameter from MIME types like "audio/L16;codec=pcm;rate=24000"
func pcmRate(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(key, "rate") {
			continue
		}
		if rate, err := strconv.Atoi(value); err == nil && rate > 0 {
			return rate
		}
	}
	return defaultPCMRate
}
