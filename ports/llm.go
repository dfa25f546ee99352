package ports

import (
	"context"

	"kisanrakshak/models"
)

// ImagePart is inline image data sent alongside a prompt
type ImagePart struct {
	MIMEType string
	Data     []byte
}

// LLMRequest is a single generation call
type LLMRequest struct {
	Model       string // empty selects the client's default
	System      string
	Prompt      string
	Images      []ImagePart
	JSON        bool // ask for a JSON object response
	Temperature float32
	MaxTokens   int
}

// LLMResponse represents an LLM response with usage data
type LLMResponse struct {
	Content string
	Usage   *models.UsageData
}

// LLMClient interface for LLM providers
type LLMClient interface {
	Generate(ctx context.Context, req *LLMRequest) (*LLMResponse, error)

	// Provider names the backing service, e.g. "gemini"
	Provider() string
}

// SpeechAudio is raw PCM returned by a speech model
type SpeechAudio struct {
	PCM           []byte
	SampleRate    int
	Channels      int
	BitsPerSample int
	Usage         *models.UsageData
}

// SpeechSynthesizer turns text into spoken audio
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (*SpeechAudio, error)
}

// Validatable is implemented by flow inputs and outputs that check themselves
type Validatable interface {
	Validate() error
}
