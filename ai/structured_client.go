package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kisanrakshak/internal/config"
	"kisanrakshak/internal/errors"
	"kisanrakshak/internal/usage"
	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Runtime is the shared plumbing every flow client uses
type Runtime struct {
	Client      ports.LLMClient
	Prompts     *PromptManager
	Usage       usage.Recorder
	Logger      *zap.Logger
	System      string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration

	sem *semaphore.Weighted
}

// NewRuntime wires an LLM client to prompts and usage tracking
func NewRuntime(client ports.LLMClient, prompts *PromptManager, recorder usage.Recorder, cfg config.LLMConfig, logger *zap.Logger) *Runtime {
	concurrency := cfg.MaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runtime{
		Client:      client,
		Prompts:     prompts,
		Usage:       recorder,
		Logger:      logger.Named("flows"),
		System:      cfg.SystemContext,
		Temperature: float32(cfg.Temperature),
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		sem:         semaphore.NewWeighted(int64(concurrency)),
	}
}

// Acquire takes an LLM concurrency slot
func (rt *Runtime) Acquire(ctx context.Context) error {
	if err := rt.sem.Acquire(ctx, 1); err != nil {
		return errors.Wrap(err, "cancelled waiting for an LLM slot")
	}
	return nil
}

// Release returns a slot taken by Acquire
func (rt *Runtime) Release() {
	rt.sem.Release(1)
}

// RecordUsage reports token usage for a finished call. Tracking failures are
// logged and never fail the flow.
func (rt *Runtime) RecordUsage(ctx context.Context, userID uuid.UUID, operation string, data *models.UsageData) {
	if data == nil || rt.Usage == nil {
		return
	}
	if err := rt.Usage.RecordUsage(ctx, userID, operation, data); err != nil {
		rt.Logger.Warn("failed to record llm usage",
			zap.String("operation", operation),
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

// StructuredClient provides typed JSON responses from LLM calls
type StructuredClient[T any] struct {
	rt        *Runtime
	operation string
}

// NewStructuredClient creates a client whose usage is recorded under operation
func NewStructuredClient[T any](rt *Runtime, operation string) *StructuredClient[T] {
	return &StructuredClient[T]{rt: rt, operation: operation}
}

// Call is one flow invocation
type Call struct {
	UserID       uuid.UUID
	Prompt       string
	Replacements map[string]string
	Images       []ports.ImagePart
}

// GetJSONResponseFromPrompt renders the named prompt and decodes the model's JSON reply into T.
// When T implements ports.Validatable the decoded value is validated before it is returned.
func (c *StructuredClient[T]) GetJSONResponseFromPrompt(ctx context.Context, call Call) (*T, error) {
	prompt, err := c.rt.Prompts.RenderPrompt(call.Prompt, call.Replacements)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load/render prompt")
	}
	return c.GetJSONResponse(ctx, call.UserID, prompt, call.Images)
}

// GetJSONResponse makes a typed LLM call with an already rendered prompt
func (c *StructuredClient[T]) GetJSONResponse(ctx context.Context, userID uuid.UUID, prompt string, images []ports.ImagePart) (*T, error) {
	logger := c.rt.Logger.With(zap.String("operation", c.operation))

	if err := c.rt.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.rt.Release()

	if c.rt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.rt.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.rt.Client.Generate(ctx, &ports.LLMRequest{
		System:      c.rt.System,
		Prompt:      prompt,
		Images:      images,
		JSON:        true,
		Temperature: c.rt.Temperature,
		MaxTokens:   c.rt.MaxTokens,
	})
	if err != nil {
		logger.Warn("llm call failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, errors.ExternalServiceError(c.rt.Client.Provider(), err)
	}

	c.rt.RecordUsage(ctx, userID, c.operation, resp.Usage)

	content := cleanJSONContent(resp.Content)
	var result T
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		logger.Warn("model returned malformed JSON", zap.Int("bytes", len(resp.Content)), zap.Error(err))
		return nil, errors.ExternalServiceError(c.rt.Client.Provider(),
			fmt.Errorf("failed to parse JSON content into result type: %w", err))
	}

	if v, ok := any(&result).(ports.Validatable); ok {
		if err := v.Validate(); err != nil {
			logger.Warn("model output failed validation", zap.Error(err))
			return nil, errors.WithCode(errors.CodeExternalService, errors.Wrap(err, "model output failed validation"))
		}
	}

	logger.Debug("flow completed", zap.Duration("elapsed", time.Since(start)))
	return &result, nil
}

// cleanJSONContent removes markdown code blocks and chatter around a JSON value
func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	// Remove markdown code blocks with various prefixes
	if strings.HasPrefix(content, "```") && strings.HasSuffix(content, "```") && len(content) >= 6 {
		content = strings.TrimSuffix(content[3:], "```")
		content = strings.TrimPrefix(content, "json")
		content = strings.TrimPrefix(content, "JSON")
		content = strings.TrimSpace(content)
	}

	// Remove common AI chatter patterns that might precede JSON
	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if trimmed == "" ||
			strings.HasPrefix(lower, "here is") ||
			strings.HasPrefix(lower, "the json") ||
			strings.HasPrefix(lower, "output:") ||
			strings.HasPrefix(lower, "response:") ||
			strings.HasPrefix(lower, "##") {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	content = strings.TrimSpace(strings.Join(cleaned, "\n"))

	// Trim anything outside the outermost object or array
	open := strings.IndexAny(content, "{[")
	if open > 0 {
		content = content[open:]
	}
	if open >= 0 {
		closer := "}"
		if content[0] == '[' {
			closer = "]"
		}
		if end := strings.LastIndex(content, closer); end >= 0 {
			content = content[:end+1]
		}
	}
	return content
}
