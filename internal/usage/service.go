package usage

import (
	"context"
	"sync"
	"time"

	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder is what flows need to report token usage
type Recorder interface {
	RecordUsage(ctx context.Context, userID uuid.UUID, operationType string, usage *models.UsageData) error
}

// Service handles LLM usage tracking and persistence
type Service struct {
	repo      ports.LLMUsageRepository
	logger    *zap.Logger
	baseDelay time.Duration
	wg        sync.WaitGroup
}

// NewService creates a new usage service
func NewService(repo ports.LLMUsageRepository, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		logger:    logger.Named("usage"),
		baseDelay: 100 * time.Millisecond,
	}
}

// RecordUsage asynchronously records LLM usage for a user operation
func (s *Service) RecordUsage(ctx context.Context, userID uuid.UUID, operationType string, usage *models.UsageData) error {
	// Validate usage data
	if usage == nil {
		s.logger.Warn("nil usage data provided", zap.String("operation", operationType))
		return nil // Don't fail the caller for tracking issues
	}
	if usage.PromptTokens < 0 || usage.CompletionTokens < 0 || usage.TotalTokens < 0 {
		s.logger.Warn("invalid token counts", zap.String("operation", operationType), zap.Any("usage", usage))
		return nil
	}
	if userID == uuid.Nil {
		return nil
	}

	total := usage.TotalTokens
	if total == 0 {
		total = usage.PromptTokens + usage.CompletionTokens
	}
	llmUsage := &models.LLMUsage{
		ID:               uuid.New(),
		UserID:           userID,
		Provider:         usage.Provider,
		Model:            usage.Model,
		OperationType:    operationType,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      total,
		CreatedAt:        time.Now().UTC(),
	}

	// Async persistence to avoid blocking LLM calls
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.persistWithRetry(llmUsage); err != nil {
			s.logger.Error("failed to persist usage after retries",
				zap.String("operation", operationType), zap.Error(err))
		}
	}()

	return nil
}

// persistWithRetry attempts to persist usage with linear backoff
func (s *Service) persistWithRetry(usage *models.LLMUsage) error {
	const maxAttempts = 3

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = s.repo.RecordUsage(ctx, usage)
		cancel()
		if err == nil {
			return nil
		}
		if attempt < maxAttempts-1 {
			time.Sleep(time.Duration(attempt+1) * s.baseDelay)
		}
	}
	return err
}

// Wait blocks until pending writes finish
func (s *Service) Wait() {
	s.wg.Wait()
}

// GetUserUsageSummary returns aggregated usage for a user in a time period
func (s *Service) GetUserUsageSummary(ctx context.Context, userID uuid.UUID, start, end time.Time) (*models.UserUsageSummary, error) {
	return s.repo.GetUserUsageSummary(ctx, userID, start, end)
}

// GetUserUsage returns detailed usage records for a user
func (s *Service) GetUserUsage(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*models.LLMUsage, error) {
	return s.repo.GetUserUsage(ctx, userID, start, end)
}
