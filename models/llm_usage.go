package models

import (
	"time"

	"github.com/google/uuid"
)

// LLMUsage represents a single LLM API call's token usage
type LLMUsage struct {
	ID               uuid.UUID `json:"id" db:"id"`
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	Provider         string    `json:"provider" db:"provider"`             // 'gemini', 'openai'
	Model            string    `json:"model" db:"model"`                   // 'gemini-2.0-flash', ...
	OperationType    string    `json:"operation_type" db:"operation_type"` // flow name, see Op* constants
	PromptTokens     int       `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens" db:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens" db:"total_tokens"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// UsageData represents raw usage data from LLM provider APIs
type UsageData struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
}

// UserUsageSummary provides aggregated usage statistics for a user
type UserUsageSummary struct {
	UserID                uuid.UUID                 `json:"user_id"`
	PeriodStart           time.Time                 `json:"period_start"`
	PeriodEnd             time.Time                 `json:"period_end"`
	TotalTokens           int                       `json:"total_tokens" db:"total_tokens"`
	TotalPromptTokens     int                       `json:"total_prompt_tokens" db:"total_prompt_tokens"`
	TotalCompletionTokens int                       `json:"total_completion_tokens" db:"total_completion_tokens"`
	RequestCount          int                       `json:"request_count" db:"request_count"`
	ByOperation           map[string]OperationUsage `json:"by_operation"`
}

// OperationUsage represents usage aggregated by flow
type OperationUsage struct {
	OperationType string `json:"operation_type" db:"operation_type"`
	TotalTokens   int    `json:"total_tokens" db:"total_tokens"`
	RequestCount  int    `json:"request_count" db:"request_count"`
}

// Operation types, one per flow
const (
	OpCropDiagnosis   = "crop_diagnosis"
	OpPriceAdvice     = "price_advice"
	OpWeatherAdvice   = "weather_advice"
	OpSchemeCheck     = "scheme_eligibility"
	OpLoanEligibility = "loan_eligibility"
	OpInsuranceAdvice = "insurance_advice"
	OpTextToSpeech    = "text_to_speech"
)
