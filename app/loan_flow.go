package app

import (
	"context"
	"fmt"

	"kisanrakshak/ai"
	"kisanrakshak/internal/errors"
	"kisanrakshak/models"

	"github.com/google/uuid"
)

// LoanEligibility combines the KCC scale-of-finance limit with model advice.
// The model's sanctioned amount never exceeds the computed limit.
func (s *FlowService) LoanEligibility(ctx context.Context, userID uuid.UUID, req *models.LoanEligibilityRequest) (*models.LoanAssessment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	limit := s.finance.Limit(req.Crop, req.LandAcres, req.AnnualIncome, req.ExistingLoans, req.RequestedAmount)

	advice, err := s.loan.GetJSONResponseFromPrompt(ctx, ai.Call{
		UserID: userID,
		Prompt: ai.PromptLoanEligibility,
		Replacements: map[string]string{
			"LAND_ACRES":       formatAmount(req.LandAcres),
			"LAND_HECTARES":    formatAmount(limit.Hectares),
			"CROP":             orDash(req.Crop),
			"ANNUAL_INCOME":    formatAmount(req.AnnualIncome),
			"EXISTING_LOANS":   formatAmount(req.ExistingLoans),
			"CREDIT_HISTORY":   req.CreditHistory,
			"PURPOSE":          req.Purpose,
			"REQUESTED_AMOUNT": formatAmount(req.RequestedAmount),
			"SCALE_OF_FINANCE": formatAmount(limit.PerHectare),
			"CREDIT_LIMIT":     formatAmount(limit.Available),
			"DEBT_TO_INCOME":   fmt.Sprintf("%.2f", limit.DebtToIncome),
			"LANGUAGE":         models.LanguageName(req.Language),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "loan eligibility check failed")
	}

	if advice.MaxEligibleAmount > limit.Available {
		advice.MaxEligibleAmount = limit.Available
	}
	if advice.MaxEligibleAmount <= 0 {
		advice.Eligible = false
	}

	return &models.LoanAssessment{
		CreditLimit:  limit.Available,
		DebtToIncome: limit.DebtToIncome,
		Advice:       advice,
	}, nil
}
