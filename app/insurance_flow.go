package app

import (
	"context"
	"fmt"
	"strings"

	"kisanrakshak/ai"
	"kisanrakshak/domain/insurance"
	"kisanrakshak/internal/errors"
	"kisanrakshak/models"

	"github.com/google/uuid"
)

// InsuranceAdviceResult pairs the premium estimate with coverage advice
type InsuranceAdviceResult struct {
	Quote  *insurance.Quote        `json:"quote"`
	Advice *models.InsuranceAdvice `json:"advice"`
}

// PremiumQuote returns the PMFBY farmer and government premium shares
func (s *FlowService) PremiumQuote(season, cropType string, sumInsured, actuarialRate float64) (*insurance.Quote, error) {
	q, err := insurance.PremiumQuote(season, cropType, sumInsured, actuarialRate)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	return q, nil
}

// InsuranceAdvice suggests coverage for a crop and season
func (s *FlowService) InsuranceAdvice(ctx context.Context, userID uuid.UUID, req *models.InsuranceAdviceRequest) (*InsuranceAdviceResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	quote, err := s.PremiumQuote(req.Season, "", req.SumInsured, 0)
	if err != nil {
		return nil, err
	}

	risks := "none reported"
	if len(req.RiskFactors) > 0 {
		risks = strings.Join(req.RiskFactors, ", ")
	}

	advice, err := s.cover.GetJSONResponseFromPrompt(ctx, ai.Call{
		UserID: userID,
		Prompt: ai.PromptInsuranceAdvice,
		Replacements: map[string]string{
			"CROP_NAME":    req.CropName,
			"SEASON":       string(quote.Season),
			"STATE":        orDash(req.State),
			"DISTRICT":     orDash(req.District),
			"AREA_ACRES":   formatAmount(req.AreaAcres),
			"SUM_INSURED":  formatAmount(req.SumInsured),
			"RISK_FACTORS": risks,
			"PREMIUM":      describeQuote(quote),
			"LANGUAGE":     models.LanguageName(req.Language),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "insurance advice failed")
	}
	return &InsuranceAdviceResult{Quote: quote, Advice: advice}, nil
}

func describeQuote(q *insurance.Quote) string {
	return fmt.Sprintf("- actuarial premium: Rs %.2f (%.1f%%)\n- farmer pays: Rs %.2f (%.1f%%)\n- government subsidy: Rs %.2f",
		q.TotalPremium, q.ActuarialRate*100, q.FarmerPremium, q.FarmerRate*100, q.GovernmentShare)
}
