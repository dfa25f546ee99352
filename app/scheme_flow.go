package app

import (
	"context"
	"fmt"
	"strings"

	"kisanrakshak/ai"
	"kisanrakshak/domain/schemes"
	"kisanrakshak/internal/errors"
	"kisanrakshak/models"

	"github.com/google/uuid"
)

// SchemeCheckResult lists the candidate schemes and the model's verdicts on them
type SchemeCheckResult struct {
	Candidates []schemes.Scheme        `json:"candidates"`
	Results    []models.SchemeDecision `json:"results"`
}

// MatchSchemes filters the catalogue by keyword and profile hints
func (s *FlowService) MatchSchemes(req *models.SchemeEligibilityRequest) []schemes.Scheme {
	return s.schemes.Match(schemes.Filter{
		Query:        req.Query,
		State:        req.State,
		LandHectares: req.LandHectares,
		Category:     req.Category,
	})
}

// CheckSchemeEligibility asks the model to judge the farmer against the matching
// schemes. Verdicts for schemes outside the candidate set are discarded.
func (s *FlowService) CheckSchemeEligibility(ctx context.Context, userID uuid.UUID, req *models.SchemeEligibilityRequest) (*SchemeCheckResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	candidates := s.MatchSchemes(req)
	result := &SchemeCheckResult{Candidates: candidates, Results: []models.SchemeDecision{}}
	if len(candidates) == 0 {
		return result, nil
	}

	out, err := s.schemeFit.GetJSONResponseFromPrompt(ctx, ai.Call{
		UserID: userID,
		Prompt: ai.PromptSchemeCheck,
		Replacements: map[string]string{
			"STATE":         orDash(req.State),
			"LAND_HECTARES": formatAmount(req.LandHectares),
			"CATEGORY":      orDash(req.Category),
			"CROPS":         orDash(strings.Join(req.Crops, ", ")),
			"ANNUAL_INCOME": formatAmount(req.AnnualIncome),
			"SCHEMES":       describeSchemes(candidates),
			"LANGUAGE":      models.LanguageName(req.Language),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "scheme eligibility check failed")
	}

	result.Results = filterDecisions(candidates, out.Results)
	return result, nil
}

func filterDecisions(candidates []schemes.Scheme, decisions []models.SchemeDecision) []models.SchemeDecision {
	byID := make(map[string]schemes.Scheme, len(candidates))
	for _, c := range candidates {
		byID[strings.ToLower(c.ID)] = c
	}

	kept := make([]models.SchemeDecision, 0, len(decisions))
	seen := make(map[string]struct{}, len(decisions))
	for _, d := range decisions {
		key := strings.ToLower(strings.TrimSpace(d.SchemeID))
		scheme, ok := byID[key]
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		d.SchemeID = scheme.ID
		d.SchemeName = scheme.Name
		if len(d.RequiredDocuments) == 0 {
			d.RequiredDocuments = scheme.Documents
		}
		kept = append(kept, d)
	}
	return kept
}

func describeSchemes(list []schemes.Scheme) string {
	var b strings.Builder
	for _, sc := range list {
		fmt.Fprintf(&b, "- id=%s | %s: %s Benefits: %s", sc.ID, sc.Name, sc.Description, sc.Benefits)
		if sc.MaxLandHectares > 0 {
			fmt.Fprintf(&b, " (land up to %.1f ha)", sc.MaxLandHectares)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
