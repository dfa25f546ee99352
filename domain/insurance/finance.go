package insurance

import (
	_ "embed"
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed scale_of_finance.yaml
var scaleOfFinanceYAML []byte

// HectaresPerAcre converts acres to hectares
const HectaresPerAcre = 0.404686

// ScaleOfFinance maps crops to a per-hectare loan amount
type ScaleOfFinance struct {
	Default float64            `yaml:"default"`
	Crops   map[string]float64 `yaml:"crops"`
}

// LoadScaleOfFinance parses the embedded table
func LoadScaleOfFinance() (*ScaleOfFinance, error) {
	return ParseScaleOfFinance(scaleOfFinanceYAML)
}

// ParseScaleOfFinance builds a table from YAML
func ParseScaleOfFinance(data []byte) (*ScaleOfFinance, error) {
	var sof ScaleOfFinance
	if err := yaml.Unmarshal(data, &sof); err != nil {
		return nil, fmt.Errorf("failed to parse scale of finance: %w", err)
	}
	if sof.Default <= 0 {
		return nil, fmt.Errorf("scale of finance default must be positive")
	}
	normalized := make(map[string]float64, len(sof.Crops))
	for crop, amount := range sof.Crops {
		if amount <= 0 {
			return nil, fmt.Errorf("scale of finance for %q must be positive", crop)
		}
		normalized[strings.ToLower(crop)] = amount
	}
	sof.Crops = normalized
	return &sof, nil
}

// PerHectare returns the loan amount per hectare for a crop
func (s *ScaleOfFinance) PerHectare(crop string) float64 {
	if amount, ok := s.Crops[strings.ToLower(strings.TrimSpace(crop))]; ok {
		return amount
	}
	return s.Default
}

// CreditLimit is the deterministic KCC-style limit for a holding
type CreditLimit struct {
	Hectares      float64 `json:"hectares"`
	PerHectare    float64 `json:"per_hectare"`
	GrossLimit    float64 `json:"gross_limit"`
	ExistingLoans float64 `json:"existing_loans"`
	Available     float64 `json:"available"`
	DebtToIncome  float64 `json:"debt_to_income"`
}

// Limit computes land × scale of finance less existing loans, never below
// zero. Debt-to-income counts existing loans plus the requested amount
// against annual income and is zero when income is unknown.
func (s *ScaleOfFinance) Limit(crop string, landAcres, annualIncome, existingLoans, requested float64) CreditLimit {
	ha := landAcres * HectaresPerAcre
	per := s.PerHectare(crop)
	gross := ha * per
	l := CreditLimit{
		Hectares:      round2(ha),
		PerHectare:    per,
		GrossLimit:    round2(gross),
		ExistingLoans: existingLoans,
		Available:     round2(math.Max(0, gross-existingLoans)),
	}
	if annualIncome > 0 {
		l.DebtToIncome = round2((existingLoans + requested) / annualIncome)
	}
	return l
}
