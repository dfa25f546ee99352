package models

import (
	"strings"

	"github.com/google/uuid"
)

// Request and response shapes for the LLM-backed flows. Responses are decoded
// straight from model JSON, so each one validates itself before being returned.

// DiagnoseCropRequest asks for a disease diagnosis from a crop photo
type DiagnoseCropRequest struct {
	PhotoDataURI  string     `json:"photo_data_uri,omitempty"`
	PhotoUploadID *uuid.UUID `json:"photo_upload_id,omitempty"`
	Description   string     `json:"description"`
	CropName      string     `json:"crop_name"`
	Language      string     `json:"language"`
}

// Validate checks the diagnosis request
func (r *DiagnoseCropRequest) Validate() error {
	if r.PhotoDataURI == "" && r.PhotoUploadID == nil {
		return validationErr("a photo is required (photo_data_uri or photo_upload_id)")
	}
	if r.PhotoDataURI != "" && !strings.HasPrefix(r.PhotoDataURI, "data:") {
		return validationErr("photo_data_uri must be a data URI")
	}
	if len(r.Description) > 2000 {
		return validationErr("description must be at most 2000 characters")
	}
	return nil
}

// CropDiagnosis is the structured diagnosis returned by the model
type CropDiagnosis struct {
	IsPlant            bool     `json:"is_plant"`
	CropName           string   `json:"crop_name"`
	IsHealthy          bool     `json:"is_healthy"`
	DiseaseName        string   `json:"disease_name"`
	Confidence         float64  `json:"confidence"`
	Severity           string   `json:"severity"`
	Symptoms           []string `json:"symptoms"`
	Causes             []string `json:"causes"`
	Treatments         []string `json:"treatments"`
	PreventiveMeasures []string `json:"preventive_measures"`
	OrganicRemedies    []string `json:"organic_remedies"`
}

// Validate checks the model output and clears advice for non-plant photos
func (d *CropDiagnosis) Validate() error {
	if !inUnitRange(d.Confidence) {
		return validationErrf("confidence %.2f outside [0,1]", d.Confidence)
	}
	d.Severity = strings.ToLower(strings.TrimSpace(d.Severity))
	if d.IsHealthy {
		d.Severity = ""
	}
	if d.Severity != "" && !oneOf(d.Severity, "low", "medium", "high") {
		return validationErrf("unknown severity %q", d.Severity)
	}
	if !d.IsPlant {
		d.IsHealthy = false
		d.DiseaseName = ""
		d.Severity = ""
		d.Symptoms = nil
		d.Causes = nil
		d.Treatments = nil
		d.PreventiveMeasures = nil
		d.OrganicRemedies = nil
	}
	return nil
}

// PriceAdviceRequest asks whether to sell a commodity now
type PriceAdviceRequest struct {
	Commodity string  `json:"commodity"`
	State     string  `json:"state"`
	District  string  `json:"district"`
	Quantity  float64 `json:"quantity_quintals"`
	Language  string  `json:"language"`
}

// Validate checks the price advice request
func (r *PriceAdviceRequest) Validate() error {
	if strings.TrimSpace(r.Commodity) == "" {
		return validationErr("commodity is required")
	}
	if r.Quantity < 0 {
		return validationErr("quantity_quintals cannot be negative")
	}
	return nil
}

// MarketAdvice is the model's selling recommendation
type MarketAdvice struct {
	Recommendation   string   `json:"recommendation"`
	Reasoning        string   `json:"reasoning"`
	BestMarket       string   `json:"best_market"`
	ExpectedPriceMin float64  `json:"expected_price_min"`
	ExpectedPriceMax float64  `json:"expected_price_max"`
	Tips             []string `json:"tips"`
}

// Validate checks the model output
func (a *MarketAdvice) Validate() error {
	a.Recommendation = strings.ToLower(strings.TrimSpace(a.Recommendation))
	if !oneOf(a.Recommendation, "sell_now", "hold", "sell_partial") {
		return validationErrf("recommendation must be sell_now, hold or sell_partial, got %q", a.Recommendation)
	}
	if a.ExpectedPriceMin < 0 || a.ExpectedPriceMax < 0 {
		return validationErr("expected prices cannot be negative")
	}
	if a.ExpectedPriceMax > 0 && a.ExpectedPriceMin > a.ExpectedPriceMax {
		a.ExpectedPriceMin, a.ExpectedPriceMax = a.ExpectedPriceMax, a.ExpectedPriceMin
	}
	return nil
}

// WeatherAdviceRequest asks for farming advice from the forecast
type WeatherAdviceRequest struct {
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	City     string   `json:"city,omitempty"`
	Crop     string   `json:"crop"`
	Stage    string   `json:"stage"`
	Language string   `json:"language"`
}

// Validate checks the weather advice request
func (r *WeatherAdviceRequest) Validate() error {
	if (r.Lat == nil) != (r.Lon == nil) {
		return validationErr("lat and lon must be given together")
	}
	if r.Lat == nil && strings.TrimSpace(r.City) == "" {
		return validationErr("either lat/lon or city is required")
	}
	if r.Lat != nil && (*r.Lat < -90 || *r.Lat > 90 || *r.Lon < -180 || *r.Lon > 180) {
		return validationErr("lat/lon out of range")
	}
	return nil
}

// WeatherAdvice is the model's forecast interpretation
type WeatherAdvice struct {
	Summary          string   `json:"summary"`
	Alerts           []string `json:"alerts"`
	IrrigationAdvice string   `json:"irrigation_advice"`
	SprayingAdvice   string   `json:"spraying_advice"`
	HarvestAdvice    string   `json:"harvest_advice"`
}

// Validate checks the model output
func (a *WeatherAdvice) Validate() error {
	if strings.TrimSpace(a.Summary) == "" {
		return validationErr("summary is required")
	}
	return nil
}

// SchemeEligibilityRequest describes a farmer for scheme matching
type SchemeEligibilityRequest struct {
	Query        string   `json:"query"`
	State        string   `json:"state"`
	LandHectares float64  `json:"land_hectares"`
	Category     string   `json:"category"`
	Crops        []string `json:"crops"`
	AnnualIncome float64  `json:"annual_income"`
	Language     string   `json:"language"`
}

// Validate checks the scheme request
func (r *SchemeEligibilityRequest) Validate() error {
	if r.LandHectares < 0 {
		return validationErr("land_hectares cannot be negative")
	}
	if r.AnnualIncome < 0 {
		return validationErr("annual_income cannot be negative")
	}
	return nil
}

// SchemeDecision is the model's verdict for one scheme
type SchemeDecision struct {
	SchemeID          string   `json:"scheme_id"`
	SchemeName        string   `json:"scheme_name"`
	Eligible          bool     `json:"eligible"`
	Reason            string   `json:"reason"`
	RequiredDocuments []string `json:"required_documents"`
	HowToApply        string   `json:"how_to_apply"`
}

// SchemeEligibilityResult is the model output for a scheme check
type SchemeEligibilityResult struct {
	Results []SchemeDecision `json:"results"`
}

// Validate checks the model output
func (r *SchemeEligibilityResult) Validate() error {
	for i, d := range r.Results {
		if strings.TrimSpace(d.SchemeID) == "" {
			return validationErrf("result %d has no scheme_id", i)
		}
	}
	return nil
}

// LoanEligibilityRequest describes a loan enquiry
type LoanEligibilityRequest struct {
	LandAcres       float64 `json:"land_acres"`
	AnnualIncome    float64 `json:"annual_income"`
	Crop            string  `json:"crop"`
	ExistingLoans   float64 `json:"existing_loans"`
	CreditHistory   string  `json:"credit_history"`
	Purpose         string  `json:"purpose"`
	RequestedAmount float64 `json:"requested_amount"`
	Language        string  `json:"language"`
}

// Validate checks the loan request
func (r *LoanEligibilityRequest) Validate() error {
	if r.LandAcres < 0 || r.AnnualIncome < 0 || r.ExistingLoans < 0 || r.RequestedAmount < 0 {
		return validationErr("amounts cannot be negative")
	}
	r.Purpose = strings.ToLower(strings.TrimSpace(r.Purpose))
	if r.Purpose == "" {
		r.Purpose = "crop"
	}
	if !oneOf(r.Purpose, "crop", "equipment", "land", "livestock", "other") {
		return validationErrf("purpose must be crop, equipment, land, livestock or other, got %q", r.Purpose)
	}
	r.CreditHistory = strings.ToLower(strings.TrimSpace(r.CreditHistory))
	if r.CreditHistory == "" {
		r.CreditHistory = "none"
	}
	if !oneOf(r.CreditHistory, "good", "average", "poor", "none") {
		return validationErrf("credit_history must be good, average, poor or none, got %q", r.CreditHistory)
	}
	return nil
}

// LoanAdvice is the model's loan verdict
type LoanAdvice struct {
	Eligible           bool     `json:"eligible"`
	MaxEligibleAmount  float64  `json:"max_eligible_amount"`
	RecommendedSchemes []string `json:"recommended_schemes"`
	InterestRateRange  string   `json:"interest_rate_range"`
	Reasoning          string   `json:"reasoning"`
	NextSteps          []string `json:"next_steps"`
}

// Validate checks the model output
func (a *LoanAdvice) Validate() error {
	if a.MaxEligibleAmount < 0 {
		return validationErr("max_eligible_amount cannot be negative")
	}
	return nil
}

// LoanAssessment combines the deterministic limit with the model's advice
type LoanAssessment struct {
	CreditLimit  float64     `json:"credit_limit"`
	DebtToIncome float64     `json:"debt_to_income"`
	Advice       *LoanAdvice `json:"advice"`
}

// InsuranceAdviceRequest asks for coverage advice
type InsuranceAdviceRequest struct {
	CropName    string   `json:"crop_name"`
	Season      string   `json:"season"`
	State       string   `json:"state"`
	District    string   `json:"district"`
	AreaAcres   float64  `json:"area_acres"`
	SumInsured  float64  `json:"sum_insured"`
	RiskFactors []string `json:"risk_factors"`
	Language    string   `json:"language"`
}

// Validate checks the insurance request
func (r *InsuranceAdviceRequest) Validate() error {
	if strings.TrimSpace(r.CropName) == "" {
		return validationErr("crop_name is required")
	}
	if _, ok := ParseSeason(r.Season); !ok {
		return validationErrf("season must be kharif, rabi or commercial, got %q", r.Season)
	}
	if r.AreaAcres < 0 || r.SumInsured < 0 {
		return validationErr("area_acres and sum_insured cannot be negative")
	}
	return nil
}

// InsuranceAdvice is the model's coverage advice
type InsuranceAdvice struct {
	RecommendedScheme string   `json:"recommended_scheme"`
	CoverageSummary   string   `json:"coverage_summary"`
	RiskAssessment    string   `json:"risk_assessment"`
	Recommendations   []string `json:"recommendations"`
	ClaimTips         []string `json:"claim_tips"`
}

// Validate checks the model output
func (a *InsuranceAdvice) Validate() error {
	if strings.TrimSpace(a.CoverageSummary) == "" {
		return validationErr("coverage_summary is required")
	}
	return nil
}

// TextToSpeechRequest asks for spoken audio of advisory text
type TextToSpeechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
	Store bool   `json:"store"`
}

// Validate checks the speech request
func (r *TextToSpeechRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	if r.Text == "" {
		return validationErr("text is required")
	}
	if len([]rune(r.Text)) > 5000 {
		return validationErr("text must be at most 5000 characters")
	}
	return nil
}

// SpeechOutput is synthesized WAV audio
type SpeechOutput struct {
	AudioDataURI string     `json:"audio_data_uri,omitempty"`
	UploadID     *uuid.UUID `json:"upload_id,omitempty"`
	DurationMS   int64      `json:"duration_ms"`
	WAV          []byte     `json:"-"`
}
