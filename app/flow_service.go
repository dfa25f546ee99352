package app

import (
	"kisanrakshak/ai"
	"kisanrakshak/domain/insurance"
	"kisanrakshak/domain/schemes"
	"kisanrakshak/models"
	"kisanrakshak/ports"

	"go.uber.org/zap"
)

// FlowDeps are the collaborators the advisory flows need
type FlowDeps struct {
	Runtime *ai.Runtime
	Prices  ports.PriceSource
	Weather ports.WeatherSource
	Schemes *schemes.Catalog
	Finance *insurance.ScaleOfFinance
	Blobs   ports.BlobStore
	Speech  ports.SpeechSynthesizer // nil when the provider cannot synthesize speech
	Logger  *zap.Logger
}

// FlowService runs the LLM-backed advisory flows
type FlowService struct {
	rt      *ai.Runtime
	prices  ports.PriceSource
	weather ports.WeatherSource
	schemes *schemes.Catalog
	finance *insurance.ScaleOfFinance
	blobs   ports.BlobStore
	speech  ports.SpeechSynthesizer
	logger  *zap.Logger

	diagnosis *ai.StructuredClient[models.CropDiagnosis]
	market    *ai.StructuredClient[models.MarketAdvice]
	forecast  *ai.StructuredClient[models.WeatherAdvice]
	schemeFit *ai.StructuredClient[models.SchemeEligibilityResult]
	loan      *ai.StructuredClient[models.LoanAdvice]
	cover     *ai.StructuredClient[models.InsuranceAdvice]
}

// NewFlowService creates the flow service
func NewFlowService(deps FlowDeps) *FlowService {
	return &FlowService{
		rt:      deps.Runtime,
		prices:  deps.Prices,
		weather: deps.Weather,
		schemes: deps.Schemes,
		finance: deps.Finance,
		blobs:   deps.Blobs,
		speech:  deps.Speech,
		logger:  deps.Logger.Named("flows"),

		diagnosis: ai.NewStructuredClient[models.CropDiagnosis](deps.Runtime, models.OpCropDiagnosis),
		market:    ai.NewStructuredClient[models.MarketAdvice](deps.Runtime, models.OpPriceAdvice),
		forecast:  ai.NewStructuredClient[models.WeatherAdvice](deps.Runtime, models.OpWeatherAdvice),
		schemeFit: ai.NewStructuredClient[models.SchemeEligibilityResult](deps.Runtime, models.OpSchemeCheck),
		loan:      ai.NewStructuredClient[models.LoanAdvice](deps.Runtime, models.OpLoanEligibility),
		cover:     ai.NewStructuredClient[models.InsuranceAdvice](deps.Runtime, models.OpInsuranceAdvice),
	}
}

// Schemes exposes the static scheme catalogue
func (s *FlowService) Schemes() *schemes.Catalog {
	return s.schemes
}
