package insurance

import (
	"fmt"
	"math"

	"kisanrakshak/models"
)

// DefaultActuarialRate is the premium rate assumed when none is supplied
const DefaultActuarialRate = 0.10

// FarmerShare is the maximum fraction of sum insured paid by the farmer under PMFBY
var FarmerShare = map[models.Season]float64{
	models.SeasonKharif:     0.02,
	models.SeasonRabi:       0.015,
	models.SeasonCommercial: 0.05,
}

// Quote is a PMFBY premium split
type Quote struct {
	Season          models.Season `json:"season"`
	CropType        string        `json:"crop_type,omitempty"`
	SumInsured      float64       `json:"sum_insured"`
	ActuarialRate   float64       `json:"actuarial_rate"`
	TotalPremium    float64       `json:"total_premium"`
	FarmerRate      float64       `json:"farmer_rate"`
	FarmerPremium   float64       `json:"farmer_premium"`
	GovernmentShare float64       `json:"government_share"`
}

// PremiumQuote splits the actuarial premium between farmer and government.
// Horticultural and commercial crop types are charged the commercial rate
// regardless of season. A non-positive actuarialRate selects the default.
func PremiumQuote(season, cropType string, sumInsured, actuarialRate float64) (*Quote, error) {
	s, ok := models.ParseSeason(season)
	if !ok {
		return nil, fmt.Errorf("unknown season %q", season)
	}
	if sumInsured < 0 {
		return nil, fmt.Errorf("sum insured cannot be negative")
	}
	if actuarialRate <= 0 {
		actuarialRate = DefaultActuarialRate
	}
	if actuarialRate > 1 {
		return nil, fmt.Errorf("actuarial rate %.2f exceeds 100%%", actuarialRate)
	}
	if ct, ok := models.ParseSeason(cropType); ok && ct == models.SeasonCommercial {
		s = models.SeasonCommercial
	}

	farmerRate := math.Min(FarmerShare[s], actuarialRate)
	total := sumInsured * actuarialRate
	farmer := sumInsured * farmerRate
	return &Quote{
		Season:          s,
		CropType:        cropType,
		SumInsured:      sumInsured,
		ActuarialRate:   actuarialRate,
		TotalPremium:    round2(total),
		FarmerRate:      farmerRate,
		FarmerPremium:   round2(farmer),
		GovernmentShare: round2(total - farmer),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
