package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PolicyStatus is the lifecycle state of an insurance policy
type PolicyStatus string

const (
	PolicyActive  PolicyStatus = "active"
	PolicyExpired PolicyStatus = "expired"
)

// Season is a cropping season as used by PMFBY premium rules
type Season string

const (
	SeasonKharif     Season = "kharif"
	SeasonRabi       Season = "rabi"
	SeasonCommercial Season = "commercial" // annual commercial / horticultural crops
)

// ParseSeason normalizes a season name
func ParseSeason(s string) (Season, bool) {
	switch Season(strings.ToLower(strings.TrimSpace(s))) {
	case SeasonKharif:
		return SeasonKharif, true
	case SeasonRabi:
		return SeasonRabi, true
	case SeasonCommercial, "horticulture", "horticultural":
		return SeasonCommercial, true
	}
	return "", false
}

// Policy is a crop insurance policy held by a farmer
type Policy struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	UserID       uuid.UUID    `json:"user_id" db:"user_id"`
	PolicyNumber string       `json:"policy_number" db:"policy_number"`
	Scheme       string       `json:"scheme" db:"scheme"`
	CropName     string       `json:"crop_name" db:"crop_name"`
	Season       Season       `json:"season" db:"season"`
	AreaAcres    float64      `json:"area_acres" db:"area_acres"`
	SumInsured   float64      `json:"sum_insured" db:"sum_insured"`
	Premium      float64      `json:"premium" db:"premium"`
	StartDate    time.Time    `json:"start_date" db:"start_date"`
	EndDate      time.Time    `json:"end_date" db:"end_date"`
	Status       PolicyStatus `json:"status" db:"status"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

// EffectiveStatus reports expired once the cover period has ended
func (p *Policy) EffectiveStatus(now time.Time) PolicyStatus {
	if p.Status == PolicyExpired || now.After(p.EndDate) {
		return PolicyExpired
	}
	return PolicyActive
}

// CreatePolicyRequest is the payload for recording a policy
type CreatePolicyRequest struct {
	PolicyNumber string    `json:"policy_number"`
	Scheme       string    `json:"scheme"`
	CropName     string    `json:"crop_name"`
	Season       string    `json:"season"`
	AreaAcres    float64   `json:"area_acres"`
	SumInsured   float64   `json:"sum_insured"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
}

// Validate checks the policy payload
func (r *CreatePolicyRequest) Validate() error {
	if strings.TrimSpace(r.PolicyNumber) == "" {
		return validationErr("policy_number is required")
	}
	if strings.TrimSpace(r.CropName) == "" {
		return validationErr("crop_name is required")
	}
	if _, ok := ParseSeason(r.Season); !ok {
		return validationErrf("season must be kharif, rabi or commercial, got %q", r.Season)
	}
	if r.AreaAcres <= 0 {
		return validationErr("area_acres must be positive")
	}
	if r.SumInsured <= 0 {
		return validationErr("sum_insured must be positive")
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return validationErr("start_date and end_date are required")
	}
	if !r.EndDate.After(r.StartDate) {
		return validationErr("end_date must be after start_date")
	}
	return nil
}

// ClaimStatus is the review state of a claim
type ClaimStatus string

const (
	ClaimSubmitted   ClaimStatus = "submitted"
	ClaimUnderReview ClaimStatus = "under_review"
	ClaimApproved    ClaimStatus = "approved"
	ClaimRejected    ClaimStatus = "rejected"
)

var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimSubmitted:   {ClaimUnderReview},
	ClaimUnderReview: {ClaimApproved, ClaimRejected},
}

// ValidClaimStatus reports whether status is a known claim status
func ValidClaimStatus(status ClaimStatus) bool {
	switch status {
	case ClaimSubmitted, ClaimUnderReview, ClaimApproved, ClaimRejected:
		return true
	}
	return false
}

// CanTransition reports whether a claim may move from one status to another
func CanTransition(from, to ClaimStatus) bool {
	for _, next := range claimTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LossCauses are the perils a claim may cite
var LossCauses = []string{"drought", "flood", "hailstorm", "cyclone", "pest", "disease", "fire", "landslide", "unseasonal_rain"}

// Claim is a loss claim filed against a policy
type Claim struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	PolicyID      uuid.UUID   `json:"policy_id" db:"policy_id"`
	UserID        uuid.UUID   `json:"user_id" db:"user_id"`
	Cause         string      `json:"cause" db:"cause"`
	LossDate      time.Time   `json:"loss_date" db:"loss_date"`
	EstimatedLoss float64     `json:"estimated_loss" db:"estimated_loss"`
	Description   string      `json:"description" db:"description"`
	PhotoUploadID *uuid.UUID  `json:"photo_upload_id,omitempty" db:"photo_upload_id"`
	Status        ClaimStatus `json:"status" db:"status"`
	ReviewNote    string      `json:"review_note" db:"review_note"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// FileClaimRequest is the payload for filing a claim
type FileClaimRequest struct {
	Cause         string     `json:"cause"`
	LossDate      time.Time  `json:"loss_date"`
	EstimatedLoss float64    `json:"estimated_loss"`
	Description   string     `json:"description"`
	PhotoUploadID *uuid.UUID `json:"photo_upload_id,omitempty"`
}

// Validate checks the claim payload
func (r *FileClaimRequest) Validate() error {
	r.Cause = strings.ToLower(strings.TrimSpace(r.Cause))
	if !oneOf(r.Cause, LossCauses...) {
		return validationErrf("cause must be one of %s", strings.Join(LossCauses, ", "))
	}
	if r.LossDate.IsZero() {
		return validationErr("loss_date is required")
	}
	if r.EstimatedLoss <= 0 {
		return validationErr("estimated_loss must be positive")
	}
	return nil
}

// UpdateClaimStatusRequest moves a claim through review
type UpdateClaimStatusRequest struct {
	Status     ClaimStatus `json:"status"`
	ReviewNote string      `json:"review_note"`
}
