package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Crop is a field crop registered for monitoring
type Crop struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	CropName   string    `json:"crop_name" db:"crop_name"`
	Variety    string    `json:"variety" db:"variety"`
	SowingDate time.Time `json:"sowing_date" db:"sowing_date"`
	AreaAcres  float64   `json:"area_acres" db:"area_acres"`
	Location   string    `json:"location" db:"location"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// DaysAfterSowing returns whole days between sowing and the given date
func (c *Crop) DaysAfterSowing(on time.Time) int {
	return int(on.Sub(c.SowingDate).Hours() / 24)
}

// RegisterCropRequest is the payload for registering a crop
type RegisterCropRequest struct {
	CropName   string    `json:"crop_name"`
	Variety    string    `json:"variety"`
	SowingDate time.Time `json:"sowing_date"`
	AreaAcres  float64   `json:"area_acres"`
	Location   string    `json:"location"`
}

// Validate checks the crop payload
func (r *RegisterCropRequest) Validate() error {
	r.CropName = strings.TrimSpace(r.CropName)
	if r.CropName == "" {
		return validationErr("crop_name is required")
	}
	if r.SowingDate.IsZero() {
		return validationErr("sowing_date is required")
	}
	if r.SowingDate.After(time.Now().Add(24 * time.Hour)) {
		return validationErr("sowing_date cannot be in the future")
	}
	if r.AreaAcres < 0 {
		return validationErr("area_acres cannot be negative")
	}
	return nil
}

// Snap is a dated growth log for a crop
type Snap struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	CropID        uuid.UUID  `json:"crop_id" db:"crop_id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	TakenOn       time.Time  `json:"taken_on" db:"taken_on"`
	HeightCM      float64    `json:"height_cm" db:"height_cm"`
	LeafColor     string     `json:"leaf_color" db:"leaf_color"`
	Notes         string     `json:"notes" db:"notes"`
	ImageUploadID *uuid.UUID `json:"image_upload_id,omitempty" db:"image_upload_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// AddSnapRequest is the payload for logging growth
type AddSnapRequest struct {
	TakenOn       time.Time  `json:"taken_on"`
	HeightCM      float64    `json:"height_cm"`
	LeafColor     string     `json:"leaf_color"`
	Notes         string     `json:"notes"`
	ImageUploadID *uuid.UUID `json:"image_upload_id,omitempty"`
}

// Validate checks the snap payload
func (r *AddSnapRequest) Validate() error {
	if r.TakenOn.IsZero() {
		r.TakenOn = time.Now()
	}
	if r.HeightCM < 0 || r.HeightCM > 1000 {
		return validationErr("height_cm must be between 0 and 1000")
	}
	r.LeafColor = strings.ToLower(strings.TrimSpace(r.LeafColor))
	if r.LeafColor != "" && !oneOf(r.LeafColor, "dark_green", "green", "light_green", "yellow", "brown", "purple", "spotted") {
		return validationErrf("unknown leaf_color %q", r.LeafColor)
	}
	return nil
}

// GrowthAssessment compares a snap to the crop's benchmark
type GrowthAssessment struct {
	DaysAfterSowing int     `json:"days_after_sowing"`
	Stage           string  `json:"stage"`
	Status          string  `json:"status"` // behind | on_track | ahead | unknown
	ExpectedMinCM   float64 `json:"expected_min_cm"`
	ExpectedMaxCM   float64 `json:"expected_max_cm"`
}

// AssessedSnap pairs a snap with its assessment
type AssessedSnap struct {
	*Snap
	Assessment GrowthAssessment `json:"assessment"`
}

// StaleCrop is a crop without a recent growth log
type StaleCrop struct {
	Crop         *Crop      `json:"crop"`
	LastSnapDate *time.Time `json:"last_snap_date,omitempty"`
}
