package models

import (
	"time"

	"github.com/google/uuid"
)

// Upload is stored file metadata; bytes live in the blob store
type Upload struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	ContentType string    `json:"content_type" db:"content_type"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	Path        string    `json:"-" db:"path"`
	SHA256      string    `json:"sha256" db:"sha256"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// AllowedUploadTypes maps accepted content types to file extensions
var AllowedUploadTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"audio/wav":  ".wav",
}
