package ports

import (
	"context"
	"time"

	"kisanrakshak/models"

	"github.com/google/uuid"
)

// CropRepository stores monitored crops and their growth logs
type CropRepository interface {
	CreateCrop(ctx context.Context, crop *models.Crop) error
	GetCrop(ctx context.Context, cropID uuid.UUID) (*models.Crop, error)
	ListCrops(ctx context.Context, userID uuid.UUID) ([]*models.Crop, error)

	CreateSnap(ctx context.Context, snap *models.Snap) error

	// ListSnaps returns a crop's snaps ordered by date ascending
	ListSnaps(ctx context.Context, cropID uuid.UUID) ([]*models.Snap, error)

	// ListStaleCrops returns crops with no snap taken on or after since
	ListStaleCrops(ctx context.Context, since time.Time) ([]*models.StaleCrop, error)
}
