package app

import (
	"context"
	"strings"
	"time"

	"kisanrakshak/domain/growth"
	"kisanrakshak/internal/errors"
	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CropMonitorService tracks registered crops and their growth logs
type CropMonitorService struct {
	repo       ports.CropRepository
	blobs      ports.BlobStore
	benchmarks *growth.Benchmarks
	logger     *zap.Logger
	now        func() time.Time
}

// NewCropMonitorService creates a new crop monitor service
func NewCropMonitorService(repo ports.CropRepository, blobs ports.BlobStore, benchmarks *growth.Benchmarks, logger *zap.Logger) *CropMonitorService {
	return &CropMonitorService{
		repo:       repo,
		blobs:      blobs,
		benchmarks: benchmarks,
		logger:     logger.Named("crops"),
		now:        time.Now,
	}
}

// CropDetail is a crop with its assessed growth log
type CropDetail struct {
	*models.Crop
	Snaps []*models.AssessedSnap `json:"snaps"`
}

// RegisterCrop starts monitoring a crop
func (s *CropMonitorService) RegisterCrop(ctx context.Context, userID uuid.UUID, req *models.RegisterCropRequest) (*models.Crop, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	crop := &models.Crop{
		ID:         uuid.New(),
		UserID:     userID,
		CropName:   req.CropName,
		Variety:    strings.TrimSpace(req.Variety),
		SowingDate: req.SowingDate.UTC(),
		AreaAcres:  req.AreaAcres,
		Location:   strings.TrimSpace(req.Location),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.CreateCrop(ctx, crop); err != nil {
		return nil, errors.Wrap(err, "failed to register crop")
	}
	return crop, nil
}

// ListCrops returns the user's crops
func (s *CropMonitorService) ListCrops(ctx context.Context, userID uuid.UUID) ([]*models.Crop, error) {
	return s.repo.ListCrops(ctx, userID)
}

// GetCrop returns one of the user's crops with its snaps
func (s *CropMonitorService) GetCrop(ctx context.Context, userID, cropID uuid.UUID) (*CropDetail, error) {
	crop, err := s.ownCrop(ctx, userID, cropID)
	if err != nil {
		return nil, err
	}
	snaps, err := s.assessedSnaps(ctx, crop)
	if err != nil {
		return nil, err
	}
	return &CropDetail{Crop: crop, Snaps: snaps}, nil
}

// AddSnap logs growth for a crop and returns it with its assessment
func (s *CropMonitorService) AddSnap(ctx context.Context, userID, cropID uuid.UUID, req *models.AddSnapRequest) (*models.AssessedSnap, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	crop, err := s.ownCrop(ctx, userID, cropID)
	if err != nil {
		return nil, err
	}
	if req.TakenOn.Before(crop.SowingDate) {
		return nil, errors.ValidationError("taken_on is before the sowing date")
	}
	if err := checkOwnUpload(ctx, s.blobs, userID, req.ImageUploadID); err != nil {
		return nil, err
	}

	snap := &models.Snap{
		ID:            uuid.New(),
		CropID:        crop.ID,
		UserID:        userID,
		TakenOn:       req.TakenOn.UTC(),
		HeightCM:      req.HeightCM,
		LeafColor:     req.LeafColor,
		Notes:         strings.TrimSpace(req.Notes),
		ImageUploadID: req.ImageUploadID,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.CreateSnap(ctx, snap); err != nil {
		return nil, errors.Wrap(err, "failed to add snap")
	}
	return s.assess(crop, snap), nil
}

// ListSnaps returns a crop's snaps by date ascending, each assessed against the benchmark
func (s *CropMonitorService) ListSnaps(ctx context.Context, userID, cropID uuid.UUID) ([]*models.AssessedSnap, error) {
	crop, err := s.ownCrop(ctx, userID, cropID)
	if err != nil {
		return nil, err
	}
	return s.assessedSnaps(ctx, crop)
}

// StaleCrops returns crops with no snap in the last staleDays days
func (s *CropMonitorService) StaleCrops(ctx context.Context, staleDays int) ([]*models.StaleCrop, error) {
	if staleDays < 1 {
		staleDays = 1
	}
	since := s.now().UTC().AddDate(0, 0, -staleDays)
	return s.repo.ListStaleCrops(ctx, since)
}

func (s *CropMonitorService) ownCrop(ctx context.Context, userID, cropID uuid.UUID) (*models.Crop, error) {
	crop, err := s.repo.GetCrop(ctx, cropID)
	if err != nil {
		return nil, err
	}
	if crop.UserID != userID {
		return nil, errors.NotFound("crop")
	}
	return crop, nil
}

func (s *CropMonitorService) assessedSnaps(ctx context.Context, crop *models.Crop) ([]*models.AssessedSnap, error) {
	snaps, err := s.repo.ListSnaps(ctx, crop.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list snaps")
	}
	out := make([]*models.AssessedSnap, len(snaps))
	for i, snap := range snaps {
		out[i] = s.assess(crop, snap)
	}
	return out, nil
}

func (s *CropMonitorService) assess(crop *models.Crop, snap *models.Snap) *models.AssessedSnap {
	das := crop.DaysAfterSowing(snap.TakenOn)
	return &models.AssessedSnap{
		Snap:       snap,
		Assessment: s.benchmarks.Assess(crop.CropName, das, snap.HeightCM),
	}
}
