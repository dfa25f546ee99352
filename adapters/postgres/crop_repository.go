package postgres

import (
	"context"
	"time"

	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const cropColumns = `id, user_id, crop_name, variety, sowing_date, area_acres, location, created_at`

const snapColumns = `id, crop_id, user_id, taken_on, height_cm, leaf_color, notes, image_upload_id, created_at`

// CropRepositoryImpl implements CropRepository for PostgreSQL
type CropRepositoryImpl struct {
	db *sqlx.DB
}

// NewCropRepository creates a new PostgreSQL crop repository
func NewCropRepository(db *sqlx.DB) ports.CropRepository {
	return &CropRepositoryImpl{db: db}
}

// CreateCrop inserts a crop
func (r *CropRepositoryImpl) CreateCrop(ctx context.Context, crop *models.Crop) error {
	if crop.ID == uuid.Nil {
		crop.ID = uuid.New()
	}
	crop.CreatedAt = time.Now().UTC()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO crops (`+cropColumns+`)
		VALUES (:id, :user_id, :crop_name, :variety, :sowing_date, :area_acres, :location, :created_at)
	`, crop)
	return translate(err, "crop")
}

// GetCrop retrieves a crop
func (r *CropRepositoryImpl) GetCrop(ctx context.Context, cropID uuid.UUID) (*models.Crop, error) {
	var c models.Crop
	if err := r.db.GetContext(ctx, &c, `SELECT `+cropColumns+` FROM crops WHERE id = $1`, cropID); err != nil {
		return nil, translate(err, "crop")
	}
	return &c, nil
}

// ListCrops returns a user's crops, most recently sown first
func (r *CropRepositoryImpl) ListCrops(ctx context.Context, userID uuid.UUID) ([]*models.Crop, error) {
	crops := []*models.Crop{}
	err := r.db.SelectContext(ctx, &crops, `
		SELECT `+cropColumns+` FROM crops WHERE user_id = $1 ORDER BY sowing_date DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, translate(err, "crop")
	}
	return crops, nil
}

// CreateSnap inserts a growth log
func (r *CropRepositoryImpl) CreateSnap(ctx context.Context, snap *models.Snap) error {
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	snap.CreatedAt = time.Now().UTC()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO snaps (`+snapColumns+`)
		VALUES (:id, :crop_id, :user_id, :taken_on, :height_cm, :leaf_color, :notes, :image_upload_id, :created_at)
	`, snap)
	return translate(err, "snap")
}

// ListSnaps returns a crop's snaps ordered by date ascending
func (r *CropRepositoryImpl) ListSnaps(ctx context.Context, cropID uuid.UUID) ([]*models.Snap, error) {
	snaps := []*models.Snap{}
	err := r.db.SelectContext(ctx, &snaps, `
		SELECT `+snapColumns+` FROM snaps WHERE crop_id = $1 ORDER BY taken_on ASC, created_at ASC
	`, cropID)
	if err != nil {
		return nil, translate(err, "snap")
	}
	return snaps, nil
}

type staleCropRow struct {
	models.Crop
	LastSnap *time.Time `db:"last_snap"`
}

// ListStaleCrops returns crops whose latest snap is older than since, or that have none
func (r *CropRepositoryImpl) ListStaleCrops(ctx context.Context, since time.Time) ([]*models.StaleCrop, error) {
	var rows []staleCropRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT c.id, c.user_id, c.crop_name, c.variety, c.sowing_date, c.area_acres, c.location, c.created_at,
		       MAX(s.taken_on) AS last_snap
		FROM crops c
		LEFT JOIN snaps s ON s.crop_id = c.id
		GROUP BY c.id
		HAVING MAX(s.taken_on) IS NULL OR MAX(s.taken_on) < $1
		ORDER BY c.user_id, c.created_at
	`, since)
	if err != nil {
		return nil, translate(err, "crop")
	}

	out := make([]*models.StaleCrop, 0, len(rows))
	for i := range rows {
		crop := rows[i].Crop
		out = append(out, &models.StaleCrop{Crop: &crop, LastSnapDate: rows[i].LastSnap})
	}
	return out, nil
}
