package postgres

import (
	"context"

	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// UploadRepositoryImpl implements UploadRepository for PostgreSQL
type UploadRepositoryImpl struct {
	db *sqlx.DB
}

// NewUploadRepository creates a new PostgreSQL upload repository
func NewUploadRepository(db *sqlx.DB) ports.UploadRepository {
	return &UploadRepositoryImpl{db: db}
}

// CreateUpload records upload metadata
func (r *UploadRepositoryImpl) CreateUpload(ctx context.Context, upload *models.Upload) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO uploads (id, user_id, content_type, size_bytes, path, sha256, created_at)
		VALUES (:id, :user_id, :content_type, :size_bytes, :path, :sha256, :created_at)
	`, upload)
	return translate(err, "upload")
}

// GetUpload retrieves upload metadata
func (r *UploadRepositoryImpl) GetUpload(ctx context.Context, uploadID uuid.UUID) (*models.Upload, error) {
	var u models.Upload
	err := r.db.GetContext(ctx, &u, `
		SELECT id, user_id, content_type, size_bytes, path, sha256, created_at FROM uploads WHERE id = $1
	`, uploadID)
	if err != nil {
		return nil, translate(err, "upload")
	}
	return &u, nil
}
