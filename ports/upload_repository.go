package ports

import (
	"context"
	"io"

	"kisanrakshak/models"

	"github.com/google/uuid"
)

// UploadRepository stores upload metadata rows
type UploadRepository interface {
	CreateUpload(ctx context.Context, upload *models.Upload) error
	GetUpload(ctx context.Context, uploadID uuid.UUID) (*models.Upload, error)
}

// BlobStore keeps uploaded bytes and their metadata
type BlobStore interface {
	Put(ctx context.Context, userID uuid.UUID, contentType string, data []byte) (*models.Upload, error)
	// PutGenerated stores server-produced bytes under a separate size limit
	PutGenerated(ctx context.Context, userID uuid.UUID, contentType string, data []byte) (*models.Upload, error)
	Get(ctx context.Context, uploadID uuid.UUID) (*models.Upload, error)

	// Open returns the stored bytes; callers close the reader
	Open(ctx context.Context, uploadID uuid.UUID) (io.ReadCloser, *models.Upload, error)
}
