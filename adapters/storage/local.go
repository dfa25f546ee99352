package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kisanrakshak/internal/config"
	"kisanrakshak/internal/errors"
	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var contentTypeAliases = map[string]string{
	"image/jpg":      "image/jpeg",
	"audio/x-wav":    "audio/wav",
	"audio/wave":     "audio/wav",
	"audio/vnd.wave": "audio/wav",
}

// LocalStore keeps upload bytes on the local filesystem under
// <dir>/<user>/<uuid><ext> with a metadata row per file.
type LocalStore struct {
	dir          string
	maxBytes     int64
	maxGenerated int64
	repo         ports.UploadRepository
	logger       *zap.Logger
}

// NewLocalStore creates the upload directory if needed
func NewLocalStore(cfg config.StorageConfig, repo ports.UploadRepository, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{
		dir:          cfg.UploadDir,
		maxBytes:     cfg.MaxBytes,
		maxGenerated: cfg.GeneratedMaxBytes,
		repo:         repo,
		logger:       logger.Named("storage"),
	}, nil
}

// NormalizeContentType strips parameters and maps common aliases
func NormalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	if alias, ok := contentTypeAliases[mediaType]; ok {
		return alias
	}
	return mediaType
}

// Put validates and stores data uploaded by a user
func (s *LocalStore) Put(ctx context.Context, userID uuid.UUID, contentType string, data []byte) (*models.Upload, error) {
	return s.put(ctx, userID, contentType, data, s.maxBytes)
}

// PutGenerated stores server-produced data such as synthesized speech.
// It is bounded by the generated limit instead of the upload limit.
func (s *LocalStore) PutGenerated(ctx context.Context, userID uuid.UUID, contentType string, data []byte) (*models.Upload, error) {
	limit := s.maxGenerated
	if limit < s.maxBytes {
		limit = s.maxBytes
	}
	return s.put(ctx, userID, contentType, data, limit)
}

func (s *LocalStore) put(ctx context.Context, userID uuid.UUID, contentType string, data []byte, limit int64) (*models.Upload, error) {
	if len(data) == 0 {
		return nil, errors.InvalidInput("upload is empty")
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, errors.TooLarge(fmt.Sprintf("upload exceeds %d bytes", limit))
	}
	contentType = NormalizeContentType(contentType)
	ext, ok := models.AllowedUploadTypes[contentType]
	if !ok {
		return nil, errors.InvalidInput(fmt.Sprintf("content type %q is not allowed", contentType))
	}

	sum := sha256.Sum256(data)
	upload := &models.Upload{
		ID:          uuid.New(),
		UserID:      userID,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		SHA256:      hex.EncodeToString(sum[:]),
		CreatedAt:   time.Now().UTC(),
	}
	upload.Path = filepath.Join(userID.String(), upload.ID.String()+ext)

	full := filepath.Join(s.dir, upload.Path)
	if err := writeFileAtomic(full, data); err != nil {
		return nil, errors.Wrap(err, "failed to store upload")
	}
	if err := s.repo.CreateUpload(ctx, upload); err != nil {
		if rmErr := os.Remove(full); rmErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("path", full), zap.Error(rmErr))
		}
		return nil, errors.Wrap(err, "failed to record upload")
	}

	s.logger.Debug("stored upload",
		zap.String("upload_id", upload.ID.String()),
		zap.String("content_type", contentType),
		zap.Int64("bytes", upload.SizeBytes))
	return upload, nil
}

// Get returns upload metadata
func (s *LocalStore) Get(ctx context.Context, uploadID uuid.UUID) (*models.Upload, error) {
	return s.repo.GetUpload(ctx, uploadID)
}

// Open returns a reader for the stored bytes
func (s *LocalStore) Open(ctx context.Context, uploadID uuid.UUID) (io.ReadCloser, *models.Upload, error) {
	upload, err := s.repo.GetUpload(ctx, uploadID)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, filepath.Clean(upload.Path)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.NotFound("upload file")
		}
		return nil, nil, errors.Wrap(err, "failed to open upload")
	}
	return f, upload, nil
}

// ReadAll loads an upload fully into memory
func ReadAll(ctx context.Context, store ports.BlobStore, uploadID uuid.UUID) ([]byte, *models.Upload, error) {
	rc, upload, err := store.Open(ctx, uploadID)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read upload")
	}
	return data, upload, nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
