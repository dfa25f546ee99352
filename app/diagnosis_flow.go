package app

import (
	"context"
	"strings"

	"kisanrakshak/adapters/storage"
	"kisanrakshak/ai"
	"kisanrakshak/internal/errors"
	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DiagnoseCrop identifies disease from a crop photo
func (s *FlowService) DiagnoseCrop(ctx context.Context, userID uuid.UUID, req *models.DiagnoseCropRequest) (*models.CropDiagnosis, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	image, err := s.loadPhoto(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	cropName := strings.TrimSpace(req.CropName)
	if cropName == "" {
		cropName = "unknown (identify it from the photo)"
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "none given"
	}

	out, err := s.diagnosis.GetJSONResponseFromPrompt(ctx, ai.Call{
		UserID: userID,
		Prompt: ai.PromptCropDiagnosis,
		Replacements: map[string]string{
			"CROP_NAME":   cropName,
			"DESCRIPTION": description,
			"LANGUAGE":    models.LanguageName(req.Language),
		},
		Images: []ports.ImagePart{*image},
	})
	if err != nil {
		return nil, errors.Wrap(err, "crop diagnosis failed")
	}

	s.logger.Info("crop diagnosed",
		zap.String("user_id", userID.String()),
		zap.Bool("is_plant", out.IsPlant),
		zap.String("disease", out.DiseaseName),
		zap.Float64("confidence", out.Confidence))
	return out, nil
}

func (s *FlowService) loadPhoto(ctx context.Context, userID uuid.UUID, req *models.DiagnoseCropRequest) (*ports.ImagePart, error) {
	var (
		mimeType string
		data     []byte
	)
	if req.PhotoDataURI != "" {
		var err error
		mimeType, data, err = ParseDataURI(req.PhotoDataURI)
		if err != nil {
			return nil, err
		}
		mimeType = storage.NormalizeContentType(mimeType)
	} else {
		var (
			upload *models.Upload
			err    error
		)
		data, upload, err = storage.ReadAll(ctx, s.blobs, *req.PhotoUploadID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read photo upload")
		}
		if upload.UserID != userID {
			return nil, errors.Forbidden("photo upload belongs to another user")
		}
		mimeType = upload.ContentType
	}

	if _, ok := models.AllowedUploadTypes[mimeType]; !ok || !strings.HasPrefix(mimeType, "image/") {
		return nil, errors.InvalidInput("photo must be a JPEG, PNG or WebP image")
	}
	return &ports.ImagePart{MIMEType: mimeType, Data: data}, nil
}
