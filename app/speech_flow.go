package app

import (
	"context"
	"fmt"

	"kisanrakshak/internal/audio"
	"kisanrakshak/internal/errors"
	"kisanrakshak/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TextToSpeech synthesizes WAV audio for advisory text. The audio is either
// stored as an upload or returned inline as a data URI.
func (s *FlowService) TextToSpeech(ctx context.Context, userID uuid.UUID, req *models.TextToSpeechRequest) (*models.SpeechOutput, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.speech == nil {
		return nil, errors.ExternalServiceError("speech", fmt.Errorf("text-to-speech requires the gemini provider"))
	}

	if err := s.rt.Acquire(ctx); err != nil {
		return nil, err
	}
	speech, err := s.speech.Synthesize(ctx, req.Text, req.Voice)
	s.rt.Release()
	if err != nil {
		return nil, errors.Wrap(err, "speech synthesis failed")
	}
	s.rt.RecordUsage(ctx, userID, models.OpTextToSpeech, speech.Usage)

	format := audio.DefaultSpeechFormat
	if speech.SampleRate > 0 {
		format.SampleRate = speech.SampleRate
	}
	if speech.Channels > 0 {
		format.Channels = speech.Channels
	}
	if speech.BitsPerSample > 0 {
		format.BitsPerSample = speech.BitsPerSample
	}

	wav, err := audio.EncodeWAV(speech.PCM, format)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode speech audio")
	}

	out := &models.SpeechOutput{
		DurationMS: format.Duration(len(speech.PCM)).Milliseconds(),
		WAV:        wav,
	}
	if req.Store {
		upload, err := s.blobs.PutGenerated(ctx, userID, "audio/wav", wav)
		if err != nil {
			return nil, errors.Wrap(err, "failed to store speech audio")
		}
		out.UploadID = &upload.ID
	} else {
		out.AudioDataURI = DataURI("audio/wav", wav)
	}

	s.logger.Info("speech synthesized",
		zap.String("user_id", userID.String()),
		zap.Int("chars", len([]rune(req.Text))),
		zap.Int64("duration_ms", out.DurationMS))
	return out, nil
}
