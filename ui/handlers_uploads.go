package ui

import (
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"kisanrakshak/internal/errors"

	"go.uber.org/zap"
)

// handleUpload accepts a multipart "file" field or a raw body whose
// Content-Type names the media type
func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := a.config.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))

	data, contentType, err := readUpload(r, limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	upload, err := a.blobs.Put(r.Context(), currentUser(r).ID, contentType, data)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, upload)
}

func readUpload(r *http.Request, limit int64) ([]byte, string, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, "", errors.InvalidInput("Content-Type header is required")
	}

	var (
		src         io.Reader = r.Body
		contentType           = mediaType
	)
	if strings.HasPrefix(mediaType, "multipart/") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", translateBodyError(err, "multipart field \"file\" is required")
		}
		defer file.Close()
		src = file
		contentType = header.Header.Get("Content-Type")
	}

	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, "", translateBodyError(err, "failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, "", errors.TooLarge(fmt.Sprintf("upload exceeds %d bytes", limit))
	}
	return data, contentType, nil
}

func translateBodyError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.TooLarge("upload too large")
	}
	return errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, message))
}

// handleGetUpload streams stored bytes to any authenticated user
func (a *App) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	rc, upload, err := a.blobs.Open(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", upload.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(upload.SizeBytes, 10))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Header().Set("ETag", `"`+upload.SHA256+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		a.logger.Warn("failed to stream upload", zap.String("upload_id", id.String()), zap.Error(err))
	}
}
