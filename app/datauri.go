package app

import (
	"encoding/base64"
	"strings"

	"kisanrakshak/internal/errors"
)

// ParseDataURI decodes a base64 data URI of the form data:<mime>;base64,<data>
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.InvalidInput("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.InvalidInput("data URI has no payload")
	}
	mimeType, encoding, _ := strings.Cut(meta, ";")
	if !strings.EqualFold(encoding, "base64") {
		return "", nil, errors.InvalidInput("data URI must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "invalid base64 in data URI"))
	}
	if len(data) == 0 {
		return "", nil, errors.InvalidInput("data URI payload is empty")
	}
	return strings.ToLower(strings.TrimSpace(mimeType)), data, nil
}

// DataURI encodes bytes as a base64 data URI
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
