package asset

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// Payload is a decoded inline image.
type Payload struct {
	Data        []byte
	ContentType string
}

var imageExts = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/avif":    ".avif",
}

// Ext returns the file extension for the payload's content type, or "" when unknown.
func (p Payload) Ext() string {
	if ext, ok := imageExts[p.ContentType]; ok {
		return ext
	}

	exts, err := mime.ExtensionsByType(p.ContentType)
	if err != nil || len(exts) == 0 {
		return ""
	}

	return exts[0]
}

// IsRemote reports whether payload points at an image by URL instead of carrying it inline.
func IsRemote(payload string) bool {
	return strings.HasPrefix(payload, "http://") || strings.HasPrefix(payload, "https://")
}

// DecodePayload accepts a base64 data URI ("data:image/png;base64,...") or bare base64.
// The content type is sniffed when the URI does not declare one.
func DecodePayload(payload string) (Payload, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" || IsRemote(payload) {
		return Payload{}, ErrUnsupportedPayload
	}

	var declared string
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		header, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return Payload{}, ErrUnsupportedPayload
		}
		declared = strings.TrimSuffix(header, ";base64")
		payload = data
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrUnsupportedPayload, err)
		}
	}

	if len(data) == 0 {
		return Payload{}, ErrUnsupportedPayload
	}

	contentType := declared
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return Payload{Data: data, ContentType: contentType}, nil
}
