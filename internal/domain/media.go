package domain

import (
	"mime"
	"strings"
)

var allowedMediaTypes = map[string]struct{}{
	"audio/mpeg":       {},
	"audio/mp3":        {},
	"audio/wav":        {},
	"audio/x-wav":      {},
	"audio/wave":       {},
	"audio/mp4":        {},
	"audio/x-m4a":      {},
	"audio/aac":        {},
	"audio/ogg":        {},
	"audio/webm":       {},
	"audio/flac":       {},
	"video/mp4":        {},
	"video/webm":       {},
	"video/quicktime":  {},
	"video/x-matroska": {},
}

// NormalizeMediaType strips parameters and lowercases a Content-Type value.
func NormalizeMediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// IsAllowedMedia reports whether the content type is an accepted audio or video format.
func IsAllowedMedia(contentType string) bool {
	_, ok := allowedMediaTypes[NormalizeMediaType(contentType)]
	return ok
}
