package handlers

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pontis/backend/internal/models"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

func parseUUIDList(values []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(values))
	for _, value := range values {
		parsed, err := parseUUID(value)
		if err != nil {
			continue
		}
		out = append(out, parsed)
	}
	return out
}

// fileTypeFor classifies an upload from its content type, falling back to
// the filename extension.
func fileTypeFor(contentType, name string) models.FileType {
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(name))
	}
	base := contentType
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = base[:idx]
	}
	base = strings.TrimSpace(strings.ToLower(base))

	switch {
	case strings.HasPrefix(base, "image/"):
		return models.FileTypeImage
	case strings.HasPrefix(base, "video/"):
		return models.FileTypeVideo
	case strings.HasPrefix(base, "audio/"):
		return models.FileTypeAudio
	}

	switch base {
	case "application/pdf",
		"text/plain",
		"text/csv",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return models.FileTypeDocument
	case "application/zip",
		"application/x-zip-compressed",
		"application/x-rar-compressed",
		"application/x-7z-compressed",
		"application/x-tar",
		"application/gzip":
		return models.FileTypeArchive
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".avif":
		return models.FileTypeImage
	case ".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".csv":
		return models.FileTypeDocument
	case ".mp4", ".mov", ".webm", ".avi", ".mkv":
		return models.FileTypeVideo
	case ".mp3", ".wav", ".ogg", ".flac":
		return models.FileTypeAudio
	case ".zip", ".rar", ".7z", ".tar", ".gz":
		return models.FileTypeArchive
	}

	return models.FileTypeOther
}
