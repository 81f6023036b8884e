package storage

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"lukechampine.com/blake3"
)

// Object describes a stored blob.
type Object struct {
	Key         string
	ContentType string
	Size        int64
}

// BlobStore persists uploaded media and hands out URLs the transcription
// endpoint can fetch.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.ReadSeeker, size int64) (Object, error)
	URL(ctx context.Context, key string) (string, error)
}

// UploadKey builds the per-user blob key: uploads/<user>/<unix millis>_<file name>.
func UploadKey(userID string, at time.Time, fileName string) string {
	return fmt.Sprintf("uploads/%s/%d_%s", userID, at.UnixMilli(), cleanFileName(fileName))
}

func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			return r
		case unicode.IsSpace(r):
			return '_'
		default:
			return -1
		}
	}, name)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "upload"
	}
	return name
}

// Checksum returns the hex BLAKE3-256 digest of r and rewinds it.
func Checksum(r io.ReadSeeker) (string, error) {
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("storage: checksum: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("storage: rewind: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
