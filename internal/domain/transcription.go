package domain

import (
	"strings"
	"time"
)

// PreviewWords is the number of leading transcript words kept as the preview.
const PreviewWords = 5

// Transcription is a persisted transcript owned by one user.
type Transcription struct {
	ID            string
	UserID        string
	Transcript    string
	PreviewText   string
	FileName      string
	StorageKey    string
	MediaType     string
	MediaBytes    int64
	MediaChecksum string
	CreatedAt     time.Time
}

// Preview returns the first PreviewWords words of the transcript joined by single spaces.
func Preview(transcript string) string {
	words := strings.Fields(transcript)
	if len(words) > PreviewWords {
		words = words[:PreviewWords]
	}
	return strings.Join(words, " ")
}

// WordCount counts whitespace-separated words.
func WordCount(transcript string) int64 {
	return int64(len(strings.Fields(transcript)))
}

// EstimateTokenCost is the informational per-item cost shown in history
// listings. It is never used to move the balance.
func EstimateTokenCost(transcript string) int64 {
	return WordCount(transcript)
}
