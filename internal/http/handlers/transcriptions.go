package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"voxscribe/internal/domain"
	"voxscribe/internal/transcribe"
)

const multipartMemory = 32 << 20

type transcriptionDetail struct {
	ID            string    `json:"id"`
	Transcript    string    `json:"transcript"`
	PreviewText   string    `json:"preview_text"`
	FileName      string    `json:"file_name,omitempty"`
	MediaType     string    `json:"media_type,omitempty"`
	MediaBytes    int64     `json:"media_bytes"`
	EstimatedCost int64     `json:"estimated_tokens"`
	CreatedAt     time.Time `json:"created_at"`
}

func newTranscriptionDetail(t *domain.Transcription) transcriptionDetail {
	return transcriptionDetail{
		ID:            t.ID,
		Transcript:    t.Transcript,
		PreviewText:   t.PreviewText,
		FileName:      t.FileName,
		MediaType:     t.MediaType,
		MediaBytes:    t.MediaBytes,
		EstimatedCost: domain.EstimateTokenCost(t.Transcript),
		CreatedAt:     t.CreatedAt,
	}
}

type transcribeResponse struct {
	Transcription   transcriptionDetail `json:"transcription"`
	TokensRemaining int64               `json:"tokens_remaining"`
}

// TranscriptionsCreate accepts a multipart upload in the "file" field and
// answers once the transcript has been stored.
func (a *App) TranscriptionsCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	if a.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "file exceeds the upload limit")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "multipart form with a file field required")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()
	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file required")
		return
	}
	defer file.Close()

	res, err := a.Transcriptions.Transcribe(r.Context(), sess, transcribe.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, transcribeResponse{
		Transcription:   newTranscriptionDetail(res.Transcription),
		TokensRemaining: res.TokensRemaining,
	})
}

func (a *App) TranscriptionsList(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	items, err := a.Transcriptions.List(r.Context(), sess, limit, offset)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]transcribe.Summary, 0, len(items))
	for i := range items {
		out = append(out, transcribe.NewSummary(&items[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}

func (a *App) TranscriptionsGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	id, ok := a.transcriptionID(w, r)
	if !ok {
		return
	}
	t, err := a.Transcriptions.Get(r.Context(), sess, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newTranscriptionDetail(t))
}

func (a *App) TranscriptionsDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	id, ok := a.transcriptionID(w, r)
	if !ok {
		return
	}
	if err := a.Transcriptions.Delete(r.Context(), sess, id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// transcriptionID reads the {id} path parameter. Ids that are not UUIDs can
// never match a record and answer 404 without touching the store.
func (a *App) transcriptionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "not found")
		return "", false
	}
	return id, true
}

// TranscriptionsExport streams every transcript as a zip attachment.
func (a *App) TranscriptionsExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	archive, err := a.Transcriptions.Export(r.Context(), sess)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="transcriptions.zip"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
