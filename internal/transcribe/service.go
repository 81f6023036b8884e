package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"voxscribe/internal/domain"
	"voxscribe/internal/events"
	"voxscribe/internal/identity"
	"voxscribe/internal/infra"
	"voxscribe/internal/metrics"
	"voxscribe/internal/providers/transcription"
	"voxscribe/internal/storage"
	"voxscribe/pkg/zip"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Transcriber calls the external transcription endpoint.
type Transcriber interface {
	Transcribe(ctx context.Context, fileURL, token string) (*transcription.Response, error)
}

// ServiceTokens mints the bearer token presented to the endpoint.
type ServiceTokens interface {
	ServiceToken(ctx context.Context, sess *identity.Session) (string, error)
}

// Upload is a media file received from the caller.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// Result is returned after a transcription has been stored. TokensRemaining
// is the endpoint's value, passed through unchanged.
type Result struct {
	Transcription   *domain.Transcription
	TokensRemaining int64
}

type Options struct {
	Users          domain.UserRepository
	Transcriptions domain.TranscriptionRepository
	Store          storage.BlobStore
	Transcriber    Transcriber
	Tokens         ServiceTokens
	Events         events.Publisher
	Metrics        *metrics.Metrics
	Logger         infra.Logger
	Now            func() time.Time
}

// Service drives upload, transcription and persistence for one user action.
type Service struct {
	users          domain.UserRepository
	transcriptions domain.TranscriptionRepository
	store          storage.BlobStore
	transcriber    Transcriber
	tokens         ServiceTokens
	events         events.Publisher
	metrics        *metrics.Metrics
	logger         infra.Logger
	now            func() time.Time
}

func NewService(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	pub := opts.Events
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		users:          opts.Users,
		transcriptions: opts.Transcriptions,
		store:          opts.Store,
		transcriber:    opts.Transcriber,
		tokens:         opts.Tokens,
		events:         pub,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		now:            now,
	}
}

// Transcribe uploads the media, has it transcribed and stores the record
// together with the balance debit. The steps run strictly in order and the
// first failure aborts the rest; an uploaded blob is not removed when a
// later step fails.
func (s *Service) Transcribe(ctx context.Context, sess *identity.Session, up Upload) (*Result, error) {
	if sess == nil || sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	mediaType := domain.NormalizeMediaType(up.ContentType)
	if !domain.IsAllowedMedia(mediaType) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedMedia, up.ContentType)
	}
	if up.Body == nil {
		return nil, fmt.Errorf("%w: empty upload", domain.ErrUnsupportedMedia)
	}
	s.metrics.RecordTranscriptionRequest()

	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}

	checksum, err := storage.Checksum(up.Body)
	if err != nil {
		return nil, s.fail("upload", domain.ErrStorage, err)
	}
	key := storage.UploadKey(user.ID, s.now(), up.FileName)
	obj, err := s.store.Put(ctx, key, mediaType, up.Body, up.Size)
	if err != nil {
		return nil, s.fail("upload", domain.ErrStorage, err)
	}
	s.metrics.RecordUpload(obj.Size)

	fileURL, err := s.store.URL(ctx, obj.Key)
	if err != nil {
		return nil, s.fail("url", domain.ErrStorage, err)
	}

	token, err := s.tokens.ServiceToken(ctx, sess)
	if err != nil {
		return nil, s.fail("token", domain.ErrUnauthorized, err)
	}

	started := time.Now()
	resp, err := s.transcriber.Transcribe(ctx, fileURL, token)
	s.metrics.RecordTranscriptionCall(time.Since(started).Seconds())
	if err != nil {
		return nil, s.fail("endpoint", domain.ErrTranscription, err)
	}

	rec := &domain.Transcription{
		UserID:        user.ID,
		Transcript:    resp.Transcription,
		PreviewText:   domain.Preview(resp.Transcription),
		FileName:      up.FileName,
		StorageKey:    obj.Key,
		MediaType:     mediaType,
		MediaBytes:    obj.Size,
		MediaChecksum: checksum,
	}
	debit := user.Tokens - resp.TokensRemaining
	if debit < 0 {
		debit = 0
	}
	if _, err := s.transcriptions.CreateWithDebit(ctx, rec, debit); err != nil {
		s.metrics.RecordTranscriptionFailure("persist")
		return nil, fmt.Errorf("store transcription: %w", err)
	}
	s.metrics.RecordTranscriptionSuccess(debit)

	s.logger.Info().
		Str("user_id", user.ID).
		Str("transcription_id", rec.ID).
		Int64("media_bytes", rec.MediaBytes).
		Int64("debit", debit).
		Int64("tokens_remaining", resp.TokensRemaining).
		Msg("transcription stored")

	s.publish(ctx, events.TypeTranscriptionCreated, user.ID, NewSummary(rec))
	s.publish(ctx, events.TypeProfileUpdated, user.ID, map[string]int64{"tokens": resp.TokensRemaining})

	return &Result{Transcription: rec, TokensRemaining: resp.TokensRemaining}, nil
}

// List returns the caller's transcriptions, newest first.
func (s *Service) List(ctx context.Context, sess *identity.Session, limit, offset int) ([]domain.Transcription, error) {
	if sess == nil || sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.transcriptions.ListByUser(ctx, sess.UserID, limit, offset)
}

func (s *Service) Get(ctx context.Context, sess *identity.Session, id string) (*domain.Transcription, error) {
	if sess == nil || sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.transcriptions.GetForUser(ctx, sess.UserID, id)
}

func (s *Service) Delete(ctx context.Context, sess *identity.Session, id string) error {
	if sess == nil || sess.UserID == "" {
		return domain.ErrUnauthorized
	}
	if err := s.transcriptions.DeleteForUser(ctx, sess.UserID, id); err != nil {
		return err
	}
	s.publish(ctx, events.TypeTranscriptionDeleted, sess.UserID, map[string]string{"id": id})
	return nil
}

// Export bundles every transcript of the caller into a zip archive with one
// text file per record.
func (s *Service) Export(ctx context.Context, sess *identity.Session) ([]byte, error) {
	if sess == nil || sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	var entries []zip.Entry
	for offset := 0; ; offset += maxPageSize {
		page, err := s.transcriptions.ListByUser(ctx, sess.UserID, maxPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, t := range page {
			entries = append(entries, zip.Entry{
				Name:     ExportFileName(t),
				Modified: t.CreatedAt,
				Data:     []byte(t.Transcript),
			})
		}
		if len(page) < maxPageSize {
			break
		}
	}
	return zip.Archive(entries)
}

// ExportFileName names a transcript inside an export archive.
func ExportFileName(t domain.Transcription) string {
	return fmt.Sprintf("%s_%s.txt", t.CreatedAt.UTC().Format("20060102T150405Z"), t.ID)
}

// Summary is the list view of a transcription.
type Summary struct {
	ID            string    `json:"id"`
	PreviewText   string    `json:"preview_text"`
	FileName      string    `json:"file_name,omitempty"`
	EstimatedCost int64     `json:"estimated_tokens"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewSummary(t *domain.Transcription) Summary {
	return Summary{
		ID:            t.ID,
		PreviewText:   t.PreviewText,
		FileName:      t.FileName,
		EstimatedCost: domain.EstimateTokenCost(t.Transcript),
		CreatedAt:     t.CreatedAt,
	}
}

func (s *Service) fail(stage string, kind, err error) error {
	s.metrics.RecordTranscriptionFailure(stage)
	s.logger.Warn().Err(err).Str("stage", stage).Msg("transcription aborted")
	return fmt.Errorf("%s: %w", stage, errors.Join(kind, err))
}

func (s *Service) publish(ctx context.Context, eventType, userID string, data any) {
	ev, err := events.New(eventType, userID, data)
	if err == nil {
		err = s.events.Publish(ctx, ev)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("event publish failed")
	}
}
