package profile

import (
	"context"
	"strings"
	"time"

	"voxscribe/internal/domain"
	"voxscribe/internal/events"
	"voxscribe/internal/identity"
	"voxscribe/internal/infra"
)

// View is the profile document as returned to the dashboard.
type View struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	DisplayName         string    `json:"display_name"`
	Name                string    `json:"name"`
	Occupation          string    `json:"occupation"`
	Country             string    `json:"country,omitempty"`
	Tokens              int64     `json:"tokens"`
	TotalTranscriptions int64     `json:"total_transcriptions"`
	WordsTranscribed    int64     `json:"words_transcribed"`
	ProfileCompleted    bool      `json:"profile_completed"`
	NeedsProfile        bool      `json:"needs_profile"`
	Greeting            string    `json:"greeting"`
	CreatedAt           time.Time `json:"created_at"`
}

func NewView(u *domain.User) View {
	return View{
		ID:                  u.ID,
		Email:               u.Email,
		DisplayName:         u.DisplayName,
		Name:                u.Name,
		Occupation:          u.Occupation,
		Country:             u.Country,
		Tokens:              u.Tokens,
		TotalTranscriptions: u.TotalTranscriptions,
		WordsTranscribed:    u.WordsTranscribed,
		ProfileCompleted:    u.ProfileCompleted,
		NeedsProfile:        domain.NeedsProfile(u),
		Greeting:            u.Greeting(),
		CreatedAt:           u.CreatedAt,
	}
}

type Options struct {
	Users  domain.UserRepository
	Events events.Publisher
	Logger infra.Logger
}

// Service reads and edits the caller's profile document.
type Service struct {
	users  domain.UserRepository
	events events.Publisher
	logger infra.Logger
}

func NewService(opts Options) *Service {
	pub := opts.Events
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{users: opts.Users, events: pub, logger: opts.Logger}
}

func (s *Service) Get(ctx context.Context, sess *identity.Session) (*domain.User, error) {
	if sess == nil || sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.users.GetByID(ctx, sess.UserID)
}

// Update applies optional edits. The completion flag is never changed here.
func (s *Service) Update(ctx context.Context, sess *identity.Session, update domain.ProfileUpdate) (*domain.User, error) {
	if sess == nil || sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	update.DisplayName = trimmed(update.DisplayName)
	update.Name = trimmed(update.Name)
	update.Occupation = trimmed(update.Occupation)
	if update.DisplayName == nil && update.Name == nil && update.Occupation == nil {
		return s.users.GetByID(ctx, sess.UserID)
	}
	user, err := s.users.UpdateProfile(ctx, sess.UserID, update)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, user)
	return user, nil
}

// Complete stores name and occupation and clears the completion prompt.
// Both fields must be non-blank.
func (s *Service) Complete(ctx context.Context, sess *identity.Session, name, occupation string) (*domain.User, error) {
	if sess == nil || sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	occupation = strings.TrimSpace(occupation)
	if name == "" || occupation == "" {
		return nil, domain.ErrProfileFieldsRequired
	}
	user, err := s.users.CompleteProfile(ctx, sess.UserID, name, occupation)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("profile completed")
	s.publish(ctx, user)
	return user, nil
}

func (s *Service) publish(ctx context.Context, user *domain.User) {
	ev, err := events.New(events.TypeProfileUpdated, user.ID, NewView(user))
	if err == nil {
		err = s.events.Publish(ctx, ev)
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("profile event publish failed")
	}
}

// trimmed drops nil and whitespace-only edits.
func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
