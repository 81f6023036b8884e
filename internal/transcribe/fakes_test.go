package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"voxscribe/internal/domain"
	"voxscribe/internal/events"
	"voxscribe/internal/identity"
	"voxscribe/internal/providers/transcription"
	"voxscribe/internal/storage"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) count(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c == name {
			n++
		}
	}
	return n
}

// memUsers holds users in memory; only the methods the service touches do work.
type memUsers struct {
	byID map[string]*domain.User
}

func (m *memUsers) Create(context.Context, domain.NewUser) (*domain.User, error) {
	return nil, errors.New("not implemented")
}
func (m *memUsers) UpsertGoogle(context.Context, domain.NewUser) (*domain.User, error) {
	return nil, errors.New("not implemented")
}
func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
func (m *memUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}
func (m *memUsers) GetCredentials(context.Context, string) (*domain.Credentials, error) {
	return nil, domain.ErrNotFound
}
func (m *memUsers) UpdatePassword(context.Context, string, string) error { return nil }
func (m *memUsers) UpdateProfile(context.Context, string, domain.ProfileUpdate) (*domain.User, error) {
	return nil, errors.New("not implemented")
}
func (m *memUsers) CompleteProfile(context.Context, string, string, string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}
func (m *memUsers) GrantTokens(context.Context, string, int64) (int64, error) { return 0, nil }
func (m *memUsers) Delete(context.Context, string) error                        { return nil }

// memTranscriptions applies the debit to the shared users map like the
// database transaction does.
type memTranscriptions struct {
	users   *memUsers
	records []domain.Transcription
	failErr error
	seq     int
	now     time.Time
}

func (m *memTranscriptions) CreateWithDebit(_ context.Context, t *domain.Transcription, debit int64) (int64, error) {
	if m.failErr != nil {
		return 0, m.failErr
	}
	u, ok := m.users.byID[t.UserID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	m.seq++
	t.ID = fmt.Sprintf("t%d", m.seq)
	t.CreatedAt = m.now.Add(time.Duration(m.seq) * time.Second)
	m.records = append(m.records, *t)
	u.Tokens -= debit
	if u.Tokens < 0 {
		u.Tokens = 0
	}
	u.TotalTranscriptions++
	u.WordsTranscribed += domain.WordCount(t.Transcript)
	return u.Tokens, nil
}

func (m *memTranscriptions) ListByUser(_ context.Context, userID string, limit, offset int) ([]domain.Transcription, error) {
	var mine []domain.Transcription
	for _, r := range m.records {
		if r.UserID == userID {
			mine = append(mine, r)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	if offset >= len(mine) {
		return []domain.Transcription{}, nil
	}
	mine = mine[offset:]
	if len(mine) > limit {
		mine = mine[:limit]
	}
	return mine, nil
}

func (m *memTranscriptions) GetForUser(_ context.Context, userID, id string) (*domain.Transcription, error) {
	for _, r := range m.records {
		if r.ID == id && r.UserID == userID {
			cp := r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memTranscriptions) DeleteForUser(_ context.Context, userID, id string) error {
	for i, r := range m.records {
		if r.ID == id && r.UserID == userID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeStore struct {
	log     *callLog
	putErr  error
	urlErr  error
	keys    []string
	content []byte
}

func (f *fakeStore) Put(_ context.Context, key, contentType string, body io.ReadSeeker, _ int64) (storage.Object, error) {
	f.log.add("put")
	if f.putErr != nil {
		return storage.Object{}, f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.Object{}, err
	}
	f.keys = append(f.keys, key)
	f.content = data
	return storage.Object{Key: key, ContentType: contentType, Size: int64(len(data))}, nil
}

func (f *fakeStore) URL(_ context.Context, key string) (string, error) {
	f.log.add("url")
	if f.urlErr != nil {
		return "", f.urlErr
	}
	return "https://blobs.test/" + key, nil
}

type fakeTranscriber struct {
	log     *callLog
	resp    *transcription.Response
	err     error
	gotURL  string
	gotAuth string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, fileURL, token string) (*transcription.Response, error) {
	f.log.add("transcribe")
	f.gotURL, f.gotAuth = fileURL, token
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeTokens struct {
	log *callLog
	err error
}

func (f *fakeTokens) ServiceToken(_ context.Context, sess *identity.Session) (string, error) {
	f.log.add("token")
	if f.err != nil {
		return "", f.err
	}
	return "svc-" + sess.UserID, nil
}

type recordingPublisher struct {
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	r.events = append(r.events, ev)
	return nil
}
