package realtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/accordhq/backend/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordedEvent struct {
	Event string
	Data  any
}

type fakeConn struct {
	id     string
	mu     sync.Mutex
	events []recordedEvent
	closed bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) WriteEvent(event string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("connection closed")
	}
	f.events = append(f.events, recordedEvent{Event: event, Data: data})
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedEvent, len(f.events))
	copy(out, f.events)
	return out
}

type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session // keyed by token
	touched  []string
	findErr  error
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (m *mockSessionRepo) Create(ctx context.Context, input domain.CreateSessionInput) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &domain.Session{
		ID:        "sess-" + input.Token[:8],
		UserID:    input.UserID,
		Token:     input.Token,
		ExpiresAt: input.ExpiresAt,
		IsActive:  true,
	}
	m.sessions[input.Token] = s
	return s, nil
}

func (m *mockSessionRepo) FindActiveByToken(ctx context.Context, tok string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	s, ok := m.sessions[tok]
	if !ok || !s.IsActive {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockSessionRepo) FindActiveByUserID(ctx context.Context, userID string) ([]domain.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) TouchLastActive(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched = append(m.touched, id)
	return nil
}

func (m *mockSessionRepo) Deactivate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ID == id {
			s.IsActive = false
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockSessionRepo) DeactivateByToken(ctx context.Context, tok string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[tok]; ok {
		s.IsActive = false
		return nil
	}
	return domain.ErrNotFound
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

type mockSettingsRepo struct {
	mu       sync.Mutex
	settings map[string]*domain.NotificationSetting
	findErr  error
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{settings: make(map[string]*domain.NotificationSetting)}
}

func (m *mockSettingsRepo) FindOrCreate(ctx context.Context, userID string) (*domain.NotificationSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if s, ok := m.settings[userID]; ok {
		return s, nil
	}
	s := domain.DefaultNotificationSetting(userID)
	m.settings[userID] = s
	return s, nil
}

func (m *mockSettingsRepo) Find(ctx context.Context, userID string) (*domain.NotificationSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.settings[userID]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockSettingsRepo) Save(ctx context.Context, s *domain.NotificationSetting) (*domain.NotificationSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[s.UserID] = s
	return s, nil
}

func (m *mockSettingsRepo) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.settings, userID)
	return nil
}
