package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/accordhq/backend/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", expected, resp.StatusCode, string(body))
	}
}

func decodeData(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// injectUser is a stand-in for the auth middleware: every request runs as
// the given user.
func injectUser(user *domain.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		SetUserInContext(c, user)
		return c.Next()
	}
}

func testUser() *domain.User {
	return &domain.User{
		ID:       uuid.New().String(),
		Name:     "Dana Klein",
		Email:    "dana@example.com",
		Role:     domain.RoleUser,
		Language: "en",
		Timezone: "UTC",
	}
}

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*domain.User)}
}

func (m *mockUserRepo) add(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *mockUserRepo) Create(ctx context.Context, input domain.CreateUserInput) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == input.Email {
			return nil, domain.ErrAlreadyExists
		}
	}
	u := &domain.User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Role:         domain.RoleUser,
		Language:     "en",
		Timezone:     "UTC",
		CreatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) Update(ctx context.Context, id string, input domain.UpdateUserInput) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if input.Name != nil {
		u.Name = *input.Name
	}
	if input.Email != nil {
		u.Email = *input.Email
	}
	if input.Phone != nil {
		u.Phone = *input.Phone
	}
	if input.Username != nil {
		u.Username = *input.Username
	}
	if input.Language != nil {
		u.Language = *input.Language
	}
	if input.Timezone != nil {
		u.Timezone = *input.Timezone
	}
	return u, nil
}

func (m *mockUserRepo) UpdateSecurity(ctx context.Context, id string, input domain.UpdateSecurityInput) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if input.TwoFactorEnabled != nil {
		u.TwoFactorEnabled = *input.TwoFactorEnabled
	}
	if input.TwoFactorSecretEnc != nil {
		u.TwoFactorSecretEnc = *input.TwoFactorSecretEnc
	}
	if input.RecoveryEmail != nil {
		u.RecoveryEmail = *input.RecoveryEmail
	}
	return u, nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepo) TouchLastLogin(ctx context.Context, id string) error {
	return nil
}

var _ domain.UserRepository = (*mockUserRepo)(nil)

type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (m *mockSessionRepo) Create(ctx context.Context, input domain.CreateSessionInput) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &domain.Session{
		ID:         uuid.New().String(),
		UserID:     input.UserID,
		Token:      input.Token,
		DeviceType: input.DeviceType,
		Browser:    input.Browser,
		OS:         input.OS,
		IPAddress:  input.IPAddress,
		LastActive: time.Now(),
		ExpiresAt:  input.ExpiresAt,
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *mockSessionRepo) FindActiveByToken(ctx context.Context, token string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.Token == token && s.IsActive && s.ExpiresAt.After(time.Now()) {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockSessionRepo) FindActiveByUserID(ctx context.Context, userID string) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Session
	for _, s := range m.sessions {
		if s.UserID == userID && s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSessionRepo) TouchLastActive(ctx context.Context, id string) error {
	return nil
}

func (m *mockSessionRepo) Deactivate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.IsActive = false
	return nil
}

func (m *mockSessionRepo) DeactivateByToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.Token == token {
			s.IsActive = false
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

var _ domain.SessionRepository = (*mockSessionRepo)(nil)

type mockSettingsRepo struct {
	mu       sync.Mutex
	settings map[string]*domain.NotificationSetting
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{settings: make(map[string]*domain.NotificationSetting)}
}

func (m *mockSettingsRepo) FindOrCreate(ctx context.Context, userID string) (*domain.NotificationSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.settings[userID]; ok {
		return s, nil
	}
	s := domain.DefaultNotificationSetting(userID)
	s.ID = uuid.New().String()
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

func (m *mockSettingsRepo) Save(ctx context.Context, setting *domain.NotificationSetting) (*domain.NotificationSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.settings[setting.UserID]; !ok {
		return nil, domain.ErrNotFound
	}
	m.settings[setting.UserID] = setting
	return setting, nil
}

func (m *mockSettingsRepo) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.settings, userID)
	return nil
}

var _ domain.NotificationSettingRepository = (*mockSettingsRepo)(nil)

type mockTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.SupportTicket
}

func newMockTicketRepo() *mockTicketRepo {
	return &mockTicketRepo{tickets: make(map[string]*domain.SupportTicket)}
}

func (m *mockTicketRepo) Create(ctx context.Context, input domain.CreateTicketInput) (*domain.SupportTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &domain.SupportTicket{
		ID:           uuid.New().String(),
		UserID:       input.UserID,
		Subject:      input.Subject,
		Description:  input.Description,
		Priority:     input.Priority,
		Status:       domain.TicketOpen,
		ContactEmail: input.ContactEmail,
		Messages: []domain.TicketMessage{{
			Sender:    domain.SenderUser,
			Message:   input.Description,
			Timestamp: time.Now(),
		}},
		LastUpdated: time.Now(),
		CreatedAt:   time.Now(),
	}
	m.tickets[t.ID] = t
	return t, nil
}

func (m *mockTicketRepo) FindByID(ctx context.Context, id string) (*domain.SupportTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tickets[id]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockTicketRepo) FindByIDAndUserID(ctx context.Context, id, userID string) (*domain.SupportTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tickets[id]; ok && t.UserID == userID {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockTicketRepo) FindByUserID(ctx context.Context, userID string, status domain.TicketStatus) ([]domain.SupportTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SupportTicket
	for _, t := range m.tickets {
		if t.UserID != userID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockTicketRepo) AppendMessage(ctx context.Context, id string, msg domain.TicketMessage, status domain.TicketStatus) (*domain.SupportTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t.Messages = append(t.Messages, msg)
	t.Status = status
	t.LastUpdated = time.Now()
	return t, nil
}

func (m *mockTicketRepo) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.SupportTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t.Status = status
	t.LastUpdated = time.Now()
	return t, nil
}

var _ domain.TicketRepository = (*mockTicketRepo)(nil)
