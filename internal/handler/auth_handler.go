package handler

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pquerna/otp/totp"

	"github.com/accordhq/backend/internal/domain"
	"github.com/accordhq/backend/internal/password"
	"github.com/accordhq/backend/internal/response"
	"github.com/accordhq/backend/internal/secret"
	"github.com/accordhq/backend/internal/token"
)

type AuthHandler struct {
	userRepo          domain.UserRepository
	sessionRepo       domain.SessionRepository
	issuer            *token.Issuer
	encryptor         *secret.Encryptor
	logger            *slog.Logger
	sessionCookieName string
	tokenTTL          time.Duration
	secureCookie      bool
}

type AuthHandlerConfig struct {
	UserRepo          domain.UserRepository
	SessionRepo       domain.SessionRepository
	Issuer            *token.Issuer
	Encryptor         *secret.Encryptor
	Logger            *slog.Logger
	SessionCookieName string
	TokenTTL          time.Duration
	SecureCookie      bool
}

func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		userRepo:          cfg.UserRepo,
		sessionRepo:       cfg.SessionRepo,
		issuer:            cfg.Issuer,
		encryptor:         cfg.Encryptor,
		logger:            cfg.Logger,
		sessionCookieName: cfg.SessionCookieName,
		tokenTTL:          cfg.TokenTTL,
		secureCookie:      cfg.SecureCookie,
	}
}

func (h *AuthHandler) Register(app fiber.Router, authLimiter fiber.Handler) {
	auth := app.Group("/auth")
	auth.Post("/register", authLimiter, h.RegisterUser)
	auth.Post("/login", authLimiter, h.Login)
}

func (h *AuthHandler) RegisterProtected(app fiber.Router) {
	auth := app.Group("/auth")
	auth.Post("/logout", h.Logout)
	auth.Get("/me", h.GetCurrentUser)
	auth.Put("/details", h.UpdateDetails)
	auth.Put("/password", h.UpdatePassword)
	auth.Get("/sessions", h.ListSessions)
	auth.Delete("/sessions/:id", h.TerminateSession)
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code,omitempty"`
}

type AuthData struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type UserResponse struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Email            string      `json:"email"`
	Username         string      `json:"username,omitempty"`
	Phone            string      `json:"phone,omitempty"`
	Language         string      `json:"language"`
	Timezone         string      `json:"timezone"`
	Role             domain.Role `json:"role"`
	TwoFactorEnabled bool        `json:"twoFactorEnabled"`
	RecoveryEmail    string      `json:"recoveryEmail,omitempty"`
	LastLogin        *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Username:         u.Username,
		Phone:            u.Phone,
		Language:         u.Language,
		Timezone:         u.Timezone,
		Role:             u.Role,
		TwoFactorEnabled: u.TwoFactorEnabled,
		RecoveryEmail:    u.RecoveryEmail,
		LastLogin:        u.LastLogin,
		CreatedAt:        u.CreatedAt,
	}
}

func (h *AuthHandler) RegisterUser(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, MsgInvalidRequestBody)
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" {
		return response.BadRequest(c, "name and email are required")
	}
	if err := password.Validate(req.Password); err != nil {
		return response.BadRequest(c, err.Error())
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		return response.InternalError(c)
	}

	user, err := h.userRepo.Create(c.Context(), domain.CreateUserInput{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return response.Conflict(c, "email is already registered")
		}
		h.logger.Error("failed to create user", "error", err)
		return response.InternalError(c)
	}

	data, err := h.startSession(c, user)
	if err != nil {
		h.logger.Error("failed to create session", "error", err, "user_id", user.ID)
		return response.InternalError(c)
	}

	h.logger.Info("user registered", "user_id", user.ID)
	return response.Created(c, data)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, MsgInvalidRequestBody)
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.userRepo.FindByEmail(c.Context(), req.Email)
	if err != nil {
		// Burn the same work so a missing account costs the same as a
		// wrong password.
		password.VerifyDummy(req.Password)
		return response.Unauthorized(c, MsgInvalidCredentials)
	}

	if err := password.Verify(user.PasswordHash, req.Password); err != nil {
		return response.Unauthorized(c, MsgInvalidCredentials)
	}

	if user.TwoFactorEnabled {
		if req.Code == "" {
			return response.OK(c, fiber.Map{"requiresTwoFactor": true})
		}
		if !h.validTOTP(user, req.Code) {
			return response.Unauthorized(c, MsgInvalidTOTPCode)
		}
	}

	data, err := h.startSession(c, user)
	if err != nil {
		h.logger.Error("failed to create session", "error", err, "user_id", user.ID)
		return response.InternalError(c)
	}

	if err := h.userRepo.TouchLastLogin(c.Context(), user.ID); err != nil {
		h.logger.Warn("failed to touch last login", "error", err, "user_id", user.ID)
	}

	h.logger.Info("user logged in", "user_id", user.ID)
	return response.OK(c, data)
}

func (h *AuthHandler) validTOTP(user *domain.User, code string) bool {
	seed, err := h.encryptor.Decrypt(user.TwoFactorSecretEnc)
	if err != nil {
		h.logger.Error("failed to decrypt totp seed", "error", err, "user_id", user.ID)
		return false
	}
	return totp.Validate(code, seed)
}

// startSession issues a signed credential and persists the matching session
// row, sniffing the device from the User-Agent header.
func (h *AuthHandler) startSession(c *fiber.Ctx, user *domain.User) (*AuthData, error) {
	signed, expiresAt, err := h.issuer.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	device, browser, os := sniffUserAgent(c.Get(fiber.HeaderUserAgent))

	_, err = h.sessionRepo.Create(c.Context(), domain.CreateSessionInput{
		UserID:     user.ID,
		Token:      signed,
		DeviceType: device,
		Browser:    browser,
		OS:         os,
		IPAddress:  c.IP(),
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		return nil, err
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.sessionCookieName,
		Value:    signed,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: "Lax",
		MaxAge:   int(h.tokenTTL.Seconds()),
		Path:     "/",
	})

	return &AuthData{
		User:      toUserResponse(user),
		Token:     signed,
		ExpiresAt: expiresAt,
	}, nil
}

func (h *AuthHandler) clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.sessionCookieName,
		Value:    "",
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: "Lax",
		MaxAge:   -1,
		Path:     "/",
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if raw := GetSessionTokenFromContext(c); raw != "" {
		if err := h.sessionRepo.DeactivateByToken(c.Context(), raw); err != nil {
			h.logger.Warn("failed to deactivate session on logout", "error", err)
		}
	}

	h.clearCookie(c)

	return response.OK(c, fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) GetCurrentUser(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	return response.OK(c, toUserResponse(user))
}

type UpdateDetailsRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Username *string `json:"username"`
	Language *string `json:"language"`
	Timezone *string `json:"timezone"`
}

func (h *AuthHandler) UpdateDetails(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	var req UpdateDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, MsgInvalidRequestBody)
	}

	if req.Email != nil {
		normalized := strings.TrimSpace(strings.ToLower(*req.Email))
		req.Email = &normalized
	}

	updated, err := h.userRepo.Update(c.Context(), user.ID, domain.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Username: req.Username,
		Language: req.Language,
		Timezone: req.Timezone,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return response.Conflict(c, "email is already registered")
		}
		return HandleNotFoundOrInternal(c, err, MsgUserNotFound)
	}

	return response.OK(c, toUserResponse(updated))
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	var req UpdatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, MsgInvalidRequestBody)
	}

	if err := password.Verify(user.PasswordHash, req.CurrentPassword); err != nil {
		return response.Unauthorized(c, "current password is incorrect")
	}
	if err := password.Validate(req.NewPassword); err != nil {
		return response.BadRequest(c, err.Error())
	}

	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		return response.InternalError(c)
	}

	if err := h.userRepo.UpdatePassword(c.Context(), user.ID, hash); err != nil {
		return HandleNotFoundOrInternal(c, err, MsgUserNotFound)
	}

	h.logger.Info("password changed", "user_id", user.ID)
	return response.OK(c, fiber.Map{"message": "password updated"})
}

type SessionResponse struct {
	ID         string            `json:"id"`
	DeviceType domain.DeviceType `json:"deviceType"`
	Browser    string            `json:"browser,omitempty"`
	OS         string            `json:"os,omitempty"`
	IPAddress  string            `json:"ipAddress,omitempty"`
	LastActive time.Time         `json:"lastActive"`
	ExpiresAt  time.Time         `json:"expiresAt"`
	Current    bool              `json:"current"`
}

func (h *AuthHandler) ListSessions(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	sessions, err := h.sessionRepo.FindActiveByUserID(c.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err, "user_id", user.ID)
		return response.InternalError(c)
	}

	current := GetSessionTokenFromContext(c)

	out := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = SessionResponse{
			ID:         s.ID,
			DeviceType: s.DeviceType,
			Browser:    s.Browser,
			OS:         s.OS,
			IPAddress:  s.IPAddress,
			LastActive: s.LastActive,
			ExpiresAt:  s.ExpiresAt,
			Current:    s.Token == current,
		}
	}

	return response.OK(c, out)
}

func (h *AuthHandler) TerminateSession(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	sessionID := c.Params("id")

	session, err := h.sessionRepo.FindByID(c.Context(), sessionID)
	if err != nil || session.UserID != user.ID {
		return response.NotFound(c, MsgSessionNotFound)
	}

	if err := h.sessionRepo.Deactivate(c.Context(), sessionID); err != nil {
		return HandleNotFoundOrInternal(c, err, MsgSessionNotFound)
	}

	// Terminating the session this request rode in on logs the caller out.
	loggedOut := session.Token == GetSessionTokenFromContext(c)
	if loggedOut {
		h.clearCookie(c)
	}

	h.logger.Info("session terminated", "user_id", user.ID, "session_id", sessionID)
	return response.OK(c, fiber.Map{"message": "session terminated", "loggedOut": loggedOut})
}

// sniffUserAgent does a coarse classification of the login device. Anything
// unrecognized lands in the desktop/other buckets.
func sniffUserAgent(ua string) (domain.DeviceType, string, string) {
	lower := strings.ToLower(ua)

	device := domain.DeviceDesktop
	switch {
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		device = domain.DeviceTablet
	case strings.Contains(lower, "mobile") || strings.Contains(lower, "iphone") || strings.Contains(lower, "android"):
		device = domain.DeviceMobile
	case lower == "":
		device = domain.DeviceOther
	}

	browser := "Unknown"
	switch {
	case strings.Contains(lower, "edg/"):
		browser = "Edge"
	case strings.Contains(lower, "chrome"):
		browser = "Chrome"
	case strings.Contains(lower, "safari"):
		browser = "Safari"
	case strings.Contains(lower, "firefox"):
		browser = "Firefox"
	}

	os := "Unknown"
	switch {
	case strings.Contains(lower, "windows"):
		os = "Windows"
	case strings.Contains(lower, "android"):
		os = "Android"
	case strings.Contains(lower, "iphone") || strings.Contains(lower, "ipad"):
		os = "iOS"
	case strings.Contains(lower, "mac os"):
		os = "macOS"
	case strings.Contains(lower, "linux"):
		os = "Linux"
	}

	return device, browser, os
}
