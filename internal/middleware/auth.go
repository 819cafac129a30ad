package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/accordhq/backend/internal/domain"
	"github.com/accordhq/backend/internal/handler"
	"github.com/accordhq/backend/internal/realtime"
	"github.com/accordhq/backend/internal/response"
)

// AuthMiddleware guards HTTP routes with the same two-step check the
// websocket gateway applies: signed token first, then the server-side
// session record.
type AuthMiddleware struct {
	authenticator     *realtime.Authenticator
	userRepo          domain.UserRepository
	logger            *slog.Logger
	sessionCookieName string
}

type AuthMiddlewareConfig struct {
	Authenticator     *realtime.Authenticator
	UserRepo          domain.UserRepository
	Logger            *slog.Logger
	SessionCookieName string
}

func NewAuthMiddleware(cfg AuthMiddlewareConfig) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator:     cfg.Authenticator,
		userRepo:          cfg.UserRepo,
		logger:            cfg.Logger,
		sessionCookieName: cfg.SessionCookieName,
	}
}

func (m *AuthMiddleware) Require() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cred := realtime.Credential{
			Handshake: c.Get(fiber.HeaderAuthorization),
			Cookie:    c.Cookies(m.sessionCookieName),
		}

		userID, err := m.authenticator.Authenticate(c.Context(), cred)
		if err != nil {
			return m.reject(c, err)
		}

		user, err := m.userRepo.FindByID(c.Context(), userID)
		if err != nil {
			m.logger.Error("user not found for valid session", "error", err, "user_id", userID)
			return response.Unauthorized(c, "user not found")
		}

		handler.SetUserInContext(c, user)
		handler.SetSessionTokenInContext(c, cred.Token())

		return c.Next()
	}
}

func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cred := realtime.Credential{
			Handshake: c.Get(fiber.HeaderAuthorization),
			Cookie:    c.Cookies(m.sessionCookieName),
		}

		userID, err := m.authenticator.Authenticate(c.Context(), cred)
		if err != nil {
			return c.Next()
		}

		user, err := m.userRepo.FindByID(c.Context(), userID)
		if err != nil {
			return c.Next()
		}

		handler.SetUserInContext(c, user)
		handler.SetSessionTokenInContext(c, cred.Token())

		return c.Next()
	}
}

// RequireSupport runs after Require and rejects non-support users.
func (m *AuthMiddleware) RequireSupport() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := handler.GetUserFromContext(c)
		if user == nil {
			return response.Unauthorized(c, "not authenticated")
		}
		if !user.IsSupport() {
			return response.Forbidden(c, "support role required")
		}
		return c.Next()
	}
}

func (m *AuthMiddleware) reject(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		return response.Unauthorized(c, "authentication required")
	case errors.Is(err, domain.ErrCredentialExpired):
		return response.Unauthorized(c, "credential expired")
	case errors.Is(err, domain.ErrCredentialInvalid), errors.Is(err, domain.ErrSessionInvalid):
		return response.Unauthorized(c, "invalid or expired session")
	default:
		m.logger.Error("authentication failure", "error", err)
		return response.Unauthorized(c, "invalid or expired session")
	}
}
