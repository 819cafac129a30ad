package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/accordhq/backend/internal/domain"
	"github.com/accordhq/backend/internal/response"
)

func HandleDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		return response.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrInvalidCategory):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrTicketClosed):
		return response.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return response.Unauthorized(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, err.Error())
	default:
		return response.InternalError(c)
	}
}

func HandleNotFoundOrInternal(c *fiber.Ctx, err error, notFoundMsg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return response.NotFound(c, notFoundMsg)
	}
	return response.InternalError(c)
}

const (
	userContextKey         = "user"
	sessionTokenContextKey = "sessionToken"
)

func SetUserInContext(c *fiber.Ctx, user *domain.User) {
	c.Locals(userContextKey, user)
}

func GetUserFromContext(c *fiber.Ctx) *domain.User {
	user, ok := c.Locals(userContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// SetSessionTokenInContext stores the raw bearer token of the request so
// logout and session-terminate handlers can tell the current session apart.
func SetSessionTokenInContext(c *fiber.Ctx, token string) {
	c.Locals(sessionTokenContextKey, token)
}

func GetSessionTokenFromContext(c *fiber.Ctx) string {
	token, ok := c.Locals(sessionTokenContextKey).(string)
	if !ok {
		return ""
	}
	return token
}
