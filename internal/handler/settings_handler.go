package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/pquerna/otp/totp"

	"github.com/accordhq/backend/internal/domain"
	"github.com/accordhq/backend/internal/response"
	"github.com/accordhq/backend/internal/secret"
)

const totpIssuerName = "Accord"

type SettingsHandler struct {
	userRepo  domain.UserRepository
	encryptor *secret.Encryptor
	logger    *slog.Logger
}

type SettingsHandlerConfig struct {
	UserRepo  domain.UserRepository
	Encryptor *secret.Encryptor
	Logger    *slog.Logger
}

func NewSettingsHandler(cfg SettingsHandlerConfig) *SettingsHandler {
	return &SettingsHandler{
		userRepo:  cfg.UserRepo,
		encryptor: cfg.Encryptor,
		logger:    cfg.Logger,
	}
}

func (h *SettingsHandler) RegisterProtected(app fiber.Router) {
	settings := app.Group("/settings")
	settings.Get("/account", h.GetAccount)
	settings.Put("/account", h.UpdateAccount)
	settings.Get("/security", h.GetSecurity)
	settings.Put("/security", h.UpdateSecurity)
	settings.Post("/security/two-factor/setup", h.SetupTwoFactor)
	settings.Post("/security/two-factor/verify", h.VerifyTwoFactor)
	settings.Delete("/security/two-factor", h.DisableTwoFactor)
}

type AccountSettings struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Language string `json:"language"`
	Timezone string `json:"timezone"`
}

func (h *SettingsHandler) GetAccount(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	return response.OK(c, AccountSettings{
		Name:     user.Name,
		Email:    user.Email,
		Username: user.Username,
		Phone:    user.Phone,
		Language: user.Language,
		Timezone: user.Timezone,
	})
}

func (h *SettingsHandler) UpdateAccount(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	var req UpdateDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, MsgInvalidRequestBody)
	}

	updated, err := h.userRepo.Update(c.Context(), user.ID, domain.UpdateUserInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Username: req.Username,
		Language: req.Language,
		Timezone: req.Timezone,
	})
	if err != nil {
		return HandleNotFoundOrInternal(c, err, MsgUserNotFound)
	}

	return response.OK(c, AccountSettings{
		Name:     updated.Name,
		Email:    updated.Email,
		Username: updated.Username,
		Phone:    updated.Phone,
		Language: updated.Language,
		Timezone: updated.Timezone,
	})
}

type SecuritySettings struct {
	TwoFactorEnabled bool   `json:"twoFactorEnabled"`
	RecoveryEmail    string `json:"recoveryEmail,omitempty"`
}

func (h *SettingsHandler) GetSecurity(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	return response.OK(c, SecuritySettings{
		TwoFactorEnabled: user.TwoFactorEnabled,
		RecoveryEmail:    user.RecoveryEmail,
	})
}

type UpdateSecurityRequest struct {
	RecoveryEmail *string `json:"recoveryEmail"`
}

func (h *SettingsHandler) UpdateSecurity(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	var req UpdateSecurityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, MsgInvalidRequestBody)
	}

	updated, err := h.userRepo.UpdateSecurity(c.Context(), user.ID, domain.UpdateSecurityInput{
		RecoveryEmail: req.RecoveryEmail,
	})
	if err != nil {
		return HandleNotFoundOrInternal(c, err, MsgUserNotFound)
	}

	return response.OK(c, SecuritySettings{
		TwoFactorEnabled: updated.TwoFactorEnabled,
		RecoveryEmail:    updated.RecoveryEmail,
	})
}

type TwoFactorSetupData struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// SetupTwoFactor generates a fresh TOTP seed and stores it encrypted, but
// does not enable two-factor until the first code is verified.
func (h *SettingsHandler) SetupTwoFactor(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuerName,
		AccountName: user.Email,
	})
	if err != nil {
		h.logger.Error("failed to generate totp key", "error", err)
		return response.InternalError(c)
	}

	encrypted, err := h.encryptor.Encrypt(key.Secret())
	if err != nil {
		h.logger.Error("failed to encrypt totp seed", "error", err)
		return response.InternalError(c)
	}

	enabled := false
	if _, err := h.userRepo.UpdateSecurity(c.Context(), user.ID, domain.UpdateSecurityInput{
		TwoFactorEnabled:   &enabled,
		TwoFactorSecretEnc: &encrypted,
	}); err != nil {
		return HandleNotFoundOrInternal(c, err, MsgUserNotFound)
	}

	return response.OK(c, TwoFactorSetupData{
		Secret: key.Secret(),
		URL:    key.URL(),
	})
}

type TwoFactorVerifyRequest struct {
	Code string `json:"code"`
}

func (h *SettingsHandler) VerifyTwoFactor(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}
	if user.TwoFactorSecretEnc == "" {
		return response.BadRequest(c, MsgTwoFactorNotSetUp)
	}

	var req TwoFactorVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, MsgInvalidRequestBody)
	}

	seed, err := h.encryptor.Decrypt(user.TwoFactorSecretEnc)
	if err != nil {
		h.logger.Error("failed to decrypt totp seed", "error", err, "user_id", user.ID)
		return response.InternalError(c)
	}
	if !totp.Validate(req.Code, seed) {
		return response.BadRequest(c, MsgInvalidTOTPCode)
	}

	enabled := true
	updated, err := h.userRepo.UpdateSecurity(c.Context(), user.ID, domain.UpdateSecurityInput{
		TwoFactorEnabled: &enabled,
	})
	if err != nil {
		return HandleNotFoundOrInternal(c, err, MsgUserNotFound)
	}

	h.logger.Info("two-factor enabled", "user_id", user.ID)
	return response.OK(c, SecuritySettings{
		TwoFactorEnabled: updated.TwoFactorEnabled,
		RecoveryEmail:    updated.RecoveryEmail,
	})
}

func (h *SettingsHandler) DisableTwoFactor(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	enabled := false
	cleared := ""
	updated, err := h.userRepo.UpdateSecurity(c.Context(), user.ID, domain.UpdateSecurityInput{
		TwoFactorEnabled:   &enabled,
		TwoFactorSecretEnc: &cleared,
	})
	if err != nil {
		return HandleNotFoundOrInternal(c, err, MsgUserNotFound)
	}

	h.logger.Info("two-factor disabled", "user_id", user.ID)
	return response.OK(c, SecuritySettings{
		TwoFactorEnabled: updated.TwoFactorEnabled,
		RecoveryEmail:    updated.RecoveryEmail,
	})
}
