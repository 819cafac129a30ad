package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/accordhq/backend/internal/domain"
	"github.com/accordhq/backend/internal/realtime"
	"github.com/accordhq/backend/internal/response"
)

type NotificationHandler struct {
	settingsRepo domain.NotificationSettingRepository
	dispatcher   *realtime.Dispatcher
	logger       *slog.Logger
}

type NotificationHandlerConfig struct {
	SettingsRepo domain.NotificationSettingRepository
	Dispatcher   *realtime.Dispatcher
	Logger       *slog.Logger
}

func NewNotificationHandler(cfg NotificationHandlerConfig) *NotificationHandler {
	return &NotificationHandler{
		settingsRepo: cfg.SettingsRepo,
		dispatcher:   cfg.Dispatcher,
		logger:       cfg.Logger,
	}
}

func (h *NotificationHandler) RegisterProtected(app fiber.Router) {
	notifications := app.Group("/notifications")
	notifications.Get("/settings", h.GetSettings)
	notifications.Put("/settings/channels", h.UpdateChannels)
	notifications.Put("/settings/preferences/:category", h.UpdatePreference)
	notifications.Put("/settings/digest", h.UpdateDigest)
	notifications.Put("/settings/quiet-hours", h.UpdateQuietHours)
	notifications.Post("/send", h.Send)
}

type NotificationSettingsData struct {
	Channels        domain.ChannelToggles                         `json:"channels"`
	Preferences     map[domain.Category]domain.CategoryPreference `json:"preferences"`
	DigestFrequency domain.DigestFrequency                        `json:"digestFrequency"`
	QuietHours      domain.QuietHours                             `json:"quietHours"`
}

func toSettingsData(s *domain.NotificationSetting) NotificationSettingsData {
	return NotificationSettingsData{
		Channels:        s.Channels,
		Preferences:     s.Preferences,
		DigestFrequency: s.DigestFrequency,
		QuietHours:      s.QuietHours,
	}
}

func (h *NotificationHandler) GetSettings(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	setting, err := h.settingsRepo.FindOrCreate(c.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load notification settings", "error", err, "user_id", user.ID)
		return response.InternalError(c)
	}

	return response.OK(c, toSettingsData(setting))
}

type UpdateChannelsRequest struct {
	Email *bool `json:"email"`
	Push  *bool `json:"push"`
	SMS   *bool `json:"sms"`
}

// UpdateChannels flips the per-medium master switches. Disabling a channel
// cascades false through that channel's column of the category matrix so the
// cell invariant holds.
func (h *NotificationHandler) UpdateChannels(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	var req UpdateChannelsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, MsgInvalidRequestBody)
	}

	setting, err := h.settingsRepo.FindOrCreate(c.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load notification settings", "error", err, "user_id", user.ID)
		return response.InternalError(c)
	}

	if req.Email != nil {
		setting.Channels.Email = *req.Email
	}
	if req.Push != nil {
		setting.Channels.Push = *req.Push
	}
	if req.SMS != nil {
		setting.Channels.SMS = *req.SMS
	}

	for cat, pref := range setting.Preferences {
		if !setting.Channels.Email {
			pref.Email = false
		}
		if !setting.Channels.Push {
			pref.Push = false
		}
		if !setting.Channels.SMS {
			pref.SMS = false
		}
		setting.Preferences[cat] = pref
	}

	saved, err := h.settingsRepo.Save(c.Context(), setting)
	if err != nil {
		return HandleNotFoundOrInternal(c, err, MsgSettingsNotFound)
	}

	return response.OK(c, toSettingsData(saved))
}

type UpdatePreferenceRequest struct {
	Email *bool `json:"email"`
	Push  *bool `json:"push"`
	SMS   *bool `json:"sms"`
}

// UpdatePreference edits one row of the category matrix. Enabling a cell
// whose channel toggle is off is rejected rather than silently ignored.
func (h *NotificationHandler) UpdatePreference(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	category := domain.Category(c.Params("category"))
	if !domain.ValidCategory(category) {
		return response.BadRequest(c, MsgInvalidCategory)
	}

	var req UpdatePreferenceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, MsgInvalidRequestBody)
	}

	setting, err := h.settingsRepo.FindOrCreate(c.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load notification settings", "error", err, "user_id", user.ID)
		return response.InternalError(c)
	}

	if req.Email != nil && *req.Email && !setting.Channels.Email {
		return response.BadRequest(c, "email channel is disabled")
	}
	if req.Push != nil && *req.Push && !setting.Channels.Push {
		return response.BadRequest(c, "push channel is disabled")
	}
	if req.SMS != nil && *req.SMS && !setting.Channels.SMS {
		return response.BadRequest(c, "sms channel is disabled")
	}

	pref := setting.Preferences[category]
	if req.Email != nil {
		pref.Email = *req.Email
	}
	if req.Push != nil {
		pref.Push = *req.Push
	}
	if req.SMS != nil {
		pref.SMS = *req.SMS
	}
	setting.Preferences[category] = pref

	saved, err := h.settingsRepo.Save(c.Context(), setting)
	if err != nil {
		return HandleNotFoundOrInternal(c, err, MsgSettingsNotFound)
	}

	return response.OK(c, toSettingsData(saved))
}

type UpdateDigestRequest struct {
	Frequency domain.DigestFrequency `json:"frequency"`
}

func (h *NotificationHandler) UpdateDigest(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	var req UpdateDigestRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, MsgInvalidRequestBody)
	}
	if !domain.ValidDigestFrequency(req.Frequency) {
		return response.BadRequest(c, "frequency must be daily, weekly, or never")
	}

	setting, err := h.settingsRepo.FindOrCreate(c.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load notification settings", "error", err, "user_id", user.ID)
		return response.InternalError(c)
	}

	setting.DigestFrequency = req.Frequency

	saved, err := h.settingsRepo.Save(c.Context(), setting)
	if err != nil {
		return HandleNotFoundOrInternal(c, err, MsgSettingsNotFound)
	}

	return response.OK(c, toSettingsData(saved))
}

type UpdateQuietHoursRequest struct {
	Enabled *bool   `json:"enabled"`
	Start   *string `json:"start"`
	End     *string `json:"end"`
}

func (h *NotificationHandler) UpdateQuietHours(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	var req UpdateQuietHoursRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, MsgInvalidRequestBody)
	}

	if req.Start != nil && !domain.ValidTimeOfDay(*req.Start) {
		return response.BadRequest(c, MsgInvalidTimeOfDay)
	}
	if req.End != nil && !domain.ValidTimeOfDay(*req.End) {
		return response.BadRequest(c, MsgInvalidTimeOfDay)
	}

	setting, err := h.settingsRepo.FindOrCreate(c.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load notification settings", "error", err, "user_id", user.ID)
		return response.InternalError(c)
	}

	if req.Enabled != nil {
		setting.QuietHours.Enabled = *req.Enabled
	}
	if req.Start != nil {
		setting.QuietHours.Start = *req.Start
	}
	if req.End != nil {
		setting.QuietHours.End = *req.End
	}

	saved, err := h.settingsRepo.Save(c.Context(), setting)
	if err != nil {
		return HandleNotFoundOrInternal(c, err, MsgSettingsNotFound)
	}

	return response.OK(c, toSettingsData(saved))
}

type SendNotificationRequest struct {
	Category domain.Category `json:"category"`
	Title    string          `json:"title"`
	Message  string          `json:"message"`
}

// Send pushes a notification to the caller's own open connections through
// the dispatcher. The outcome reports whether preferences or quiet hours
// suppressed it.
func (h *NotificationHandler) Send(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	var req SendNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, MsgInvalidRequestBody)
	}
	if req.Title == "" || req.Message == "" {
		return response.BadRequest(c, "title and message are required")
	}

	outcome, err := h.dispatcher.Deliver(c.Context(), user.ID, req.Category, realtime.Notification{
		Title:   req.Title,
		Message: req.Message,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCategory) {
			return response.BadRequest(c, MsgInvalidCategory)
		}
		h.logger.Error("failed to dispatch notification", "error", err, "user_id", user.ID)
		return response.InternalError(c)
	}

	return response.OK(c, outcome)
}
