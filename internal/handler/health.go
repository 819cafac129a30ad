package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/accordhq/backend/internal/realtime"
	"github.com/accordhq/backend/internal/response"
)

type HealthData struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	OnlineUsers int       `json:"onlineUsers"`
}

type HealthHandler struct {
	version  string
	presence *realtime.Presence
}

func NewHealthHandler(version string, presence *realtime.Presence) *HealthHandler {
	return &HealthHandler{
		version:  version,
		presence: presence,
	}
}

func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return response.OK(c, HealthData{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Version:     h.version,
		OnlineUsers: h.presence.OnlineCount(),
	})
}
