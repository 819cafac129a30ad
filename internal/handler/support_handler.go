package handler

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	gocache "github.com/patrickmn/go-cache"

	"github.com/accordhq/backend/internal/domain"
	"github.com/accordhq/backend/internal/realtime"
	"github.com/accordhq/backend/internal/response"
)

const (
	faqCacheKey    = "faqs"
	statusCacheKey = "system-status"

	eventTicketCreated = "ticket:created"
	eventTicketMessage = "ticket:message"
	eventTicketClosed  = "ticket:closed"
)

type SupportHandler struct {
	ticketRepo domain.TicketRepository
	rooms      *realtime.Rooms
	dispatcher *realtime.Dispatcher
	cache      *gocache.Cache
	logger     *slog.Logger
}

type SupportHandlerConfig struct {
	TicketRepo domain.TicketRepository
	Rooms      *realtime.Rooms
	Dispatcher *realtime.Dispatcher
	CacheTTL   time.Duration
	Logger     *slog.Logger
}

func NewSupportHandler(cfg SupportHandlerConfig) *SupportHandler {
	return &SupportHandler{
		ticketRepo: cfg.TicketRepo,
		rooms:      cfg.Rooms,
		dispatcher: cfg.Dispatcher,
		cache:      gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger:     cfg.Logger,
	}
}

func (h *SupportHandler) RegisterProtected(app fiber.Router) {
	support := app.Group("/support")
	support.Get("/faqs", h.ListFAQs)
	support.Get("/status", h.SystemStatus)
	support.Post("/tickets", h.CreateTicket)
	support.Get("/tickets", h.ListTickets)
	support.Get("/tickets/:id", h.GetTicket)
	support.Post("/tickets/:id/messages", h.AddMessage)
	support.Put("/tickets/:id/close", h.CloseTicket)
}

type FAQ struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// staticFAQs is the seed catalogue; a CMS-backed source can replace it
// behind the same cache.
var staticFAQs = []FAQ{
	{ID: "1", Category: "account", Question: "How do I change my email address?", Answer: "Open Settings > Account, update the email field, and save. You will need to confirm the new address."},
	{ID: "2", Category: "account", Question: "How do I delete my account?", Answer: "Contact support through a ticket; account deletion is processed within 30 days."},
	{ID: "3", Category: "security", Question: "How do I enable two-factor authentication?", Answer: "Open Settings > Security, choose two-factor setup, and scan the QR code with an authenticator app."},
	{ID: "4", Category: "security", Question: "What happens when I terminate a session?", Answer: "The session stops authenticating immediately. Connections already open stay up until they disconnect."},
	{ID: "5", Category: "notifications", Question: "Why am I not receiving push notifications?", Answer: "Check that the push channel and the category are both enabled, and that quiet hours are not active."},
	{ID: "6", Category: "billing", Question: "Where can I find my invoices?", Answer: "Invoices are emailed monthly to your account address."},
}

func (h *SupportHandler) ListFAQs(c *fiber.Ctx) error {
	category := c.Query("category")

	faqs, found := h.cache.Get(faqCacheKey)
	if !found {
		faqs = staticFAQs
		h.cache.SetDefault(faqCacheKey, faqs)
	}

	all := faqs.([]FAQ)
	if category == "" {
		return response.OK(c, all)
	}

	filtered := make([]FAQ, 0, len(all))
	for _, f := range all {
		if f.Category == category {
			filtered = append(filtered, f)
		}
	}
	return response.OK(c, filtered)
}

type SystemStatusData struct {
	Status    string            `json:"status"`
	Services  map[string]string `json:"services"`
	CheckedAt time.Time         `json:"checkedAt"`
}

func (h *SupportHandler) SystemStatus(c *fiber.Ctx) error {
	if cached, found := h.cache.Get(statusCacheKey); found {
		return response.OK(c, cached)
	}

	status := SystemStatusData{
		Status: "operational",
		Services: map[string]string{
			"api":           "operational",
			"realtime":      "operational",
			"notifications": "operational",
		},
		CheckedAt: time.Now().UTC(),
	}
	h.cache.SetDefault(statusCacheKey, status)

	return response.OK(c, status)
}

type CreateTicketRequest struct {
	Subject      string                `json:"subject"`
	Description  string                `json:"description"`
	Priority     domain.TicketPriority `json:"priority"`
	ContactEmail string                `json:"contactEmail"`
}

type TicketResponse struct {
	ID           string                 `json:"id"`
	Subject      string                 `json:"subject"`
	Description  string                 `json:"description"`
	Priority     domain.TicketPriority  `json:"priority"`
	Status       domain.TicketStatus    `json:"status"`
	ContactEmail string                 `json:"contactEmail"`
	Messages     []domain.TicketMessage `json:"messages"`
	LastUpdated  time.Time              `json:"lastUpdated"`
	CreatedAt    time.Time              `json:"createdAt"`
}

func toTicketResponse(t *domain.SupportTicket) TicketResponse {
	return TicketResponse{
		ID:           t.ID,
		Subject:      t.Subject,
		Description:  t.Description,
		Priority:     t.Priority,
		Status:       t.Status,
		ContactEmail: t.ContactEmail,
		Messages:     t.Messages,
		LastUpdated:  t.LastUpdated,
		CreatedAt:    t.CreatedAt,
	}
}

func (h *SupportHandler) CreateTicket(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	var req CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, MsgInvalidRequestBody)
	}
	if req.Subject == "" || req.Description == "" {
		return response.BadRequest(c, "subject and description are required")
	}
	switch req.Priority {
	case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
	case "":
		req.Priority = domain.PriorityMedium
	default:
		return response.BadRequest(c, "priority must be low, medium, or high")
	}

	contactEmail := req.ContactEmail
	if contactEmail == "" {
		contactEmail = user.Email
	}

	ticket, err := h.ticketRepo.Create(c.Context(), domain.CreateTicketInput{
		UserID:       user.ID,
		Subject:      req.Subject,
		Description:  req.Description,
		Priority:     req.Priority,
		ContactEmail: contactEmail,
	})
	if err != nil {
		h.logger.Error("failed to create ticket", "error", err, "user_id", user.ID)
		return response.InternalError(c)
	}

	// Alert whoever is watching the shared support inbox.
	h.rooms.Broadcast(realtime.SupportInboxRoom, eventTicketCreated, fiber.Map{
		"ticketId": ticket.ID,
		"subject":  ticket.Subject,
		"priority": ticket.Priority,
	})

	h.logger.Info("ticket created", "ticket_id", ticket.ID, "user_id", user.ID)
	return response.Created(c, toTicketResponse(ticket))
}

func (h *SupportHandler) ListTickets(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	status := domain.TicketStatus(c.Query("status"))
	switch status {
	case "", domain.TicketOpen, domain.TicketInProgress, domain.TicketResolved, domain.TicketClosed:
	default:
		return response.BadRequest(c, "invalid ticket status")
	}

	tickets, err := h.ticketRepo.FindByUserID(c.Context(), user.ID, status)
	if err != nil {
		h.logger.Error("failed to list tickets", "error", err, "user_id", user.ID)
		return response.InternalError(c)
	}

	out := make([]TicketResponse, len(tickets))
	for i := range tickets {
		out[i] = toTicketResponse(&tickets[i])
	}
	return response.OK(c, out)
}

func (h *SupportHandler) GetTicket(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	ticket, err := h.findAccessible(c, user)
	if err != nil {
		return HandleNotFoundOrInternal(c, err, MsgTicketNotFound)
	}

	return response.OK(c, toTicketResponse(ticket))
}

type AddMessageRequest struct {
	Message string `json:"message"`
}

func (h *SupportHandler) AddMessage(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	var req AddMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, MsgInvalidRequestBody)
	}
	if req.Message == "" {
		return response.BadRequest(c, "message is required")
	}

	ticket, err := h.findAccessible(c, user)
	if err != nil {
		return HandleNotFoundOrInternal(c, err, MsgTicketNotFound)
	}
	if ticket.Status == domain.TicketClosed {
		return response.Conflict(c, MsgTicketClosed)
	}

	sender := domain.SenderUser
	nextStatus := domain.TicketOpen
	if user.IsSupport() && ticket.UserID != user.ID {
		sender = domain.SenderSupport
		nextStatus = domain.TicketInProgress
	}

	msg := domain.TicketMessage{
		Sender:    sender,
		Message:   req.Message,
		Timestamp: time.Now().UTC(),
	}

	updated, err := h.ticketRepo.AppendMessage(c.Context(), ticket.ID, msg, nextStatus)
	if err != nil {
		return HandleNotFoundOrInternal(c, err, MsgTicketNotFound)
	}

	h.rooms.Broadcast(realtime.TicketRoom(updated.ID), eventTicketMessage, fiber.Map{
		"ticketId": updated.ID,
		"sender":   msg.Sender,
		"message":  msg.Message,
	})
	if sender == domain.SenderUser {
		h.rooms.Broadcast(realtime.SupportInboxRoom, eventTicketMessage, fiber.Map{
			"ticketId": updated.ID,
			"subject":  updated.Subject,
		})
	}

	return response.OK(c, toTicketResponse(updated))
}

func (h *SupportHandler) CloseTicket(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}

	ticket, err := h.findAccessible(c, user)
	if err != nil {
		return HandleNotFoundOrInternal(c, err, MsgTicketNotFound)
	}
	if ticket.Status == domain.TicketClosed {
		return response.Conflict(c, MsgTicketClosed)
	}

	updated, err := h.ticketRepo.UpdateStatus(c.Context(), ticket.ID, domain.TicketClosed)
	if err != nil {
		return HandleNotFoundOrInternal(c, err, MsgTicketNotFound)
	}

	h.rooms.Broadcast(realtime.TicketRoom(updated.ID), eventTicketClosed, fiber.Map{
		"ticketId": updated.ID,
	})

	// The owner also gets a direct push, subject to their preferences.
	outcome, err := h.dispatcher.Deliver(c.Context(), updated.UserID, domain.CategoryAccount, realtime.Notification{
		Title:   "Ticket closed",
		Message: "Your support ticket \"" + updated.Subject + "\" has been closed.",
	})
	if err != nil {
		h.logger.Error("failed to notify ticket owner", "error", err, "ticket_id", updated.ID)
	} else if !outcome.Sent {
		h.logger.Debug("ticket close notification suppressed", "ticket_id", updated.ID, "reason", outcome.Reason)
	}

	h.logger.Info("ticket closed", "ticket_id", updated.ID, "by_user", user.ID)
	return response.OK(c, toTicketResponse(updated))
}

// findAccessible loads the ticket by ID for owners; support staff may load
// any ticket.
func (h *SupportHandler) findAccessible(c *fiber.Ctx, user *domain.User) (*domain.SupportTicket, error) {
	id := c.Params("id")
	if user.IsSupport() {
		return h.ticketRepo.FindByID(c.Context(), id)
	}
	return h.ticketRepo.FindByIDAndUserID(c.Context(), id, user.ID)
}
