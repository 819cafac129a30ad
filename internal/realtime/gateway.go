package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/accordhq/backend/internal/domain"
)

const (
	readLimitBytes  = 4 * 1024
	requestTimeout  = 5 * time.Second
	userIDLocalsKey = "realtimeUserId"
)

// Client-originated actions.
const (
	actionJoinTicket  = "join:ticket"
	actionLeaveTicket = "leave:ticket"
	actionJoinInbox   = "join:inbox"
	actionLeaveInbox  = "leave:inbox"
)

type clientMessage struct {
	Action   string `json:"action"`
	TicketID string `json:"ticketId,omitempty"`
}

// Gateway owns the WebSocket endpoint: it authenticates the handshake,
// registers the connection with the presence registry, and serves room
// join/leave requests until the client disconnects.
type Gateway struct {
	auth     *Authenticator
	presence *Presence
	rooms    *Rooms
	tickets  domain.TicketRepository
	users    domain.UserRepository
	logger   *slog.Logger
}

type GatewayConfig struct {
	Authenticator *Authenticator
	Presence      *Presence
	Rooms         *Rooms
	Tickets       domain.TicketRepository
	Users         domain.UserRepository
	Logger        *slog.Logger
}

func NewGateway(cfg GatewayConfig) *Gateway {
	return &Gateway{
		auth:     cfg.Authenticator,
		presence: cfg.Presence,
		rooms:    cfg.Rooms,
		tickets:  cfg.Tickets,
		users:    cfg.Users,
		logger:   cfg.Logger.With("component", "realtime_gateway"),
	}
}

func (g *Gateway) Register(app fiber.Router, prefix string) {
	app.Get(prefix+"/ws", g.requireAuthForWebSocket, websocket.New(g.handleConnection,
		websocket.Config{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	))
}

// requireAuthForWebSocket authenticates before the protocol upgrade so a
// rejected attempt never reaches the connected state. The client sees a
// generic failure; the precise reason stays in the server log.
func (g *Gateway) requireAuthForWebSocket(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	handshake := c.Get(fiber.HeaderAuthorization)
	if handshake == "" {
		handshake = c.Query("token")
	}
	cred := Credential{
		Handshake: handshake,
		Cookie:    c.Cookies("token"),
	}

	userID, err := g.auth.Authenticate(c.Context(), cred)
	if err != nil {
		g.logger.Debug("rejected realtime connection", "error", err, "ip", c.IP())
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	c.Locals(userIDLocalsKey, userID)
	return c.Next()
}

func (g *Gateway) handleConnection(c *websocket.Conn) {
	userID, _ := c.Locals(userIDLocalsKey).(string)
	if userID == "" {
		_ = c.Close()
		return
	}

	conn := newWSConn(c)
	g.presence.Register(userID, conn)
	g.logger.Info("user connected", "user_id", userID, "conn_id", conn.ID())

	defer func() {
		g.rooms.LeaveAll(conn.ID())
		g.presence.Unregister(userID, conn.ID())
		g.logger.Info("user disconnected", "user_id", userID, "conn_id", conn.ID())
	}()

	c.SetReadLimit(readLimitBytes)

	for {
		mt, raw, err := c.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage || len(raw) == 0 {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		g.handleMessage(userID, conn, msg)
	}
}

func (g *Gateway) handleMessage(userID string, conn Conn, msg clientMessage) {
	switch msg.Action {
	case actionJoinTicket:
		if msg.TicketID == "" {
			return
		}
		if !g.mayJoinTicket(userID, msg.TicketID) {
			g.logger.Warn("denied ticket room join", "user_id", userID, "ticket_id", msg.TicketID)
			_ = conn.WriteEvent("error", fiber.Map{"message": "not a participant of this ticket"})
			return
		}
		g.rooms.Join(TicketRoom(msg.TicketID), conn)
		g.logger.Info("user joined ticket room", "user_id", userID, "ticket_id", msg.TicketID)

	case actionLeaveTicket:
		if msg.TicketID == "" {
			return
		}
		g.rooms.Leave(TicketRoom(msg.TicketID), conn.ID())
		g.logger.Info("user left ticket room", "user_id", userID, "ticket_id", msg.TicketID)

	case actionJoinInbox:
		if !g.isSupport(userID) {
			g.logger.Warn("denied support inbox join", "user_id", userID)
			_ = conn.WriteEvent("error", fiber.Map{"message": "support role required"})
			return
		}
		g.rooms.Join(SupportInboxRoom, conn)

	case actionLeaveInbox:
		g.rooms.Leave(SupportInboxRoom, conn.ID())
	}
}

// mayJoinTicket enforces the participant check on room joins: only the
// ticket owner, the assigned agent, or support staff may listen in.
func (g *Gateway) mayJoinTicket(userID, ticketID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	ticket, err := g.tickets.FindByID(ctx, ticketID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			g.logger.Error("ticket lookup failed during room join", "ticket_id", ticketID, "error", err)
		}
		return false
	}
	if ticket.Participant(userID) {
		return true
	}
	return g.isSupport(userID)
}

func (g *Gateway) isSupport(userID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	user, err := g.users.FindByID(ctx, userID)
	if err != nil {
		return false
	}
	return user.IsSupport()
}
