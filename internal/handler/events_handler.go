package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/accordhq/backend/internal/realtime"
	"github.com/accordhq/backend/internal/response"
)

const sseClientBufferSize = 64

// EventsHandler serves notifications over Server-Sent Events for clients
// that cannot hold a websocket. Each stream registers with the presence
// registry like any other connection, so dispatcher fan-out reaches it.
type EventsHandler struct {
	presence *realtime.Presence
	logger   *slog.Logger
}

type EventsHandlerConfig struct {
	Presence *realtime.Presence
	Logger   *slog.Logger
}

func NewEventsHandler(cfg EventsHandlerConfig) *EventsHandler {
	return &EventsHandler{
		presence: cfg.Presence,
		logger:   cfg.Logger.With("component", "sse"),
	}
}

func (h *EventsHandler) RegisterProtected(app fiber.Router) {
	app.Get("/events/notifications", h.Stream)
}

func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, MsgNotAuthenticated)
	}
	userID := user.ID

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	conn := newSSEConn()
	h.presence.Register(userID, conn)
	h.logger.Info("sse stream opened", "user_id", userID, "conn_id", conn.ID())

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			h.presence.Unregister(userID, conn.ID())
			conn.Close()
			h.logger.Info("sse stream closed", "user_id", userID, "conn_id", conn.ID())
		}()

		for frame := range conn.frames {
			if _, err := w.WriteString(frame); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))

	return nil
}

// sseConn adapts an SSE stream to the realtime connection interface. Writes
// land in a buffered channel drained by the stream writer; a full buffer
// drops the event rather than blocking the dispatcher.
type sseConn struct {
	id     string
	frames chan string

	mu     sync.Mutex
	closed bool
}

func newSSEConn() *sseConn {
	return &sseConn{
		id:     uuid.New().String(),
		frames: make(chan string, sseClientBufferSize),
	}
}

func (s *sseConn) ID() string { return s.id }

func (s *sseConn) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return realtime.ErrConnClosed
	}

	select {
	case s.frames <- fmt.Sprintf("event: %s\ndata: %s\n\n", event, payload):
		return nil
	default:
		return nil
	}
}

func (s *sseConn) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.frames)
	}
	return nil
}

var _ realtime.Conn = (*sseConn)(nil)
