package domain

import (
	"context"
	"time"
)

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

type MessageSender string

const (
	SenderUser    MessageSender = "user"
	SenderSupport MessageSender = "support"
)

type TicketMessage struct {
	Sender    MessageSender `json:"sender"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
}

type SupportTicket struct {
	ID           string
	UserID       string
	Subject      string
	Description  string
	Priority     TicketPriority
	Status       TicketStatus
	ContactEmail string
	Messages     []TicketMessage
	AssignedTo   *string
	LastUpdated  time.Time
	CreatedAt    time.Time
}

type CreateTicketInput struct {
	UserID       string
	Subject      string
	Description  string
	Priority     TicketPriority
	ContactEmail string
}

type TicketRepository interface {
	Create(ctx context.Context, input CreateTicketInput) (*SupportTicket, error)
	FindByID(ctx context.Context, id string) (*SupportTicket, error)
	FindByIDAndUserID(ctx context.Context, id, userID string) (*SupportTicket, error)
	FindByUserID(ctx context.Context, userID string, status TicketStatus) ([]SupportTicket, error)
	AppendMessage(ctx context.Context, id string, msg TicketMessage, status TicketStatus) (*SupportTicket, error)
	UpdateStatus(ctx context.Context, id string, status TicketStatus) (*SupportTicket, error)
}

// Participant reports whether the given user may receive the ticket's room
// broadcasts: the ticket owner and the assigned support agent qualify.
func (t *SupportTicket) Participant(userID string) bool {
	if t.UserID == userID {
		return true
	}
	return t.AssignedTo != nil && *t.AssignedTo == userID
}
