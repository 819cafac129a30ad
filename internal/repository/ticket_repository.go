package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/accordhq/backend/internal/domain"
)

type PostgresTicketRepository struct {
	db *sql.DB
}

func NewPostgresTicketRepository(db *sql.DB) *PostgresTicketRepository {
	return &PostgresTicketRepository{db: db}
}

const ticketColumns = `id, user_id, subject, description, priority, status,
	contact_email, messages, assigned_to, last_updated, created_at`

func scanTicket(row interface{ Scan(...any) error }) (*domain.SupportTicket, error) {
	var t domain.SupportTicket
	var messages []byte
	var assignedTo sql.NullString

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Subject,
		&t.Description,
		&t.Priority,
		&t.Status,
		&t.ContactEmail,
		&messages,
		&assignedTo,
		&t.LastUpdated,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(messages, &t.Messages); err != nil {
		return nil, err
	}
	if assignedTo.Valid {
		t.AssignedTo = &assignedTo.String
	}

	return &t, nil
}

func (r *PostgresTicketRepository) Create(ctx context.Context, input domain.CreateTicketInput) (*domain.SupportTicket, error) {
	// The description doubles as the opening message of the thread.
	opening, err := json.Marshal([]domain.TicketMessage{{
		Sender:    domain.SenderUser,
		Message:   input.Description,
		Timestamp: time.Now().UTC(),
	}})
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO support_tickets (user_id, subject, description, priority, contact_email, messages)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + ticketColumns

	return scanTicket(r.db.QueryRowContext(ctx, query,
		input.UserID,
		input.Subject,
		input.Description,
		input.Priority,
		input.ContactEmail,
		opening,
	))
}

func (r *PostgresTicketRepository) FindByID(ctx context.Context, id string) (*domain.SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE id = $1`

	ticket, err := scanTicket(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return ticket, err
}

func (r *PostgresTicketRepository) FindByIDAndUserID(ctx context.Context, id, userID string) (*domain.SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE id = $1 AND user_id = $2`

	ticket, err := scanTicket(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return ticket, err
}

func (r *PostgresTicketRepository) FindByUserID(ctx context.Context, userID string, status domain.TicketStatus) ([]domain.SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE user_id = $1`
	args := []any{userID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.SupportTicket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

func (r *PostgresTicketRepository) AppendMessage(ctx context.Context, id string, msg domain.TicketMessage, status domain.TicketStatus) (*domain.SupportTicket, error) {
	entry, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE support_tickets
		SET messages = messages || $2::jsonb, status = $3, last_updated = NOW()
		WHERE id = $1
		RETURNING ` + ticketColumns

	ticket, err := scanTicket(r.db.QueryRowContext(ctx, query, id, entry, status))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return ticket, err
}

func (r *PostgresTicketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.SupportTicket, error) {
	query := `
		UPDATE support_tickets
		SET status = $2, last_updated = NOW()
		WHERE id = $1
		RETURNING ` + ticketColumns

	ticket, err := scanTicket(r.db.QueryRowContext(ctx, query, id, status))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return ticket, err
}

var _ domain.TicketRepository = (*PostgresTicketRepository)(nil)
