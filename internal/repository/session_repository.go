package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/accordhq/backend/internal/domain"
)

type PostgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

const sessionColumns = `id, user_id, token, device_type, browser, os, ip_address,
	last_active, expires_at, is_active, created_at`

func scanSession(row interface{ Scan(...any) error }) (*domain.Session, error) {
	var session domain.Session
	var browser, osName, ip sql.NullString

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.DeviceType,
		&browser,
		&osName,
		&ip,
		&session.LastActive,
		&session.ExpiresAt,
		&session.IsActive,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Browser = browser.String
	session.OS = osName.String
	session.IPAddress = ip.String

	return &session, nil
}

func (r *PostgresSessionRepository) Create(ctx context.Context, input domain.CreateSessionInput) (*domain.Session, error) {
	query := `
		INSERT INTO sessions (user_id, token, device_type, browser, os, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + sessionColumns

	return scanSession(r.db.QueryRowContext(ctx, query,
		input.UserID,
		input.Token,
		input.DeviceType,
		nullString(input.Browser),
		nullString(input.OS),
		nullString(input.IPAddress),
		input.ExpiresAt,
	))
}

// FindActiveByToken enforces both the revocation flag and the store-side
// expiry; a row that fails either behaves exactly like a missing row.
func (r *PostgresSessionRepository) FindActiveByToken(ctx context.Context, token string) (*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE token = $1 AND is_active = TRUE AND expires_at > NOW()
	`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return session, err
}

func (r *PostgresSessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return session, err
}

func (r *PostgresSessionRepository) FindActiveByUserID(ctx context.Context, userID string) ([]domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > NOW()
		ORDER BY last_active DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *PostgresSessionRepository) TouchLastActive(ctx context.Context, id string) error {
	query := `UPDATE sessions SET last_active = NOW() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// Deactivate revokes the session. The row stays behind for the device
// history view; DeleteExpired reaps it after expiry.
func (r *PostgresSessionRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE sessions SET is_active = FALSE WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresSessionRepository) DeactivateByToken(ctx context.Context, token string) error {
	query := `UPDATE sessions SET is_active = FALSE WHERE token = $1`

	_, err := r.db.ExecContext(ctx, query, token)
	return err
}

func (r *PostgresSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at <= NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

var _ domain.SessionRepository = (*PostgresSessionRepository)(nil)
