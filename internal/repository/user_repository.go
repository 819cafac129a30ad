package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/accordhq/backend/internal/domain"
)

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, phone, username, language, timezone,
	two_factor_enabled, two_factor_secret_enc, recovery_email, last_login, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var user domain.User
	var phone, username, secretEnc, recoveryEmail sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&phone,
		&username,
		&user.Language,
		&user.Timezone,
		&user.TwoFactorEnabled,
		&secretEnc,
		&recoveryEmail,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Phone = phone.String
	user.Username = username.String
	user.TwoFactorSecretEnc = secretEnc.String
	user.RecoveryEmail = recoveryEmail.String
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}

	return &user, nil
}

func (r *PostgresUserRepository) Create(ctx context.Context, input domain.CreateUserInput) (*domain.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, input.Name, input.Email, input.PasswordHash))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return user, err
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return user, err
}

func (r *PostgresUserRepository) Update(ctx context.Context, id string, input domain.UpdateUserInput) (*domain.User, error) {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)

	appendSet := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, column+" = $"+itoa(len(args)))
	}

	appendSet("name", input.Name)
	appendSet("email", input.Email)
	appendSet("phone", input.Phone)
	appendSet("username", input.Username)
	appendSet("language", input.Language)
	appendSet("timezone", input.Timezone)
	appendSet("recovery_email", input.RecoveryEmail)

	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}

	args = append(args, id)
	query := `UPDATE users SET ` + strings.Join(sets, ", ") + `, updated_at = NOW()
		WHERE id = $` + itoa(len(args)) + `
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil && isUniqueViolation(err) {
		return nil, domain.ErrAlreadyExists
	}
	return user, err
}

func (r *PostgresUserRepository) UpdateSecurity(ctx context.Context, id string, input domain.UpdateSecurityInput) (*domain.User, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if input.TwoFactorEnabled != nil {
		args = append(args, *input.TwoFactorEnabled)
		sets = append(sets, "two_factor_enabled = $"+itoa(len(args)))
	}
	if input.TwoFactorSecretEnc != nil {
		args = append(args, nullString(*input.TwoFactorSecretEnc))
		sets = append(sets, "two_factor_secret_enc = $"+itoa(len(args)))
	}
	if input.RecoveryEmail != nil {
		args = append(args, *input.RecoveryEmail)
		sets = append(sets, "recovery_email = $"+itoa(len(args)))
	}

	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}

	args = append(args, id)
	query := `UPDATE users SET ` + strings.Join(sets, ", ") + `, updated_at = NOW()
		WHERE id = $` + itoa(len(args)) + `
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return user, err
}

func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
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

func (r *PostgresUserRepository) TouchLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login = NOW() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

var _ domain.UserRepository = (*PostgresUserRepository)(nil)
