package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/accordhq/backend/internal/domain"
)

type PostgresNotificationSettingRepository struct {
	db *sql.DB
}

func NewPostgresNotificationSettingRepository(db *sql.DB) *PostgresNotificationSettingRepository {
	return &PostgresNotificationSettingRepository{db: db}
}

const settingColumns = `id, user_id, email_enabled, push_enabled, sms_enabled, preferences,
	digest_frequency, quiet_enabled, quiet_start, quiet_end, created_at, updated_at`

func scanSetting(row interface{ Scan(...any) error }) (*domain.NotificationSetting, error) {
	var s domain.NotificationSetting
	var prefs []byte

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Channels.Email,
		&s.Channels.Push,
		&s.Channels.SMS,
		&prefs,
		&s.DigestFrequency,
		&s.QuietHours.Enabled,
		&s.QuietHours.Start,
		&s.QuietHours.End,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(prefs, &s.Preferences); err != nil {
		return nil, err
	}

	return &s, nil
}

// FindOrCreate inserts the default row on first access; a concurrent first
// access from two requests resolves through the user_id unique constraint.
func (r *PostgresNotificationSettingRepository) FindOrCreate(ctx context.Context, userID string) (*domain.NotificationSetting, error) {
	defaults := domain.DefaultNotificationSetting(userID)
	prefs, err := json.Marshal(defaults.Preferences)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO notification_settings
			(user_id, email_enabled, push_enabled, sms_enabled, preferences,
			 digest_frequency, quiet_enabled, quiet_start, quiet_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING ` + settingColumns

	return scanSetting(r.db.QueryRowContext(ctx, query,
		userID,
		defaults.Channels.Email,
		defaults.Channels.Push,
		defaults.Channels.SMS,
		prefs,
		defaults.DigestFrequency,
		defaults.QuietHours.Enabled,
		defaults.QuietHours.Start,
		defaults.QuietHours.End,
	))
}

func (r *PostgresNotificationSettingRepository) Find(ctx context.Context, userID string) (*domain.NotificationSetting, error) {
	query := `SELECT ` + settingColumns + ` FROM notification_settings WHERE user_id = $1`

	setting, err := scanSetting(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return setting, err
}

func (r *PostgresNotificationSettingRepository) Save(ctx context.Context, setting *domain.NotificationSetting) (*domain.NotificationSetting, error) {
	prefs, err := json.Marshal(setting.Preferences)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE notification_settings
		SET email_enabled = $2, push_enabled = $3, sms_enabled = $4, preferences = $5,
			digest_frequency = $6, quiet_enabled = $7, quiet_start = $8, quiet_end = $9,
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + settingColumns

	updated, err := scanSetting(r.db.QueryRowContext(ctx, query,
		setting.UserID,
		setting.Channels.Email,
		setting.Channels.Push,
		setting.Channels.SMS,
		prefs,
		setting.DigestFrequency,
		setting.QuietHours.Enabled,
		setting.QuietHours.Start,
		setting.QuietHours.End,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return updated, err
}

func (r *PostgresNotificationSettingRepository) Delete(ctx context.Context, userID string) error {
	query := `DELETE FROM notification_settings WHERE user_id = $1`

	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

var _ domain.NotificationSettingRepository = (*PostgresNotificationSettingRepository)(nil)
