package domain

import (
	"context"
	"time"
)

type DeviceType string

const (
	DeviceDesktop DeviceType = "desktop"
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceOther   DeviceType = "other"
)

// Session is one authenticated login. Its validity window is independent of
// the signed credential carried by the client: the row can be deactivated
// server-side before the credential naturally expires, and expiry never
// slides on renewal.
type Session struct {
	ID         string
	UserID     string
	Token      string
	DeviceType DeviceType
	Browser    string
	OS         string
	IPAddress  string
	LastActive time.Time
	ExpiresAt  time.Time
	IsActive   bool
	CreatedAt  time.Time
}

type CreateSessionInput struct {
	UserID     string
	Token      string
	DeviceType DeviceType
	Browser    string
	OS         string
	IPAddress  string
	ExpiresAt  time.Time
}

type SessionRepository interface {
	Create(ctx context.Context, input CreateSessionInput) (*Session, error)
	// FindActiveByToken returns the session only when it is still active and
	// unexpired; revoked or expired rows behave as missing.
	FindActiveByToken(ctx context.Context, token string) (*Session, error)
	FindByID(ctx context.Context, id string) (*Session, error)
	FindActiveByUserID(ctx context.Context, userID string) ([]Session, error)
	TouchLastActive(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	DeactivateByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
