package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser    Role = "user"
	RoleSupport Role = "support"
)

type User struct {
	ID                 string
	Name               string
	Email              string
	PasswordHash       string
	Role               Role
	Phone              string
	Username           string
	Language           string
	Timezone           string
	TwoFactorEnabled   bool
	TwoFactorSecretEnc string
	RecoveryEmail      string
	LastLogin          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsSupport reports whether the user belongs to the support staff; support
// users may join the shared inbox room and receive cross-ticket alerts.
func (u *User) IsSupport() bool {
	return u.Role == RoleSupport
}

type CreateUserInput struct {
	Name         string
	Email        string
	PasswordHash string
}

// UpdateUserInput carries partial updates; nil fields are left untouched.
type UpdateUserInput struct {
	Name          *string
	Email         *string
	Phone         *string
	Username      *string
	Language      *string
	Timezone      *string
	RecoveryEmail *string
}

type UpdateSecurityInput struct {
	TwoFactorEnabled   *bool
	TwoFactorSecretEnc *string
	RecoveryEmail      *string
}

type UserRepository interface {
	Create(ctx context.Context, input CreateUserInput) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id string, input UpdateUserInput) (*User, error)
	UpdateSecurity(ctx context.Context, id string, input UpdateSecurityInput) (*User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string) error
}
