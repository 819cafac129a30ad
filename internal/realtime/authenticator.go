package realtime

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/accordhq/backend/internal/domain"
	"github.com/accordhq/backend/internal/token"
)

// Credential carries the bearer token sources available on a connection
// handshake. The handshake/header value wins over the cookie when both are
// present.
type Credential struct {
	Handshake string
	Cookie    string
}

// Token resolves the effective bearer token, stripping an optional Bearer
// prefix from the handshake value.
func (c Credential) Token() string {
	if c.Handshake != "" {
		return strings.TrimPrefix(c.Handshake, "Bearer ")
	}
	return c.Cookie
}

// Authenticator validates inbound real-time connections. Two independent
// checks run in order: the credential's own signature and expiry, then the
// server-side session record, which may have been revoked while the signed
// credential is still valid.
type Authenticator struct {
	verifier *token.Verifier
	sessions domain.SessionRepository
	logger   *slog.Logger
	touchTTL time.Duration
}

func NewAuthenticator(verifier *token.Verifier, sessions domain.SessionRepository, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		sessions: sessions,
		logger:   logger.With("component", "realtime_auth"),
		touchTTL: 5 * time.Second,
	}
}

// Authenticate returns the connecting user's ID, or one of
// domain.ErrAuthRequired, domain.ErrCredentialInvalid,
// domain.ErrCredentialExpired, domain.ErrSessionInvalid.
// The session's last-active touch runs in the background; its failure is
// logged but never fails the authentication.
func (a *Authenticator) Authenticate(ctx context.Context, cred Credential) (string, error) {
	raw := cred.Token()
	if raw == "" {
		return "", domain.ErrAuthRequired
	}

	userID, err := a.verifier.Verify(raw)
	if err != nil {
		return "", err
	}

	session, err := a.sessions.FindActiveByToken(ctx, raw)
	if err != nil || session == nil {
		return "", domain.ErrSessionInvalid
	}

	go a.touchLastActive(session.ID)

	return userID, nil
}

func (a *Authenticator) touchLastActive(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), a.touchTTL)
	defer cancel()

	if err := a.sessions.TouchLastActive(ctx, sessionID); err != nil {
		a.logger.Warn("failed to touch session last active", "session_id", sessionID, "error", err)
	}
}
