package token

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/accordhq/backend/internal/domain"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Issuer signs bearer credentials for authenticated users.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed credential for the user plus its expiry instant.
// The expiry is fixed at issue time; nothing renews it later.
func (i *Issuer) Issue(userID string) (string, time.Time, error) {
	now := NowTimeFunc()
	expiresAt := now.Add(i.ttl)

	claims := jwtlib.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
		"jti": uuid.New().String(),
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign credential: %w", err)
	}
	return signed, expiresAt, nil
}

// Verifier checks credential signatures and expiry. It knows nothing about
// server-side sessions; revocation is a separate store-backed check.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify returns the subject user ID of a valid credential. Expired
// credentials map to domain.ErrCredentialExpired; everything else that fails
// parsing or signature checks maps to domain.ErrCredentialInvalid.
func (v *Verifier) Verify(raw string) (string, error) {
	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }),
	)

	parsed, err := parser.Parse(raw, func(t *jwtlib.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return "", domain.ErrCredentialExpired
		}
		return "", domain.ErrCredentialInvalid
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return "", domain.ErrCredentialInvalid
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", domain.ErrCredentialInvalid
	}
	return sub, nil
}
