package domain

import "errors"

var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("resource conflict")
	ErrInternalError = errors.New("internal server error")
	ErrTicketClosed  = errors.New("ticket is closed")

	// Real-time connection authentication failures. Credential expiry and
	// server-side session revocation are deliberately distinct errors: a
	// session can be revoked while its signed credential is still valid.
	ErrAuthRequired      = errors.New("authentication required")
	ErrCredentialInvalid = errors.New("invalid credential")
	ErrCredentialExpired = errors.New("credential expired")
	ErrSessionInvalid    = errors.New("session expired or invalid")

	ErrInvalidCategory = errors.New("invalid notification category")
)
