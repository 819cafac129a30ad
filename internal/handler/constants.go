package handler

const (
	APIPrefix = "/accord/v1"

	MsgNotAuthenticated   = "not authenticated"
	MsgInvalidRequestBody = "invalid request body"
	MsgInvalidCredentials = "invalid email or password"
	MsgUserNotFound       = "user not found"
	MsgSessionNotFound    = "session not found"
	MsgTicketNotFound     = "ticket not found"
	MsgSettingsNotFound   = "notification settings not found"
	MsgInvalidCategory    = "invalid notification category"
	MsgInvalidTimeOfDay   = "time must be HH:MM in 24-hour format"
	MsgTicketClosed       = "ticket is closed"
	MsgTwoFactorNotSetUp  = "two-factor authentication is not set up"
	MsgInvalidTOTPCode    = "invalid verification code"
)
