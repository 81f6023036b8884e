package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrEmailTaken            = errors.New("email already registered")
	ErrInvalidEmail          = errors.New("invalid email address")
	ErrWeakPassword          = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrResetTokenInvalid     = errors.New("reset token invalid or expired")
	ErrProfileFieldsRequired = errors.New("name and occupation are required")
	ErrUnsupportedMedia      = errors.New("unsupported media type")
	ErrStorage               = errors.New("storage failure")
	ErrTranscription         = errors.New("transcription failed")
	ErrUnknownPackage        = errors.New("unknown token package")
	ErrPaymentIncomplete     = errors.New("payment not completed")
	ErrPaymentOwnership      = errors.New("payment belongs to another user")
	ErrProviderFailure       = errors.New("provider failure")
	ErrDuplicateOperation    = errors.New("duplicate operation")
)
