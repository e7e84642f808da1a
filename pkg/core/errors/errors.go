package errors

import "errors"

// Standard picture-bed API errors
var (
	ErrUnauthorized       = errors.New("picturebed: unauthorized (invalid or expired API token)")
	ErrQuotaExceeded      = errors.New("picturebed: rate limit or upload quota exceeded")
	ErrServiceUnavailable = errors.New("picturebed: service unavailable or internal server error")
)
