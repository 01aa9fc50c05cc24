package service

import "errors"

// Client-recoverable failures. The service stays fully serviceable
// after any of these; retries are the client's business.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrEmptyMessage       = errors.New("empty message")
)
