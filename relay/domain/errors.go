package domain

import "errors"

var (
	ErrUnauthenticated = errors.New("missing api key")
	ErrUnauthorized    = errors.New("invalid api key")
	ErrUnknownTenant   = errors.New("unknown tenant")
	ErrInvalidAction   = errors.New("invalid action")
	ErrPersistence     = errors.New("persistence failure")
)
