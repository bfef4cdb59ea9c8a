package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrPermissionDeny = errors.New("permission denied")
	ErrUnavailable    = errors.New("upstream unavailable")
)
