package shortener

import "errors"

// Terminal resolver and creation outcomes. The HTTP layer maps each to a
// status code; nothing else crosses the boundary.
var (
	ErrNotFound       = errors.New("short URL not found")
	ErrInactive       = errors.New("short URL is inactive")
	ErrExpired        = errors.New("short URL has expired")
	ErrNeedsPassword  = errors.New("password required")
	ErrBadPassword    = errors.New("invalid password")
	ErrDuplicateAlias = errors.New("custom alias already exists")
)
