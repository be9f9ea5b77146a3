package database

import "errors"

var (
	// ErrLinkExists is returned when an attempt is made to create a short link
	// whose token or original URL already exists.
	ErrLinkExists = errors.New("short link exists")
	// ErrLinkNotFound is returned when no short link matches the given token or id.
	ErrLinkNotFound = errors.New("short link not found")
)
