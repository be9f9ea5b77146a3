// Package models defines the domain types shared between the service and
// storage layers: short links, their access log entries and link owners.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Visibility controls who may resolve a short link and view its statistics.
type Visibility string

const (
	// VisibilityPublic allows any requester, authenticated or not.
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate restricts the link to its owner.
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is one of the recognized visibility literals.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// ShortLink represents a stored mapping from a short token to an original URL.
type ShortLink struct {
	// ID is the unique identifier for the short link record.
	ID int64
	// ShortURL is the token that appears in the redirect path.
	ShortURL string
	// OriginalURL is the full URL that the token resolves to.
	OriginalURL string
	// Visibility is either public or private.
	Visibility Visibility
	// OwnerID references the owning user; nil for anonymous links.
	OwnerID *uuid.UUID
	// IsActive is false once the link has been soft-deleted.
	IsActive bool
	// CreatedAt is the timestamp assigned by the database on insert.
	CreatedAt time.Time
}

// AccessLog represents one successful redirect through a short link.
// Rows are append-only and are never mutated or deleted.
type AccessLog struct {
	ID             int64
	ShortLinkID    int64
	ConnectionInfo string
	CreatedAt      time.Time
}

// LinkStats aggregates the access history of a single short link.
// Logs is populated only when the caller asked for full detail.
type LinkStats struct {
	RequestsCount int64
	Logs          []*AccessLog
}

// User is the authenticated identity resolved by the identity provider.
type User struct {
	ID    uuid.UUID
	Email string
}
