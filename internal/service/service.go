// Package service implements the business-rule core of the shortlink
// application: URL validation, token generation, the access gates that
// guard every operation on an existing link, and redirect logging.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

var (
	// ErrInvalidURL is returned when the original URL is not an absolute
	// URL with a recognized scheme and host.
	ErrInvalidURL = errors.New("invalid original url")
	// ErrInvalidVisibility is returned when a link type literal is not
	// one of the recognized values.
	ErrInvalidVisibility = errors.New("unknown link type, acceptable values: public, private")
	// ErrLinkGone is returned for any operation on a soft-deleted link.
	ErrLinkGone = errors.New("short link is deactivated")
	// ErrPermissionDenied is returned when the requester fails a
	// visibility or ownership gate.
	ErrPermissionDenied = errors.New("permission denied")
)

const (
	defaultStatsLimit = 10
	maxStatsLimit     = 100

	logAppendTimeout = 5 * time.Second
)

// LinkRepository defines link persistence as used by the business layer.
type LinkRepository interface {
	// Create inserts a new short link. It fails with database.ErrLinkExists
	// if the token or the original URL is already taken.
	Create(ctx context.Context, shortURL, originalURL string, visibility models.Visibility, ownerID *uuid.UUID) (*models.ShortLink, error)

	// GetByShortURL retrieves a link by its token, active or not.
	GetByShortURL(ctx context.Context, shortURL string) (*models.ShortLink, error)

	// ListByOwner returns the owner's links ordered by id ascending.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, activeOnly bool) ([]*models.ShortLink, error)

	// SoftDelete marks a link inactive without removing its row.
	SoftDelete(ctx context.Context, id int64) error

	// UpdateVisibility flips the visibility of a link in place.
	UpdateVisibility(ctx context.Context, id int64, visibility models.Visibility) (*models.ShortLink, error)
}

// AccessLogRepository defines the append-only redirect history store.
type AccessLogRepository interface {
	Append(ctx context.Context, linkID int64, connectionInfo string) error
	ListByLink(ctx context.Context, linkID int64, offset, limit int) ([]*models.AccessLog, error)
	CountByLink(ctx context.Context, linkID int64) (int64, error)
}

// LinkService orchestrates the two repositories and enforces the
// active-state, visibility and ownership rules for every operation.
type LinkService struct {
	linkRepo    LinkRepository
	logRepo     AccessLogRepository
	tokenLength int
	logger      *slog.Logger
}

// NewLinkService creates a LinkService. tokenLength controls the length of
// generated tokens; logger receives failures of the deferred log writes.
func NewLinkService(linkRepo LinkRepository, logRepo AccessLogRepository, tokenLength int, logger *slog.Logger) *LinkService {
	return &LinkService{
		linkRepo:    linkRepo,
		logRepo:     logRepo,
		tokenLength: tokenLength,
		logger:      logger,
	}
}

// CreateLink validates the original URL and the requested link type,
// generates a token and persists the link. Anonymous links are forced to
// public visibility regardless of the requested type. A token or URL
// collision surfaces as database.ErrLinkExists; there is no retry loop.
func (s *LinkService) CreateLink(ctx context.Context, originalURL, linkType string, owner *models.User) (*models.ShortLink, error) {
	const op = "service.LinkService.CreateLink"

	if !isValidURL(originalURL) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidURL)
	}

	visibility := models.VisibilityPublic
	if linkType != "" {
		visibility = models.Visibility(linkType)
		if !visibility.Valid() {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidVisibility)
		}
	}

	var ownerID *uuid.UUID
	if owner != nil {
		ownerID = &owner.ID
	} else {
		visibility = models.VisibilityPublic
	}

	token, err := generateToken(s.tokenLength)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	link, err := s.linkRepo.Create(ctx, token, originalURL, visibility, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create link: %w", op, err)
	}

	return link, nil
}

// Redirect resolves a token to its original URL, enforcing the active-state
// and visibility gates. On success it records the access off the response
// path: the append runs in a detached goroutine and its failure is logged,
// never surfaced to the visitor.
func (s *LinkService) Redirect(ctx context.Context, token string, requester *models.User, connectionInfo string) (*models.ShortLink, error) {
	const op = "service.LinkService.Redirect"

	link, err := s.resolveActive(ctx, op, token)
	if err != nil {
		return nil, err
	}

	if !s.canView(link, requester) {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	go func() {
		logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logAppendTimeout)
		defer cancel()

		if err := s.logRepo.Append(logCtx, link.ID, connectionInfo); err != nil {
			s.logger.Error(
				"failed to append access log",
				slog.String("op", op),
				slog.String("short_url", link.ShortURL),
				slog.Any("err", err),
			)
		}
	}()

	return link, nil
}

// UserLinks returns the requester's active links in insertion order.
// Anonymous requesters are rejected.
func (s *LinkService) UserLinks(ctx context.Context, requester *models.User) ([]*models.ShortLink, error) {
	const op = "service.LinkService.UserLinks"

	if requester == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	links, err := s.linkRepo.ListByOwner(ctx, requester.ID, true)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	return links, nil
}

// DeleteLink soft-deletes a link. Owned links may only be deleted by their
// owner; ownerless links may be deleted by anyone, anonymous callers
// included. An already deleted link is reported as gone, not deleted twice.
func (s *LinkService) DeleteLink(ctx context.Context, token string, requester *models.User) error {
	const op = "service.LinkService.DeleteLink"

	link, err := s.resolveActive(ctx, op, token)
	if err != nil {
		return err
	}

	if link.OwnerID != nil && !s.owns(link, requester) {
		return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	if err := s.linkRepo.SoftDelete(ctx, link.ID); err != nil {
		return fmt.Errorf("%s: failed to delete link: %w", op, err)
	}

	return nil
}

// UpdateVisibility flips a link between public and private. Only the owner
// may update visibility, so ownerless links can never be updated. Setting
// the current value is a no-op that succeeds without a write.
func (s *LinkService) UpdateVisibility(ctx context.Context, token, linkType string, requester *models.User) (*models.ShortLink, error) {
	const op = "service.LinkService.UpdateVisibility"

	link, err := s.resolveActive(ctx, op, token)
	if err != nil {
		return nil, err
	}

	if link.OwnerID == nil || !s.owns(link, requester) {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	visibility := models.Visibility(linkType)
	if !visibility.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidVisibility)
	}

	if visibility == link.Visibility {
		return link, nil
	}

	updated, err := s.linkRepo.UpdateVisibility(ctx, link.ID, visibility)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update link visibility: %w", op, err)
	}

	return updated, nil
}

// LinkStats returns the total redirect count of a link and, when fullInfo
// is set, a page of its access log entries. The same gates apply as for
// the redirect itself.
func (s *LinkService) LinkStats(ctx context.Context, token string, requester *models.User, fullInfo bool, offset, limit int) (*models.LinkStats, error) {
	const op = "service.LinkService.LinkStats"

	link, err := s.resolveActive(ctx, op, token)
	if err != nil {
		return nil, err
	}

	if !s.canView(link, requester) {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	count, err := s.logRepo.CountByLink(ctx, link.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count access logs: %w", op, err)
	}

	stats := &models.LinkStats{RequestsCount: count}

	if fullInfo {
		offset, limit = clampPage(offset, limit)

		logs, err := s.logRepo.ListByLink(ctx, link.ID, offset, limit)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to list access logs: %w", op, err)
		}

		stats.Logs = logs
	}

	return stats, nil
}

// resolveActive looks the link up by token and applies the active-state
// gate shared by every operation on an existing link.
func (s *LinkService) resolveActive(ctx context.Context, op, token string) (*models.ShortLink, error) {
	link, err := s.linkRepo.GetByShortURL(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve token: %w", op, err)
	}

	if !link.IsActive {
		return nil, fmt.Errorf("%s: %w", op, ErrLinkGone)
	}

	return link, nil
}

// canView applies the visibility gate: public links admit everyone,
// private links admit the owner only.
func (s *LinkService) canView(link *models.ShortLink, requester *models.User) bool {
	if link.Visibility == models.VisibilityPublic {
		return true
	}
	return s.owns(link, requester)
}

func (s *LinkService) owns(link *models.ShortLink, requester *models.User) bool {
	return requester != nil && link.OwnerID != nil && *link.OwnerID == requester.ID
}

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultStatsLimit
	}
	if limit > maxStatsLimit {
		limit = maxStatsLimit
	}
	return offset, limit
}
