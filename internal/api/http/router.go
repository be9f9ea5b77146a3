// Package http exposes the shortlink API: link creation, redirects,
// per-user listings, soft deletion, visibility updates, access statistics
// and a datastore health check.
package http

import (
	"context"
	"net/http"
	"net/netip"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/models"
	"github.com/vadimbarashkov/shortlink/pkg/middleware/ipfilter"
)

// LinkService defines the business-rule core consumed by the handlers.
type LinkService interface {
	// CreateLink validates and persists a new short link. Anonymous owners
	// always get a public link.
	CreateLink(ctx context.Context, originalURL, linkType string, owner *models.User) (*models.ShortLink, error)

	// Redirect resolves a token, enforcing the active-state and visibility
	// gates, and records the access off the response path.
	Redirect(ctx context.Context, token string, requester *models.User, connectionInfo string) (*models.ShortLink, error)

	// UserLinks lists the requester's active links.
	UserLinks(ctx context.Context, requester *models.User) ([]*models.ShortLink, error)

	// DeleteLink soft-deletes a link, subject to the ownership rule.
	DeleteLink(ctx context.Context, token string, requester *models.User) error

	// UpdateVisibility flips a link between public and private; owner only.
	UpdateVisibility(ctx context.Context, token, linkType string, requester *models.User) (*models.ShortLink, error)

	// LinkStats returns the redirect count and, optionally, a page of the
	// access log.
	LinkStats(ctx context.Context, token string, requester *models.User, fullInfo bool, offset, limit int) (*models.LinkStats, error)
}

// Pinger reports datastore connectivity for the health check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterConfig carries the request-independent settings the handlers need.
type RouterConfig struct {
	// BaseURL is prepended to tokens when rendering fully-qualified short URLs.
	BaseURL string
	// TrustedSubnets is the allow-list guarding the health check; empty
	// admits everyone.
	TrustedSubnets []netip.Prefix
}

func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

func NewRouter(logger *httplog.Logger, linkSvc LinkService, db Pinger, identity *IdentityProvider, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.AllowContentType("application/json"))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(identity.Middleware)

	validate := getValidate()

	r.With(ipfilter.New(cfg.TrustedSubnets)).Get("/ping", handlePing(db))

	r.Post("/", handleCreateLink(linkSvc, validate, cfg.BaseURL))
	r.Get("/user/status", handleUserLinks(linkSvc, cfg.BaseURL))

	r.Route("/{shortURL}", func(r chi.Router) {
		r.Get("/", handleRedirect(linkSvc))
		r.Put("/", handleUpdateLink(linkSvc, validate, cfg.BaseURL))
		r.Delete("/", handleDeleteLink(linkSvc))
		r.Get("/status", handleLinkStats(linkSvc))
	})

	return r
}
