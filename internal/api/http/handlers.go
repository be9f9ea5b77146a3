package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/database"
	"github.com/vadimbarashkov/shortlink/internal/service"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

// renderGateError maps the shared service gate errors onto HTTP statuses.
// It reports whether err was handled.
func renderGateError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, database.ErrLinkNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ResourceNotFoundResponse)
	case errors.Is(err, service.ErrLinkGone):
		render.Status(r, http.StatusGone)
		render.JSON(w, r, response.ResourceGoneResponse)
	case errors.Is(err, service.ErrPermissionDenied):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.ForbiddenResponse)
	default:
		return false
	}

	return true
}

func renderServerError(w http.ResponseWriter, r *http.Request, op string, err error) {
	httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, response.ServerErrorResponse)
}

// connectionInfo serializes requester metadata for the access log.
func connectionInfo(r *http.Request) string {
	info := map[string]any{
		"remote_addr": r.RemoteAddr,
		"headers":     r.Header,
	}

	b, err := json.Marshal(info)
	if err != nil {
		return r.RemoteAddr
	}

	return string(b)
}

func handleCreateLink(svc LinkService, validate *validator.Validate, baseURL string) http.HandlerFunc {
	const op = "api.http.handleCreateLink"

	return func(w http.ResponseWriter, r *http.Request) {
		var req createLinkRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, validationErrorResponse(err))
			return
		}

		link, err := svc.CreateLink(r.Context(), req.OriginalURL, req.LinkType, UserFromContext(r.Context()))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidURL), errors.Is(err, service.ErrInvalidVisibility):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ErrorResponse("Validation Error", unwrapMessage(err)))
			case errors.Is(err, database.ErrLinkExists):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.ConflictResponse)
			default:
				renderServerError(w, r, op, err)
			}
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, toLinkResponse(link, baseURL))
	}
}

func handleRedirect(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "shortURL")

		link, err := svc.Redirect(r.Context(), token, UserFromContext(r.Context()), connectionInfo(r))
		if err != nil {
			if !renderGateError(w, r, err) {
				renderServerError(w, r, op, err)
			}
			return
		}

		http.Redirect(w, r, link.OriginalURL, http.StatusTemporaryRedirect)
	}
}

func handleUserLinks(svc LinkService, baseURL string) http.HandlerFunc {
	const op = "api.http.handleUserLinks"

	return func(w http.ResponseWriter, r *http.Request) {
		links, err := svc.UserLinks(r.Context(), UserFromContext(r.Context()))
		if err != nil {
			if !renderGateError(w, r, err) {
				renderServerError(w, r, op, err)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, toLinkResponses(links, baseURL))
	}
}

func handleDeleteLink(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleDeleteLink"

	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "shortURL")

		err := svc.DeleteLink(r.Context(), token, UserFromContext(r.Context()))
		if err != nil {
			if !renderGateError(w, r, err) {
				renderServerError(w, r, op, err)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, deleteLinkResponse{Success: true})
	}
}

func handleUpdateLink(svc LinkService, validate *validator.Validate, baseURL string) http.HandlerFunc {
	const op = "api.http.handleUpdateLink"

	return func(w http.ResponseWriter, r *http.Request) {
		var req updateLinkRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, validationErrorResponse(err))
			return
		}

		token := chi.URLParam(r, "shortURL")

		link, err := svc.UpdateVisibility(r.Context(), token, req.LinkType, UserFromContext(r.Context()))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidVisibility):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ErrorResponse("Validation Error", unwrapMessage(err)))
			default:
				if !renderGateError(w, r, err) {
					renderServerError(w, r, op, err)
				}
			}
			return
		}

		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, toLinkResponse(link, baseURL))
	}
}

func handleLinkStats(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleLinkStats"

	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "shortURL")

		query := r.URL.Query()
		fullInfo := query.Has("full_info")
		offset, _ := strconv.Atoi(query.Get("offset"))
		limit, _ := strconv.Atoi(query.Get("max-result"))

		stats, err := svc.LinkStats(r.Context(), token, UserFromContext(r.Context()), fullInfo, offset, limit)
		if err != nil {
			if !renderGateError(w, r, err) {
				renderServerError(w, r, op, err)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, toStatsResponse(stats, fullInfo))
	}
}

func handlePing(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connected := db.PingContext(r.Context()) == nil

		render.Status(r, http.StatusOK)
		render.JSON(w, r, pingResponse{Connected: connected})
	}
}

// unwrapMessage strips the op-wrapping prefixes so clients see only the
// sentinel's message.
func unwrapMessage(err error) string {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err.Error()
		}
		err = unwrapped
	}
}
