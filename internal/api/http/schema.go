package http

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/models"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

// createLinkRequest carries the original URL and the optional link type.
// Wire names follow the public API contract, not Go conventions.
type createLinkRequest struct {
	OriginalURL string `json:"original-url" validate:"required"`
	LinkType    string `json:"link_type" validate:"omitempty"`
}

type updateLinkRequest struct {
	LinkType string `json:"link_type" validate:"required"`
}

type ownerResponse struct {
	ID string `json:"id"`
}

type linkResponse struct {
	ShortID     int64          `json:"short-id"`
	ShortURL    string         `json:"short-url"`
	OriginalURL string         `json:"original-url"`
	LinkType    string         `json:"link_type"`
	Owner       *ownerResponse `json:"owner,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// toLinkResponse renders a link for the wire. The short-url field is fully
// qualified against the configured base URL.
func toLinkResponse(link *models.ShortLink, baseURL string) linkResponse {
	resp := linkResponse{
		ShortID:     link.ID,
		ShortURL:    fmt.Sprintf("%s/%s", baseURL, link.ShortURL),
		OriginalURL: link.OriginalURL,
		LinkType:    string(link.Visibility),
		CreatedAt:   link.CreatedAt,
	}

	if link.OwnerID != nil {
		resp.Owner = &ownerResponse{ID: link.OwnerID.String()}
	}

	return resp
}

func toLinkResponses(links []*models.ShortLink, baseURL string) []linkResponse {
	resps := make([]linkResponse, 0, len(links))
	for _, link := range links {
		resps = append(resps, toLinkResponse(link, baseURL))
	}
	return resps
}

type deleteLinkResponse struct {
	Success bool `json:"success"`
}

type accessLogResponse struct {
	ConnectionInfo string    `json:"connection_info"`
	CreatedAt      time.Time `json:"created_at"`
}

// statsResponse holds the total request count and, only when full detail
// was requested, a page of access log entries. Logs is a pointer so an
// empty page still renders as [] while the short form omits it entirely.
type statsResponse struct {
	RequestsCount int64                `json:"requests_count"`
	Logs          *[]accessLogResponse `json:"logs,omitempty"`
}

func toStatsResponse(stats *models.LinkStats, fullInfo bool) statsResponse {
	resp := statsResponse{
		RequestsCount: stats.RequestsCount,
	}

	if fullInfo {
		logs := make([]accessLogResponse, 0, len(stats.Logs))
		for _, l := range stats.Logs {
			logs = append(logs, accessLogResponse{
				ConnectionInfo: l.ConnectionInfo,
				CreatedAt:      l.CreatedAt,
			})
		}
		resp.Logs = &logs
	}

	return resp
}

type pingResponse struct {
	Connected bool `json:"Connected"`
}

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	default:
		return "invalid value"
	}
}

// validationErrorResponse maps validator errors onto the shared envelope,
// one field/message detail per failed rule.
func validationErrorResponse(err error) response.Response {
	var details []any

	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range errs {
			details = append(details, map[string]string{
				"field":   e.Field(),
				"message": messageForTag(e.Tag()),
			})
		}
	}

	return response.ErrorResponse("Validation Error", "The request contains invalid fields.", details...)
}
