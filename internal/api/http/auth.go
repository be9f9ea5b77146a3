package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vadimbarashkov/shortlink/internal/models"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

type ctxKey int

const userCtxKey ctxKey = iota

type userClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// IdentityProvider resolves the authenticated user from request
// credentials. Requests without credentials proceed as anonymous; requests
// with malformed or expired tokens are rejected.
type IdentityProvider struct {
	secret []byte
}

func NewIdentityProvider(secret string) *IdentityProvider {
	return &IdentityProvider{
		secret: []byte(secret),
	}
}

// Middleware parses the Authorization bearer token, if any, and stores the
// resolved user in the request context.
func (p *IdentityProvider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.UnauthorizedResponse)
			return
		}

		claims := new(userClaims)
		token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
			return p.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.UnauthorizedResponse)
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.UnauthorizedResponse)
			return
		}

		user := &models.User{
			ID:    userID,
			Email: claims.Email,
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userCtxKey, user)))
	})
}

// IssueToken signs a bearer token for the given user.
func (p *IdentityProvider) IssueToken(user *models.User, ttl time.Duration) (string, error) {
	claims := userClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// UserFromContext returns the authenticated user or nil for anonymous
// requests.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userCtxKey).(*models.User)
	return user
}
