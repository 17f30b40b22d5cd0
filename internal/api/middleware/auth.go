package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Lsoni680/ai-chatbot-new/internal/api/response"
	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/rs/zerolog/log"
)

type contextKey string

const IdentifierKey contextKey = "identifier"

// TokenVerifier resolves a session token to a user identifier
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	verifier TokenVerifier
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate validates the bearer token. A request without a token gets
// 401, a request with a bad token gets 403.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, _ := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
		token = strings.TrimSpace(token)
		if token == "" {
			response.Unauthorized(w, domain.ErrUnauthorized.Error())
			return
		}
		if !strings.EqualFold(scheme, "bearer") {
			response.Forbidden(w, domain.ErrInvalidToken.Error())
			return
		}

		identifier, err := m.verifier.VerifyToken(token)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				response.Unauthorized(w, domain.ErrUnauthorized.Error())
				return
			}
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected token")
			response.Forbidden(w, domain.ErrInvalidToken.Error())
			return
		}

		ctx := context.WithValue(r.Context(), IdentifierKey, identifier)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentifier gets the authenticated identifier from context
func GetIdentifier(ctx context.Context) (string, bool) {
	identifier, ok := ctx.Value(IdentifierKey).(string)
	return identifier, ok
}
