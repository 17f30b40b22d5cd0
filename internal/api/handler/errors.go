package handler

import (
	"errors"
	"net/http"

	"github.com/Lsoni680/ai-chatbot-new/internal/api/response"
	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// upstreamMessage is the only upstream detail ever sent to clients
const upstreamMessage = "AI service unavailable"

var validate = validator.New()

// clientErrors are answered with 400 and the sentinel's own text
var clientErrors = []error{
	domain.ErrMissingFields,
	domain.ErrDuplicateUser,
	domain.ErrInvalidCredentials,
	domain.ErrUserNotFound,
	domain.ErrMissingMessage,
	domain.ErrSecretTooLong,
}

// writeError maps a service error to a status code and a safe message
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			response.BadRequest(w, target.Error())
			return
		}
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		response.Unauthorized(w, domain.ErrUnauthorized.Error())
	case errors.Is(err, domain.ErrInvalidToken):
		response.Forbidden(w, domain.ErrInvalidToken.Error())
	case errors.Is(err, domain.ErrUpstream):
		response.BadGateway(w, upstreamMessage)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		response.InternalError(w, "internal error")
	}
}

// validationError turns validator output into a response message.
// Any missing required field collapses into fallback.
func validationError(err error, fallback error) any {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	fields := make(map[string]string)
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			return fallback.Error()
		case "max":
			fields[e.Field()] = "must be at most " + e.Param() + " characters"
		default:
			fields[e.Field()] = "validation failed on " + e.Tag()
		}
	}
	return fields
}
