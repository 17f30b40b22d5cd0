package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Lsoni680/ai-chatbot-new/internal/api/response"
	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/Lsoni680/ai-chatbot-new/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input domain.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationError(err, domain.ErrMissingFields))
		return
	}

	if _, err := h.authService.Register(r.Context(), input.Identifier, input.Secret); err != nil {
		writeError(w, r, err)
		return
	}

	response.Message(w, http.StatusCreated, "registered")
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationError(err, domain.ErrInvalidCredentials))
		return
	}

	token, err := h.authService.Login(r.Context(), input.Identifier, input.Secret)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, map[string]string{"token": token})
}

// ResetSecret handles secret replacement. The route is public.
func (h *AuthHandler) ResetSecret(w http.ResponseWriter, r *http.Request) {
	var input domain.SecretReset
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationError(err, domain.ErrMissingFields))
		return
	}

	if err := h.authService.ResetSecret(r.Context(), input.Identifier, input.NewSecret); err != nil {
		writeError(w, r, err)
		return
	}

	response.Message(w, http.StatusOK, "updated")
}
