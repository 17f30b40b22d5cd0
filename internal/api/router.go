package api

import (
	"net/http"

	"github.com/Lsoni680/ai-chatbot-new/internal/api/handler"
	customMiddleware "github.com/Lsoni680/ai-chatbot-new/internal/api/middleware"
	"github.com/Lsoni680/ai-chatbot-new/internal/config"
	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/Lsoni680/ai-chatbot-new/internal/llm"
	"github.com/Lsoni680/ai-chatbot-new/internal/security"
	"github.com/Lsoni680/ai-chatbot-new/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, users domain.UserRepository, gateway llm.Gateway) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID", handler.StreamStatusTrailer},
		MaxAge:         300,
	}))

	// Initialize security components
	jwtManager := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := security.NewPasswordHasher(cfg.Auth.BcryptCost)

	// Initialize services
	authService := service.NewAuthService(users, jwtManager, hasher)
	chatService := service.NewChatService(users, gateway, cfg.LLM.SystemPrompt, cfg.LLM.RequestTimeout)

	log.Info().
		Str("provider", gateway.Name()).
		Dur("request_timeout", cfg.LLM.RequestTimeout).
		Msg("Chat relay configured")

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)

	// Auth middleware
	authMiddleware := customMiddleware.NewAuthMiddleware(authService)

	r.Get("/", handler.Root)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(users))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/reset", authHandler.ResetSecret)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/history", chatHandler.History)
			r.Post("/chat", chatHandler.Chat)
			r.Post("/chat/complete", chatHandler.Complete)
		})
	})

	return r
}
