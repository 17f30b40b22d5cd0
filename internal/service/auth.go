package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/Lsoni680/ai-chatbot-new/internal/security"
	"github.com/rs/zerolog/log"
)

// AuthService handles registration, login and session tokens
type AuthService struct {
	users      domain.UserRepository
	jwtManager *security.JWTManager
	hasher     *security.PasswordHasher
}

// NewAuthService creates a new auth service
func NewAuthService(
	users domain.UserRepository,
	jwtManager *security.JWTManager,
	hasher *security.PasswordHasher,
) *AuthService {
	return &AuthService{
		users:      users,
		jwtManager: jwtManager,
		hasher:     hasher,
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, identifier, secret string) (*domain.User, error) {
	if identifier == "" || secret == "" {
		return nil, domain.ErrMissingFields
	}
	if len(secret) > security.MaxSecretBytes {
		return nil, domain.ErrSecretTooLong
	}

	// Cheap early exit; Create still enforces uniqueness under races
	if _, err := s.users.Find(ctx, identifier); err == nil {
		return nil, domain.ErrDuplicateUser
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, identifier, hash)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUser) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Msg("User registered")
	return user, nil
}

// Login authenticates a user and returns a session token
func (s *AuthService) Login(ctx context.Context, identifier, secret string) (string, error) {
	if identifier == "" || secret == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.users.Find(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same bcrypt cost as a real comparison
			s.hasher.VerifyDummy(secret)
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(user.SecretHash, secret) {
		return "", domain.ErrInvalidCredentials
	}

	return s.IssueToken(user.Identifier)
}

// IssueToken signs a session token for identifier
func (s *AuthService) IssueToken(identifier string) (string, error) {
	token, err := s.jwtManager.GenerateToken(identifier)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// VerifyToken returns the identifier carried by a valid token.
// The store is not consulted.
func (s *AuthService) VerifyToken(token string) (string, error) {
	if token == "" {
		return "", domain.ErrUnauthorized
	}

	identifier, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return identifier, nil
}

// ResetSecret replaces a user's secret.
// It requires no proof of identity; anyone who knows the identifier can call it.
func (s *AuthService) ResetSecret(ctx context.Context, identifier, newSecret string) error {
	if identifier == "" || newSecret == "" {
		return domain.ErrMissingFields
	}
	if len(newSecret) > security.MaxSecretBytes {
		return domain.ErrSecretTooLong
	}

	if _, err := s.users.Find(ctx, identifier); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	hash, err := s.hasher.Hash(newSecret)
	if err != nil {
		return err
	}

	if err := s.users.UpdateSecret(ctx, identifier, hash); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to update secret: %w", err)
	}

	log.Warn().Msg("Secret reset without authentication")
	return nil
}
