// Package memory provides the in-process user store used by default.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/google/uuid"
)

// UserRepository implements domain.UserRepository on a guarded map.
// Nothing survives a restart.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewUserRepository creates an empty store
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func (r *UserRepository) Find(ctx context.Context, identifier string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[identifier]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) Create(ctx context.Context, identifier, secretHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[identifier]; exists {
		return nil, domain.ErrDuplicateUser
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:         uuid.New(),
		Identifier: identifier,
		SecretHash: secretHash,
		History:    []domain.Exchange{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.users[identifier] = u

	return clone(u), nil
}

func (r *UserRepository) AppendExchange(ctx context.Context, identifier, prompt, reply string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[identifier]
	if !ok {
		return nil
	}
	u.History = append(u.History, domain.NewExchange(prompt, reply))
	return nil
}

func (r *UserRepository) UpdateSecret(ctx context.Context, identifier, secretHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[identifier]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.SecretHash = secretHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) History(ctx context.Context, identifier string) ([]domain.Exchange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[identifier]
	if !ok {
		return []domain.Exchange{}, nil
	}
	out := make([]domain.Exchange, len(u.History))
	copy(out, u.History)
	return out, nil
}

// Count returns the number of stored users
func (r *UserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *UserRepository) Ping(ctx context.Context) error { return nil }

func (r *UserRepository) Close() error { return nil }

func clone(u *domain.User) *domain.User {
	c := *u
	c.History = make([]domain.Exchange, len(u.History))
	copy(c.History, u.History)
	return &c
}
