package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	userKeyPrefix    = "chat:user:"
	historyKeyPrefix = "chat:history:"
)

// Each script checks existence and mutates in one step
var (
	createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'id', ARGV[1], 'secret_hash', ARGV[2], 'created_at', ARGV[3], 'updated_at', ARGV[3])
return 1
`)

	appendScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
return redis.call('RPUSH', KEYS[2], ARGV[1])
`)

	updateSecretScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], 'secret_hash', ARGV[1], 'updated_at', ARGV[2])
return 1
`)
)

// UserRepository implements domain.UserRepository with a hash per user and
// a list of JSON encoded exchanges
type UserRepository struct {
	client *Client
}

// NewUserRepository creates a new user repository
func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

func userKey(identifier string) string    { return userKeyPrefix + identifier }
func historyKey(identifier string) string { return historyKeyPrefix + identifier }

func (r *UserRepository) Find(ctx context.Context, identifier string) (*domain.User, error) {
	fields, err := r.client.rdb.HGetAll(ctx, userKey(identifier)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrUserNotFound
	}

	id, err := uuid.Parse(fields["id"])
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, fields["created_at"])
	updatedAt, _ := time.Parse(time.RFC3339Nano, fields["updated_at"])

	history, err := r.History(ctx, identifier)
	if err != nil {
		return nil, err
	}

	return &domain.User{
		ID:         id,
		Identifier: identifier,
		SecretHash: fields["secret_hash"],
		History:    history,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

func (r *UserRepository) Create(ctx context.Context, identifier, secretHash string) (*domain.User, error) {
	now := time.Now().UTC()
	u := &domain.User{
		ID:         uuid.New(),
		Identifier: identifier,
		SecretHash: secretHash,
		History:    []domain.Exchange{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, err := createScript.Run(ctx, r.client.rdb,
		[]string{userKey(identifier)},
		u.ID.String(), secretHash, now.Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if created == 0 {
		return nil, domain.ErrDuplicateUser
	}

	return u, nil
}

func (r *UserRepository) AppendExchange(ctx context.Context, identifier, prompt, reply string) error {
	data, err := json.Marshal(domain.NewExchange(prompt, reply))
	if err != nil {
		return fmt.Errorf("failed to marshal exchange: %w", err)
	}

	err = appendScript.Run(ctx, r.client.rdb,
		[]string{userKey(identifier), historyKey(identifier)},
		data,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to append exchange: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateSecret(ctx context.Context, identifier, secretHash string) error {
	updated, err := updateSecretScript.Run(ctx, r.client.rdb,
		[]string{userKey(identifier)},
		secretHash, time.Now().UTC().Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to update secret: %w", err)
	}
	if updated == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) History(ctx context.Context, identifier string) ([]domain.Exchange, error) {
	items, err := r.client.rdb.LRange(ctx, historyKey(identifier), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}

	history := make([]domain.Exchange, 0, len(items))
	for _, item := range items {
		var e domain.Exchange
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal exchange: %w", err)
		}
		history = append(history, e)
	}
	return history, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.client.rdb.Ping(ctx).Err()
}

func (r *UserRepository) Close() error {
	return r.client.Close()
}
