package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// UserRepository implements domain.UserRepository on PostgreSQL
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Find retrieves a user and its history by identifier
func (r *UserRepository) Find(ctx context.Context, identifier string) (*domain.User, error) {
	query := `
		SELECT id, identifier, secret_hash, created_at, updated_at
		FROM users
		WHERE identifier = $1
	`
	var u domain.User
	err := r.db.Pool.QueryRow(ctx, query, identifier).Scan(
		&u.ID,
		&u.Identifier,
		&u.SecretHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	history, err := r.History(ctx, identifier)
	if err != nil {
		return nil, err
	}
	u.History = history

	return &u, nil
}

// Create inserts a new user; the unique constraint settles concurrent registrations
func (r *UserRepository) Create(ctx context.Context, identifier, secretHash string) (*domain.User, error) {
	query := `
		INSERT INTO users (id, identifier, secret_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	now := time.Now().UTC()
	u := &domain.User{
		ID:         uuid.New(),
		Identifier: identifier,
		SecretHash: secretHash,
		History:    []domain.Exchange{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := r.db.Pool.Exec(ctx, query, u.ID, u.Identifier, u.SecretHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

// AppendExchange stores an exchange; unknown identifiers insert nothing
func (r *UserRepository) AppendExchange(ctx context.Context, identifier, prompt, reply string) error {
	query := `
		INSERT INTO exchanges (id, user_id, prompt, reply, created_at)
		SELECT $1::uuid, id, $3::text, $4::text, $5::timestamptz FROM users WHERE identifier = $2
	`
	ex := domain.NewExchange(prompt, reply)
	_, err := r.db.Pool.Exec(ctx, query, ex.ID, identifier, ex.Prompt, ex.Reply, ex.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append exchange: %w", err)
	}
	return nil
}

// UpdateSecret replaces the secret hash
func (r *UserRepository) UpdateSecret(ctx context.Context, identifier, secretHash string) error {
	query := `
		UPDATE users
		SET secret_hash = $1, updated_at = $2
		WHERE identifier = $3
	`
	tag, err := r.db.Pool.Exec(ctx, query, secretHash, time.Now().UTC(), identifier)
	if err != nil {
		return fmt.Errorf("failed to update secret: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// History lists a user's exchanges in insertion order
func (r *UserRepository) History(ctx context.Context, identifier string) ([]domain.Exchange, error) {
	query := `
		SELECT e.id, e.prompt, e.reply, e.created_at
		FROM exchanges e
		JOIN users u ON u.id = e.user_id
		WHERE u.identifier = $1
		ORDER BY e.seq ASC
	`
	rows, err := r.db.Pool.Query(ctx, query, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	defer rows.Close()

	history := []domain.Exchange{}
	for rows.Next() {
		var e domain.Exchange
		if err := rows.Scan(&e.ID, &e.Prompt, &e.Reply, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		history = append(history, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read exchanges: %w", err)
	}

	return history, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *UserRepository) Close() error {
	r.db.Close()
	return nil
}
