package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/google/uuid"
)

// UserRepository implements domain.UserRepository over database/sql
type UserRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewUserRepository wraps an open database whose schema is already in place
func NewUserRepository(db *sql.DB, dialect Dialect) *UserRepository {
	return &UserRepository{db: db, dialect: dialect}
}

func (r *UserRepository) Find(ctx context.Context, identifier string) (*domain.User, error) {
	query := `
		SELECT id, identifier, secret_hash, created_at, updated_at
		FROM users
		WHERE identifier = ?
	`
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, identifier).Scan(
		&u.ID,
		&u.Identifier,
		&u.SecretHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

func (r *UserRepository) Create(ctx context.Context, identifier, secretHash string) (*domain.User, error) {
	query := `
		INSERT INTO users (id, identifier, secret_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
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

	_, err := r.db.ExecContext(ctx, query, u.ID, u.Identifier, u.SecretHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if r.dialect.IsUniqueViolation(err) {
			return nil, domain.ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (r *UserRepository) AppendExchange(ctx context.Context, identifier, prompt, reply string) error {
	query := `
		INSERT INTO exchanges (id, user_id, prompt, reply, created_at)
		SELECT ?, id, ?, ?, ? FROM users WHERE identifier = ?
	`
	ex := domain.NewExchange(prompt, reply)
	_, err := r.db.ExecContext(ctx, query, ex.ID, ex.Prompt, ex.Reply, ex.CreatedAt, identifier)
	if err != nil {
		return fmt.Errorf("failed to append exchange: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateSecret(ctx context.Context, identifier, secretHash string) error {
	query := `UPDATE users SET secret_hash = ?, updated_at = ? WHERE identifier = ?`

	res, err := r.db.ExecContext(ctx, query, secretHash, time.Now().UTC(), identifier)
	if err != nil {
		return fmt.Errorf("failed to update secret: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update secret: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) History(ctx context.Context, identifier string) ([]domain.Exchange, error) {
	query := `
		SELECT e.id, e.prompt, e.reply, e.created_at
		FROM exchanges e
		JOIN users u ON u.id = e.user_id
		WHERE u.identifier = ?
		ORDER BY e.seq ASC
	`
	rows, err := r.db.QueryContext(ctx, query, identifier)
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
	return r.db.PingContext(ctx)
}

func (r *UserRepository) Close() error {
	return r.db.Close()
}
