package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lsoni680/ai-chatbot-new/internal/config"
	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

type exchangeDocument struct {
	ID        string    `bson:"id"`
	Prompt    string    `bson:"prompt"`
	Reply     string    `bson:"reply"`
	CreatedAt time.Time `bson:"created_at"`
}

type userDocument struct {
	ID         string             `bson:"_id"`
	Identifier string             `bson:"identifier"`
	SecretHash string             `bson:"secret_hash"`
	History    []exchangeDocument `bson:"history"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

// UserRepository implements domain.UserRepository with one document per
// user and the history embedded as an array
type UserRepository struct {
	client *mongo.Client
	users  *mongo.Collection
}

// Connect opens the client, verifies it and ensures the unique identifier index
func Connect(ctx context.Context, cfg config.MongoConfig) (*UserRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	users := client.Database(cfg.Database).Collection(usersCollection)

	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "identifier", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_identifier"),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create identifier index: %w", err)
	}

	return &UserRepository{client: client, users: users}, nil
}

func (r *UserRepository) Find(ctx context.Context, identifier string) (*domain.User, error) {
	var doc userDocument
	err := r.users.FindOne(ctx, bson.M{"identifier": identifier}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toDomain()
}

func (r *UserRepository) Create(ctx context.Context, identifier, secretHash string) (*domain.User, error) {
	now := time.Now().UTC()
	doc := userDocument{
		ID:         uuid.NewString(),
		Identifier: identifier,
		SecretHash: secretHash,
		History:    []exchangeDocument{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return doc.toDomain()
}

func (r *UserRepository) AppendExchange(ctx context.Context, identifier, prompt, reply string) error {
	ex := domain.NewExchange(prompt, reply)
	update := bson.M{"$push": bson.M{"history": exchangeDocument{
		ID:        ex.ID.String(),
		Prompt:    ex.Prompt,
		Reply:     ex.Reply,
		CreatedAt: ex.CreatedAt,
	}}}

	// No match means no such user, which is not an error here
	if _, err := r.users.UpdateOne(ctx, bson.M{"identifier": identifier}, update); err != nil {
		return fmt.Errorf("failed to append exchange: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateSecret(ctx context.Context, identifier, secretHash string) error {
	update := bson.M{"$set": bson.M{
		"secret_hash": secretHash,
		"updated_at":  time.Now().UTC(),
	}}

	res, err := r.users.UpdateOne(ctx, bson.M{"identifier": identifier}, update)
	if err != nil {
		return fmt.Errorf("failed to update secret: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) History(ctx context.Context, identifier string) ([]domain.Exchange, error) {
	user, err := r.Find(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return []domain.Exchange{}, nil
		}
		return nil, err
	}
	return user.History, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *UserRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (d userDocument) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", d.ID, err)
	}

	history := make([]domain.Exchange, 0, len(d.History))
	for _, e := range d.History {
		exID, _ := uuid.Parse(e.ID)
		history = append(history, domain.Exchange{
			ID:        exID,
			Prompt:    e.Prompt,
			Reply:     e.Reply,
			CreatedAt: e.CreatedAt,
		})
	}

	return &domain.User{
		ID:         id,
		Identifier: d.Identifier,
		SecretHash: d.SecretHash,
		History:    history,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}
