package domain

import (
	"time"

	"github.com/google/uuid"
)

// Exchange is one stored prompt/reply pair of a user's history
type Exchange struct {
	ID        uuid.UUID `json:"-"`
	Prompt    string    `json:"prompt"`
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"created_at"`
}

// NewExchange creates an exchange stamped with the current time
func NewExchange(prompt, reply string) Exchange {
	return Exchange{
		ID:        uuid.New(),
		Prompt:    prompt,
		Reply:     reply,
		CreatedAt: time.Now().UTC(),
	}
}

// ChatRequest is the body of a chat call
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatReply is the body of a single-shot chat response
type ChatReply struct {
	Reply string `json:"reply"`
}
