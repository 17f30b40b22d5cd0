package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/Lsoni680/ai-chatbot-new/internal/llm"
	"github.com/rs/zerolog/log"
)

// DefaultSystemPrompt is sent when none is configured
const DefaultSystemPrompt = "You are a helpful chatbot."

// FragmentSink receives reply fragments as they arrive.
// A write error means the caller went away.
type FragmentSink interface {
	WriteFragment(fragment string) error
}

// FragmentSinkFunc adapts a function to FragmentSink
type FragmentSinkFunc func(fragment string) error

func (f FragmentSinkFunc) WriteFragment(fragment string) error {
	return f(fragment)
}

// ChatService relays chat messages to the completion gateway and records history
type ChatService struct {
	users        domain.UserRepository
	gateway      llm.Gateway
	systemPrompt string
	timeout      time.Duration
}

// NewChatService creates a new chat service.
// A zero timeout leaves the upstream call bounded only by the caller's context.
func NewChatService(users domain.UserRepository, gateway llm.Gateway, systemPrompt string, timeout time.Duration) *ChatService {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &ChatService{
		users:        users,
		gateway:      gateway,
		systemPrompt: systemPrompt,
		timeout:      timeout,
	}
}

func (s *ChatService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Relay streams the reply to message into sink fragment by fragment.
// The exchange is stored only when the upstream stream completes normally;
// upstream failure, sink failure and cancellation leave history untouched.
func (s *ChatService) Relay(ctx context.Context, identifier, message string, sink FragmentSink) (*domain.Exchange, error) {
	if strings.TrimSpace(message) == "" {
		return nil, domain.ErrMissingMessage
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	stream, err := s.gateway.Stream(ctx, s.systemPrompt, message)
	if err != nil {
		return nil, s.upstreamFailure(ctx, err)
	}
	defer stream.Close()

	var reply strings.Builder
	fragments := 0
	for {
		fragment, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().
				Str("provider", s.gateway.Name()).
				Int("fragments", fragments).
				Msg("Stream aborted before completion")
			return nil, s.upstreamFailure(ctx, err)
		}

		if err := sink.WriteFragment(fragment); err != nil {
			return nil, fmt.Errorf("failed to forward fragment: %w", err)
		}
		reply.WriteString(fragment)
		fragments++
	}

	exchange := domain.NewExchange(message, reply.String())
	if err := s.users.AppendExchange(ctx, identifier, exchange.Prompt, exchange.Reply); err != nil {
		return nil, fmt.Errorf("failed to save exchange: %w", err)
	}

	log.Debug().
		Str("provider", s.gateway.Name()).
		Int("fragments", fragments).
		Dur("latency", time.Since(start)).
		Msg("Chat exchange completed")

	return &exchange, nil
}

// Ask returns the whole reply in one piece and stores the exchange
func (s *ChatService) Ask(ctx context.Context, identifier, message string) (*domain.ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, domain.ErrMissingMessage
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	reply, err := s.gateway.Complete(ctx, s.systemPrompt, message)
	if err != nil {
		return nil, s.upstreamFailure(ctx, err)
	}

	if err := s.users.AppendExchange(ctx, identifier, message, reply); err != nil {
		return nil, fmt.Errorf("failed to save exchange: %w", err)
	}

	return &domain.ChatReply{Reply: reply}, nil
}

// History returns the user's exchanges oldest first, empty for unknown users
func (s *ChatService) History(ctx context.Context, identifier string) ([]domain.Exchange, error) {
	history, err := s.users.History(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	if history == nil {
		history = []domain.Exchange{}
	}
	return history, nil
}

// upstreamFailure classifies a gateway error. A cancelled caller is reported
// as context.Canceled; everything else, including the relay timeout, as ErrUpstream.
func (s *ChatService) upstreamFailure(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	log.Error().Err(err).Str("provider", s.gateway.Name()).Msg("Completion request failed")
	if errors.Is(err, domain.ErrUpstream) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
}
