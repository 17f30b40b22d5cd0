package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Lsoni680/ai-chatbot-new/internal/config"
	"github.com/Lsoni680/ai-chatbot-new/internal/llm"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const (
	name         = "gemini"
	defaultModel = "gemini-2.5-flash"
)

type Provider struct {
	apiKey string
	model  string
	opts   []option.ClientOption
}

func NewProvider(cfg config.GeminiConfig, opts ...option.ClientOption) *Provider {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		apiKey: cfg.APIKey,
		model:  model,
		opts:   opts,
	}
}

func (p *Provider) Name() string {
	return name
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

func (p *Provider) newModel(ctx context.Context, system string) (*genai.Client, *genai.GenerativeModel, error) {
	if !p.IsConfigured() {
		return nil, nil, llm.Upstreamf(name, "provider is not configured (missing API key)")
	}

	opts := append([]option.ClientOption{option.WithAPIKey(p.apiKey)}, p.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, llm.Upstream(name, fmt.Errorf("failed to create client: %w", err))
	}

	model := client.GenerativeModel(p.model)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	return client, model, nil
}

func (p *Provider) Complete(ctx context.Context, system, user string) (string, error) {
	client, model, err := p.newModel(ctx, system)
	if err != nil {
		return "", err
	}
	defer client.Close()

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", llm.Upstream(name, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", llm.Upstreamf(name, "empty response")
	}
	return textOf(resp), nil
}

func (p *Provider) Stream(ctx context.Context, system, user string) (llm.Stream, error) {
	client, model, err := p.newModel(ctx, system)
	if err != nil {
		return nil, err
	}

	return &stream{
		client: client,
		iter:   model.GenerateContentStream(ctx, genai.Text(user)),
	}, nil
}

type stream struct {
	client *genai.Client
	iter   *genai.GenerateContentResponseIterator
	done   bool
}

func (s *stream) Next() (string, error) {
	for {
		if s.done {
			return "", io.EOF
		}

		resp, err := s.iter.Next()
		if errors.Is(err, iterator.Done) {
			s.done = true
			return "", io.EOF
		}
		if err != nil {
			return "", llm.Upstream(name, err)
		}

		if text := textOf(resp); text != "" {
			return text, nil
		}
	}
}

func (s *stream) Close() error {
	s.done = true
	return s.client.Close()
}

func textOf(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
