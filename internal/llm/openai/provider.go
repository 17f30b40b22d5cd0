package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Lsoni680/ai-chatbot-new/internal/config"
	"github.com/Lsoni680/ai-chatbot-new/internal/llm"
)

const (
	defaultModel   = "gpt-4.1-mini"
	defaultBaseURL = "https://api.openai.com/v1"
	doneSentinel   = "[DONE]"
)

// Provider implements llm.Gateway for the OpenAI chat completions API and
// any service that speaks the same protocol
type Provider struct {
	name    string
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewProvider creates a new OpenAI provider
func NewProvider(cfg config.OpenAIConfig) *Provider {
	return NewCompatible("openai", cfg.APIKey, cfg.Model, cfg.BaseURL)
}

// NewCompatible creates a provider for an OpenAI-compatible endpoint
func NewCompatible(name, apiKey, model, baseURL string) *Provider {
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		name:    name,
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		// Deadlines come from the request context, a client timeout would cut long streams
		client: &http.Client{},
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return p.name
}

// Model returns the configured model
func (p *Provider) Model() string {
	return p.model
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete returns the whole reply in one response
func (p *Provider) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.do(ctx, system, user, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", llm.Upstream(p.name, fmt.Errorf("failed to decode response: %w", err))
	}

	if len(chatResp.Choices) == 0 {
		return "", llm.Upstreamf(p.name, "no choices in response")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Stream opens a server-sent event stream of reply deltas
func (p *Provider) Stream(ctx context.Context, system, user string) (llm.Stream, error) {
	resp, err := p.do(ctx, system, user, true)
	if err != nil {
		return nil, err
	}

	return &stream{
		name:   p.name,
		body:   resp.Body,
		reader: llm.NewSSEReader(resp.Body),
	}, nil
}

func (p *Provider) do(ctx context.Context, system, user string, streaming bool) (*http.Response, error) {
	chatReq := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: streaming,
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	if streaming {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, llm.Upstream(p.name, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, llm.StatusError(p.name, resp)
	}

	return resp, nil
}

type stream struct {
	name     string
	body     io.ReadCloser
	reader   *llm.SSEReader
	finished bool
	done     bool
}

func (s *stream) Next() (string, error) {
	for {
		if s.done {
			return "", io.EOF
		}

		_, data, err := s.reader.ReadEvent()
		if err == io.EOF {
			// Some compatible servers omit [DONE] after the final chunk
			if s.finished {
				s.done = true
				return "", io.EOF
			}
			return "", llm.Upstreamf(s.name, "stream ended unexpectedly")
		}
		if err != nil {
			return "", llm.Upstream(s.name, err)
		}

		if string(data) == doneSentinel {
			s.done = true
			return "", io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return "", llm.Upstream(s.name, fmt.Errorf("malformed chunk: %w", err))
		}
		if chunk.Error != nil {
			return "", llm.Upstreamf(s.name, "%s", chunk.Error.Message)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			s.finished = true
		}
		if choice.Delta.Content == "" {
			continue
		}
		return choice.Delta.Content, nil
	}
}

func (s *stream) Close() error {
	s.done = true
	return s.body.Close()
}
