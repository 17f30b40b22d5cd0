package anthropic

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
	name           = "anthropic"
	apiVersion     = "2023-06-01"
	defaultModel   = "claude-3-5-sonnet-20241022"
	defaultBaseURL = "https://api.anthropic.com/v1"
	maxTokens      = 4096
)

// Provider implements llm.Gateway for the Anthropic messages API
type Provider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewProvider creates a new Anthropic provider
func NewProvider(cfg config.AnthropicConfig) *Provider {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return name
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
	Stream    bool      `json:"stream"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete returns the whole reply in one response
func (p *Provider) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.do(ctx, system, user, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var msgResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return "", llm.Upstream(name, fmt.Errorf("failed to decode response: %w", err))
	}

	var sb strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// Stream opens a server-sent event stream of content block deltas
func (p *Provider) Stream(ctx context.Context, system, user string) (llm.Stream, error) {
	resp, err := p.do(ctx, system, user, true)
	if err != nil {
		return nil, err
	}

	return &stream{body: resp.Body, reader: llm.NewSSEReader(resp.Body)}, nil
}

func (p *Provider) do(ctx context.Context, system, user string, streaming bool) (*http.Response, error) {
	msgReq := messagesRequest{
		Model:     p.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: user}},
		Stream:    streaming,
	}

	body, err := json.Marshal(msgReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, llm.Upstream(name, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, llm.StatusError(name, resp)
	}

	return resp, nil
}

type stream struct {
	body   io.ReadCloser
	reader *llm.SSEReader
	done   bool
}

func (s *stream) Next() (string, error) {
	for {
		if s.done {
			return "", io.EOF
		}

		eventType, data, err := s.reader.ReadEvent()
		if err == io.EOF {
			return "", llm.Upstreamf(name, "stream ended before message_stop")
		}
		if err != nil {
			return "", llm.Upstream(name, err)
		}

		var ev streamEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return "", llm.Upstream(name, fmt.Errorf("malformed event: %w", err))
		}
		if ev.Type == "" {
			ev.Type = eventType
		}

		switch ev.Type {
		case "content_block_delta":
			if ev.Delta.Type == "text_delta" && ev.Delta.Text != "" {
				return ev.Delta.Text, nil
			}
		case "message_stop":
			s.done = true
			return "", io.EOF
		case "error":
			return "", llm.Upstreamf(name, "%s: %s", ev.Error.Type, ev.Error.Message)
		}
		// message_start, content_block_start/stop, message_delta and ping carry no text
	}
}

func (s *stream) Close() error {
	s.done = true
	return s.body.Close()
}
