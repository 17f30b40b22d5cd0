package ollama

import (
	"bufio"
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
	name         = "ollama"
	defaultModel = "llama3"
	defaultHost  = "http://localhost:11434"
)

// Provider implements llm.Gateway for a local Ollama server
type Provider struct {
	host   string
	model  string
	client *http.Client
}

// NewProvider creates a new Ollama provider
func NewProvider(cfg config.OllamaConfig) *Provider {
	host := cfg.Host
	if host == "" {
		host = defaultHost
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		client: &http.Client{},
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return name
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

// chatResponse is one NDJSON line of /api/chat, or the whole body when not streaming
type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
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
		return "", llm.Upstream(name, fmt.Errorf("failed to decode response: %w", err))
	}
	if chatResp.Error != "" {
		return "", llm.Upstreamf(name, "%s", chatResp.Error)
	}

	return chatResp.Message.Content, nil
}

// Stream opens a newline-delimited JSON stream of reply fragments
func (p *Provider) Stream(ctx context.Context, system, user string) (llm.Stream, error) {
	resp, err := p.do(ctx, system, user, true)
	if err != nil {
		return nil, err
	}

	return &stream{
		body:   resp.Body,
		reader: bufio.NewReader(resp.Body),
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

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
	reader *bufio.Reader
	done   bool
}

func (s *stream) Next() (string, error) {
	for {
		if s.done {
			return "", io.EOF
		}

		line, err := s.reader.ReadBytes('\n')
		if err != nil && (err != io.EOF || len(bytes.TrimSpace(line)) == 0) {
			if err == io.EOF {
				return "", llm.Upstreamf(name, "stream ended before done")
			}
			return "", llm.Upstream(name, err)
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var chunk chatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", llm.Upstream(name, fmt.Errorf("malformed chunk: %w", err))
		}
		if chunk.Error != "" {
			return "", llm.Upstreamf(name, "%s", chunk.Error)
		}
		if chunk.Done {
			s.done = true
			if chunk.Message.Content != "" {
				return chunk.Message.Content, nil
			}
			return "", io.EOF
		}
		if chunk.Message.Content == "" {
			continue
		}
		return chunk.Message.Content, nil
	}
}

func (s *stream) Close() error {
	s.done = true
	return s.body.Close()
}
