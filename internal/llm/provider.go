package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
)

// Gateway sends one system/user prompt pair to a completion provider
type Gateway interface {
	// Name returns the provider identifier
	Name() string

	// Complete returns the whole reply in one piece
	Complete(ctx context.Context, system, user string) (string, error)

	// Stream returns the reply as a sequence of text fragments
	Stream(ctx context.Context, system, user string) (Stream, error)
}

// Stream yields reply fragments in emission order.
//
// Next returns io.EOF once the provider reports completion and an error
// wrapping domain.ErrUpstream on any failure. Close releases the upstream
// connection and is safe to call at any point, including mid-stream.
type Stream interface {
	Next() (string, error)
	Close() error
}

// Upstream wraps err as a provider failure
func Upstream(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrUpstream, provider, err)
}

// Upstreamf creates a provider failure from a message
func Upstreamf(provider, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", domain.ErrUpstream, provider, fmt.Sprintf(format, args...))
}

// maxErrorBody caps how much of a failed response is kept for the log
const maxErrorBody = 1024

// StatusError builds an upstream error from a non-200 response
func StatusError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return Upstreamf(provider, "returned status %d", resp.StatusCode)
	}
	return Upstreamf(provider, "returned status %d: %s", resp.StatusCode, msg)
}

// Collect drains a stream into a single string and closes it
func Collect(s Stream) (string, error) {
	defer s.Close()

	var sb strings.Builder
	for {
		fragment, err := s.Next()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(fragment)
	}
}
