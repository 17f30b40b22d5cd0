package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Lsoni680/ai-chatbot-new/internal/api/middleware"
	"github.com/Lsoni680/ai-chatbot-new/internal/api/response"
	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/Lsoni680/ai-chatbot-new/internal/service"
	"github.com/rs/zerolog/log"
)

const (
	// StreamStatusTrailer reports how a chunked reply ended: ok or error
	StreamStatusTrailer = "X-Stream-Status"

	// StreamErrorMarker is appended to a reply cut short by an upstream failure
	StreamErrorMarker = "\n[error: " + upstreamMessage + "]"
)

// maxChatBody caps the JSON body of a chat request
const maxChatBody = 1 << 20

var errClientGone = errors.New("client connection lost")

// ChatHandler handles chat endpoints
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat streams the reply as chunked text/plain, flushing every fragment
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	identifier, ok := middleware.GetIdentifier(r.Context())
	if !ok {
		response.Unauthorized(w, domain.ErrUnauthorized.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)
	var input domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && err != io.EOF {
		response.BadRequest(w, "invalid request body")
		return
	}
	if strings.TrimSpace(input.Message) == "" {
		response.BadRequest(w, domain.ErrMissingMessage.Error())
		return
	}

	sw := newStreamWriter(w)
	_, err := h.chatService.Relay(r.Context(), identifier, input.Message, sw)
	switch {
	case err == nil:
		sw.finish("ok")

	case errors.Is(err, context.Canceled), errors.Is(err, errClientGone):
		log.Debug().Err(err).Str("request_path", r.URL.Path).Msg("Client left during stream")

	case !sw.started:
		writeError(w, r, err)

	default:
		// Headers are gone; report the failure inside the body and trailer
		if !errors.Is(err, domain.ErrUpstream) {
			log.Error().Err(err).Msg("Chat stream failed")
		}
		_ = sw.WriteFragment(StreamErrorMarker)
		sw.finish("error")
	}
}

// Complete returns the whole reply as JSON
func (h *ChatHandler) Complete(w http.ResponseWriter, r *http.Request) {
	identifier, ok := middleware.GetIdentifier(r.Context())
	if !ok {
		response.Unauthorized(w, domain.ErrUnauthorized.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)
	var input domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && err != io.EOF {
		response.BadRequest(w, "invalid request body")
		return
	}

	reply, err := h.chatService.Ask(r.Context(), identifier, input.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, reply)
}

// History lists the caller's exchanges oldest first
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	identifier, ok := middleware.GetIdentifier(r.Context())
	if !ok {
		response.Unauthorized(w, domain.ErrUnauthorized.Error())
		return
	}

	history, err := h.chatService.History(r.Context(), identifier)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, history)
}

// streamWriter forwards fragments to the client and commits the 200 status
// on the first write
type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func newStreamWriter(w http.ResponseWriter) *streamWriter {
	flusher, _ := w.(http.Flusher)
	return &streamWriter{w: w, flusher: flusher}
}

func (s *streamWriter) start() {
	if s.started {
		return
	}
	s.started = true

	h := s.w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Trailer", StreamStatusTrailer)
	s.w.WriteHeader(http.StatusOK)
}

func (s *streamWriter) WriteFragment(fragment string) error {
	s.start()
	if _, err := io.WriteString(s.w, fragment); err != nil {
		return errors.Join(errClientGone, err)
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

func (s *streamWriter) finish(status string) {
	s.start()
	s.w.Header().Set(StreamStatusTrailer, status)
}
