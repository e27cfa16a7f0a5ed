package stream

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindfulme/backend/internal/middleware"
	chatService "github.com/zhouzirui/mindfulme/backend/internal/service/chat"
	"github.com/zhouzirui/mindfulme/backend/pkg/utils"
)

// Handler manages streaming chat replies via Server-Sent Events
type Handler struct {
	chatSvc *chatService.Service
	log     zerolog.Logger
}

// New creates a new stream handler
func New(chatSvc *chatService.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		log:     logger,
	}
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event    string             `json:"event"`
	Content  string             `json:"content,omitempty"`
	Reply    *chatService.Reply `json:"reply,omitempty"`
	Finished bool               `json:"finished,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// RegisterRoutes registers the stream endpoint (requires a signed-in user)
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/stream", h.handleStream)
}

// handleStream sends start, zero or more delta, message and end events.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	userMessage := strings.TrimSpace(r.URL.Query().Get("message"))
	if userMessage == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	caller, _ := middleware.UserFromContext(ctx)
	log := h.log.With().Str("user_id", caller.ID).Logger()

	if err := h.send(w, flusher, StreamResponse{Event: "start"}); err != nil {
		return
	}

	reply, err := h.chatSvc.Stream(ctx, caller.Name, userMessage, func(delta string) error {
		return h.send(w, flusher, StreamResponse{Event: "delta", Content: delta})
	})
	if err != nil {
		if errors.Is(err, chatService.ErrEmptyMessage) {
			_ = h.send(w, flusher, StreamResponse{Event: "error", Error: err.Error()})
			return
		}
		log.Debug().Err(err).Msg("client went away during stream")
		return
	}

	if err := h.send(w, flusher, StreamResponse{Event: "message", Content: reply.Bot.Text, Reply: &reply}); err != nil {
		return
	}
	_ = h.send(w, flusher, StreamResponse{Event: "end", Finished: true})

	log.Debug().Str("source", string(reply.Source)).Msg("stream completed")
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) error {
	return utils.SendSSEChunk(w, flusher, response)
}
