package stream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	chatService "github.com/zhouzirui/mindhaven/backend/internal/service/chat"
	"github.com/zhouzirui/mindhaven/backend/pkg/utils"
)

// Handler delivers a single chat turn as Server-Sent Events so the page can
// show the detected emotion before the reply text.
type Handler struct {
	chatSvc *chatService.Service
	limit   func(http.Handler) http.Handler
}

// New creates a new stream handler. limit 为空时不限流。
func New(chatSvc *chatService.Service, limit func(http.Handler) http.Handler) *Handler {
	return &Handler{chatSvc: chatSvc, limit: limit}
}

// RegisterRoutes registers the SSE endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(limited chi.Router) {
		if h.limit != nil {
			limited.Use(h.limit)
		}
		limited.Get("/stream", func(w http.ResponseWriter, r *http.Request) {
			message := r.URL.Query().Get("message")
			if err := h.HandleStreamRequest(r.Context(), w, message); err != nil {
				log.Error().Str("component", "stream").Err(err).Msg("error handling request")
			}
		})
	})
}

// HandleStreamRequest processes one message and emits emotion, reply, stats
// and end events.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, message string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return fmt.Errorf("streaming unsupported")
	}

	outcome, err := h.chatSvc.Handle(ctx, message)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to process message")
		return err
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if outcome.Emotion != "" {
		utils.SendSSEEvent(w, flusher, "emotion", map[string]any{
			"emotion": outcome.Emotion,
			"crisis":  outcome.Crisis,
		})
	}
	utils.SendSSEEvent(w, flusher, "reply", map[string]any{
		"reply":  outcome.Reply,
		"crisis": outcome.Crisis,
	})
	utils.SendSSEEvent(w, flusher, "stats", outcome.Stats)
	utils.SendSSEEvent(w, flusher, "end", map[string]bool{"finished": true})

	log.Debug().Str("component", "stream").Str("emotion", string(outcome.Emotion)).Msg("stream completed")
	return nil
}
