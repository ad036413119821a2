package demo

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	chathandler "github.com/zhouzirui/mindhaven/backend/internal/handler/chat"
	"github.com/zhouzirui/mindhaven/backend/pkg/utils"
)

// Handler is the stand-alone demo: an echo chat endpoint and a static page.
// It shares no state with the main backend.
type Handler struct {
	staticDir string
}

// New creates a demo handler serving index.html from staticDir.
func New(staticDir string) *Handler {
	if staticDir == "" {
		staticDir = "public"
	}
	return &Handler{staticDir: staticDir}
}

// RegisterRoutes registers POST /api/chat and GET /.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.handleChat)
	r.Get("/", h.handleIndex)
}

// EchoReply builds the demo reply for message.
func EchoReply(message string) string {
	return "Demo reply for: " + message
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	message := chathandler.DecodeMessage(w, r)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"reply": EchoReply(message)})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.staticDir, "index.html"))
}
