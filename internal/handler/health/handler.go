package health

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindhaven/backend/pkg/utils"
)

// Status describes the running backend.
type Status struct {
	Status     string `json:"status"`
	Store      string `json:"store"`
	Classifier string `json:"classifier"`
}

// Handler reports liveness.
type Handler struct {
	status Status
}

// New creates a health handler for the given store backend and classifier mode.
func New(store, classifier string) *Handler {
	return &Handler{status: Status{Status: "ok", Store: store, Classifier: classifier}}
}

// RegisterRoutes registers GET /health.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, h.status)
	})
}
