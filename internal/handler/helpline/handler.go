package helpline

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindhaven/backend/internal/model/helpline"
	"github.com/zhouzirui/mindhaven/backend/pkg/utils"
)

// Handler helpline目录的HTTP处理器
type Handler struct {
	helplines helpline.Store
	active    string
}

// New 创建helpline处理器，active 为当前用于危机回复的地区
func New(helplines helpline.Store, active string) *Handler {
	return &Handler{helplines: helplines, active: active}
}

// RegisterRoutes 注册helpline相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/helplines", h.handleListHelplines)
}

// handleListHelplines 列出所有helpline
func (h *Handler) handleListHelplines(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"active":    h.active,
		"helplines": h.helplines.List(),
	})
}
