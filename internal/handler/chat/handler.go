package chat

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	chatService "github.com/zhouzirui/mindhaven/backend/internal/service/chat"
	"github.com/zhouzirui/mindhaven/backend/pkg/utils"
)

// maxBodyBytes 限制聊天请求体大小
const maxBodyBytes = 64 << 10

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	limit   func(http.Handler) http.Handler
}

// New 创建聊天处理器。limit 为空时不限流。
func New(chatSvc *chatService.Service, limit func(http.Handler) http.Handler) *Handler {
	return &Handler{chatSvc: chatSvc, limit: limit}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(limited chi.Router) {
		if h.limit != nil {
			limited.Use(h.limit)
		}
		limited.Post("/chat", h.handleChat)
	})
	r.Get("/stats", h.handleStats)
	r.Get("/history", h.handleHistory)
}

type chatRequest struct {
	Message string `json:"message"`
}

// DecodeMessage 读取请求中的 message 字段；请求体缺失或格式错误时视为空消息。
func DecodeMessage(w http.ResponseWriter, r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	var payload chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		log.Debug().Str("component", "chat").Err(err).Msg("unreadable chat body, treating as empty message")
		return ""
	}
	return payload.Message
}

// handleChat 处理一条用户消息
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	message := DecodeMessage(w, r)

	outcome, err := h.chatSvc.Handle(r.Context(), message)
	if err != nil {
		log.Error().Str("component", "chat").Err(err).Msg("handle message failed")
		utils.RespondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	utils.RespondJSON(w, http.StatusOK, outcome)
}

// handleStats 返回情绪计数
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.chatSvc.Stats(r.Context())
	if err != nil {
		log.Error().Str("component", "chat").Err(err).Msg("load stats failed")
		utils.RespondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats)
}

// handleHistory 返回最近的对话记录
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.chatSvc.History(r.Context())
	if err != nil {
		log.Error().Str("component", "chat").Err(err).Msg("load history failed")
		utils.RespondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	utils.RespondJSON(w, http.StatusOK, history)
}
