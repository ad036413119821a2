package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/mindhaven/backend/internal/middleware"
	chatservice "github.com/zhouzirui/mindhaven/backend/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// WebSocketHandler WebSocket聊天处理器
type WebSocketHandler struct {
	chatSvc  *chatservice.Service
	limiter  *middleware.RateLimiter
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器。limiter 为空时不限流；
// allowedOrigin 为空或 "*" 时接受任意 Origin。
func NewWebSocketHandler(chatSvc *chatservice.Service, limiter *middleware.RateLimiter, allowedOrigin string) *WebSocketHandler {
	return &WebSocketHandler{
		chatSvc: chatSvc,
		limiter: limiter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return middleware.OriginAllowed(allowedOrigin, r.Header.Get("Origin"))
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type         string      `json:"type"`
	ConnectionID string      `json:"connectionId,omitempty"`
	Data         interface{} `json:"data,omitempty"`
	Timestamp    int64       `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.chatSvc == nil {
		http.Error(w, "chat service unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Str("component", "ws").Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	clientKey := middleware.ClientKey(r)
	connID := uuid.NewString()
	logger := log.With().Str("component", "ws").Str("connection", connID).Logger()
	logger.Info().Msg("new connection")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.send(conn, logger, outgoingMessage{
		Type:         "connected",
		ConnectionID: connID,
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warn().Err(err).Msg("read error")
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(readTimeout))
			h.handleMessage(ctx, conn, logger, clientKey, &msg)
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *websocket.Conn, logger zerolog.Logger, clientKey string, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		if !h.limiter.Allow(clientKey) {
			logger.Warn().Str("client", clientKey).Msg("rate limit exceeded")
			h.sendError(conn, logger, "too many requests, please slow down")
			return
		}
		h.handleTextMessage(ctx, conn, logger, msg.Data)
	case "stats":
		stats, err := h.chatSvc.Stats(ctx)
		if err != nil {
			h.sendError(conn, logger, "failed to load stats")
			return
		}
		h.send(conn, logger, outgoingMessage{Type: "stats", Data: stats})
	default:
		h.sendError(conn, logger, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) handleTextMessage(ctx context.Context, conn *websocket.Conn, logger zerolog.Logger, raw json.RawMessage) {
	var text TextMessage
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &text); err != nil {
			h.sendError(conn, logger, "invalid text payload")
			return
		}
	}

	outcome, err := h.chatSvc.Handle(ctx, text.Text)
	if err != nil {
		logger.Error().Err(err).Msg("handle message failed")
		h.sendError(conn, logger, "failed to process message")
		return
	}

	h.send(conn, logger, outgoingMessage{Type: "result", Data: outcome})
}

func (h *WebSocketHandler) send(conn *websocket.Conn, logger zerolog.Logger, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	if err := conn.WriteJSON(msg); err != nil {
		logger.Warn().Err(err).Str("type", msg.Type).Msg("write failed")
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, logger zerolog.Logger, message string) {
	h.send(conn, logger, outgoingMessage{
		Type: "error",
		Data: map[string]string{"message": message},
	})
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
