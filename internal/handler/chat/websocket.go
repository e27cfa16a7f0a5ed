package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindfulme/backend/internal/middleware"
	chatService "github.com/zhouzirui/mindfulme/backend/internal/service/chat"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// WebSocketHandler 通过WebSocket进行实时聊天
type WebSocketHandler struct {
	chatSvc  *chatService.Service
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(chatSvc *chatService.Service, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		chatSvc: chatSvc,
		log:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由（需要登录，token 可放在查询参数中）
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type textPayload struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// socket serialises writes; gorilla allows one concurrent writer.
type socket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *socket) send(msgType string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(outgoingMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *socket) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := h.log.With().Str("user_id", caller.ID).Logger()
	log.Debug().Msg("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	sock := &socket{conn: conn}
	go pingLoop(ctx, sock)

	if err := sock.send("connected", map[string]string{"engine": engine(h.chatSvc)}); err != nil {
		return
	}

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if err := h.handleMessage(ctx, sock, caller.Name, msg); err != nil {
			log.Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
}

// handleMessage 只在写连接失败时返回错误
func (h *WebSocketHandler) handleMessage(ctx context.Context, sock *socket, name string, msg inboundMessage) error {
	switch msg.Type {
	case "history":
		return sock.send("history", h.chatSvc.History(ctx, name))

	case "clear":
		if err := h.chatSvc.Clear(ctx); err != nil {
			return sock.send("error", map[string]string{"message": "failed to clear chat history"})
		}
		return sock.send("cleared", nil)

	case "message":
		var payload textPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return sock.send("error", map[string]string{"message": "invalid message payload"})
		}

		reply, err := h.chatSvc.Stream(ctx, name, payload.Text, func(delta string) error {
			return sock.send("delta", map[string]string{"content": delta})
		})
		if errors.Is(err, chatService.ErrEmptyMessage) {
			return sock.send("error", map[string]string{"message": err.Error()})
		}
		if err != nil {
			return err
		}
		return sock.send("reply", reply)

	default:
		return sock.send("error", map[string]string{"message": "unknown message type: " + msg.Type})
	}
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, sock *socket) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sock.ping(); err != nil {
				return
			}
		}
	}
}
