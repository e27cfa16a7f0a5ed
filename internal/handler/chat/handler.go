package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindfulme/backend/internal/middleware"
	"github.com/zhouzirui/mindfulme/backend/internal/model/chat"
	chatService "github.com/zhouzirui/mindfulme/backend/internal/service/chat"
	"github.com/zhouzirui/mindfulme/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	log     zerolog.Logger
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		log:     logger,
	}
}

// HistoryResponse is the stored conversation.
type HistoryResponse struct {
	Messages []chat.Message `json:"messages"`
	Engine   string         `json:"engine"`
}

// RegisterRoutes 注册聊天相关的路由（需要登录）
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/history", h.handleHistory)
	r.Delete("/chat/history", h.handleClear)
	r.Post("/chat/messages", h.handleSend)
}

// handleHistory 返回会话历史；空历史会先写入欢迎语
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFromContext(r.Context())
	utils.RespondJSON(w, http.StatusOK, HistoryResponse{
		Messages: h.chatSvc.History(r.Context(), caller.Name),
		Engine:   engine(h.chatSvc),
	})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.Clear(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("failed to clear chat history")
		utils.RespondError(w, http.StatusInternalServerError, "failed to clear chat history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSend 保存用户消息并生成回复
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	caller, _ := middleware.UserFromContext(r.Context())
	reply, err := h.chatSvc.Send(r.Context(), caller.Name, payload.Text)
	if err != nil {
		if errors.Is(err, chatService.ErrEmptyMessage) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to send message")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, reply)
}

func engine(svc *chatService.Service) string {
	if svc.UsesLLM() {
		return string(chatService.SourceLLM)
	}
	return string(chatService.SourceRules)
}
