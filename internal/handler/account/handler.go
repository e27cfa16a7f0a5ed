package account

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	accountService "github.com/zhouzirui/mindfulme/backend/internal/service/account"
	"github.com/zhouzirui/mindfulme/backend/pkg/utils"
)

// Handler 账户页面（资料、导出、统计、删除）的HTTP处理器
type Handler struct {
	accountSvc *accountService.Service
	log        zerolog.Logger
}

// New 创建账户处理器
func New(accountSvc *accountService.Service, logger zerolog.Logger) *Handler {
	return &Handler{accountSvc: accountSvc, log: logger}
}

// RegisterRoutes 注册账户相关的路由（需要登录）
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/account", func(ar chi.Router) {
		ar.Put("/profile", h.handleUpdateProfile)
		ar.Get("/export", h.handleExport)
		ar.Get("/stats", h.handleStats)
		ar.Delete("/", h.handleDelete)
	})
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var payload accountService.ProfileUpdate
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.accountSvc.UpdateProfile(r.Context(), payload)
	if err != nil {
		h.respondServiceError(w, err, "Failed to update profile. Please try again.")
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

// handleExport 以附件形式下载用户数据
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	export := h.accountSvc.Export(r.Context())
	name := accountService.ExportFileName(h.accountSvc.Now())

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	utils.RespondJSON(w, http.StatusOK, export)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.accountSvc.Stats(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Confirmation string `json:"confirmation"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.accountSvc.Delete(r.Context(), payload.Confirmation); err != nil {
		h.respondServiceError(w, err, "Failed to delete account. Please try again.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, accountService.ErrConfirmationRequired):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, accountService.ErrNoCurrentUser):
		utils.RespondError(w, http.StatusUnauthorized, err.Error())
	default:
		h.log.Error().Err(err).Msg("account operation failed")
		utils.RespondError(w, http.StatusInternalServerError, fallback)
	}
}
