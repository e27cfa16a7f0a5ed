package mood

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindfulme/backend/internal/middleware"
	moodModel "github.com/zhouzirui/mindfulme/backend/internal/model/mood"
	moodService "github.com/zhouzirui/mindfulme/backend/internal/service/mood"
	"github.com/zhouzirui/mindfulme/backend/pkg/utils"
)

// Handler 心情记录与统计的HTTP处理器
type Handler struct {
	moodSvc *moodService.Service
}

// New 创建心情处理器
func New(moodSvc *moodService.Service) *Handler {
	return &Handler{moodSvc: moodSvc}
}

// Option is one selectable mood.
type Option struct {
	Mood  moodModel.Label `json:"mood"`
	Emoji string          `json:"emoji"`
}

// ListResponse wraps a list of entries and where it came from.
type ListResponse struct {
	Entries []moodModel.Entry `json:"entries"`
	Mode    moodService.Mode  `json:"mode"`
}

// RegisterRoutes 注册心情相关的路由（需要登录）
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/moods/options", h.handleOptions)
	r.Get("/moods", h.handleList)
	r.Post("/moods", h.handleTrack)
	r.Delete("/moods/{entryID}", h.handleDelete)
	r.Get("/analytics", h.handleAnalytics)
}

func (h *Handler) handleOptions(w http.ResponseWriter, _ *http.Request) {
	labels := moodModel.Labels()
	options := make([]Option, 0, len(labels))
	for _, l := range labels {
		options = append(options, Option{Mood: l, Emoji: moodModel.Emoji(string(l))})
	}
	utils.RespondJSON(w, http.StatusOK, options)
}

// handleList 默认返回全部本地记录；?recent=N 时优先读取远端镜像。
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("recent")
	if raw == "" {
		entries := h.moodSvc.List(r.Context())
		if entries == nil {
			entries = []moodModel.Entry{}
		}
		utils.RespondJSON(w, http.StatusOK, ListResponse{Entries: entries, Mode: moodService.ModeLocal})
		return
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		utils.RespondError(w, http.StatusBadRequest, "recent must be a non-negative integer")
		return
	}

	caller, _ := middleware.UserFromContext(r.Context())
	entries, mode := h.moodSvc.Recent(r.Context(), caller.ID, limit)
	if entries == nil {
		entries = []moodModel.Entry{}
	}
	utils.RespondJSON(w, http.StatusOK, ListResponse{Entries: entries, Mode: mode})
}

func (h *Handler) handleTrack(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Mood string `json:"mood"`
		Note string `json:"note"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	caller, _ := middleware.UserFromContext(r.Context())
	tracked, err := h.moodSvc.Track(r.Context(), caller.ID, payload.Mood, payload.Note)
	switch {
	case errors.Is(err, moodService.ErrInvalidMood):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "Failed to save mood entry. Please try again.")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, tracked)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFromContext(r.Context())
	if err := h.moodSvc.Delete(r.Context(), caller.ID, chi.URLParam(r, "entryID")); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to delete mood entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.moodSvc.Analytics(r.Context()))
}
