package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindfulme/backend/internal/middleware"
	"github.com/zhouzirui/mindfulme/backend/internal/model/user"
	authService "github.com/zhouzirui/mindfulme/backend/internal/service/auth"
	"github.com/zhouzirui/mindfulme/backend/internal/service/session"
	"github.com/zhouzirui/mindfulme/backend/pkg/utils"
)

// Sessions is the current-user cache behind the session endpoints.
type Sessions interface {
	CurrentUser(ctx context.Context) (user.User, bool)
	SetCurrentUser(ctx context.Context, u user.User) (user.User, error)
	ClearCurrentUser(ctx context.Context) error
}

// Handler 处理注册、登录与会话缓存相关的请求
type Handler struct {
	provider authService.Provider
	sessions Sessions
	secret   []byte
	tokenTTL time.Duration
	log      zerolog.Logger
}

// New 创建认证处理器
func New(provider authService.Provider, sessions Sessions, secret []byte, tokenTTL time.Duration, logger zerolog.Logger) *Handler {
	return &Handler{
		provider: provider,
		sessions: sessions,
		secret:   secret,
		tokenTTL: tokenTTL,
		log:      logger,
	}
}

// AuthResponse is returned by sign-up and sign-in.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      user.User `json:"user"`
}

// SessionResponse describes the cached session.
type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	User          *user.User `json:"user,omitempty"`
}

// RegisterRoutes 注册无需登录的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", h.handleSignUp)
	r.Post("/auth/signin", h.handleSignIn)
	r.Get("/session", h.handleGetSession)
}

// RegisterProtectedRoutes 注册需要 token 的路由
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/auth/signout", h.handleSignOut)
	r.Put("/session", h.handlePutSession)
	r.Delete("/session", h.handleDeleteSession)
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	pu, err := h.provider.SignUp(r.Context(), payload.Email, payload.Password, payload.Name)
	if err != nil {
		h.respondAuthError(w, err)
		return
	}
	h.respondSignedIn(w, r, pu, http.StatusCreated)
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	pu, err := h.provider.SignIn(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.respondAuthError(w, err)
		return
	}
	h.respondSignedIn(w, r, pu, http.StatusOK)
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.provider.SignOut(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("sign-out failed")
		utils.RespondError(w, http.StatusInternalServerError, "failed to sign out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	current, ok := h.sessions.CurrentUser(r.Context())
	if !ok {
		utils.RespondJSON(w, http.StatusOK, SessionResponse{})
		return
	}
	utils.RespondJSON(w, http.StatusOK, SessionResponse{Authenticated: true, User: &current})
}

// handlePutSession 以请求体覆盖缓存的当前用户；id 固定为 token 对应的用户。
func (h *Handler) handlePutSession(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFromContext(r.Context())

	var payload user.User
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	payload.ID = caller.ID
	if payload.Email == "" {
		payload.Email = caller.Email
	}
	if payload.CreatedAt == "" {
		payload.CreatedAt = caller.CreatedAt
	}

	stored, err := h.sessions.SetCurrentUser(r.Context(), payload)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to save session")
		return
	}
	utils.RespondJSON(w, http.StatusOK, stored)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.ClearCurrentUser(r.Context()); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondSignedIn 签发 token，并返回已写入会话缓存的用户。
func (h *Handler) respondSignedIn(w http.ResponseWriter, r *http.Request, pu *authService.User, status int) {
	ctx := r.Context()

	current, ok := h.sessions.CurrentUser(ctx)
	if !ok || current.ID != pu.UID {
		// 提供方未绑定到会话缓存时直接写入
		stored, err := h.sessions.SetCurrentUser(ctx, session.FromProvider(pu))
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "failed to save session")
			return
		}
		current = stored
	}

	token, err := authService.GenerateToken(pu.UID, h.secret, h.tokenTTL)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to sign token")
		utils.RespondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	utils.RespondJSON(w, status, AuthResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.tokenTTL).UTC(),
		User:      current,
	})
}

func (h *Handler) respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authService.ErrInvalidInput):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, authService.ErrEmailTaken):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, authService.ErrInvalidCredentials):
		utils.RespondError(w, http.StatusUnauthorized, err.Error())
	default:
		h.log.Error().Err(err).Msg("authentication failed")
		utils.RespondError(w, http.StatusInternalServerError, "authentication failed")
	}
}
