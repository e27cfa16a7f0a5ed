package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindfulme/backend/internal/handler/account"
	"github.com/zhouzirui/mindfulme/backend/internal/handler/auth"
	"github.com/zhouzirui/mindfulme/backend/internal/handler/chat"
	"github.com/zhouzirui/mindfulme/backend/internal/handler/mood"
	"github.com/zhouzirui/mindfulme/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/mindfulme/backend/internal/middleware"
	accountService "github.com/zhouzirui/mindfulme/backend/internal/service/account"
	authService "github.com/zhouzirui/mindfulme/backend/internal/service/auth"
	chatService "github.com/zhouzirui/mindfulme/backend/internal/service/chat"
	"github.com/zhouzirui/mindfulme/backend/internal/service/mirror"
	moodService "github.com/zhouzirui/mindfulme/backend/internal/service/mood"
	"github.com/zhouzirui/mindfulme/backend/internal/service/session"
	"github.com/zhouzirui/mindfulme/backend/pkg/utils"
)

// MirrorStatus reports the remote mirror state for the health endpoint.
type MirrorStatus interface {
	Status() mirror.Result
}

// Deps are the services behind the HTTP API.
type Deps struct {
	Logger    zerolog.Logger
	Provider  authService.Provider
	Sessions  *session.Service
	Moods     *moodService.Service
	Chat      *chatService.Service
	Accounts  *accountService.Service
	Mirror    MirrorStatus
	JWTSecret []byte
	TokenTTL  time.Duration
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	authHandler := auth.New(deps.Provider, deps.Sessions, deps.JWTSecret, deps.TokenTTL, deps.Logger)
	moodHandler := mood.New(deps.Moods)
	accountHandler := account.New(deps.Accounts, deps.Logger)
	chatHandler := chat.New(deps.Chat, deps.Logger)
	wsHandler := chat.NewWebSocketHandler(deps.Chat, deps.Logger)
	streamHandler := stream.New(deps.Chat, deps.Logger)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", healthHandler(deps))

		// Register public auth and session routes
		authHandler.RegisterRoutes(api)

		api.Group(func(pr chi.Router) {
			pr.Use(middlewarePkg.RequireUser(deps.JWTSecret, deps.Sessions))

			authHandler.RegisterProtectedRoutes(pr)
			moodHandler.RegisterRoutes(pr)
			accountHandler.RegisterRoutes(pr)
			chatHandler.RegisterRoutes(pr)
			streamHandler.RegisterRoutes(pr)
			wsHandler.RegisterRoutes(pr)
		})
	})

	return r
}

type healthResponse struct {
	Status string `json:"status"`
	Engine string `json:"engine"`
	Mirror string `json:"mirror"`
}

func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{Status: "ok", Engine: "rules", Mirror: "disabled"}
		if deps.Chat != nil && deps.Chat.UsesLLM() {
			resp.Engine = "llm"
		}
		if deps.Mirror != nil {
			if deps.Mirror.Status().Available {
				resp.Mirror = "connected"
			} else {
				resp.Mirror = "unavailable"
			}
		}
		utils.RespondJSON(w, http.StatusOK, resp)
	}
}
