package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/zhouzirui/mindfulme/backend/internal/model/user"
	"github.com/zhouzirui/mindfulme/backend/internal/service/auth"
	"github.com/zhouzirui/mindfulme/backend/pkg/utils"
)

type userKey struct{}

// CurrentUserSource returns the signed-in user of the profile.
type CurrentUserSource interface {
	CurrentUser(ctx context.Context) (user.User, bool)
}

// RequireUser 校验 Bearer token（WebSocket 可用 ?token=），并要求其对应当前会话用户。
func RequireUser(secret []byte, sessions CurrentUserSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				utils.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			userID, err := auth.ParseToken(token, secret)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			current, ok := sessions.CurrentUser(r.Context())
			if !ok || current.ID != userID {
				utils.RespondError(w, http.StatusUnauthorized, "no active session for this token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), current)))
		})
	}
}

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userKey{}).(user.User)
	return u, ok
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
