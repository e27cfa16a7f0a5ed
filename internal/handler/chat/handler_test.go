package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindfulme/backend/internal/analysis/responder"
	"github.com/zhouzirui/mindfulme/backend/internal/middleware"
	"github.com/zhouzirui/mindfulme/backend/internal/model/chat"
	"github.com/zhouzirui/mindfulme/backend/internal/model/user"
	chatService "github.com/zhouzirui/mindfulme/backend/internal/service/chat"
	"github.com/zhouzirui/mindfulme/backend/internal/service/records"
	"github.com/zhouzirui/mindfulme/backend/internal/storage/kv"
)

func setupRouter(t *testing.T) (*chi.Mux, *records.Service) {
	t.Helper()
	logger := zerolog.Nop()

	recs := records.NewService(kv.NewMemoryStore(), logger)
	svc := chatService.NewService(recs, responder.NewSelector(rand.NewPCG(1, 2)), nil, logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithUser(req.Context(), user.User{ID: "u1", Name: "Ada"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	New(svc, logger).RegisterRoutes(r)
	NewWebSocketHandler(svc, logger).RegisterRoutes(r)
	return r, recs
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHistorySeedsWelcome(t *testing.T) {
	r, recs := setupRouter(t)

	resp := do(r, http.MethodGet, "/chat/history", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var out HistoryResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "rules", out.Engine)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, chat.SenderBot, out.Messages[0].Sender)
	assert.Contains(t, out.Messages[0].Text, "Hello Ada!")

	assert.Len(t, recs.ListChatMessages(context.Background()), 1)
}

func TestSendMessage(t *testing.T) {
	r, recs := setupRouter(t)

	resp := do(r, http.MethodPost, "/chat/messages", `{"text":"I feel so anxious today"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var reply chatService.Reply
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &reply))
	assert.Equal(t, chatService.SourceRules, reply.Source)
	assert.Equal(t, responder.Anxiety, reply.Category)
	assert.Equal(t, "I feel so anxious today", reply.User.Text)
	assert.NotEmpty(t, reply.Bot.Text)

	assert.Len(t, recs.ListChatMessages(context.Background()), 2)
}

func TestSendMessageRejectsEmptyText(t *testing.T) {
	r, recs := setupRouter(t)

	resp := do(r, http.MethodPost, "/chat/messages", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, recs.ListChatMessages(context.Background()))
}

func TestClearHistory(t *testing.T) {
	r, recs := setupRouter(t)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/chat/messages", `{"text":"hello"}`).Code)

	resp := do(r, http.MethodDelete, "/chat/history", "")
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Empty(t, recs.ListChatMessages(context.Background()))
}

func readMessage(t *testing.T, conn *websocket.Conn) outgoingMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg outgoingMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketConversation(t *testing.T) {
	r, recs := setupRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "connected", readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "message", "data": map[string]string{"text": "thank you"}}))
	delta := readMessage(t, conn)
	assert.Equal(t, "delta", delta.Type)
	reply := readMessage(t, conn)
	assert.Equal(t, "reply", reply.Type)

	data, ok := reply.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(responder.Thanks), data["category"])
	assert.Equal(t, delta.Data.(map[string]any)["content"], data["botMessage"].(map[string]any)["text"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "message", "data": map[string]string{"text": ""}}))
	assert.Equal(t, "error", readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "bogus"}))
	assert.Equal(t, "error", readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "clear"}))
	assert.Equal(t, "cleared", readMessage(t, conn).Type)
	assert.Empty(t, recs.ListChatMessages(context.Background()))

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "history"}))
	history := readMessage(t, conn)
	assert.Equal(t, "history", history.Type)
	assert.Len(t, history.Data, 1)
}
