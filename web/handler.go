package web

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/immoalbania/immo/auth"
	"github.com/immoalbania/immo/realtime"
	"github.com/immoalbania/immo/service"
)

// Handler is the HTTP API of the chat server. The zero value is not
// usable; all fields must be set before the first request.
type Handler struct {
	Logger  *slog.Logger
	Service *service.Service
	Hub     *realtime.Hub

	once    sync.Once
	handler http.Handler
}

func (h *Handler) init() {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/login", h.login)
	mux.HandleFunc("GET /api/conversations", h.conversations)
	mux.HandleFunc("POST /api/conversations", h.openConversation)
	mux.HandleFunc("GET /api/conversations/{conversationID}/messages", h.messages)
	mux.HandleFunc("POST /api/conversations/{conversationID}/messages", h.createMessage)
	mux.HandleFunc("PUT /api/conversations/{conversationID}/read", h.markConversationRead)
	mux.HandleFunc("GET /api/messages/unread-count", h.unreadCount)
	mux.HandleFunc("GET /api/ws", h.subscribe)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/health", h.health)

	h.handler = h.withUser(mux)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.init)
	h.handler.ServeHTTP(w, r)
}

// withUser authenticates the request if a token is present and stores
// the user in the request context. Requests without a token pass
// through; each endpoint decides whether it needs a user.
func (h *Handler) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := requestToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := h.Service.UserFromToken(r.Context(), token)
		if err != nil {
			h.respondErr(w, err)
			return
		}

		ctx := auth.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestToken extracts the auth token from the Authorization header,
// falling back to the "token" query parameter for websocket clients
// that cannot set headers.
func requestToken(r *http.Request) string {
	if authorization := r.Header.Get("Authorization"); strings.HasPrefix(authorization, "Bearer ") {
		return strings.TrimPrefix(authorization, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.respond(w, map[string]string{"status": "ok"}, http.StatusOK)
}
