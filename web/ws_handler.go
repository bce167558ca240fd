package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/immoalbania/immo/auth"
	"github.com/immoalbania/immo/realtime"
	"github.com/immoalbania/immo/service"
	"github.com/immoalbania/immo/types"
)

const (
	wsWriteTimeout   = 10 * time.Second
	wsPongTimeout    = 60 * time.Second
	wsPingInterval   = 50 * time.Second
	wsMaxMessageSize = 4 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type wsClientEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wsRoomPayload struct {
	RoomID string `json:"roomId"`
}

type wsTypingPayload struct {
	ConversationID string `json:"conversationId"`
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.respondErr(w, service.ErrUnauthenticated)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error("websocket upgrade", "err", err)
		return
	}

	sess := h.Hub.RegisterSession(user.ID)
	defer h.Hub.DeregisterSession(sess)

	go h.writeEvents(conn, sess)
	h.readClientEvents(r, conn, sess)
}

// writeEvents drains the session's event stream into the connection and
// keeps it alive with pings. It exits when the session is deregistered
// or a write fails.
func (h *Handler) writeEvents(conn *websocket.Conn, sess *realtime.Session) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case b, ok := <-sess.Events():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) readClientEvents(r *http.Request, conn *websocket.Conn, sess *realtime.Session) {
	ctx := r.Context()

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.Logger.Debug("websocket read", "err", err)
			}
			return
		}

		var ev wsClientEvent
		if err := json.Unmarshal(b, &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "join-room":
			var p wsRoomPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil || p.RoomID == "" {
				continue
			}
			if p.RoomID != sess.UserID() {
				if err := h.Service.EnsureParticipant(ctx, p.RoomID); err != nil {
					continue
				}
			}
			h.Hub.JoinRoom(sess, p.RoomID)
		case "leave-room":
			var p wsRoomPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil || p.RoomID == "" {
				continue
			}
			h.Hub.LeaveRoom(sess, p.RoomID)
		case "typing-start", "typing-stop":
			var p wsTypingPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil || p.ConversationID == "" {
				continue
			}
			in := types.SignalTyping{
				ConversationID: p.ConversationID,
				Typing:         ev.Type == "typing-start",
			}
			if err := h.Service.SignalTyping(ctx, in); err != nil && !errors.Is(err, service.ErrUnauthenticated) {
				h.Logger.Debug("signal typing", "err", err)
			}
		}
	}
}
