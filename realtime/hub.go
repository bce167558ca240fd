// Package realtime tracks live sessions and fans events out to them.
// Nothing here persists: delivery is at-most-once to the sessions connected
// at emit time, and the durable store is the source of truth for anything a
// client may have missed.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/immoalbania/immo/id"
	"github.com/immoalbania/immo/types"
)

// Broadcaster delivers one event to every live session joined to a room,
// best effort. Room IDs are either a user ID (the personal room every
// session joins on registration) or a conversation ID.
type Broadcaster interface {
	EmitToRoom(ctx context.Context, roomID string, event types.Event, exceptUserIDs ...string)
}

// Session is one live connection belonging to a user. A user may hold any
// number of concurrent sessions (multi-device); broadcasting to a user
// means reaching all of them.
type Session struct {
	id     string
	userID string
	out    chan []byte
}

func (s *Session) ID() string { return s.id }

func (s *Session) UserID() string { return s.userID }

// Events is the session's outbound stream of JSON-encoded events. It is
// closed when the session is deregistered.
func (s *Session) Events() <-chan []byte { return s.out }

// Hub is the in-memory, process-local session registry and broadcast
// router. A multi-instance deployment must wrap it with NATSBroadcaster so
// room delivery spans processes; the hub alone is only correct
// single-process.
type Hub struct {
	logger *slog.Logger
	buffer int

	mu           sync.RWMutex
	byUser       map[string]map[*Session]struct{}
	rooms        map[string]map[*Session]struct{}
	sessionRooms map[*Session]map[string]struct{}
}

func NewHub(logger *slog.Logger, sessionBuffer int) *Hub {
	if sessionBuffer <= 0 {
		sessionBuffer = 32
	}
	return &Hub{
		logger:       logger,
		buffer:       sessionBuffer,
		byUser:       make(map[string]map[*Session]struct{}),
		rooms:        make(map[string]map[*Session]struct{}),
		sessionRooms: make(map[*Session]map[string]struct{}),
	}
}

// RegisterSession creates a live session for the user and joins it to the
// user's personal room.
func (h *Hub) RegisterSession(userID string) *Session {
	s := &Session{
		id:     id.Generate(),
		userID: userID,
		out:    make(chan []byte, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.byUser[userID]; !ok {
		h.byUser[userID] = make(map[*Session]struct{})
	}
	h.byUser[userID][s] = struct{}{}
	h.sessionRooms[s] = make(map[string]struct{})
	h.joinRoomLocked(s, userID)

	openSessions.Inc()

	return s
}

// DeregisterSession discards the session and all of its room memberships
// and closes its event stream.
func (h *Hub) DeregisterSession(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.sessionRooms[s]
	if !ok {
		return
	}

	for roomID := range rooms {
		h.leaveRoomLocked(s, roomID)
	}
	delete(h.sessionRooms, s)

	if set, ok := h.byUser[s.userID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.byUser, s.userID)
		}
	}

	// Emits hold the read lock while sending, so closing under the write
	// lock cannot race a send.
	close(s.out)

	openSessions.Dec()
}

func (h *Hub) JoinRoom(s *Session, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessionRooms[s]; !ok {
		return // already deregistered
	}
	h.joinRoomLocked(s, roomID)
}

func (h *Hub) LeaveRoom(s *Session, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessionRooms[s]; !ok {
		return
	}
	h.leaveRoomLocked(s, roomID)
	delete(h.sessionRooms[s], roomID)
}

func (h *Hub) joinRoomLocked(s *Session, roomID string) {
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Session]struct{})
	}
	h.rooms[roomID][s] = struct{}{}
	h.sessionRooms[s][roomID] = struct{}{}
}

func (h *Hub) leaveRoomLocked(s *Session, roomID string) {
	if set, ok := h.rooms[roomID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// SessionsFor returns the user's live sessions, possibly none.
func (h *Hub) SessionsFor(userID string) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Session, 0, len(h.byUser[userID]))
	for s := range h.byUser[userID] {
		out = append(out, s)
	}
	return out
}

// EmitToRoom delivers the event to every session currently joined to the
// room, skipping sessions owned by any of exceptUserIDs. A session whose
// buffer is full misses the event; it recovers accurate state on its next
// fetch.
func (h *Hub) EmitToRoom(_ context.Context, roomID string, event types.Event, exceptUserIDs ...string) {
	b, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal realtime event", "event", event.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	eventsEmitted.WithLabelValues(event.Type).Inc()

	for s := range h.rooms[roomID] {
		if slices.Contains(exceptUserIDs, s.userID) {
			continue
		}

		select {
		case s.out <- b:
			eventsDelivered.Inc()
		default:
			eventsDropped.Inc()
			h.logger.Warn("dropping realtime event for slow session",
				"event", event.Type,
				"room", roomID,
				"session", s.id,
				"user", s.userID,
			)
		}
	}
}
