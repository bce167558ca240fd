package realtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/immoalbania/immo/id"
	"github.com/immoalbania/immo/types"
)

const natsSubject = "immo.realtime.rooms"

type natsEnvelope struct {
	Origin        string      `msgpack:"origin"`
	Room          string      `msgpack:"room"`
	Event         types.Event `msgpack:"event"`
	ExceptUserIDs []string    `msgpack:"exceptUserIds"`
}

// NATSBroadcaster extends a local Hub across instances: every emit is
// delivered locally and published on a shared subject, and emits from other
// instances are replayed into the local hub. Envelopes are origin-tagged so
// an instance never re-delivers its own emits.
//
// Per-room ordering across instances is whatever NATS provides for a single
// subject (per-publisher order); nothing stronger is promised.
type NATSBroadcaster struct {
	local  *Hub
	conn   *nats.Conn
	origin string
	logger *slog.Logger
	sub    *nats.Subscription
}

func NewNATSBroadcaster(conn *nats.Conn, local *Hub, logger *slog.Logger) (*NATSBroadcaster, error) {
	b := &NATSBroadcaster{
		local:  local,
		conn:   conn,
		origin: id.Generate(),
		logger: logger,
	}

	sub, err := conn.Subscribe(natsSubject, b.handleMsg)
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %q: %w", natsSubject, err)
	}

	b.sub = sub

	return b, nil
}

func (b *NATSBroadcaster) EmitToRoom(ctx context.Context, roomID string, event types.Event, exceptUserIDs ...string) {
	b.local.EmitToRoom(ctx, roomID, event, exceptUserIDs...)

	payload, err := msgpack.Marshal(natsEnvelope{
		Origin:        b.origin,
		Room:          roomID,
		Event:         event,
		ExceptUserIDs: exceptUserIDs,
	})
	if err != nil {
		b.logger.Error("msgpack marshal realtime envelope", "event", event.Type, "error", err)
		return
	}

	if err := b.conn.Publish(natsSubject, payload); err != nil {
		// Cross-instance delivery is best-effort like everything else here.
		b.logger.Error("nats publish realtime envelope", "event", event.Type, "error", err)
	}
}

func (b *NATSBroadcaster) handleMsg(m *nats.Msg) {
	var env natsEnvelope
	if err := msgpack.Unmarshal(m.Data, &env); err != nil {
		b.logger.Error("msgpack unmarshal realtime envelope", "error", err)
		return
	}

	if env.Origin == b.origin {
		return
	}

	b.local.EmitToRoom(context.Background(), env.Room, env.Event, env.ExceptUserIDs...)
}

func (b *NATSBroadcaster) Close() error {
	return b.sub.Unsubscribe()
}
