package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lomeet/relay/internal/core"
	"github.com/lomeet/relay/internal/domain"
)

// Relay is the central coordinator. Every inbound event arrives tagged
// with its source connection id; the relay validates it against current
// state and fans outbound events to the rest of the room or to one peer.
// Payload content (chat text, file bytes, SDP blobs) is opaque and passed
// through unmodified; peers are assumed mutually trusting.
type Relay struct {
	Conns     *Registry
	Rooms     *core.RoomRegistry
	Transfers *core.ChunkReassembler
	Calls     *core.CallSessionTracker
	Policy    TransferPolicy

	abortedMu sync.Mutex
	aborted   map[abortedKey]time.Time
}

// Attach registers a freshly upgraded connection and tells the client its
// assigned id.
func (r *Relay) Attach(sid domain.ConnID, conn core.SignalConnection) {
	r.Conns.Bind(sid, conn)
	r.toConn(sid, welcomeEvent{Type: "welcome", ID: sid})
}

// CreateRoom unconditionally (re)creates a room owned by the sender.
func (r *Relay) CreateRoom(sid domain.ConnID, roomID domain.RoomID) {
	r.Rooms.Create(roomID, sid)
	r.toConn(sid, roomCreatedEvent{Type: "room-created", Room: roomID})
}

// JoinRoom adds the sender to an existing room and announces it to the
// members already present. A missing room is reported to the sender only.
func (r *Relay) JoinRoom(sid domain.ConnID, roomID domain.RoomID) {
	peers, err := r.Rooms.Join(roomID, sid)
	if err != nil {
		log.Warn().Str("module", "app.relay").Str("room", string(roomID)).Str("conn", string(sid)).Msg("join: room not found")
		r.toConn(sid, errorEvent{Type: "error", Error: "Room not found"})
		return
	}
	joined := userJoinedEvent{Type: "user-joined", Room: roomID, ID: sid}
	for _, peer := range peers {
		r.toConn(peer, joined)
	}
}

// SendMessage relays a chat message to the other room members.
func (r *Relay) SendMessage(sid domain.ConnID, roomID domain.RoomID, message string) {
	if !r.Rooms.Contains(roomID, sid) {
		log.Warn().Str("module", "app.relay").Str("room", string(roomID)).Str("conn", string(sid)).Msg("message from non-member dropped")
		return
	}
	r.broadcast(roomID, sid, receiveMessageEvent{
		Type:    "receive-message",
		Room:    roomID,
		From:    sid,
		Message: message,
	})
}

// ForwardSignal passes a transport-handshake event (offer, answer, ICE
// candidate) unmodified to the other room members. The sender is expected
// to have tagged v with its own id already.
func (r *Relay) ForwardSignal(sid domain.ConnID, roomID domain.RoomID, v any) {
	if !r.Rooms.Contains(roomID, sid) {
		log.Warn().Str("module", "app.relay").Str("room", string(roomID)).Str("conn", string(sid)).Msg("signal from non-member dropped")
		return
	}
	r.broadcast(roomID, sid, v)
}

// StartTransferEviction sweeps idle transfer accumulators until ctx ends.
func (r *Relay) StartTransferEviction(ctx context.Context, interval, ttl time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := r.Transfers.EvictIdle(ttl); n > 0 {
					log.Info().Str("module", "app.relay").Int("evicted", n).Msg("idle transfers evicted")
				}
				r.evictAborted(ttl)
			}
		}
	}()
}

func (r *Relay) toConn(sid domain.ConnID, v any) {
	conn, ok := r.Conns.Get(sid)
	if !ok {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("marshal outbound event")
		return
	}
	if err := conn.TrySend(core.Frame(b)); err != nil {
		// A full peer channel drops the frame for that peer; the relay
		// never blocks on one slow connection.
		log.Warn().Err(err).Str("module", "app.relay").Str("conn", string(sid)).Msg("dropped outbound frame")
	}
}

func (r *Relay) broadcast(roomID domain.RoomID, except domain.ConnID, v any) {
	for _, member := range r.Rooms.Members(roomID) {
		if member == except {
			continue
		}
		r.toConn(member, v)
	}
}
