package app

import (
	"github.com/rs/zerolog/log"

	"github.com/lomeet/relay/internal/domain"
)

// Disconnect is the single consolidation point for transport closes: the
// connection leaves every room it belonged to, remaining members get a
// user-left, emptied rooms are discarded, and any ringing or active call
// involving the connection is forced idle with the survivor notified.
func (r *Relay) Disconnect(sid domain.ConnID) {
	r.Conns.Unbind(sid)

	for _, dep := range r.Rooms.Leave(sid) {
		left := userLeftEvent{Type: "user-left", ID: sid}
		for _, peer := range dep.RemainingPeers {
			r.toConn(peer, left)
		}
		if survivor, ended := r.Calls.DropParticipant(dep.Room, sid); ended {
			r.toConn(survivor, endCallEvent{Type: "end-call", Room: dep.Room, From: sid})
		}
	}
	log.Info().Str("module", "app.relay").Str("conn", string(sid)).Msg("connection cleaned up")
}
