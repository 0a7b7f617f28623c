package app

import (
	"github.com/rs/zerolog/log"

	"github.com/lomeet/relay/internal/core"
	"github.com/lomeet/relay/internal/domain"
)

// InitiateCall rings the target peer. A second initiate while a session is
// pending or active is ignored, so whichever side rings first wins.
func (r *Relay) InitiateCall(sid domain.ConnID, roomID domain.RoomID, target domain.ConnID) {
	if !r.Rooms.Contains(roomID, sid) || !r.Rooms.Contains(roomID, target) {
		log.Warn().Str("module", "app.relay").Str("room", string(roomID)).Str("conn", string(sid)).Msg("initiate outside room dropped")
		return
	}
	if out := r.Calls.Initiate(roomID, sid, target); out == core.Ignored {
		log.Info().Str("module", "app.relay").Str("room", string(roomID)).Str("conn", string(sid)).Msg("initiate ignored, call already pending")
		return
	}
	r.toConn(target, receiveCallEvent{Type: "receive-call", Room: roomID, From: sid})
}

// AcceptCall answers a ringing call and notifies the original caller.
func (r *Relay) AcceptCall(sid domain.ConnID, roomID domain.RoomID) {
	caller, out := r.Calls.Accept(roomID, sid)
	if out == core.Ignored {
		return
	}
	r.toConn(caller, callAcceptedEvent{Type: "call-accepted", Room: roomID, From: sid})
}

// EndCall terminates the room's call from either side and notifies the peer.
func (r *Relay) EndCall(sid domain.ConnID, roomID domain.RoomID) {
	peer, out := r.Calls.End(roomID, sid)
	if out == core.Ignored {
		return
	}
	r.toConn(peer, endCallEvent{Type: "end-call", Room: roomID, From: sid})
}

// ToggleMedia flips the sender's video or audio flag and tells the peer.
// Late toggles after a call ended are dropped silently.
func (r *Relay) ToggleMedia(sid domain.ConnID, roomID domain.RoomID, track domain.MediaTrack, enabled bool) {
	value, out := r.Calls.ToggleMedia(roomID, sid, track, enabled)
	if out == core.Ignored {
		return
	}
	eventType := "toggle-video"
	if track == domain.TrackAudio {
		eventType = "toggle-audio"
	}
	r.broadcast(roomID, sid, toggleMediaEvent{
		Type:    eventType,
		Room:    roomID,
		From:    sid,
		Enabled: value,
	})
}
