package signal

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/lomeet/relay/internal/domain"
)

// The handshake blobs are opaque: the relay never negotiates media itself.
// pion types are used only to check the structural shape of what crosses
// the wire before it is forwarded verbatim, tagged with the sender id.

func (ctl *Controller) handleDescription(sid domain.ConnID, kind string, data []byte) {
	type payload struct {
		Type string        `json:"type"`
		Room domain.RoomID `json:"roomId"`
		SDP  string        `json:"sdp"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("kind", kind).Msg("bad description payload")
		return
	}
	if p.Room == "" || p.SDP == "" {
		log.Warn().Str("module", "signal").Str("conn", string(sid)).Str("kind", kind).Msg("description missing fields, dropped")
		return
	}

	sdpType := webrtc.SDPTypeOffer
	if kind == "answer" {
		sdpType = webrtc.SDPTypeAnswer
	}
	desc := webrtc.SessionDescription{Type: sdpType, SDP: p.SDP}

	ctl.Relay.ForwardSignal(sid, p.Room, struct {
		Type string        `json:"type"`
		Room domain.RoomID `json:"roomId"`
		From domain.ConnID `json:"from"`
		SDP  string        `json:"sdp"`
	}{
		Type: kind,
		Room: p.Room,
		From: sid,
		SDP:  desc.SDP,
	})
}

func (ctl *Controller) handleCandidate(sid domain.ConnID, data []byte) {
	// The pion pointer fields keep field presence intact, so a candidate
	// with sdpMLineIndex 0 is relayed with its index rather than losing it.
	type payload struct {
		Type string        `json:"type"`
		Room domain.RoomID `json:"roomId"`
		webrtc.ICECandidateInit
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		return
	}
	if p.Room == "" || p.Candidate == "" {
		log.Warn().Str("module", "signal").Str("conn", string(sid)).Msg("candidate missing fields, dropped")
		return
	}

	ctl.Relay.ForwardSignal(sid, p.Room, struct {
		Type string        `json:"type"`
		Room domain.RoomID `json:"roomId"`
		From domain.ConnID `json:"from"`
		webrtc.ICECandidateInit
	}{
		Type:             "ice-candidate",
		Room:             p.Room,
		From:             sid,
		ICECandidateInit: p.ICECandidateInit,
	})
}
