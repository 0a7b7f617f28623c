package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/lomeet/relay/internal/domain"
)

func (ctl *Controller) handleInitiateCall(sid domain.ConnID, data []byte) {
	type payload struct {
		Type string        `json:"type"`
		Room domain.RoomID `json:"roomId"`
		To   domain.ConnID `json:"to"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad initiate-call payload")
		return
	}
	if p.Room == "" || p.To == "" {
		log.Warn().Str("module", "signal").Str("conn", string(sid)).Msg("initiate-call missing fields, dropped")
		return
	}
	ctl.Relay.InitiateCall(sid, p.Room, p.To)
}

func (ctl *Controller) handleAcceptCall(sid domain.ConnID, data []byte) {
	type payload struct {
		Type string        `json:"type"`
		Room domain.RoomID `json:"roomId"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad accept-call payload")
		return
	}
	if p.Room == "" {
		return
	}
	ctl.Relay.AcceptCall(sid, p.Room)
}

func (ctl *Controller) handleEndCall(sid domain.ConnID, data []byte) {
	type payload struct {
		Type string        `json:"type"`
		Room domain.RoomID `json:"roomId"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad end-call payload")
		return
	}
	if p.Room == "" {
		return
	}
	ctl.Relay.EndCall(sid, p.Room)
}

func (ctl *Controller) handleToggleMedia(sid domain.ConnID, track domain.MediaTrack, data []byte) {
	type payload struct {
		Type    string        `json:"type"`
		Room    domain.RoomID `json:"roomId"`
		Enabled bool          `json:"enabled"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad toggle payload")
		return
	}
	if p.Room == "" {
		return
	}
	ctl.Relay.ToggleMedia(sid, p.Room, track, p.Enabled)
}
