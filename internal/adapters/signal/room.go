package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/lomeet/relay/internal/domain"
)

func (ctl *Controller) handleCreateRoom(sid domain.ConnID, data []byte) {
	type payload struct {
		Type string        `json:"type"`
		Room domain.RoomID `json:"roomId"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad create-room payload")
		return
	}
	if err := domain.ValidateRoomID(p.Room); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(sid)).Msg("create-room dropped")
		return
	}
	ctl.Relay.CreateRoom(sid, p.Room)
}

func (ctl *Controller) handleJoinRoom(sid domain.ConnID, data []byte) {
	type payload struct {
		Type string        `json:"type"`
		Room domain.RoomID `json:"roomId"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join-room payload")
		return
	}
	if err := domain.ValidateRoomID(p.Room); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(sid)).Msg("join-room dropped")
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(sid)).Str("room", string(p.Room)).Msg("join")
	ctl.Relay.JoinRoom(sid, p.Room)
}
