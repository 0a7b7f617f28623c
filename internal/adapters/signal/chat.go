package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/lomeet/relay/internal/domain"
)

func (ctl *Controller) handleSendMessage(sid domain.ConnID, data []byte) {
	type payload struct {
		Type    string        `json:"type"`
		Room    domain.RoomID `json:"roomId"`
		Message string        `json:"message"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad send-message payload")
		return
	}
	// The message text is opaque content; an empty string is relayed as-is.
	if p.Room == "" {
		log.Warn().Str("module", "signal").Str("conn", string(sid)).Msg("send-message missing room, dropped")
		return
	}
	ctl.Relay.SendMessage(sid, p.Room, p.Message)
}
