package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/lomeet/relay/internal/domain"
)

func (ctl *Controller) handleFileChunk(sid domain.ConnID, data []byte) {
	type payload struct {
		Type        string            `json:"type"`
		Room        domain.RoomID     `json:"roomId"`
		FileID      domain.TransferID `json:"fileId"`
		Name        string            `json:"name"`
		ContentType string            `json:"contentType"`
		Chunk       []byte            `json:"chunk"`
		IsLastChunk bool              `json:"isLastChunk"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad send-file-chunk payload")
		return
	}
	if p.Room == "" || p.FileID == "" {
		log.Warn().Str("module", "signal").Str("conn", string(sid)).Msg("send-file-chunk missing fields, dropped")
		return
	}

	meta := domain.FileMeta{Name: p.Name, ContentType: p.ContentType}
	ctl.Relay.FileChunk(sid, p.Room, p.FileID, meta, p.Chunk, p.IsLastChunk)
}
