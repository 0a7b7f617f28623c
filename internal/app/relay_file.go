package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lomeet/relay/internal/domain"
)

// chunkAckStatus mirrors the per-chunk acknowledgment the sender waits for
// before transmitting the next fragment.
const chunkAckStatus = "Chunk received"

type abortedKey struct {
	room     domain.RoomID
	transfer domain.TransferID
}

// FileChunk accepts one fragment of a chunked transfer. Every accepted
// fragment is acknowledged to the sender; the terminal fragment emits the
// reassembled file to the other room members. Fragments of a transfer that
// was aborted for exceeding the byte ceiling are dropped until its terminal
// fragment arrives, so the tail of an over-limit send cannot restart a
// fresh accumulator and emit a truncated file.
func (r *Relay) FileChunk(
	sid domain.ConnID,
	roomID domain.RoomID,
	fileID domain.TransferID,
	meta domain.FileMeta,
	chunk []byte,
	isLast bool,
) {
	if !r.Rooms.Contains(roomID, sid) {
		log.Warn().Str("module", "app.relay").Str("room", string(roomID)).Str("conn", string(sid)).Msg("file chunk from non-member dropped")
		return
	}

	if r.dropAborted(roomID, fileID, isLast) {
		log.Warn().Str("module", "app.relay").
			Str("room", string(roomID)).
			Str("transfer", string(fileID)).
			Msg("fragment of aborted transfer dropped")
		return
	}

	pending := r.Transfers.PendingBytes(roomID, fileID)
	if !r.Policy.Allow(pending, len(chunk)) {
		r.Transfers.Abort(roomID, fileID)
		if !isLast {
			r.markAborted(roomID, fileID)
		}
		log.Warn().Str("module", "app.relay").
			Str("room", string(roomID)).
			Str("transfer", string(fileID)).
			Int("pending", pending).
			Msg("transfer over byte ceiling, aborted")
		r.toConn(sid, errorEvent{Type: "error", Error: "Transfer too large"})
		return
	}

	file := r.Transfers.AddFragment(roomID, fileID, meta, chunk, isLast)
	r.toConn(sid, chunkAckEvent{Type: "chunk-ack", FileID: fileID, Status: chunkAckStatus})

	if file == nil {
		return
	}
	r.broadcast(roomID, sid, receiveFileEvent{
		Type:        "receive-file",
		From:        sid,
		Name:        file.Meta.Name,
		ContentType: file.Meta.ContentType,
		Data:        file.Data,
	})
}

func (r *Relay) markAborted(roomID domain.RoomID, fileID domain.TransferID) {
	r.abortedMu.Lock()
	defer r.abortedMu.Unlock()
	if r.aborted == nil {
		r.aborted = make(map[abortedKey]time.Time)
	}
	r.aborted[abortedKey{room: roomID, transfer: fileID}] = time.Now()
}

// dropAborted reports whether a fragment belongs to an aborted transfer.
// The terminal fragment consumes the tombstone so the same transfer id can
// be reused for a fresh send afterwards.
func (r *Relay) dropAborted(roomID domain.RoomID, fileID domain.TransferID, isLast bool) bool {
	r.abortedMu.Lock()
	defer r.abortedMu.Unlock()
	key := abortedKey{room: roomID, transfer: fileID}
	if _, ok := r.aborted[key]; !ok {
		return false
	}
	if isLast {
		delete(r.aborted, key)
	}
	return true
}

// evictAborted drops tombstones of transfers whose terminal fragment never
// arrived, on the same ttl as the accumulators they replaced.
func (r *Relay) evictAborted(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	r.abortedMu.Lock()
	defer r.abortedMu.Unlock()
	for key, when := range r.aborted {
		if when.Before(cutoff) {
			delete(r.aborted, key)
		}
	}
}
