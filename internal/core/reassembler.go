package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lomeet/relay/internal/domain"
)

type transferKey struct {
	room     domain.RoomID
	transfer domain.TransferID
}

// pendingTransfer accumulates fragments in arrival order. Metadata is
// captured from the first fragment and never updated afterwards.
type pendingTransfer struct {
	meta    domain.FileMeta
	frags   [][]byte
	size    int
	touched time.Time
}

// ChunkReassembler rebuilds chunked binary payloads relayed through a room.
// Fragments carry no sequence numbers; the transport must deliver them in
// send order (WebSocket frames on one connection do).
type ChunkReassembler struct {
	mu      sync.Mutex
	clock   Clock
	pending map[transferKey]*pendingTransfer
}

func NewChunkReassembler(clock Clock) *ChunkReassembler {
	if clock == nil {
		clock = SystemClock
	}
	return &ChunkReassembler{
		clock:   clock,
		pending: make(map[transferKey]*pendingTransfer),
	}
}

// AddFragment appends one fragment to the accumulator for (room, transfer),
// creating it on first call. When isFinal is set the fragments are
// concatenated in arrival order, the accumulator is discarded, and the
// reconstructed file is returned; otherwise the return is nil.
func (c *ChunkReassembler) AddFragment(
	roomID domain.RoomID,
	transferID domain.TransferID,
	meta domain.FileMeta,
	fragment []byte,
	isFinal bool,
) *domain.ReassembledFile {
	key := transferKey{room: roomID, transfer: transferID}

	c.mu.Lock()
	defer c.mu.Unlock()

	pt, ok := c.pending[key]
	if !ok {
		pt = &pendingTransfer{meta: meta}
		c.pending[key] = pt
	}
	pt.frags = append(pt.frags, fragment)
	pt.size += len(fragment)
	pt.touched = c.clock.Now()

	if !isFinal {
		return nil
	}

	data := make([]byte, 0, pt.size)
	for _, f := range pt.frags {
		data = append(data, f...)
	}
	delete(c.pending, key)
	log.Debug().Str("module", "core.reassembler").
		Str("room", string(roomID)).
		Str("transfer", string(transferID)).
		Int("bytes", len(data)).
		Msg("transfer reassembled")
	return &domain.ReassembledFile{Meta: pt.meta, Data: data}
}

// PendingBytes reports how many bytes are accumulated for a transfer so an
// upstream policy can bound in-flight memory before accepting a fragment.
func (c *ChunkReassembler) PendingBytes(roomID domain.RoomID, transferID domain.TransferID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pt, ok := c.pending[transferKey{room: roomID, transfer: transferID}]; ok {
		return pt.size
	}
	return 0
}

// Abort discards an in-flight accumulator, if any.
func (c *ChunkReassembler) Abort(roomID domain.RoomID, transferID domain.TransferID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, transferKey{room: roomID, transfer: transferID})
}

// EvictIdle drops accumulators untouched for longer than ttl. There is no
// abort event in the protocol, so this is the only way an abandoned
// transfer releases its memory.
func (c *ChunkReassembler) EvictIdle(ttl time.Duration) int {
	cutoff := c.clock.Now().Add(-ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	evicted := 0
	for key, pt := range c.pending {
		if pt.touched.Before(cutoff) {
			delete(c.pending, key)
			evicted++
			log.Warn().Str("module", "core.reassembler").
				Str("room", string(key.room)).
				Str("transfer", string(key.transfer)).
				Int("bytes", pt.size).
				Msg("idle transfer evicted")
		}
	}
	return evicted
}
