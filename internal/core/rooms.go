package core

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lomeet/relay/internal/domain"
)

var ErrRoomNotFound = errors.New("room not found")

// Departure reports one room a connection was removed from that still
// has members left to notify. Emptied rooms are deleted and not reported.
type Departure struct {
	Room           domain.RoomID
	RemainingPeers []domain.ConnID
}

// RoomInfo is a read-only view for APIs (no connection internals).
type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
}

// RoomRegistry is the threadsafe in-memory room membership table.
// It owns the membership sets but never touches transport resources.
// Invariant: a registered room always has at least one member.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[domain.ConnID]struct{}
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[domain.RoomID]map[domain.ConnID]struct{})}
}

// Create unconditionally (re)creates a room containing only connID.
// Prior membership under the same id is discarded, last writer wins.
func (r *RoomRegistry) Create(roomID domain.RoomID, connID domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[roomID] = map[domain.ConnID]struct{}{connID: {}}
	log.Info().Str("module", "core.rooms").Str("room", string(roomID)).Str("conn", string(connID)).Msg("room created")
}

// Join adds connID to an existing room and returns the peers that were
// already members, so the caller knows who to notify.
func (r *RoomRegistry) Join(roomID domain.RoomID, connID domain.ConnID) ([]domain.ConnID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	peers := make([]domain.ConnID, 0, len(members))
	for peer := range members {
		if peer != connID {
			peers = append(peers, peer)
		}
	}
	members[connID] = struct{}{}
	log.Info().Str("module", "core.rooms").Str("room", string(roomID)).Str("conn", string(connID)).Msg("member joined")
	return peers, nil
}

// Leave removes connID from every room it belongs to. Rooms left empty
// are deleted; rooms still populated are returned as departures.
func (r *RoomRegistry) Leave(connID domain.ConnID) []Departure {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Departure
	for roomID, members := range r.rooms {
		if _, ok := members[connID]; !ok {
			continue
		}
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, roomID)
			log.Info().Str("module", "core.rooms").Str("room", string(roomID)).Msg("room deleted")
			continue
		}
		remaining := make([]domain.ConnID, 0, len(members))
		for peer := range members {
			remaining = append(remaining, peer)
		}
		out = append(out, Departure{Room: roomID, RemainingPeers: remaining})
	}
	return out
}

// Members returns the current member set of a room, or nil when absent.
func (r *RoomRegistry) Members(roomID domain.RoomID) []domain.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]domain.ConnID, 0, len(members))
	for peer := range members {
		out = append(out, peer)
	}
	return out
}

// Contains reports whether connID is a member of roomID.
func (r *RoomRegistry) Contains(roomID domain.RoomID, connID domain.ConnID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	_, ok = members[connID]
	return ok
}

// Snapshot lists all rooms with their member counts.
func (r *RoomRegistry) Snapshot() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, members := range r.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: len(members)})
	}
	return out
}
