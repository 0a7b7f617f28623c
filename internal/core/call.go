package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lomeet/relay/internal/domain"
)

// Outcome tells whether a call-control transition was applied or silently
// ignored. Invalid transitions are expected under network jitter (a stale
// accept after the caller hung up) and are never surfaced as errors.
type Outcome int

const (
	Applied Outcome = iota
	Ignored
)

type callSession struct {
	state  domain.CallState
	caller domain.ConnID
	callee domain.ConnID
	media  map[domain.ConnID]*domain.MediaFlags
}

// CallSessionTracker holds at most one call session per room and mediates
// its initiate/ring/accept/end transitions. Glare is not negotiated:
// whichever initiate reaches the tracker first wins, the second is ignored.
type CallSessionTracker struct {
	mu       sync.Mutex
	sessions map[domain.RoomID]*callSession
}

func NewCallSessionTracker() *CallSessionTracker {
	return &CallSessionTracker{sessions: make(map[domain.RoomID]*callSession)}
}

// Initiate moves an idle room to Ringing, recording both participants.
// Ignored while a session is already Ringing or Active.
func (t *CallSessionTracker) Initiate(roomID domain.RoomID, caller, callee domain.ConnID) Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.sessions[roomID]; ok {
		return Ignored
	}
	t.sessions[roomID] = &callSession{
		state:  domain.CallRinging,
		caller: caller,
		callee: callee,
		media: map[domain.ConnID]*domain.MediaFlags{
			caller: {Video: true, Audio: true},
			callee: {Video: true, Audio: true},
		},
	}
	log.Info().Str("module", "core.call").Str("room", string(roomID)).Str("caller", string(caller)).Msg("call ringing")
	return Applied
}

// Accept moves a Ringing session to Active and returns the caller to
// notify. Ignored from any other state or when the accepting connection
// is not the callee.
func (t *CallSessionTracker) Accept(roomID domain.RoomID, callee domain.ConnID) (domain.ConnID, Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[roomID]
	if !ok || s.state != domain.CallRinging || callee == s.caller {
		return "", Ignored
	}
	s.state = domain.CallActive
	log.Info().Str("module", "core.call").Str("room", string(roomID)).Str("callee", string(callee)).Msg("call active")
	return s.caller, Applied
}

// End terminates a Ringing or Active session from either side, clearing
// media flags, and returns the peer of the terminating connection.
func (t *CallSessionTracker) End(roomID domain.RoomID, by domain.ConnID) (domain.ConnID, Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[roomID]
	if !ok {
		return "", Ignored
	}
	delete(t.sessions, roomID)
	log.Info().Str("module", "core.call").Str("room", string(roomID)).Str("by", string(by)).Msg("call ended")
	return s.peerOf(by), Applied
}

// ToggleMedia updates one participant's track flag while a session is
// Ringing or Active and returns the new value for broadcast. A no-op when
// no session exists, since late toggles can arrive after a call ended.
func (t *CallSessionTracker) ToggleMedia(
	roomID domain.RoomID,
	connID domain.ConnID,
	track domain.MediaTrack,
	enabled bool,
) (bool, Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[roomID]
	if !ok {
		return false, Ignored
	}
	flags, ok := s.media[connID]
	if !ok {
		return false, Ignored
	}
	switch track {
	case domain.TrackVideo:
		flags.Video = enabled
	case domain.TrackAudio:
		flags.Audio = enabled
	default:
		return false, Ignored
	}
	return enabled, Applied
}

// DropParticipant forces an implicit end when a participant disconnects
// mid-call and reports the surviving peer to notify.
func (t *CallSessionTracker) DropParticipant(roomID domain.RoomID, connID domain.ConnID) (domain.ConnID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[roomID]
	if !ok || (connID != s.caller && connID != s.callee) {
		return "", false
	}
	delete(t.sessions, roomID)
	log.Info().Str("module", "core.call").Str("room", string(roomID)).Str("conn", string(connID)).Msg("call ended by disconnect")
	return s.peerOf(connID), true
}

// State reports the session state of a room, CallIdle when none exists.
func (t *CallSessionTracker) State(roomID domain.RoomID) domain.CallState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[roomID]; ok {
		return s.state
	}
	return domain.CallIdle
}

// Caller returns the recorded initiator of a room's session, if any.
func (t *CallSessionTracker) Caller(roomID domain.RoomID) (domain.ConnID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[roomID]; ok {
		return s.caller, true
	}
	return "", false
}

func (s *callSession) peerOf(connID domain.ConnID) domain.ConnID {
	if connID == s.caller {
		return s.callee
	}
	return s.caller
}
