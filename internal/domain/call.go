package domain

// CallState is the lifecycle state of a room's call session.
// Keep values stable because they show up in logs.
type CallState string

const (
	CallIdle    CallState = "idle"
	CallRinging CallState = "ringing"
	CallActive  CallState = "active"
)

// MediaTrack names a toggleable media kind within a call.
type MediaTrack string

const (
	TrackVideo MediaTrack = "video"
	TrackAudio MediaTrack = "audio"
)

// MediaFlags holds the per-participant enabled state for each track.
// Both start enabled when a session is created.
type MediaFlags struct {
	Video bool
	Audio bool
}
