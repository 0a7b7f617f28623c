// Package domain contains entity types without logic, just meta-data.
package domain

import "errors"

const MaxRoomIDLen = 64

var (
	ErrRoomIDEmpty   = errors.New("room id empty")
	ErrRoomIDTooLong = errors.New("room id too long")
)

type (
	// RoomID is the human-shareable token identifying a room.
	RoomID string

	// ConnID identifies one live client connection, assigned at upgrade time.
	ConnID string
)

// ValidateRoomID keeps ad-hoc length checks out of the adapters.
func ValidateRoomID(id RoomID) error {
	if len(id) == 0 {
		return ErrRoomIDEmpty
	}
	if len(id) > MaxRoomIDLen {
		return ErrRoomIDTooLong
	}
	return nil
}
