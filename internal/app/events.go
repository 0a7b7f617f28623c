package app

import "github.com/lomeet/relay/internal/domain"

// Outbound wire events. Binary payloads are []byte and ride as base64
// inside the JSON frame.

type welcomeEvent struct {
	Type string        `json:"type"`
	ID   domain.ConnID `json:"id"`
}

type roomCreatedEvent struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"roomId"`
}

type userJoinedEvent struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"roomId"`
	ID   domain.ConnID `json:"id"`
}

type userLeftEvent struct {
	Type string        `json:"type"`
	ID   domain.ConnID `json:"id"`
}

type receiveMessageEvent struct {
	Type    string        `json:"type"`
	Room    domain.RoomID `json:"roomId"`
	From    domain.ConnID `json:"from"`
	Message string        `json:"message"`
}

type chunkAckEvent struct {
	Type   string            `json:"type"`
	FileID domain.TransferID `json:"fileId"`
	Status string            `json:"status"`
}

type receiveFileEvent struct {
	Type        string        `json:"type"`
	From        domain.ConnID `json:"from"`
	Name        string        `json:"name"`
	ContentType string        `json:"contentType"`
	Data        []byte        `json:"data"`
}

type receiveCallEvent struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"roomId"`
	From domain.ConnID `json:"from"`
}

type callAcceptedEvent struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"roomId"`
	From domain.ConnID `json:"from"`
}

type endCallEvent struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"roomId"`
	From domain.ConnID `json:"from"`
}

type toggleMediaEvent struct {
	Type    string        `json:"type"`
	Room    domain.RoomID `json:"roomId"`
	From    domain.ConnID `json:"from"`
	Enabled bool          `json:"enabled"`
}

type errorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
