package domain

// TransferID identifies one logical file send within a room.
type TransferID string

// FileMeta is captured from the first fragment of a transfer.
type FileMeta struct {
	Name        string
	ContentType string
}

// ReassembledFile is the reconstructed payload emitted once the
// terminal fragment of a transfer arrives.
type ReassembledFile struct {
	Meta FileMeta
	Data []byte
}
