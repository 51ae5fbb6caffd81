package types

// MessageStatus tracks delivery progress of a single message.
// Transitions only ever move forward: SENT -> RECEIVED -> READ.
type MessageStatus string

const (
	StatusSent     MessageStatus = "SENT"
	StatusReceived MessageStatus = "RECEIVED"
	StatusRead     MessageStatus = "READ"
)

// Rank maps a status onto the transition order so merges can refuse to
// move a message backward. Unknown statuses rank below SENT.
func (s MessageStatus) Rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusReceived:
		return 2
	case StatusRead:
		return 3
	}
	return 0
}

// Next returns the following status in the delivery sequence. The second
// return is false once the sequence is exhausted.
func (s MessageStatus) Next() (MessageStatus, bool) {
	switch s {
	case StatusSent:
		return StatusReceived, true
	case StatusReceived:
		return StatusRead, true
	}
	return s, false
}

type Origin int

const (
	OriginLocal Origin = iota
	OriginRemote
)

// Message is the wire shape shared with the server. Field names follow the
// server contract, so MediaFile and friends keep their camelCase keys.
type Message struct {
	ID            string        `json:"id"`
	Type          string        `json:"type"`
	Text          string        `json:"text"`
	Room          string        `json:"room"`
	Sender        string        `json:"sender"`
	MediaFile     []byte        `json:"mediaFile,omitempty"`
	MediaFileName string        `json:"mediaFileName,omitempty"`
	MediaFileType string        `json:"mediaFileType,omitempty"`
	Status        MessageStatus `json:"status"`
}

// OriginFor derives where the message came from. Origin is never
// serialized; it only exists relative to the local username.
func (m Message) OriginFor(self string) Origin {
	if m.Sender == self {
		return OriginLocal
	}
	return OriginRemote
}

func (m Message) HasAttachment() bool {
	return m.MediaFileName != "" || len(m.MediaFile) > 0
}

// TypingStatus is the typing toggle payload, inbound and outbound.
type TypingStatus struct {
	Room   string `json:"room"`
	Sender string `json:"sender"`
	Typing bool   `json:"typing"`
}

// UserStatus is the presence payload. A user going offline arrives as an
// update with Online=false, never as a removal.
type UserStatus struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`
}
