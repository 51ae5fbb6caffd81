package types

// EventKind names the inbound events the server can deliver. The strings
// double as the wire event names.
type EventKind string

const (
	EventConnect       EventKind = "connect"
	EventMessage       EventKind = "get_message"
	EventHistory       EventKind = "chat_history"
	EventAssignToken   EventKind = "assign_token"
	EventTyping        EventKind = "typing_status"
	EventUserStatus    EventKind = "user_status"
	EventMessageStatus EventKind = "message_status_updated"
	EventAck           EventKind = "ack"
	EventConnectError  EventKind = "connect_error"
	EventDisconnect    EventKind = "disconnect"
	EventError         EventKind = "error"
)

// Event is the decoded inbound event handed to the dispatcher. Exactly one
// payload field is set, matching the Kind.
type Event struct {
	Kind EventKind

	ConnectionID string
	Message      *Message
	History      []Message
	Token        string
	Typing       *TypingStatus
	Presence     *UserStatus
	AckID        string
	Reason       string
}

// IntentKind names the outbound frames the client produces. The strings
// double as the wire event names.
type IntentKind string

const (
	IntentSendMessage  IntentKind = "send_message"
	IntentTyping       IntentKind = "typing"
	IntentUpdateStatus IntentKind = "update_message_status"
)

// Intent is an outbound request queued by the dispatcher for the transport
// to write. AckID is only set for send_message, which expects the server to
// answer with a correlated ack frame.
type Intent struct {
	Kind   IntentKind
	AckID  string
	Msg    *Message
	Typing *TypingStatus
}
