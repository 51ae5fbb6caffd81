package transport

import (
	"encoding/json"
	"fmt"

	"chatsync/internal/types"
)

// Envelope is the wire frame. Event carries the event name, Ack the
// correlation id for send acknowledgments, Payload the event body.
type Envelope struct {
	Event   string          `json:"event"`
	Ack     string          `json:"ack,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func decodeEvent(data []byte) (types.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return types.Event{}, fmt.Errorf("decode envelope: %w", err)
	}

	ev := types.Event{Kind: types.EventKind(env.Event), AckID: env.Ack}

	switch ev.Kind {
	case types.EventConnect:
		var p struct {
			ConnectionID string `json:"connectionId"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return types.Event{}, fmt.Errorf("decode connect payload: %w", err)
		}
		ev.ConnectionID = p.ConnectionID

	case types.EventMessage, types.EventMessageStatus, types.EventAck:
		if len(env.Payload) == 0 {
			break
		}
		var m types.Message
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return types.Event{}, fmt.Errorf("decode message payload: %w", err)
		}
		ev.Message = &m

	case types.EventHistory:
		if err := json.Unmarshal(env.Payload, &ev.History); err != nil {
			return types.Event{}, fmt.Errorf("decode history payload: %w", err)
		}

	case types.EventAssignToken:
		if err := json.Unmarshal(env.Payload, &ev.Token); err != nil {
			return types.Event{}, fmt.Errorf("decode token payload: %w", err)
		}

	case types.EventTyping:
		var t types.TypingStatus
		if err := json.Unmarshal(env.Payload, &t); err != nil {
			return types.Event{}, fmt.Errorf("decode typing payload: %w", err)
		}
		ev.Typing = &t

	case types.EventUserStatus:
		var u types.UserStatus
		if err := json.Unmarshal(env.Payload, &u); err != nil {
			return types.Event{}, fmt.Errorf("decode user status payload: %w", err)
		}
		ev.Presence = &u

	case types.EventConnectError, types.EventDisconnect, types.EventError:
		// Diagnostic payloads are display-only; accept a bare string or
		// fall back to the raw body.
		if err := json.Unmarshal(env.Payload, &ev.Reason); err != nil {
			ev.Reason = string(env.Payload)
		}
	}

	return ev, nil
}

func encodeIntent(in types.Intent) ([]byte, error) {
	env := Envelope{Event: string(in.Kind), Ack: in.AckID}

	var body any
	switch in.Kind {
	case types.IntentSendMessage, types.IntentUpdateStatus:
		body = in.Msg
	case types.IntentTyping:
		body = in.Typing
	default:
		return nil, fmt.Errorf("unknown intent kind %q", in.Kind)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", in.Kind, err)
	}
	env.Payload = payload

	return json.Marshal(env)
}
