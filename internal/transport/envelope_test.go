package transport

import (
	"encoding/json"
	"testing"

	"chatsync/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConnect(t *testing.T) {
	ev, err := decodeEvent([]byte(`{"event":"connect","payload":{"connectionId":"c1"}}`))

	require.NoError(t, err)
	assert.Equal(t, types.EventConnect, ev.Kind)
	assert.Equal(t, "c1", ev.ConnectionID)
}

func TestDecodeMessageKinds(t *testing.T) {
	for _, name := range []string{"get_message", "message_status_updated"} {
		raw := `{"event":"` + name + `","payload":{"id":"m1","text":"hi","sender":"bob","status":"RECEIVED"}}`

		ev, err := decodeEvent([]byte(raw))

		require.NoError(t, err)
		require.NotNil(t, ev.Message)
		assert.Equal(t, "m1", ev.Message.ID)
		assert.Equal(t, types.StatusReceived, ev.Message.Status)
	}
}

func TestDecodeAckCarriesCorrelationID(t *testing.T) {
	ev, err := decodeEvent([]byte(`{"event":"ack","ack":"a1","payload":{"id":"srv-1","sender":"alice","status":"SENT"}}`))

	require.NoError(t, err)
	assert.Equal(t, types.EventAck, ev.Kind)
	assert.Equal(t, "a1", ev.AckID)
	require.NotNil(t, ev.Message)
	assert.Equal(t, "srv-1", ev.Message.ID)
}

func TestDecodeHistory(t *testing.T) {
	ev, err := decodeEvent([]byte(`{"event":"chat_history","payload":[{"id":"h1","sender":"bob","status":"READ"},{"id":"h2","sender":"carol","status":"SENT"}]}`))

	require.NoError(t, err)
	require.Len(t, ev.History, 2)
	assert.Equal(t, "h1", ev.History[0].ID)
}

func TestDecodeAssignToken(t *testing.T) {
	ev, err := decodeEvent([]byte(`{"event":"assign_token","payload":"tok123"}`))

	require.NoError(t, err)
	assert.Equal(t, "tok123", ev.Token)
}

func TestDecodeTypingAndPresence(t *testing.T) {
	ev, err := decodeEvent([]byte(`{"event":"typing_status","payload":{"room":"lobby","sender":"bob","typing":true}}`))
	require.NoError(t, err)
	require.NotNil(t, ev.Typing)
	assert.True(t, ev.Typing.Typing)

	ev, err = decodeEvent([]byte(`{"event":"user_status","payload":{"username":"bob","online":false}}`))
	require.NoError(t, err)
	require.NotNil(t, ev.Presence)
	assert.False(t, ev.Presence.Online)
}

func TestDecodeDiagnosticsAcceptAnyPayload(t *testing.T) {
	ev, err := decodeEvent([]byte(`{"event":"disconnect","payload":"server going away"}`))
	require.NoError(t, err)
	assert.Equal(t, "server going away", ev.Reason)

	ev, err = decodeEvent([]byte(`{"event":"connect_error","payload":{"code":502}}`))
	require.NoError(t, err)
	assert.Equal(t, `{"code":502}`, ev.Reason)
}

func TestDecodeUnknownEventKindPassesThrough(t *testing.T) {
	ev, err := decodeEvent([]byte(`{"event":"mystery","payload":{}}`))

	require.NoError(t, err)
	assert.Equal(t, types.EventKind("mystery"), ev.Kind, "the dispatcher decides what to ignore")
}

func TestDecodeMalformedFrame(t *testing.T) {
	_, err := decodeEvent([]byte(`{not json`))
	assert.Error(t, err)

	_, err = decodeEvent([]byte(`{"event":"get_message","payload":"not an object"}`))
	assert.Error(t, err)
}

func TestEncodeSendMessageIncludesAck(t *testing.T) {
	msg := types.Message{ID: "m1", Text: "hi", Room: "lobby", Sender: "alice", Status: types.StatusSent}

	data, err := encodeIntent(types.Intent{Kind: types.IntentSendMessage, AckID: "a1", Msg: &msg})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "send_message", env.Event)
	assert.Equal(t, "a1", env.Ack)

	var decoded types.Message
	require.NoError(t, json.Unmarshal(env.Payload, &decoded))
	assert.Equal(t, msg, decoded)
}

func TestEncodeTyping(t *testing.T) {
	data, err := encodeIntent(types.Intent{Kind: types.IntentTyping, Typing: &types.TypingStatus{
		Room: "lobby", Sender: "alice", Typing: true,
	}})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "typing", env.Event)
	assert.Empty(t, env.Ack)
}

func TestEncodeUnknownIntentFails(t *testing.T) {
	_, err := encodeIntent(types.Intent{Kind: "teleport"})
	assert.Error(t, err)
}
