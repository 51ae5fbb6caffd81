package ledger

import (
	"testing"
	"time"

	"chatsync/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func remoteMsg(id, sender, text string, status types.MessageStatus) types.Message {
	return types.Message{
		ID:     id,
		Text:   text,
		Room:   "lobby",
		Sender: sender,
		Status: status,
	}
}

func TestAppendLocalOptimistic(t *testing.T) {
	l := New()

	msg := l.AppendLocal(Draft{Text: "hi", Room: "lobby", Sender: "alice"})

	require.Equal(t, 1, l.Len())
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, types.StatusSent, msg.Status)
	assert.Equal(t, types.OriginLocal, msg.OriginFor("alice"))

	got, ok := l.Get(msg.ID)
	require.True(t, ok)
	assert.Equal(t, msg, got)
}

func TestAppendLocalUniqueIDsUnderSameClockTick(t *testing.T) {
	l := New()
	frozen := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return frozen }

	a := l.AppendLocal(Draft{Text: "one", Room: "lobby", Sender: "alice"})
	b := l.AppendLocal(Draft{Text: "two", Room: "lobby", Sender: "alice"})

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, l.Len())
}

func TestMergeInboundDedup(t *testing.T) {
	l := New()

	l.MergeInbound(remoteMsg("m1", "bob", "first", types.StatusSent))
	l.MergeInbound(remoteMsg("m1", "bob", "edited", types.StatusSent))
	l.MergeInbound(remoteMsg("m1", "bob", "edited again", types.StatusReceived))

	require.Equal(t, 1, l.Len())
	got, ok := l.Get("m1")
	require.True(t, ok)
	assert.Equal(t, "edited again", got.Text)
	assert.Equal(t, types.StatusReceived, got.Status)
}

func TestMergeInboundStatusNeverDowngrades(t *testing.T) {
	l := New()

	l.MergeInbound(remoteMsg("m1", "bob", "hi", types.StatusRead))
	l.MergeInbound(remoteMsg("m1", "bob", "hi again", types.StatusSent))

	got, ok := l.Get("m1")
	require.True(t, ok)
	assert.Equal(t, types.StatusRead, got.Status, "READ must survive a stale merge")
	assert.Equal(t, "hi again", got.Text, "other fields still take the last write")
}

func TestMergeInboundPreservesPosition(t *testing.T) {
	l := New()

	l.MergeInbound(remoteMsg("m1", "bob", "a", types.StatusSent))
	l.MergeInbound(remoteMsg("m2", "carol", "b", types.StatusSent))
	l.MergeInbound(remoteMsg("m3", "bob", "c", types.StatusSent))

	// Updating the middle entry must not move it.
	l.MergeInbound(remoteMsg("m2", "carol", "b2", types.StatusReceived))

	snap := l.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{snap[0].ID, snap[1].ID, snap[2].ID})
	assert.Equal(t, "b2", snap[1].Text)
}

func TestReplaceAllThenAppendsKeepOrder(t *testing.T) {
	l := New()
	l.AppendLocal(Draft{Text: "optimistic leftover", Room: "lobby", Sender: "alice"})

	history := []types.Message{
		remoteMsg("h1", "bob", "one", types.StatusRead),
		remoteMsg("h2", "carol", "two", types.StatusRead),
	}
	l.ReplaceAll(history)

	l.MergeInbound(remoteMsg("m3", "bob", "three", types.StatusSent))
	l.MergeInbound(remoteMsg("m4", "carol", "four", types.StatusSent))

	snap := l.Snapshot()
	require.Len(t, snap, 4)
	for i, want := range []string{"h1", "h2", "m3", "m4"} {
		assert.Equal(t, want, snap[i].ID)
	}
}

func TestReplaceAllCollapsesDuplicateIDs(t *testing.T) {
	l := New()

	l.ReplaceAll([]types.Message{
		remoteMsg("h1", "bob", "old", types.StatusSent),
		remoteMsg("h1", "bob", "new", types.StatusReceived),
	})

	require.Equal(t, 1, l.Len())
	got, _ := l.Get("h1")
	assert.Equal(t, "new", got.Text)
}

func TestRekeyRenamesInPlace(t *testing.T) {
	l := New()
	local := l.AppendLocal(Draft{Text: "hi", Room: "lobby", Sender: "alice"})
	l.MergeInbound(remoteMsg("m2", "bob", "later", types.StatusSent))

	require.True(t, l.Rekey(local.ID, "srv-1"))

	snap := l.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "srv-1", snap[0].ID, "renamed entry keeps its position")

	_, ok := l.Get(local.ID)
	assert.False(t, ok)
	got, ok := l.Get("srv-1")
	require.True(t, ok)
	assert.Equal(t, "hi", got.Text)
}

func TestRekeyDropsOptimisticWhenServerCopyLanded(t *testing.T) {
	l := New()
	local := l.AppendLocal(Draft{Text: "hi", Room: "lobby", Sender: "alice"})

	// The server's own broadcast beat the ack.
	l.MergeInbound(remoteMsg("srv-1", "alice", "hi", types.StatusReceived))

	require.True(t, l.Rekey(local.ID, "srv-1"))
	require.Equal(t, 1, l.Len())
	got, ok := l.Get("srv-1")
	require.True(t, ok)
	assert.Equal(t, types.StatusReceived, got.Status)
}

func TestRekeyUnknownIDIsNoop(t *testing.T) {
	l := New()
	assert.False(t, l.Rekey("ghost", "srv-1"))
	assert.Equal(t, 0, l.Len())
}

func TestEligibleFiltersOwnMessages(t *testing.T) {
	l := New()
	l.AppendLocal(Draft{Text: "mine", Room: "lobby", Sender: "alice"})
	l.MergeInbound(remoteMsg("m1", "bob", "theirs", types.StatusSent))
	l.MergeInbound(remoteMsg("m2", "carol", "also theirs", types.StatusReceived))

	sent := l.Eligible("alice", types.StatusSent)
	require.Len(t, sent, 1)
	assert.Equal(t, "m1", sent[0].ID)

	received := l.Eligible("alice", types.StatusReceived)
	require.Len(t, received, 1)
	assert.Equal(t, "m2", received[0].ID)
}
