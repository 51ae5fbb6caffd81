package ledger

import (
	"log"
	"time"

	"chatsync/internal/types"

	"github.com/google/uuid"
)

// Ledger is the ordered, deduplicated view of one room's messages. There
// is exactly one entry per message id; later events with a known id merge
// in place instead of appending.
//
// Ledger is not safe for concurrent use. The dispatcher serializes every
// mutation through its run loop, so no locking happens here.
type Ledger struct {
	messages []types.Message
	index    map[string]int
	now      func() time.Time
}

func New() *Ledger {
	return &Ledger{
		messages: make([]types.Message, 0),
		index:    make(map[string]int),
		now:      time.Now,
	}
}

// Draft is the user-composed input to an optimistic send.
type Draft struct {
	Text          string
	Room          string
	Sender        string
	MediaFile     []byte
	MediaFileName string
	MediaFileType string
}

// AppendLocal inserts a draft optimistically, before any transport
// acknowledgment, so the sender sees it immediately. The provisional id is
// a high-resolution timestamp; the server may later reassign it (see Rekey).
func (l *Ledger) AppendLocal(d Draft) types.Message {
	id := l.now().UTC().Format(time.RFC3339Nano)
	if _, taken := l.index[id]; taken {
		// Two sends inside one clock tick. Fall back to a random id.
		id = uuid.NewString()
	}

	msg := types.Message{
		ID:            id,
		Type:          "CLIENT",
		Text:          d.Text,
		Room:          d.Room,
		Sender:        d.Sender,
		MediaFile:     d.MediaFile,
		MediaFileName: d.MediaFileName,
		MediaFileType: d.MediaFileType,
		Status:        types.StatusSent,
	}

	l.index[msg.ID] = len(l.messages)
	l.messages = append(l.messages, msg)
	return msg
}

// MergeInbound applies an incoming message, new or updated. Unknown ids
// append at the end of the sequence; known ids are overwritten field-wise
// in place, keeping their position. Status never moves backward: a merge
// that would downgrade keeps the already-reached status.
func (l *Ledger) MergeInbound(msg types.Message) {
	idx, ok := l.index[msg.ID]
	if !ok {
		l.index[msg.ID] = len(l.messages)
		l.messages = append(l.messages, msg)
		return
	}

	if existing := l.messages[idx].Status; existing.Rank() > msg.Status.Rank() {
		log.Printf("[LEDGER] Ignoring status downgrade for %s (%s -> %s)", msg.ID, existing, msg.Status)
		msg.Status = existing
	}
	l.messages[idx] = msg
}

// ReplaceAll seeds the ledger from a server history snapshot, discarding
// any prior optimistic-only state. Duplicate ids inside the snapshot
// collapse through the same merge path.
func (l *Ledger) ReplaceAll(history []types.Message) {
	l.messages = make([]types.Message, 0, len(history))
	l.index = make(map[string]int, len(history))
	for _, msg := range history {
		l.MergeInbound(msg)
	}
}

// Rekey renames an optimistic entry to its server-assigned id, keeping its
// list position. If the server id already landed through its own message
// event, the optimistic duplicate is dropped instead. Returns false when
// the old id is unknown.
func (l *Ledger) Rekey(oldID, newID string) bool {
	idx, ok := l.index[oldID]
	if !ok {
		return false
	}
	if oldID == newID {
		return true
	}

	if _, exists := l.index[newID]; exists {
		log.Printf("[LEDGER] Server id %s already present, dropping optimistic entry %s", newID, oldID)
		l.remove(idx)
		return true
	}

	delete(l.index, oldID)
	l.messages[idx].ID = newID
	l.index[newID] = idx
	return true
}

func (l *Ledger) remove(idx int) {
	delete(l.index, l.messages[idx].ID)
	l.messages = append(l.messages[:idx], l.messages[idx+1:]...)
	for i := idx; i < len(l.messages); i++ {
		l.index[l.messages[i].ID] = i
	}
}

// Eligible lists remote messages sitting at the given status, i.e. the
// candidates for the next client-initiated status advancement. Messages
// sent by self are never advanced by this client.
func (l *Ledger) Eligible(self string, at types.MessageStatus) []types.Message {
	var out []types.Message
	for _, msg := range l.messages {
		if msg.OriginFor(self) == types.OriginRemote && msg.Status == at {
			out = append(out, msg)
		}
	}
	return out
}

// Get looks up a message by id.
func (l *Ledger) Get(id string) (types.Message, bool) {
	idx, ok := l.index[id]
	if !ok {
		return types.Message{}, false
	}
	return l.messages[idx], true
}

func (l *Ledger) Len() int {
	return len(l.messages)
}

// Snapshot copies the current sequence for rendering.
func (l *Ledger) Snapshot() []types.Message {
	out := make([]types.Message, len(l.messages))
	copy(out, l.messages)
	return out
}
