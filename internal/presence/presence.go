package presence

// Entry is one user's last known online state.
type Entry struct {
	Username string
	Online   bool
}

// Tracker maps usernames to online state. The server is the authority:
// entries are upserted on every presence event and never expired locally.
// A user going offline arrives as Online=false, not as a removal.
//
// Not safe for concurrent use; the dispatcher serializes access.
type Tracker struct {
	entries []Entry
}

func NewTracker() *Tracker {
	return &Tracker{entries: make([]Entry, 0)}
}

// Upsert replaces the entry for the username if present, appends otherwise.
func (t *Tracker) Upsert(e Entry) {
	for i := range t.entries {
		if t.entries[i].Username == e.Username {
			t.entries[i] = e
			return
		}
	}
	t.entries = append(t.entries, e)
}

func (t *Tracker) Len() int {
	return len(t.entries)
}

// Snapshot copies the tracked entries in arrival order. Filtering out the
// local user is the rendering layer's job.
func (t *Tracker) Snapshot() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
