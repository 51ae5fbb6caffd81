package typing

import "time"

type entry struct {
	sender  string
	updated time.Time
}

// Tracker holds the set of currently-typing users. A typing=false toggle
// removes the entry outright instead of keeping a false-flagged record, so
// the set stays bounded to active typists.
//
// Not safe for concurrent use; the dispatcher serializes access.
type Tracker struct {
	entries []entry
	now     func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		entries: make([]entry, 0),
		now:     time.Now,
	}
}

// Set applies a typing toggle. True inserts or refreshes the sender; false
// removes it, as a no-op when the sender was never tracked.
func (t *Tracker) Set(sender string, isTyping bool) {
	idx := -1
	for i := range t.entries {
		if t.entries[i].sender == sender {
			idx = i
			break
		}
	}

	if isTyping {
		if idx == -1 {
			t.entries = append(t.entries, entry{sender: sender, updated: t.now()})
			return
		}
		t.entries[idx].updated = t.now()
		return
	}

	if idx != -1 {
		t.entries = append(t.entries[:idx], t.entries[idx+1:]...)
	}
}

// Expire removes entries that have not been refreshed within ttl and
// returns the senders swept. This is the safety net for a lost
// typing=false toggle; under normal traffic the toggle wins.
func (t *Tracker) Expire(ttl time.Duration) []string {
	cutoff := t.now().Add(-ttl)
	var swept []string
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.updated.Before(cutoff) {
			swept = append(swept, e.sender)
			continue
		}
		kept = append(kept, e)
	}
	t.entries = kept
	return swept
}

func (t *Tracker) Len() int {
	return len(t.entries)
}

// Active lists the currently-typing senders in insertion order.
func (t *Tracker) Active() []string {
	out := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.sender)
	}
	return out
}
