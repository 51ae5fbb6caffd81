package dispatch

import (
	"log"
	"time"

	"chatsync/internal/ledger"
	"chatsync/internal/types"

	"github.com/google/uuid"
)

// Deliver hands an inbound transport event to the run loop. Safe to call
// from any goroutine; returns without delivering once the room was left.
func (d *Dispatcher) Deliver(ev types.Event) {
	select {
	case d.events <- ev:
	case <-d.done:
	}
}

func (d *Dispatcher) do(act func()) {
	select {
	case d.actions <- act:
	case <-d.done:
	}
}

// Send appends the draft optimistically and queues the send_message intent
// with a fresh ack id. The returned intent reaches the transport even if
// the network is down; an unacknowledged message simply stays SENT.
func (d *Dispatcher) Send(draft ledger.Draft) {
	draft.Room = d.room
	draft.Sender = d.self
	d.do(func() {
		msg := d.ledger.AppendLocal(draft)
		ackID := uuid.NewString()
		d.pendingAcks[ackID] = msg.ID
		d.emit(types.Intent{Kind: types.IntentSendMessage, AckID: ackID, Msg: &msg})
		log.Printf("[DISPATCH] Optimistic send %s (ack %s)", msg.ID, ackID)
	})
}

// SetTyping queues the outbound typing toggle. Debounce timing belongs to
// the caller; the dispatcher only exposes the toggle.
func (d *Dispatcher) SetTyping(isTyping bool) {
	d.do(func() {
		d.emit(types.Intent{Kind: types.IntentTyping, Typing: &types.TypingStatus{
			Room:   d.room,
			Sender: d.self,
			Typing: isTyping,
		}})
	})
}

// MarkRead requests READ for every remote message currently at RECEIVED.
// The caller invokes this when the conversation becomes visible.
func (d *Dispatcher) MarkRead() {
	d.do(func() {
		d.advanceEligible(types.StatusReceived, types.StatusRead)
	})
}

// ExpireTyping sweeps typing entries older than ttl through the run loop,
// keeping the mutation serialized with everything else.
func (d *Dispatcher) ExpireTyping(ttl time.Duration) {
	d.do(func() {
		if swept := d.typing.Expire(ttl); len(swept) > 0 {
			log.Printf("[DISPATCH] Swept stale typing entries: %v", swept)
		}
	})
}

// Connecting records that a transport dial is underway.
func (d *Dispatcher) Connecting() {
	d.do(func() {
		d.state = StateConnecting
	})
}

// Bind attaches the live transport so Leave can tear it down.
func (d *Dispatcher) Bind(conn interface{ Close() error }) {
	d.tmu.Lock()
	d.transport = conn
	d.tmu.Unlock()
}

// Leave tears down the transport and stops the run loop, discarding all
// in-memory trackers. Blocks until the loop has exited.
func (d *Dispatcher) Leave() {
	d.closeOnce.Do(func() {
		close(d.quit)
		d.tmu.Lock()
		if d.transport != nil {
			d.transport.Close()
		}
		d.tmu.Unlock()
	})
	<-d.done
}

// Snapshot returns a consistent copy of the rendered state, taken on the
// run loop. After Leave it reports an empty disconnected view.
func (d *Dispatcher) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	select {
	case d.actions <- func() {
		reply <- Snapshot{
			State:        d.state,
			ConnectionID: d.session.Current().ConnectionID,
			Messages:     d.ledger.Snapshot(),
			Typing:       d.typing.Active(),
			Online:       d.presence.Snapshot(),
		}
	}:
		return <-reply
	case <-d.done:
		return Snapshot{State: StateDisconnected}
	}
}

// Intents is the outbound queue consumed by the transport write pump.
func (d *Dispatcher) Intents() <-chan types.Intent {
	return d.intents
}

// Notices carries connection diagnostics for the UI layer.
func (d *Dispatcher) Notices() <-chan Notice {
	return d.notices
}

// Updates pulses whenever tracked state may have changed.
func (d *Dispatcher) Updates() <-chan struct{} {
	return d.updates
}

// Done is closed once the run loop has exited.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}
