package dispatch

import (
	"io"
	"log"
	"sync"

	"chatsync/internal/ledger"
	"chatsync/internal/presence"
	"chatsync/internal/session"
	"chatsync/internal/typing"
	"chatsync/internal/types"
)

// ConnState is the connection lifecycle position.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateErrored
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateErrored:
		return "ERROR"
	}
	return "DISCONNECTED"
}

// Notice is a diagnostic surfaced to the UI layer. Notices never mutate
// ledger, presence or typing state; a disconnect freezes the last known
// view instead of clearing it.
type Notice struct {
	Kind   types.EventKind
	Detail string
}

// Snapshot is a consistent copy of everything the UI renders from.
type Snapshot struct {
	State        ConnState
	ConnectionID string
	Messages     []types.Message
	Typing       []string
	Online       []presence.Entry
}

// Dispatcher routes inbound transport events to the session, ledger,
// presence and typing trackers, and queues outbound intents for the
// transport to write. All mutation happens on the single Run goroutine;
// trackers need no locks because nothing else ever touches them.
type Dispatcher struct {
	session  *session.Store
	ledger   *ledger.Ledger
	presence *presence.Tracker
	typing   *typing.Tracker

	self  string
	room  string
	state ConnState

	// ack id -> provisional ledger id, awaiting the server's ack frame
	pendingAcks map[string]string
	// message id -> highest status rank already requested, so repeated
	// deliveries do not re-emit the same advancement
	requested map[string]int

	events  chan types.Event
	actions chan func()
	intents chan types.Intent
	notices chan Notice
	updates chan struct{}
	quit    chan struct{}
	done    chan struct{}

	tmu       sync.Mutex
	transport io.Closer
	closeOnce sync.Once
}

func New(sess *session.Store) *Dispatcher {
	cur := sess.Current()
	return &Dispatcher{
		session:     sess,
		ledger:      ledger.New(),
		presence:    presence.NewTracker(),
		typing:      typing.NewTracker(),
		self:        cur.Username,
		room:        cur.Room,
		state:       StateDisconnected,
		pendingAcks: make(map[string]string),
		requested:   make(map[string]int),
		events:      make(chan types.Event, 256),
		actions:     make(chan func()),
		intents:     make(chan types.Intent, 256),
		notices:     make(chan Notice, 16),
		updates:     make(chan struct{}, 1),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Run drives the dispatcher until Leave. Inbound events and user actions
// are serialized here; no two of them ever run concurrently.
func (d *Dispatcher) Run() {
	log.Printf("[DISPATCH] Run loop started for room %s as %s", d.room, d.self)
	defer close(d.done)

	for {
		select {
		case <-d.quit:
			log.Printf("[DISPATCH] Leaving room %s, discarding trackers", d.room)
			d.reset()
			return

		case ev := <-d.events:
			d.handle(ev)
			d.signalUpdate()

		case act := <-d.actions:
			act()
			d.signalUpdate()
		}
	}
}

func (d *Dispatcher) handle(ev types.Event) {
	switch ev.Kind {
	case types.EventConnect:
		d.state = StateConnected
		d.session.SetConnectionID(ev.ConnectionID)
		log.Printf("[DISPATCH] Connected with id %s", ev.ConnectionID)

	case types.EventMessage:
		if ev.Message == nil {
			return
		}
		d.ledger.MergeInbound(*ev.Message)
		d.advanceEligible(types.StatusSent, types.StatusReceived)

	case types.EventHistory:
		log.Printf("[DISPATCH] Seeding ledger with %d history messages", len(ev.History))
		d.ledger.ReplaceAll(ev.History)
		d.advanceEligible(types.StatusSent, types.StatusReceived)

	case types.EventAssignToken:
		if err := d.session.AdoptToken(ev.Token); err != nil {
			log.Printf("[DISPATCH] Token persist failed: %v", err)
			d.notify(Notice{Kind: types.EventError, Detail: err.Error()})
		}

	case types.EventTyping:
		if ev.Typing == nil {
			return
		}
		d.typing.Set(ev.Typing.Sender, ev.Typing.Typing)

	case types.EventUserStatus:
		if ev.Presence == nil {
			return
		}
		d.presence.Upsert(presence.Entry{Username: ev.Presence.Username, Online: ev.Presence.Online})

	case types.EventMessageStatus:
		// Status changes reuse the merge path; the ledger clamps any
		// attempt to move a message backward.
		if ev.Message == nil {
			return
		}
		d.ledger.MergeInbound(*ev.Message)

	case types.EventAck:
		d.handleAck(ev)

	case types.EventConnectError:
		d.state = StateErrored
		log.Printf("[DISPATCH] Connection error: %s", ev.Reason)
		d.notify(Notice{Kind: ev.Kind, Detail: ev.Reason})

	case types.EventDisconnect:
		d.state = StateDisconnected
		log.Printf("[DISPATCH] Disconnected: %s", ev.Reason)
		d.notify(Notice{Kind: ev.Kind, Detail: ev.Reason})

	case types.EventError:
		d.notify(Notice{Kind: ev.Kind, Detail: ev.Reason})

	default:
		log.Printf("[DISPATCH] Ignoring unknown event kind %q", ev.Kind)
	}
}

// handleAck reconciles an optimistic entry with the server's answer to a
// send. The server id always wins: if it reassigned the id, the entry is
// renamed in place rather than appended a second time.
func (d *Dispatcher) handleAck(ev types.Event) {
	provisional, ok := d.pendingAcks[ev.AckID]
	if !ok {
		log.Printf("[DISPATCH] Ack %s matches no pending send, ignoring", ev.AckID)
		return
	}
	delete(d.pendingAcks, ev.AckID)

	if ev.Message == nil {
		return
	}
	if ev.Message.ID != provisional {
		log.Printf("[DISPATCH] Server reassigned %s -> %s", provisional, ev.Message.ID)
	}
	d.ledger.Rekey(provisional, ev.Message.ID)
	d.ledger.MergeInbound(*ev.Message)
}

// advanceEligible emits update_message_status intents for remote messages
// sitting at from. Each advancement is requested once per id and target;
// the ledger itself only moves when the server echoes the change back.
func (d *Dispatcher) advanceEligible(from, to types.MessageStatus) {
	for _, msg := range d.ledger.Eligible(d.self, from) {
		if d.requested[msg.ID] >= to.Rank() {
			continue
		}
		d.requested[msg.ID] = to.Rank()
		msg.Status = to
		d.emit(types.Intent{Kind: types.IntentUpdateStatus, Msg: &msg})
	}
}

func (d *Dispatcher) emit(in types.Intent) {
	select {
	case d.intents <- in:
	default:
		log.Printf("[DISPATCH] Intent queue full, dropping %s", in.Kind)
	}
}

func (d *Dispatcher) notify(n Notice) {
	select {
	case d.notices <- n:
	default:
	}
}

func (d *Dispatcher) signalUpdate() {
	select {
	case d.updates <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) reset() {
	d.ledger = ledger.New()
	d.presence = presence.NewTracker()
	d.typing = typing.NewTracker()
	d.pendingAcks = make(map[string]string)
	d.requested = make(map[string]int)
	d.state = StateDisconnected
}
