package transport

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"chatsync/internal/dispatch"
	"chatsync/internal/session"
	"chatsync/internal/types"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 10 * time.Second

	// Attachments ride inside frames, so the limit is generous.
	maxFrameSize = 1 << 20
)

// Conn is one live websocket connection feeding a dispatcher. Events flow
// readPump -> dispatcher, intents flow dispatcher -> writePump. Connection
// failures are delivered as events; they never touch tracker state here.
type Conn struct {
	ws         *websocket.Conn
	dispatcher *dispatch.Dispatcher
}

// Dial opens the websocket and starts both pumps. The handshake rides in
// the query string: room, username and the resumption token (empty when no
// identity has been issued yet).
func Dial(ctx context.Context, serverURL string, hs session.Handshake, d *dispatch.Dispatcher) (*Conn, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"

	q := u.Query()
	q.Set("room", hs.Room)
	q.Set("username", hs.Username)
	q.Set("token", hs.ResumptionToken)
	u.RawQuery = q.Encode()

	d.Connecting()
	log.Printf("[TRANSPORT] Dialing %s for room %s", u.Host, hs.Room)

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		d.Deliver(types.Event{Kind: types.EventConnectError, Reason: err.Error()})
		return nil, fmt.Errorf("dial %s: %w", u.Host, err)
	}

	c := &Conn{ws: ws, dispatcher: d}
	d.Bind(c)

	go c.writePump()
	go c.readPump()

	return c, nil
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

func (c *Conn) readPump() {
	defer c.ws.Close()

	c.ws.SetReadLimit(maxFrameSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[TRANSPORT] Unexpected close: %v", err)
			}
			c.dispatcher.Deliver(types.Event{Kind: types.EventDisconnect, Reason: err.Error()})
			return
		}

		ev, err := decodeEvent(data)
		if err != nil {
			log.Printf("[TRANSPORT] Dropping malformed frame: %v", err)
			continue
		}
		c.dispatcher.Deliver(ev)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case in := <-c.dispatcher.Intents():
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			payload, err := encodeIntent(in)
			if err != nil {
				log.Printf("[TRANSPORT] Skipping unencodable intent: %v", err)
				continue
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("[TRANSPORT] Write failed: %v", err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.dispatcher.Done():
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "leaving"))
			return
		}
	}
}
