// Package ws implements the per-feed WebSocket fan-out: one broadcaster
// serves the feed's WS endpoint, accepts any number of clients, and relays
// binary MPEG-TS chunks to all of them with per-client drop-on-slow.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hydrobotics/rov-relay/internal/errors"
	"github.com/hydrobotics/rov-relay/internal/hooks"
)

const (
	pingPeriod  = 20 * time.Second
	pongTimeout = 10 * time.Second
	closeWait   = 5 * time.Second
	sendBuffer  = 1
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Broadcaster owns a single event loop that serialises accept, broadcast,
// and disconnect so the client set never needs its own lock beyond the
// loop's serial execution. Other goroutines interact with it only through
// its channels.
type Broadcaster struct {
	feedID int
	log    *slog.Logger
	hooks  *hooks.Manager

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	countReq   chan chan int

	clients map[*client]struct{}

	wg sync.WaitGroup
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// New creates a broadcaster for one feed. Run must be called to start its
// event loop. hm is optional and may be nil; when set, client connect and
// disconnect are dispatched as lifecycle events.
func New(feedID int, log *slog.Logger, hm *hooks.Manager) *Broadcaster {
	return &Broadcaster{
		feedID:     feedID,
		log:        log,
		hooks:      hm,
		register:   make(chan *client, 16),
		unregister: make(chan *client, 16),
		broadcast:  make(chan []byte, 64),
		countReq:   make(chan chan int),
		clients:    make(map[*client]struct{}),
	}
}

// ClientCount reports the number of currently connected clients. It
// round-trips through the event loop so the count reflects a consistent
// snapshot rather than racing the loop's own map mutations.
func (b *Broadcaster) ClientCount() int {
	reply := make(chan int, 1)
	b.countReq <- reply
	return <-reply
}

// Handler returns the http.HandlerFunc to mount for this feed's WS
// endpoint.
func (b *Broadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			if b.log != nil {
				b.log.Warn("ws upgrade failed", "feed_id", b.feedID, "error", err)
			}
			return
		}
		c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
		b.register <- c

		b.wg.Add(1)
		go b.writePump(c)
		go b.readPump(c)
	}
}

// Broadcast hands a chunk to the event loop and returns immediately; it
// never blocks on a slow consumer.
func (b *Broadcaster) Broadcast(chunk []byte) {
	select {
	case b.broadcast <- chunk:
	default:
		if b.log != nil {
			b.log.Warn("ws broadcaster inbound queue full, dropping chunk", "feed_id", b.feedID)
		}
	}
}

// Run drives the single-threaded event loop until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range b.clients {
				b.dropClient(ctx, c, nil)
			}
			b.wg.Wait()
			return

		case c := <-b.register:
			b.clients[c] = struct{}{}
			if b.log != nil {
				b.log.Info("ws client connected", "feed_id", b.feedID, "ws_client_id", c.id, "clients", len(b.clients))
			}
			b.hooks.TriggerEvent(ctx, *hooks.NewEvent(hooks.EventWSClientConnected).
				WithFeedID(strconv.Itoa(b.feedID)).
				WithData("ws_client_id", c.id))

		case c := <-b.unregister:
			b.dropClient(ctx, c, nil)

		case chunk := <-b.broadcast:
			for c := range b.clients {
				select {
				case c.send <- chunk:
				default:
					b.dropClient(ctx, c, errors.NewWSClientError(c.id, errSlowClient))
				}
			}

		case reply := <-b.countReq:
			reply <- len(b.clients)
		}
	}
}

var errSlowClient = &slowClientErr{}

type slowClientErr struct{}

func (*slowClientErr) Error() string { return "client send buffer full" }

// dropClient removes a client from the set and closes its connection. Any
// failure here is logged, never propagated upward: a broken client must
// never take down the broadcaster.
func (b *Broadcaster) dropClient(ctx context.Context, c *client, cause error) {
	if _, ok := b.clients[c]; !ok {
		return
	}
	delete(b.clients, c)
	close(c.send)
	c.conn.Close()
	if b.log != nil {
		if cause != nil {
			b.log.Info("ws client dropped", "feed_id", b.feedID, "ws_client_id", c.id, "error", cause)
		} else {
			b.log.Info("ws client disconnected", "feed_id", b.feedID, "ws_client_id", c.id)
		}
	}
	event := hooks.NewEvent(hooks.EventWSClientDisconnected).WithFeedID(strconv.Itoa(b.feedID)).WithData("ws_client_id", c.id)
	if cause != nil {
		event = event.WithData("error", cause.Error())
	}
	b.hooks.TriggerEvent(ctx, *event)
}

func (b *Broadcaster) writePump(c *client) {
	defer b.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case chunk, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(closeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(closeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				b.unregister <- c
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(closeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				b.unregister <- c
				return
			}
		}
	}
}

func (b *Broadcaster) readPump(c *client) {
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			b.unregister <- c
			return
		}
	}
}
