package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"github.com/noteduco342/OMMessenger-sync/internal/cache"
	"github.com/noteduco342/OMMessenger-sync/internal/engine"
)

const (
	pingInterval   = 30 * time.Second
	pongTimeout    = 90 * time.Second
	writeTimeout   = 10 * time.Second
	baseRetryDelay = 2 * time.Second
	maxRetryDelay  = 30 * time.Second
)

// Client maintains the upstream WebSocket connection: it reads pushed events,
// feeds them through the engine strictly in arrival order, and carries the
// engine's wire emissions back out. It reconnects with exponential backoff and
// lets the server's post-reconnect batch replay restore anything missed.
type Client struct {
	url      string
	token    string
	engine   *engine.Engine
	sink     Sink
	presence *cache.PresenceCache

	mu   sync.Mutex // guards conn writes
	conn *websocket.Conn
}

// NewClient builds a client for the given ws endpoint. token goes out as a
// bearer Authorization header during the handshake. presence may be nil.
func NewClient(url, token string, eng *engine.Engine, sink Sink, presence *cache.PresenceCache) *Client {
	if sink == nil {
		sink = NopSink{}
	}
	return &Client{url: url, token: token, engine: eng, sink: sink, presence: presence}
}

// Run connects and processes events until ctx is cancelled. Each dropped
// connection is retried with exponential backoff.
func (c *Client) Run(ctx context.Context) error {
	delay := baseRetryDelay
	for {
		if err := c.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("WebSocket connection lost: %v (reconnecting in %s)", err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}

func (c *Client) runOnce(ctx context.Context) error {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	log.Printf("Connected to %s", c.url)

	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	stopPing := make(chan struct{})
	defer close(stopPing)
	go c.pingRoutine(conn, stopPing)

	// Close the connection on cancellation so the blocked read returns.
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stopPing:
		}
	}()

	for {
		frameType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		if frameType == websocket.BinaryMessage {
			if data, err = decompressData(data); err != nil {
				log.Printf("Dropping undecodable compressed frame: %v", err)
				continue
			}
		}

		evt, err := Deserialize(data)
		if err != nil {
			log.Printf("Dropping event: %v", err)
			continue
		}

		evtCtx := &EventContext{Engine: c.engine, Out: c, Sink: c.sink, Presence: c.presence}
		if err := evt.Process(evtCtx); err != nil {
			log.Printf("Error processing %s event: %v", evt.GetType(), err)
		}
	}
}

func (c *Client) pingRoutine(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeTimeout)); err != nil {
				log.Printf("Ping failed: %v", err)
				conn.Close()
				return
			}
		}
	}
}

var errNotConnected = errors.New("ws: not connected")

func (c *Client) emit(evtType string, payload interface{}) error {
	body, err := ToJson(payload)
	if err != nil {
		return err
	}
	frame, err := ToJson(SerializedMessage{Type: evtType, Payload: body})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// MarkRead acknowledges a read direct message.
func (c *Client) MarkRead(messageID, senderID uint) error {
	return c.emit("mark_read", map[string]uint{
		"message_id": messageID,
		"sender_id":  senderID,
	})
}

// Delivered acknowledges delivery of a direct message.
func (c *Client) Delivered(messageID, senderID uint) error {
	return c.emit("message_delivered", map[string]uint{
		"message_id": messageID,
		"sender_id":  senderID,
	})
}

// GroupSeen marks a group message seen by the local user.
func (c *Client) GroupSeen(messageID, groupID uint) error {
	return c.emit("mark_group_message_seen", map[string]uint{
		"message_id": messageID,
		"group_id":   groupID,
		"user_id":    c.engine.SelfID(),
	})
}

// Send dispatches an outbound message; the routing event depends on the
// conversation kind.
func (c *Client) Send(msg engine.OutboundMessage) error {
	if msg.IsGroup() {
		return c.emit("send_group_message", msg)
	}
	return c.emit("send_message", msg)
}

// JoinGroup subscribes to a group's event stream.
func (c *Client) JoinGroup(groupID uint) error {
	return c.emit("join_group", map[string]uint{"group_id": groupID})
}
