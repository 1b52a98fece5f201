package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Message is the JSON envelope used in both directions.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// clientPayload covers the data shapes of every inbound event.
type clientPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
	Guess  string `json:"guess,omitempty"`
}

// Client is one WebSocket connection. It satisfies the coordinator's
// outbound connection interface, so the coordinator pushes events straight
// into the client's send queue.
type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	// done is closed exactly once when the connection is finished; Send
	// selects on it so late events from the coordinator cannot block or
	// panic.
	done     chan struct{}
	doneOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:      uuid.NewString(),
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(inboundRate, inboundBurst),
		done:    make(chan struct{}),
	}
}

// ID returns the connection handle the coordinator tracks seats by.
func (c *Client) ID() string { return c.id }

// Send queues an event frame for the peer. It never blocks: frames for a
// finished or saturated connection are dropped.
func (c *Client) Send(event string, data any) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		c.hub.log.Error().Err(err).Str("event", event).Msg("dropping unencodable frame")
		return
	}
	select {
	case <-c.done:
	case c.send <- frame:
	default:
		c.hub.log.Warn().Str("conn", c.id).Str("event", event).Msg("send queue full, dropping frame")
	}
}

func encodeFrame(event string, data any) ([]byte, error) {
	msg := Message{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}

func (c *Client) finish() {
	c.doneOnce.Do(func() {
		close(c.done)
		c.hub.coordinator.Disconnect(c.id)
	})
}

// readPump pumps messages from the WebSocket connection to the coordinator.
func (c *Client) readPump() {
	defer func() {
		c.finish()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn().Err(err).Str("conn", c.id).Msg("websocket read error")
			}
			return
		}

		if !c.limiter.Allow() {
			c.hub.log.Warn().Str("conn", c.id).Msg("rate limit exceeded, dropping frame")
			continue
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.log.Debug().Err(err).Str("conn", c.id).Msg("dropping malformed frame")
			continue
		}
		c.route(msg)
	}
}

// route forwards one decoded frame to the coordinator. Unknown events and
// undecodable payloads are dropped; the coordinator revalidates everything
// anyway.
func (c *Client) route(msg Message) {
	var p clientPayload
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			c.hub.log.Debug().Err(err).Str("conn", c.id).Str("event", msg.Event).Msg("dropping malformed payload")
			return
		}
	}

	switch msg.Event {
	case "join-room":
		c.hub.coordinator.JoinRoom(p.RoomID, p.UserID, c)
	case "submit-guess":
		c.hub.coordinator.SubmitGuess(p.RoomID, p.UserID, p.Guess)
	case "request-hint":
		c.hub.coordinator.RequestHint(p.RoomID, p.UserID)
	case "request-rematch":
		c.hub.coordinator.RequestRematch(p.RoomID, p.UserID)
	default:
		c.hub.log.Debug().Str("conn", c.id).Str("event", msg.Event).Msg("dropping unknown event")
	}
}

// writePump pumps queued frames to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
