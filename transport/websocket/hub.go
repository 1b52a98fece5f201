package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/nmaroz/codeduel/game/room"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Outbound frames buffered per connection before drops start.
	sendBuffer = 64
)

// Inbound client events are throttled per connection; a human player sends
// a handful of frames per minute.
const (
	inboundRate  = rate.Limit(5)
	inboundBurst = 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// Coordinator is the slice of the game coordinator the transport needs.
type Coordinator interface {
	JoinRoom(roomKey, userID string, conn room.Conn)
	SubmitGuess(roomKey, userID, guess string)
	RequestHint(roomKey, userID string)
	RequestRematch(roomKey, userID string)
	Disconnect(connID string)
}

// Hub upgrades HTTP requests and runs one Client per connection.
type Hub struct {
	coordinator Coordinator
	log         zerolog.Logger
}

// NewHub creates a hub routing client events to coordinator.
func NewHub(coordinator Coordinator, log zerolog.Logger) *Hub {
	return &Hub{
		coordinator: coordinator,
		log:         log.With().Str("component", "websocket").Logger(),
	}
}

// ServeWS handles WebSocket requests from clients.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newClient(h, conn)
	h.log.Debug().Str("conn", client.ID()).Str("remote", conn.RemoteAddr().String()).Msg("client connected")

	go client.writePump()
	go client.readPump()
}
