package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmaroz/codeduel/game/room"
)

type coordinatorCall struct {
	method string
	room   string
	user   string
	guess  string
	connID string
}

// recordingCoordinator captures routed calls and echoes a joined event so
// the outbound path is exercised too.
type recordingCoordinator struct {
	mu    sync.Mutex
	calls []coordinatorCall
}

func (r *recordingCoordinator) JoinRoom(roomKey, userID string, conn room.Conn) {
	r.record(coordinatorCall{method: "join", room: roomKey, user: userID, connID: conn.ID()})
	conn.Send("joined", map[string]string{"roomId": roomKey})
}

func (r *recordingCoordinator) SubmitGuess(roomKey, userID, guess string) {
	r.record(coordinatorCall{method: "guess", room: roomKey, user: userID, guess: guess})
}

func (r *recordingCoordinator) RequestHint(roomKey, userID string) {
	r.record(coordinatorCall{method: "hint", room: roomKey, user: userID})
}

func (r *recordingCoordinator) RequestRematch(roomKey, userID string) {
	r.record(coordinatorCall{method: "rematch", room: roomKey, user: userID})
}

func (r *recordingCoordinator) Disconnect(connID string) {
	r.record(coordinatorCall{method: "disconnect", connID: connID})
}

func (r *recordingCoordinator) record(c coordinatorCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *recordingCoordinator) snapshot() []coordinatorCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]coordinatorCall, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *recordingCoordinator) byMethod(method string) []coordinatorCall {
	var out []coordinatorCall
	for _, c := range r.snapshot() {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func dialTestHub(t *testing.T, coord Coordinator) *websocket.Conn {
	t.Helper()
	hub := NewHub(coord, zerolog.Nop())
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeFrame(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	frame, err := encodeFrame(event, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func TestServeWS_RoutesInboundEvents(t *testing.T) {
	coord := &recordingCoordinator{}
	conn := dialTestHub(t, coord)

	writeFrame(t, conn, "join-room", clientPayload{RoomID: "R1", UserID: "alice"})
	writeFrame(t, conn, "submit-guess", clientPayload{RoomID: "R1", UserID: "alice", Guess: "4271"})
	writeFrame(t, conn, "request-hint", clientPayload{RoomID: "R1", UserID: "alice"})
	writeFrame(t, conn, "request-rematch", clientPayload{RoomID: "R1", UserID: "alice"})

	require.Eventually(t, func() bool {
		return len(coord.snapshot()) == 4
	}, 2*time.Second, 10*time.Millisecond)

	calls := coord.snapshot()
	assert.Equal(t, "join", calls[0].method)
	assert.Equal(t, "R1", calls[0].room)
	assert.Equal(t, "alice", calls[0].user)
	assert.NotEmpty(t, calls[0].connID)

	assert.Equal(t, "guess", calls[1].method)
	assert.Equal(t, "4271", calls[1].guess)
	assert.Equal(t, "hint", calls[2].method)
	assert.Equal(t, "rematch", calls[3].method)
}

func TestServeWS_DeliversOutboundFrames(t *testing.T) {
	coord := &recordingCoordinator{}
	conn := dialTestHub(t, coord)

	writeFrame(t, conn, "join-room", clientPayload{RoomID: "R7", UserID: "bob"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "joined", msg.Event)

	var data map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "R7", data["roomId"])
}

func TestServeWS_MalformedFramesIgnored(t *testing.T) {
	coord := &recordingCoordinator{}
	conn := dialTestHub(t, coord)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"submit-guess","data":"nope"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"no-such-event","data":{}}`)))
	// The connection survives junk; a valid frame still routes.
	writeFrame(t, conn, "request-hint", clientPayload{RoomID: "R1", UserID: "alice"})

	require.Eventually(t, func() bool {
		return len(coord.byMethod("hint")) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, coord.snapshot(), 1)
}

func TestServeWS_DisconnectReported(t *testing.T) {
	coord := &recordingCoordinator{}
	conn := dialTestHub(t, coord)

	writeFrame(t, conn, "join-room", clientPayload{RoomID: "R1", UserID: "alice"})
	require.Eventually(t, func() bool {
		return len(coord.byMethod("join")) == 1
	}, 2*time.Second, 10*time.Millisecond)
	joinedAs := coord.byMethod("join")[0].connID

	conn.Close()

	require.Eventually(t, func() bool {
		return len(coord.byMethod("disconnect")) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, joinedAs, coord.byMethod("disconnect")[0].connID, "disconnect must carry the same connection handle as join")
}

func TestEncodeFrame(t *testing.T) {
	frame, err := encodeFrame("room-full", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"room-full"}`, string(frame))

	frame, err = encodeFrame("joined", map[string]string{"roomId": "R1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"joined","data":{"roomId":"R1"}}`, string(frame))

	_, err = encodeFrame("bad", func() {})
	assert.Error(t, err)
}

func TestClientSend_DropsWhenFinished(t *testing.T) {
	c := &Client{
		id:   "c1",
		hub:  NewHub(&recordingCoordinator{}, zerolog.Nop()),
		send: make(chan []byte, 1),
		done: make(chan struct{}),
	}
	close(c.done)

	// Must return immediately without blocking or panicking.
	doneCh := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			c.Send("turn-assignment", map[string]bool{"yourTurn": true})
		}
		close(doneCh)
	}()
	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a finished client")
	}
}
