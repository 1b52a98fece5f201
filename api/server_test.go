package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmaroz/codeduel/game/room"
	"github.com/nmaroz/codeduel/game/service"
	"github.com/nmaroz/codeduel/transport/websocket"
)

type fakeQueries struct {
	rooms []service.RoomSummary
	views map[string]*service.RoomView
	err   error
}

func (f *fakeQueries) Rooms(context.Context) ([]service.RoomSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rooms, nil
}

func (f *fakeQueries) Room(_ context.Context, key string) (*service.RoomView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.views[key], nil
}

type nopCoordinator struct{}

func (nopCoordinator) JoinRoom(string, string, room.Conn) {}
func (nopCoordinator) SubmitGuess(string, string, string) {}
func (nopCoordinator) RequestHint(string, string)         {}
func (nopCoordinator) RequestRematch(string, string)      {}
func (nopCoordinator) Disconnect(string)                  {}

func newTestServer(q Queries) *Server {
	hub := websocket.NewHub(nopCoordinator{}, zerolog.Nop())
	return NewServer(q, hub)
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestListRooms(t *testing.T) {
	q := &fakeQueries{rooms: []service.RoomSummary{
		{Key: "R1", Phase: "active", Players: 2, Connected: 2},
		{Key: "R2", Phase: "forming", Players: 1, Connected: 1},
	}}
	rec := doRequest(t, newTestServer(q), "GET", "/api/rooms", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Rooms []service.RoomSummary `json:"rooms"`
		Count int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, q.rooms, resp.Rooms)
}

func TestListRooms_CoordinatorDown(t *testing.T) {
	q := &fakeQueries{err: errors.New("coordinator stopped")}
	rec := doRequest(t, newTestServer(q), "GET", "/api/rooms", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetRoom(t *testing.T) {
	view := &service.RoomView{
		Key:   "R1",
		Phase: "active",
		Turn:  "alice",
		Roster: []service.RosterEntry{
			{ID: "alice", Connected: true, Guesses: 3, HintUsed: true},
			{ID: "bob", Connected: false, Guesses: 2},
		},
	}
	q := &fakeQueries{views: map[string]*service.RoomView{"R1": view}}
	s := newTestServer(q)

	rec := doRequest(t, s, "GET", "/api/rooms/R1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got service.RoomView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, *view, got)
	assert.NotContains(t, rec.Body.String(), "secret")

	rec = doRequest(t, s, "GET", "/api/rooms/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, "GET", "/api/rooms/"+strings.Repeat("x", 200), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScore(t *testing.T) {
	s := newTestServer(&fakeQueries{})

	rec := doRequest(t, s, "POST", "/api/score", `{"secret":"4271","guess":"4172"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Guess            string `json:"guess"`
		CorrectPositions int    `json:"correctPositions"`
		CorrectDigits    int    `json:"correctDigits"`
		Won              bool   `json:"won"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "4172", resp.Guess)
	assert.Equal(t, 2, resp.CorrectPositions)
	assert.Equal(t, 2, resp.CorrectDigits)
	assert.False(t, resp.Won)

	rec = doRequest(t, s, "POST", "/api/score", `{"secret":"4271","guess":"4271"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Won)
}

func TestScore_BadInput(t *testing.T) {
	s := newTestServer(&fakeQueries{})

	for name, body := range map[string]string{
		"not json":     "not json",
		"short guess":  `{"secret":"4271","guess":"42"}`,
		"letters":      `{"secret":"4271","guess":"42ab"}`,
		"empty secret": `{"guess":"4271"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(t, s, "POST", "/api/score", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, newTestServer(&fakeQueries{}), "GET", "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestWebSocketRouteMounted(t *testing.T) {
	server := httptest.NewServer(newTestServer(&fakeQueries{}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err, "the websocket endpoint must accept upgrades")
	conn.Close()
}
