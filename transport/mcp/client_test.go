package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nmaroz/codeduel/game/service"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL)

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.mcpServer == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestClient_listRooms(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" || r.URL.Path != "/api/rooms" {
			t.Errorf("Expected GET /api/rooms, got %s %s", r.Method, r.URL.Path)
		}
		resp := map[string]interface{}{
			"rooms": []service.RoomSummary{
				{Key: "R1", Phase: "active", Players: 2, Connected: 2},
				{Key: "lobby", Phase: "forming", Players: 1, Connected: 1},
			},
			"count": 2,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleListRooms(context.Background(), toolRequest("list_rooms", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("list_rooms failed: %v", err)
	}

	text := textContent(t, result)
	if !strings.Contains(text, "R1") || !strings.Contains(text, "lobby") {
		t.Errorf("Expected both room keys in result, got: %s", text)
	}
	if !strings.Contains(text, "2/2 seats") {
		t.Errorf("Expected seat counts in result, got: %s", text)
	}
}

func TestClient_listRooms_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"rooms": []service.RoomSummary{}, "count": 0})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleListRooms(context.Background(), toolRequest("list_rooms", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("list_rooms failed: %v", err)
	}

	if text := textContent(t, result); !strings.Contains(text, "No active rooms") {
		t.Errorf("Expected empty-state message, got: %s", text)
	}
}

func TestClient_getRoom(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" || r.URL.Path != "/api/rooms/R1" {
			t.Errorf("Expected GET /api/rooms/R1, got %s %s", r.Method, r.URL.Path)
		}
		view := service.RoomView{
			Key:   "R1",
			Phase: "active",
			Turn:  "alice",
			Roster: []service.RosterEntry{
				{ID: "alice", Connected: true, Guesses: 3, HintUsed: true},
				{ID: "bob", Connected: false, Guesses: 2},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(view)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleGetRoom(context.Background(), toolRequest("get_room", map[string]interface{}{
		"room_key": "R1",
	}))
	if err != nil {
		t.Fatalf("get_room failed: %v", err)
	}

	text := textContent(t, result)
	for _, want := range []string{"Room R1", "Turn: alice", "hint used", "disconnected", "3 guesses"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_getRoom_MissingKey(t *testing.T) {
	client := NewClient("http://localhost:0")
	result, err := client.handleGetRoom(context.Background(), toolRequest("get_room", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("get_room failed: %v", err)
	}
	if !result.IsError {
		t.Error("Expected an error result for a missing room_key")
	}
}

func TestClient_scoreGuess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/score" {
			t.Errorf("Expected POST /api/score, got %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["secret"] != "4271" || req["guess"] != "4172" {
			t.Errorf("Unexpected request body: %v", req)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"guess":            "4172",
			"correctPositions": 2,
			"correctDigits":    2,
			"won":              false,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleScoreGuess(context.Background(), toolRequest("score_guess", map[string]interface{}{
		"secret": "4271",
		"guess":  "4172",
	}))
	if err != nil {
		t.Fatalf("score_guess failed: %v", err)
	}

	text := textContent(t, result)
	if !strings.Contains(text, "2 in place, 2 misplaced") {
		t.Errorf("Expected score summary, got: %s", text)
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "room not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.apiCall("GET", "/api/rooms/nope", nil, nil)
	if err == nil {
		t.Fatal("Expected error from 404 response")
	}
	if err.Error() != "room not found" {
		t.Errorf("Expected API error message passed through, got: %v", err)
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.apiCall("GET", "/api/rooms", nil, nil)
	if err == nil {
		t.Fatal("Expected error from 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("Expected status code in error, got: %v", err)
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")
	result, err := client.handleGameInstructions(context.Background(), toolRequest("game_instructions", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("game_instructions failed: %v", err)
	}

	text := textContent(t, result)
	for _, want := range []string{"4-digit", "correctPositions", "rematch", "join-room"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in instructions, got: %s", want, text)
		}
	}
}

func TestFormatRoomView_NoTurn(t *testing.T) {
	view := &service.RoomView{
		Key:    "R2",
		Phase:  "forming",
		Roster: []service.RosterEntry{{ID: "alice", Connected: true}},
	}
	text := formatRoomView(view)

	if strings.Contains(text, "Turn:") {
		t.Errorf("Expected no turn line before the game starts, got: %s", text)
	}
	if !strings.Contains(text, "hint available") {
		t.Errorf("Expected hint availability line, got: %s", text)
	}
}
