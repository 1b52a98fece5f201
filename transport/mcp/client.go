package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nmaroz/codeduel/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Code Duel Game Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Code Duel - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Two players race to guess each other's shared secret 4-digit code. Each
guess is scored Mastermind-style: digits in the right place and digits
present but misplaced.

AVAILABLE TOOLS:
- list_rooms: List active rooms
- get_room: Inspect one room (phase, turn, roster; never the secret)
- score_guess: Score a guess against a known secret
- game_instructions: Get comprehensive game rules

NOTE: Playing happens over the WebSocket protocol. These tools are for
observing games and reasoning about scoring.`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List all active game rooms",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get details of a specific room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_key": map[string]interface{}{
					"type":        "string",
					"description": "Room key to retrieve",
				},
			},
			Required: []string{"room_key"},
		},
	}, c.handleGetRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "score_guess",
		Description: "Score a 4-digit guess against a known 4-digit secret",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"secret": map[string]interface{}{
					"type":        "string",
					"description": "The secret code, exactly 4 digits",
				},
				"guess": map[string]interface{}{
					"type":        "string",
					"description": "The guess to score, exactly 4 digits",
				},
			},
			Required: []string{"secret", "guess"},
		},
	}, c.handleScoreGuess)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game rules and protocol overview",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool Handlers

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Rooms []service.RoomSummary `json:"rooms"`
		Count int                   `json:"count"`
	}
	if err := c.apiCall("GET", "/api/rooms", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No active rooms."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Active rooms: %d\n\n", response.Count)
	for _, r := range response.Rooms {
		fmt.Fprintf(&sb, "- %s: %s, %d/2 seats, %d connected\n", r.Key, r.Phase, r.Players, r.Connected)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	roomKey, _ := args["room_key"].(string)
	if roomKey == "" {
		return mcp.NewToolResultError("room_key is required"), nil
	}

	var view service.RoomView
	if err := c.apiCall("GET", "/api/rooms/"+roomKey, nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoomView(&view)), nil
}

func (c *Client) handleScoreGuess(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	secret, _ := args["secret"].(string)
	guess, _ := args["guess"].(string)

	var result struct {
		Guess            string `json:"guess"`
		CorrectPositions int    `json:"correctPositions"`
		CorrectDigits    int    `json:"correctDigits"`
		Won              bool   `json:"won"`
	}
	body := map[string]string{"secret": secret, "guess": guess}
	if err := c.apiCall("POST", "/api/score", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Guess %s: %d in place, %d misplaced", result.Guess, result.CorrectPositions, result.CorrectDigits)
	if result.Won {
		text += " - exact match, this guess wins"
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

// formatRoomView renders a room snapshot for an agent.
func formatRoomView(view *service.RoomView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Room %s\n", view.Key)
	fmt.Fprintf(&sb, "Phase: %s\n", view.Phase)
	if view.Turn != "" {
		fmt.Fprintf(&sb, "Turn: %s\n", view.Turn)
	}
	fmt.Fprintf(&sb, "Rematch votes: %d\n", view.RematchVotes)
	sb.WriteString("Players:\n")
	for _, p := range view.Roster {
		status := "disconnected"
		if p.Connected {
			status = "connected"
		}
		hint := "hint available"
		if p.HintUsed {
			hint = "hint used"
		}
		fmt.Fprintf(&sb, "- %s: %s, %d guesses, %s\n", p.ID, status, p.Guesses, hint)
	}
	return sb.String()
}

const gameInstructions = `CODE DUEL - GAME RULES

SETUP:
- A room seats exactly two players, identified by a room key and a user ID.
- When the second player joins, the server picks one shared secret 4-digit
  code (1000-9999) and randomly assigns the first turn.

PLAY:
- Players alternate turns guessing the shared secret.
- Each guess is scored against the secret:
  * correctPositions: digits in the right place
  * correctDigits: digits present in the secret but misplaced
- Scoring consumes digits: a secret digit matches at most one guess digit.
- A guess with 4 correct positions wins immediately and ends the game.

HINTS:
- Each player may ask for one AI-generated hint per game.
- A failed hint attempt still consumes the budget.

RECONNECTION:
- A player who drops may rejoin with the same room key and user ID and
  resumes with full history. A room is destroyed only when nobody is
  connected to it.

REMATCH:
- After a game ends, both players must request a rematch. When the second
  request arrives the room resets with a new secret, fresh hint budgets,
  and a new random first turn.

WIRE PROTOCOL:
- WebSocket endpoint /ws, JSON envelopes {"event": ..., "data": ...}.
- Client events: join-room, submit-guess, request-hint, request-rematch.
- Server events: joined, room-full, room-roster, game-started,
  turn-assignment, guess-history, guess-result, opponent-guess-result,
  game-won, hint-result, rematch-started.`
