package service

import "github.com/nmaroz/codeduel/game/room"

// Outbound event names, as seen on the wire.
const (
	EventJoined              = "joined"
	EventRoomFull            = "room-full"
	EventRoomRoster          = "room-roster"
	EventGameStarted         = "game-started"
	EventTurnAssignment      = "turn-assignment"
	EventGuessHistory        = "guess-history"
	EventGuessResult         = "guess-result"
	EventOpponentGuessResult = "opponent-guess-result"
	EventGameWon             = "game-won"
	EventHintResult          = "hint-result"
	EventRematchStarted      = "rematch-started"
)

// HintAlreadyUsed is the sentinel delivered when a player asks for a second
// hint in the same game.
const HintAlreadyUsed = "already-used"

// HintUnavailable is the user-facing placeholder delivered when the hint
// gateway fails. The failed call still consumes the player's hint budget.
const HintUnavailable = "Sorry, hint generation failed this time."

// JoinedPayload confirms room membership to the joining socket.
type JoinedPayload struct {
	RoomID string `json:"roomId"`
}

// RosterPayload lists seated identities in join order.
type RosterPayload struct {
	Players []string `json:"players"`
}

// TurnPayload tells one client whether it owns the turn.
type TurnPayload struct {
	YourTurn bool `json:"yourTurn"`
}

// HistoryPayload carries the merged two-player history, labeled from the
// recipient's perspective.
type HistoryPayload struct {
	History []room.HistoryEntry `json:"history"`
}

// GuessResultPayload is the scored entry echoed to the submitter and, as an
// opponent-guess-result, to the other player.
type GuessResultPayload struct {
	Guess            string `json:"guess"`
	CorrectPositions int    `json:"correctPositions"`
	CorrectDigits    int    `json:"correctDigits"`
}

// WinPayload announces the winner to the losing side.
type WinPayload struct {
	Winner string `json:"winner"`
}

// HintPayload delivers hint text, the HintAlreadyUsed sentinel, or an empty
// string meaning the hint is (again) available.
type HintPayload struct {
	Hint string `json:"hint"`
}

// Inbound events. One struct per client event plus the internal events the
// loop feeds itself.

type joinRoomEvent struct {
	roomKey string
	userID  string
	conn    room.Conn
}

type submitGuessEvent struct {
	roomKey string
	userID  string
	guess   string
}

type requestHintEvent struct {
	roomKey string
	userID  string
}

type requestRematchEvent struct {
	roomKey string
	userID  string
}

type disconnectEvent struct {
	connID string
}

// hintResolvedEvent re-enters the loop when an async gateway call finishes.
// generation pins the game the hint was requested for.
type hintResolvedEvent struct {
	roomKey    room.Key
	userID     room.PlayerID
	generation uint64
	text       string
	err        error
}

type roomsQuery struct {
	resp chan []RoomSummary
}

type roomQuery struct {
	key  room.Key
	resp chan *RoomView
}
