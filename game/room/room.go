// Package room holds the in-memory state of every active duel room and the
// Store that owns all mutation of that state.
//
// A room pairs at most two players around a shared four-digit secret. Player
// records survive disconnects; only losing the last live connection destroys
// a room. The Store performs no locking: every mutation happens on the
// coordinator's single event-loop goroutine.
package room

import "time"

// Key identifies a room. Keys are externally supplied, case-sensitive and
// otherwise opaque.
type Key string

// PlayerID is the opaque stable token a client supplies to identify itself.
// It doubles as the reconnect credential and is distinct from both room keys
// and connection handles.
type PlayerID string

// Conn is the transport-side handle for a connected player. Implementations
// must be safe to call from the coordinator goroutine and must treat Send as
// best-effort: a slow or dead peer never blocks the game.
type Conn interface {
	// ID uniquely identifies this connection for the lifetime of the
	// process. Disconnect events carry only this value.
	ID() string
	// Send delivers an outbound event to the peer.
	Send(event string, data any)
}

// Phase is the lifecycle state of a room.
type Phase int

const (
	// PhaseForming means fewer than two players have joined.
	PhaseForming Phase = iota
	// PhaseActive means the pair is complete, a secret is set and a turn
	// owner is assigned.
	PhaseActive
	// PhaseFinished means a guess fully matched the secret; only a rematch
	// returns the room to PhaseActive.
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseForming:
		return "forming"
	case PhaseActive:
		return "active"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Player is a seat in a room. The ID is immutable for the room's lifetime;
// Conn is rebound on every reconnect and nil while disconnected.
type Player struct {
	ID   PlayerID
	Conn Conn

	// nextSeq numbers this player's guesses in submission order. It breaks
	// merged-history ties when two timestamps coincide at clock resolution.
	nextSeq uint64
}

// Connected reports whether the player currently has a live connection.
func (p *Player) Connected() bool {
	return p.Conn != nil
}

// GuessEntry is one scored guess. Entries are immutable once appended and
// are only discarded wholesale at rematch.
type GuessEntry struct {
	Guess            string    `json:"guess"`
	CorrectPositions int       `json:"correctPositions"`
	CorrectDigits    int       `json:"correctDigits"`
	Time             time.Time `json:"timestamp"`
	Seq              uint64    `json:"-"`
}

// History perspectives.
const (
	PerspectiveYou      = "you"
	PerspectiveOpponent = "opponent"
)

// HistoryEntry is a GuessEntry as seen by one player, labeled with whether
// that player authored it.
type HistoryEntry struct {
	Guess            string    `json:"guess"`
	CorrectPositions int       `json:"correctPositions"`
	CorrectDigits    int       `json:"correctDigits"`
	Time             time.Time `json:"timestamp"`
	Perspective      string    `json:"perspective"`
}

// Room is the complete state of one duel. All fields are owned by the Store
// and the coordinator event loop; nothing else may touch them.
type Room struct {
	Key     Key
	Phase   Phase
	Players []*Player // join order, length <= 2

	// Secret is the shared 4-digit code, empty until the pair is complete.
	Secret string
	// Turn is the identity allowed to guess right now, empty before start.
	Turn PlayerID
	// Generation increments on every reset so results of calls that were in
	// flight across a rematch can be recognized as stale.
	Generation uint64

	HintsUsed    map[PlayerID]bool
	History      map[PlayerID][]GuessEntry
	RematchVotes map[PlayerID]struct{}
}

// Player returns the seat for id, or nil if id never joined this room.
func (r *Room) Player(id PlayerID) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Opponent returns the other seat, or nil if id is unknown or alone.
func (r *Room) Opponent(id PlayerID) *Player {
	for _, p := range r.Players {
		if p.ID != id {
			return p
		}
	}
	return nil
}

// Conn returns the live connection bound to id, or nil.
func (r *Room) Conn(id PlayerID) Conn {
	if p := r.Player(id); p != nil {
		return p.Conn
	}
	return nil
}

// AllConnected reports whether every seated player has a live connection.
func (r *Room) AllConnected() bool {
	for _, p := range r.Players {
		if !p.Connected() {
			return false
		}
	}
	return len(r.Players) > 0
}

// Roster lists seated identities in join order.
func (r *Room) Roster() []PlayerID {
	ids := make([]PlayerID, 0, len(r.Players))
	for _, p := range r.Players {
		ids = append(ids, p.ID)
	}
	return ids
}
