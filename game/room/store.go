package room

import (
	"math/rand/v2"
	"sort"
	"strconv"
	"time"
)

// MaxPlayers is the seat limit per room.
const MaxPlayers = 2

// Store is the in-memory registry of rooms and the sole mutator of room
// state. It is not safe for concurrent use; the coordinator serializes every
// call onto its event loop.
type Store struct {
	rooms map[Key]*Room

	// Injection points for deterministic tests.
	now     func() time.Time
	randInt func(n int) int
}

// NewStore creates an empty registry.
func NewStore() *Store {
	return &Store{
		rooms:   make(map[Key]*Room),
		now:     time.Now,
		randInt: rand.IntN,
	}
}

// Ensure returns the room for key, creating and registering an empty one if
// no such room exists. Idempotent.
func (s *Store) Ensure(key Key) *Room {
	if r, ok := s.rooms[key]; ok {
		return r
	}
	r := &Room{
		Key:          key,
		Phase:        PhaseForming,
		HintsUsed:    make(map[PlayerID]bool),
		History:      make(map[PlayerID][]GuessEntry),
		RematchVotes: make(map[PlayerID]struct{}),
	}
	s.rooms[key] = r
	return r
}

// Get looks up an existing room.
func (s *Store) Get(key Key) (*Room, bool) {
	r, ok := s.rooms[key]
	return r, ok
}

// Len reports how many rooms are registered.
func (s *Store) Len() int {
	return len(s.rooms)
}

// Keys lists the registered room keys in no particular order.
func (s *Store) Keys() []Key {
	keys := make([]Key, 0, len(s.rooms))
	for k := range s.rooms {
		keys = append(keys, k)
	}
	return keys
}

// AddPlayer seats id in r bound to conn. If id already holds a seat this is
// a reconnect and the connection is rebound. A new identity is appended only
// while capacity remains; a full room with two other identities reports
// false and mutates nothing.
func (s *Store) AddPlayer(r *Room, id PlayerID, conn Conn) bool {
	if r.Player(id) != nil {
		return s.Reconnect(r, id, conn)
	}
	if len(r.Players) >= MaxPlayers {
		return false
	}
	r.Players = append(r.Players, &Player{ID: id, Conn: conn})
	r.History[id] = nil
	r.HintsUsed[id] = false
	return true
}

// Reconnect rebinds id's connection handle. Unknown identities are a no-op
// reporting false.
func (s *Store) Reconnect(r *Room, id PlayerID, conn Conn) bool {
	p := r.Player(id)
	if p == nil {
		return false
	}
	p.Conn = conn
	return true
}

// DetachConn clears id's connection binding. The seat, its history and its
// hint budget survive for a later reconnect.
func (s *Store) DetachConn(r *Room, id PlayerID) {
	if p := r.Player(id); p != nil {
		p.Conn = nil
	}
}

// DeleteIfEmpty removes r from the registry when no seat holds a live
// connection, reporting whether deletion occurred. This is the only way a
// room is ever destroyed.
func (s *Store) DeleteIfEmpty(r *Room) bool {
	for _, p := range r.Players {
		if p.Connected() {
			return false
		}
	}
	delete(s.rooms, r.Key)
	return true
}

// FindByConn locates the room and seat bound to the connection with connID.
// Disconnect events identify players this way because the transport only
// knows the connection handle.
func (s *Store) FindByConn(connID string) (*Room, *Player, bool) {
	for _, r := range s.rooms {
		for _, p := range r.Players {
			if p.Conn != nil && p.Conn.ID() == connID {
				return r, p, true
			}
		}
	}
	return nil, nil, false
}

// SetSecret assigns a fresh secret, uniform over 1000-9999 inclusive, and
// returns it.
func (s *Store) SetSecret(r *Room) string {
	r.Secret = strconv.Itoa(1000 + s.randInt(9000))
	return r.Secret
}

// ResetForNewGame wipes everything game-scoped: histories, hint budgets,
// rematch votes and the turn owner, and regenerates the secret. Seats and
// connections are untouched. The room generation advances so stale async
// results can be detected.
func (s *Store) ResetForNewGame(r *Room) {
	for _, p := range r.Players {
		r.History[p.ID] = nil
		r.HintsUsed[p.ID] = false
		p.nextSeq = 0
	}
	s.SetSecret(r)
	r.Turn = ""
	r.RematchVotes = make(map[PlayerID]struct{})
	r.Generation++
}

// AppendGuess records a scored guess for id, stamping the submission time
// and the player's next sequence number, and returns the stored entry.
func (s *Store) AppendGuess(r *Room, id PlayerID, guess string, positions, digits int) GuessEntry {
	p := r.Player(id)
	entry := GuessEntry{
		Guess:            guess,
		CorrectPositions: positions,
		CorrectDigits:    digits,
		Time:             s.now(),
		Seq:              p.nextSeq,
	}
	p.nextSeq++
	r.History[id] = append(r.History[id], entry)
	return entry
}

// MergedHistoryFor merges both players' guesses into a single sequence
// ordered by submission time, labeling each entry "you" or "opponent" from
// the requester's point of view.
//
// The order is a deterministic total order: entries are concatenated in seat
// order and stable-sorted by timestamp, so coinciding timestamps fall back
// to per-player sequence order and then seat order.
func (s *Store) MergedHistoryFor(r *Room, id PlayerID) []HistoryEntry {
	type owned struct {
		entry GuessEntry
		owner PlayerID
	}

	var all []owned
	for _, p := range r.Players {
		for _, e := range r.History[p.ID] {
			all = append(all, owned{entry: e, owner: p.ID})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].entry.Time.Before(all[j].entry.Time)
	})

	merged := make([]HistoryEntry, 0, len(all))
	for _, o := range all {
		perspective := PerspectiveOpponent
		if o.owner == id {
			perspective = PerspectiveYou
		}
		merged = append(merged, HistoryEntry{
			Guess:            o.entry.Guess,
			CorrectPositions: o.entry.CorrectPositions,
			CorrectDigits:    o.entry.CorrectDigits,
			Time:             o.entry.Time,
			Perspective:      perspective,
		})
	}
	return merged
}
