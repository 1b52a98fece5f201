package service

import (
	"context"

	"github.com/nmaroz/codeduel/game/room"
)

// RoomSummary is a read-only snapshot row for room listings. The secret is
// never part of any view.
type RoomSummary struct {
	Key       string `json:"key"`
	Phase     string `json:"phase"`
	Players   int    `json:"players"`
	Connected int    `json:"connected"`
}

// RosterEntry describes one seat in a room view.
type RosterEntry struct {
	ID        string `json:"id"`
	Connected bool   `json:"connected"`
	Guesses   int    `json:"guesses"`
	HintUsed  bool   `json:"hintUsed"`
}

// RoomView is the detailed read-only snapshot of one room.
type RoomView struct {
	Key          string        `json:"key"`
	Phase        string        `json:"phase"`
	Turn         string        `json:"turn,omitempty"`
	Roster       []RosterEntry `json:"roster"`
	RematchVotes int           `json:"rematchVotes"`
}

// Rooms snapshots all rooms. The query runs on the event loop like any
// other event, so the snapshot is consistent; ctx bounds the wait.
func (c *Coordinator) Rooms(ctx context.Context) ([]RoomSummary, error) {
	resp := make(chan []RoomSummary, 1)
	select {
	case c.events <- roomsQuery{resp: resp}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case out := <-resp:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Room snapshots one room; the view is nil when the key is unknown.
func (c *Coordinator) Room(ctx context.Context, key string) (*RoomView, error) {
	resp := make(chan *RoomView, 1)
	select {
	case c.events <- roomQuery{key: room.Key(key), resp: resp}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case out := <-resp:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// roomSummaries and roomView run on the event loop.

func (c *Coordinator) roomSummaries() []RoomSummary {
	out := make([]RoomSummary, 0, c.store.Len())
	for _, key := range c.store.Keys() {
		r, ok := c.store.Get(key)
		if !ok {
			continue
		}
		connected := 0
		for _, p := range r.Players {
			if p.Connected() {
				connected++
			}
		}
		out = append(out, RoomSummary{
			Key:       string(r.Key),
			Phase:     r.Phase.String(),
			Players:   len(r.Players),
			Connected: connected,
		})
	}
	return out
}

func (c *Coordinator) roomView(key room.Key) *RoomView {
	r, ok := c.store.Get(key)
	if !ok {
		return nil
	}
	view := &RoomView{
		Key:          string(r.Key),
		Phase:        r.Phase.String(),
		Turn:         string(r.Turn),
		Roster:       make([]RosterEntry, 0, len(r.Players)),
		RematchVotes: len(r.RematchVotes),
	}
	for _, p := range r.Players {
		view.Roster = append(view.Roster, RosterEntry{
			ID:        string(p.ID),
			Connected: p.Connected(),
			Guesses:   len(r.History[p.ID]),
			HintUsed:  r.HintsUsed[p.ID],
		})
	}
	return view
}
