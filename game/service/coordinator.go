package service

import (
	"context"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/nmaroz/codeduel/game/room"
	"github.com/nmaroz/codeduel/game/score"
	"github.com/nmaroz/codeduel/validate"
)

// HintGateway produces hint text from the secret and the requester's merged
// history. Implementations may block for as long as they like; the
// coordinator never calls them on the event loop.
type HintGateway interface {
	GenerateHint(ctx context.Context, secret string, history []room.HistoryEntry) (string, error)
}

// Coordinator routes every inbound event through one goroutine that owns
// the room store. See the package documentation for the concurrency model.
type Coordinator struct {
	store  *room.Store
	hints  HintGateway
	events chan any
	log    zerolog.Logger

	// randInt is swappable for deterministic first-turn tests.
	randInt func(n int) int
}

// NewCoordinator wires a coordinator around store and gateway. Run must be
// started before any events are enqueued.
func NewCoordinator(store *room.Store, hints HintGateway, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:   store,
		hints:   hints,
		events:  make(chan any, 1024),
		log:     log.With().Str("component", "coordinator").Logger(),
		randInt: rand.IntN,
	}
}

// Run processes events until ctx is cancelled. It must be called exactly
// once, on its own goroutine.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			c.dispatch(ev)
		}
	}
}

func (c *Coordinator) dispatch(ev any) {
	switch e := ev.(type) {
	case joinRoomEvent:
		c.handleJoin(e)
	case submitGuessEvent:
		c.handleGuess(e)
	case requestHintEvent:
		c.handleHint(e)
	case requestRematchEvent:
		c.handleRematch(e)
	case disconnectEvent:
		c.handleDisconnect(e)
	case hintResolvedEvent:
		c.handleHintResolved(e)
	case roomsQuery:
		e.resp <- c.roomSummaries()
	case roomQuery:
		e.resp <- c.roomView(e.key)
	default:
		c.log.Error().Type("event", ev).Msg("unknown event type dropped")
	}
}

// Transport-facing enqueue methods. All are safe for concurrent use.

// JoinRoom seats or reconnects userID in roomKey over conn.
func (c *Coordinator) JoinRoom(roomKey, userID string, conn room.Conn) {
	c.events <- joinRoomEvent{roomKey: roomKey, userID: userID, conn: conn}
}

// SubmitGuess submits a guess for scoring.
func (c *Coordinator) SubmitGuess(roomKey, userID, guess string) {
	c.events <- submitGuessEvent{roomKey: roomKey, userID: userID, guess: guess}
}

// RequestHint asks for the player's one hint of the game.
func (c *Coordinator) RequestHint(roomKey, userID string) {
	c.events <- requestHintEvent{roomKey: roomKey, userID: userID}
}

// RequestRematch records a rematch vote.
func (c *Coordinator) RequestRematch(roomKey, userID string) {
	c.events <- requestRematchEvent{roomKey: roomKey, userID: userID}
}

// Disconnect reports that the connection with connID went away. The
// transport only knows the handle, not the player behind it.
func (c *Coordinator) Disconnect(connID string) {
	c.events <- disconnectEvent{connID: connID}
}

// Event handlers. Only ever called from the Run goroutine.

func (c *Coordinator) handleJoin(ev joinRoomEvent) {
	// Malformed payloads are dropped without any signal to the client.
	if !validate.RoomKey(ev.roomKey) || !validate.PlayerID(ev.userID) || ev.conn == nil {
		c.log.Debug().Str("room", ev.roomKey).Str("user", ev.userID).Msg("dropping malformed join")
		return
	}
	key := room.Key(ev.roomKey)
	id := room.PlayerID(ev.userID)

	r := c.store.Ensure(key)

	if r.Player(id) != nil {
		c.resumePlayer(r, id, ev.conn)
		return
	}

	if len(r.Players) >= room.MaxPlayers {
		ev.conn.Send(EventRoomFull, nil)
		return
	}

	c.store.AddPlayer(r, id, ev.conn)
	ev.conn.Send(EventJoined, JoinedPayload{RoomID: ev.roomKey})
	c.broadcastRoster(r)
	c.log.Info().Str("room", ev.roomKey).Str("user", ev.userID).Int("players", len(r.Players)).Msg("player joined")

	if len(r.Players) == room.MaxPlayers && r.Secret == "" {
		c.store.SetSecret(r)
		c.startGame(r)
	}
}

// resumePlayer is the reconnect path: rebind the connection, replay the
// client's view of the game, and re-announce the running game when both
// sides are back.
func (c *Coordinator) resumePlayer(r *room.Room, id room.PlayerID, conn room.Conn) {
	c.store.Reconnect(r, id, conn)
	conn.Send(EventJoined, JoinedPayload{RoomID: string(r.Key)})

	// Re-announcing start and turn to both sides is idempotent; clients
	// treat a repeated game-started as a no-op.
	if r.Secret != "" && r.Turn != "" && r.AllConnected() {
		c.broadcast(r, EventGameStarted, nil)
		c.announceTurn(r)
		c.log.Info().Str("room", string(r.Key)).Msg("resuming game")
	}

	conn.Send(EventTurnAssignment, TurnPayload{YourTurn: r.Turn == id})
	hintStatus := ""
	if r.HintsUsed[id] {
		hintStatus = HintAlreadyUsed
	}
	conn.Send(EventHintResult, HintPayload{Hint: hintStatus})
	conn.Send(EventGuessHistory, HistoryPayload{History: c.store.MergedHistoryFor(r, id)})
	c.broadcastRoster(r)
}

func (c *Coordinator) handleGuess(ev submitGuessEvent) {
	r, ok := c.store.Get(room.Key(ev.roomKey))
	if !ok {
		return
	}
	id := room.PlayerID(ev.userID)

	// Out-of-turn, out-of-phase and malformed guesses are dropped with no
	// signal; a conforming client cannot produce them.
	if r.Phase != room.PhaseActive || r.Turn != id || r.Secret == "" {
		return
	}
	if !validate.Guess(ev.guess) {
		c.log.Debug().Str("room", ev.roomKey).Str("user", ev.userID).Msg("dropping malformed guess")
		return
	}
	opponent := r.Opponent(id)
	if opponent == nil {
		return
	}

	fb, err := score.Guess(r.Secret, ev.guess)
	if err != nil {
		// Unreachable behind validate.Guess; kept as a hard stop so a bad
		// secret can never corrupt a room.
		c.log.Error().Err(err).Str("room", ev.roomKey).Msg("scoring failed")
		return
	}

	entry := c.store.AppendGuess(r, id, ev.guess, fb.CorrectPositions, fb.CorrectDigits)

	// Both players get the merged history rebuilt from their own
	// perspective so the you/opponent labels stay correct.
	for _, p := range r.Players {
		if p.Connected() {
			p.Conn.Send(EventGuessHistory, HistoryPayload{History: c.store.MergedHistoryFor(r, p.ID)})
		}
	}

	result := GuessResultPayload{
		Guess:            entry.Guess,
		CorrectPositions: entry.CorrectPositions,
		CorrectDigits:    entry.CorrectDigits,
	}
	if conn := r.Conn(id); conn != nil {
		conn.Send(EventGuessResult, result)
	}
	if opponent.Connected() {
		opponent.Conn.Send(EventOpponentGuessResult, result)
	}

	if fb.Won() {
		// The winner's client infers the outcome from its own feedback;
		// only the loser is told explicitly. The turn stays put.
		r.Phase = room.PhaseFinished
		if opponent.Connected() {
			opponent.Conn.Send(EventGameWon, WinPayload{Winner: ev.userID})
		}
		c.log.Info().Str("room", ev.roomKey).Str("winner", ev.userID).Msg("game won")
		return
	}

	r.Turn = opponent.ID
	c.announceTurn(r)
}

func (c *Coordinator) handleHint(ev requestHintEvent) {
	r, ok := c.store.Get(room.Key(ev.roomKey))
	if !ok {
		return
	}
	id := room.PlayerID(ev.userID)
	p := r.Player(id)
	if p == nil {
		return
	}

	if r.HintsUsed[id] {
		if p.Connected() {
			p.Conn.Send(EventHintResult, HintPayload{Hint: HintAlreadyUsed})
		}
		return
	}
	if r.Secret == "" {
		return
	}

	secret := r.Secret
	generation := r.Generation
	history := c.store.MergedHistoryFor(r, id)

	// The gateway call is the loop's only suspension point. It runs off
	// the loop and re-enters as a hintResolvedEvent; by then the room may
	// have been deleted or reset, so the result carries enough context to
	// be re-validated. In-flight calls are never cancelled.
	go func() {
		text, err := c.hints.GenerateHint(context.Background(), secret, history)
		c.events <- hintResolvedEvent{
			roomKey:    r.Key,
			userID:     id,
			generation: generation,
			text:       text,
			err:        err,
		}
	}()
}

func (c *Coordinator) handleHintResolved(ev hintResolvedEvent) {
	// Re-lookup everything: stale references must not resurrect rooms.
	r, ok := c.store.Get(ev.roomKey)
	if !ok {
		c.log.Debug().Str("room", string(ev.roomKey)).Msg("dropping hint for deleted room")
		return
	}
	p := r.Player(ev.userID)
	if p == nil {
		return
	}
	if r.Generation != ev.generation {
		// A rematch started while the call was in flight. The hint is
		// about the previous secret; drop it and leave the fresh game's
		// budget untouched.
		c.log.Debug().Str("room", string(ev.roomKey)).Str("user", string(ev.userID)).Msg("dropping stale hint")
		return
	}

	// The budget is one call per game, not one success: failures consume
	// it too.
	r.HintsUsed[ev.userID] = true

	text := ev.text
	if ev.err != nil {
		c.log.Warn().Err(ev.err).Str("room", string(ev.roomKey)).Str("user", string(ev.userID)).Msg("hint gateway failed")
		text = HintUnavailable
	}
	if p.Connected() {
		p.Conn.Send(EventHintResult, HintPayload{Hint: text})
	}
}

func (c *Coordinator) handleRematch(ev requestRematchEvent) {
	r, ok := c.store.Get(room.Key(ev.roomKey))
	if !ok {
		return
	}
	id := room.PlayerID(ev.userID)
	if r.Player(id) == nil {
		return
	}

	r.RematchVotes[id] = struct{}{}
	if len(r.RematchVotes) < room.MaxPlayers {
		return
	}

	c.broadcast(r, EventRematchStarted, nil)
	c.store.ResetForNewGame(r)

	// Wipe both boards immediately and make the hint available again.
	for _, p := range r.Players {
		if p.Connected() {
			p.Conn.Send(EventGuessHistory, HistoryPayload{History: []room.HistoryEntry{}})
			p.Conn.Send(EventHintResult, HintPayload{Hint: ""})
		}
	}

	c.log.Info().Str("room", ev.roomKey).Msg("rematch starting")
	c.startGame(r)
}

func (c *Coordinator) handleDisconnect(ev disconnectEvent) {
	r, p, ok := c.store.FindByConn(ev.connID)
	if !ok {
		return
	}

	c.store.DetachConn(r, p.ID)
	c.log.Info().Str("room", string(r.Key)).Str("user", string(p.ID)).Msg("player disconnected")

	// A rematch is an agreement between two present players; a pending
	// vote does not survive the voter (or their opponent) leaving.
	if len(r.RematchVotes) > 0 {
		r.RematchVotes = make(map[room.PlayerID]struct{})
	}

	if c.store.DeleteIfEmpty(r) {
		c.log.Info().Str("room", string(r.Key)).Msg("deleted empty room")
		return
	}
	c.broadcastRoster(r)
}

// startGame picks the first-turn owner uniformly at random between the two
// seats and announces the start to both.
func (c *Coordinator) startGame(r *room.Room) {
	r.Turn = r.Players[c.randInt(room.MaxPlayers)].ID
	r.Phase = room.PhaseActive
	c.broadcast(r, EventGameStarted, nil)
	c.announceTurn(r)
	c.log.Info().Str("room", string(r.Key)).Str("turn", string(r.Turn)).Msg("game started")
}

// announceTurn tells each connected player whether the turn is theirs.
func (c *Coordinator) announceTurn(r *room.Room) {
	for _, p := range r.Players {
		if p.Connected() {
			p.Conn.Send(EventTurnAssignment, TurnPayload{YourTurn: r.Turn == p.ID})
		}
	}
}

func (c *Coordinator) broadcast(r *room.Room, event string, data any) {
	for _, p := range r.Players {
		if p.Connected() {
			p.Conn.Send(event, data)
		}
	}
}

func (c *Coordinator) broadcastRoster(r *room.Room) {
	roster := make([]string, 0, len(r.Players))
	for _, id := range r.Roster() {
		roster = append(roster, string(id))
	}
	c.broadcast(r, EventRoomRoster, RosterPayload{Players: roster})
}
