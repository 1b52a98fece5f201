// Package service implements the session coordinator for the code duel.
//
// The coordinator is the orchestrator between the transports and the room
// store. It receives inbound client events (join, guess, hint, rematch,
// disconnect), consults and mutates the room store, invokes the scoring
// engine, and emits outbound events to one or both connected clients.
//
// Concurrency model:
//
// A single goroutine started by Run owns all room state. Every inbound
// event, every read-only query and every completed hint call funnels
// through one channel and is handled to completion before the next, so
// room mutations never interleave and no locking is needed. The only
// asynchronous operation is the hint gateway call: it runs on its own
// goroutine and re-enters the loop as an internal event that looks the
// room up again by key, because the room, the requester's connection or
// even the whole game may have changed while the call was in flight.
//
// Usage:
//
//	store := room.NewStore()
//	coord := service.NewCoordinator(store, gateway, logger)
//	go coord.Run(ctx)
//
//	// from transport goroutines:
//	coord.JoinRoom("R1", "alice", conn)
//	coord.SubmitGuess("R1", "alice", "1234")
package service
