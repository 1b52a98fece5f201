// Package websocket provides the WebSocket transport for the code duel
// server.
//
// The websocket package implements:
//   - Real-time bidirectional communication
//   - Message decoding and routing to the game coordinator
//   - Connection lifecycle management with ping/pong keepalive
//   - Per-connection rate limiting
//
// Architecture:
//
// A Hub upgrades HTTP requests and hands each connection to a Client with
// two dedicated goroutines: readPump decodes inbound frames and forwards
// them to the coordinator, writePump serializes outbound events. The hub
// keeps no game state of its own; rooms and turns live behind the
// coordinator.
//
// Message Protocol:
//
// Frames are JSON-encoded envelopes:
//   - Incoming: {"event": "submit-guess", "data": {"roomId": "R1", "userId": "alice", "guess": "4271"}}
//   - Outgoing: {"event": "guess-result", "data": {...}}
//
// Connection Lifecycle:
//
// 1. Client connects and is assigned a connection ID
// 2. Client sends join-room to take a seat
// 3. Game events flow in both directions
// 4. Disconnection (or read error) reports the connection ID to the
//    coordinator, which detaches the seat
//
// Concurrency:
//
// Send is safe from any goroutine and never blocks the caller. A slow or
// dead peer has frames dropped rather than stalling the game loop.
package websocket
