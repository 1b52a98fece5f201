// Package api provides the HTTP surface of the code duel server.
//
// The api package implements:
//   - Read-only REST endpoints over coordinator snapshots
//   - A stateless guess-scoring endpoint
//   - WebSocket upgrade handling
//   - Health check
//
// Endpoints:
//
// Observation:
//   - GET /api/rooms - List rooms with seat and connection counts
//   - GET /api/rooms/{key} - Detailed room view (never includes the secret)
//
// Utilities:
//   - POST /api/score - Score a guess against a given secret
//   - GET /api/health - Liveness probe
//
// Gameplay:
//   - /ws - WebSocket endpoint; all game actions travel over it
//
// Request/Response Format:
//
// All endpoints accept and return JSON. Game state is read-only over REST:
// joining, guessing, hints and rematches only exist on the WebSocket
// protocol, so the REST surface can never race the game loop.
package api
