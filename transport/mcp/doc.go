// Package mcp provides the Model Context Protocol surface of the code duel
// server.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Read-only observation tools over the REST API
//   - Stdio and HTTP transport modes
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - list_rooms: List rooms with seat and connection counts
//   - get_room: Get one room's phase, turn and roster
//   - score_guess: Score a guess against a known secret
//   - game_instructions: Get the game rules and protocol overview
//
// Gameplay itself happens over WebSocket connections; MCP agents observe
// games and reason about scoring, they do not hold seats. The tools proxy
// to the REST API, so an MCP process can run separately from the game
// server.
//
// Transport Modes:
//
// The server supports two transport modes:
//   - Stdio: Direct stdio communication for local MCP clients
//   - HTTP: HTTP endpoint for remote MCP integration
package mcp
