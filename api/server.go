package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nmaroz/codeduel/game/score"
	"github.com/nmaroz/codeduel/game/service"
	"github.com/nmaroz/codeduel/transport/websocket"
	"github.com/nmaroz/codeduel/validate"
)

// Queries is the read-only slice of the coordinator the REST surface needs.
type Queries interface {
	Rooms(ctx context.Context) ([]service.RoomSummary, error)
	Room(ctx context.Context, key string) (*service.RoomView, error)
}

// Server represents the REST API server
type Server struct {
	queries Queries
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server
func NewServer(queries Queries, hub *websocket.Hub) *Server {
	s := &Server{
		queries: queries,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Observation
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/rooms/{key}", s.handleGetRoom).Methods("GET")

	// Utilities
	api.HandleFunc("/score", s.handleScore).Methods("POST")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.hub.ServeWS)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Room Handlers

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.queries.Rooms(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rooms": rooms,
		"count": len(rooms),
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if !validate.RoomKey(key) {
		respondError(w, http.StatusBadRequest, "invalid room key")
		return
	}

	view, err := s.queries.Room(r.Context(), key)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if view == nil {
		respondError(w, http.StatusNotFound, "room not found")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Score Handler

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string `json:"secret"`
		Guess  string `json:"guess"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !validate.Guess(req.Secret) || !validate.Guess(req.Guess) {
		respondError(w, http.StatusBadRequest, "secret and guess must be exactly 4 digits")
		return
	}

	fb, err := score.Guess(req.Secret, req.Guess)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"guess":            req.Guess,
		"correctPositions": fb.CorrectPositions,
		"correctDigits":    fb.CorrectDigits,
		"won":              fb.Won(),
	})
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
