package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/wricardo/genial/game/config"
	"github.com/wricardo/genial/game/service"
	"github.com/wricardo/genial/game/store"
	"github.com/wricardo/genial/transport/websocket"
)

// PresetStore lists and saves game presets
type PresetStore interface {
	List() []config.Preset
	Save(p config.Preset) error
}

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	presets PresetStore
	router  *mux.Router
}

// Option configures a Server
type Option func(*Server)

// WithPresets exposes the preset endpoints
func WithPresets(p PresetStore) Option {
	return func(s *Server) { s.presets = p }
}

// NewServer creates a new API server
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Games
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games", s.handleCreateGame).Methods("POST")
	api.HandleFunc("/games/{id}", s.handleGetGame).Methods("GET")
	api.HandleFunc("/games/{id}/board", s.handleGetBoard).Methods("GET")

	// Players
	api.HandleFunc("/players/{id}", s.handleGetPlayer).Methods("GET")
	api.HandleFunc("/players/{id}", s.handleUpsertPlayer).Methods("POST")

	// Presets
	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")
	api.HandleFunc("/presets", s.handleSavePreset).Methods("POST")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/ws/{player_id}", s.handleWebSocket)
}

// Router returns the underlying router so other handlers can be mounted
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error": message,
		"code":  status,
	})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	var rej *service.Rejection
	switch {
	case errors.Is(err, service.ErrGameNotFound),
		errors.Is(err, service.ErrPlayerNotFound),
		errors.Is(err, config.ErrPresetNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidGameRequest),
		errors.Is(err, service.ErrInvalidPlayerID),
		errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrServiceClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &rej):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Game Handlers

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGames(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	query := r.URL.Query()
	if status := query.Get("status"); status != "" {
		if !validStatus(status) {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Unknown status %q", status))
			return
		}
		filtered := make([]*service.GameInfo, 0, len(games))
		for _, g := range games {
			if string(g.Status) == status {
				filtered = append(filtered, g)
			}
		}
		games = filtered
	}

	total := len(games)
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(games) {
			games = games[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(games),
		"total": total,
		"games": games,
	})
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req service.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	game, err := s.service.CreateGame(r.Context(), req)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, game)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	game, err := s.service.LobbyGame(r.Context(), gameID)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, game)
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	board, err := s.service.BoardOf(r.Context(), gameID)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, board)
}

// Player Handlers

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]

	player, err := s.service.PlayerInfo(r.Context(), playerID)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, player)
}

func (s *Server) handleUpsertPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]

	var req struct {
		Name string `json:"name"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	player, err := s.service.UpsertPlayer(r.Context(), playerID, req.Name)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, player)
}

// Preset Handlers

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	if s.presets == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"count": 0, "presets": []config.Preset{}})
		return
	}

	presets := s.presets.List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(presets),
		"presets": presets,
	})
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	if s.presets == nil {
		respondError(w, http.StatusNotImplemented, "Presets are not available")
		return
	}

	var preset config.Preset
	if err := json.NewDecoder(r.Body).Decode(&preset); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.presets.Save(preset); err != nil {
		respondError(w, statusFor(err), fmt.Sprintf("Failed to save preset: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Preset saved successfully",
		"preset":  preset.Name,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["player_id"]
	if _, err := uuid.Parse(playerID); err != nil {
		http.Error(w, "player id must be a UUID", http.StatusBadRequest)
		return
	}

	// The player record must exist before any game message arrives
	if _, err := s.service.UpsertPlayer(r.Context(), playerID, ""); err != nil {
		log.Printf("[api] failed to upsert player %s: %v", playerID, err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	s.hub.ServeWS(w, r, playerID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	connections, rooms := s.hub.Stats()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"connections": connections,
		"rooms":       rooms,
	})
}

func validStatus(status string) bool {
	switch store.Status(status) {
	case store.StatusCreated, store.StatusInProgress, store.StatusFinished:
		return true
	}
	return false
}
