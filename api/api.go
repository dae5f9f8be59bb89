package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cameroncuttingedge/dots_and_boxes/engine"
	"github.com/cameroncuttingedge/dots_and_boxes/game"
	"github.com/cameroncuttingedge/dots_and_boxes/utils"
	"github.com/cameroncuttingedge/dots_and_boxes/websocket"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const Rules = "In Dots and Boxes, players take turns claiming line segments, " +
	"which turns the segment into the player's color. When all four sides of a " +
	"square are claimed (not necessarily by the same player), the square goes to " +
	"the player who claimed the final side, scoring a point for that player. " +
	"The objective of the game is to score as many points as possible.\n\n" +
	"It's possible to score two points with one move, but the turn always passes " +
	"to the other player. Blue moves first. The game ends when there are no more " +
	"segments left to claim.\n"

type Move struct {
	Username string `json:"username"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
}

type Server struct {
	games  *utils.Store
	hub    *websocket.Hub
	router *mux.Router
}

func NewServer(games *utils.Store, hub *websocket.Hub) *Server {
	s := &Server{games: games, hub: hub, router: mux.NewRouter()}

	s.router.Use(accessLog)
	s.router.HandleFunc("/game/create", s.createGameHandler).Methods("POST")
	s.router.HandleFunc("/game/{gameID}/join", s.joinGameHandler).Methods("POST")
	s.router.HandleFunc("/game/{gameID}/move", s.makeMoveHandler).Methods("POST")
	s.router.HandleFunc("/game/{gameID}/state/", s.getGameStateHandler).Methods("GET")
	s.router.HandleFunc("/game/{gameID}/board", s.getBoardHandler).Methods("GET")
	s.router.HandleFunc("/game/{gameID}/restart", s.requestRestartHandler).Methods("POST")
	s.router.HandleFunc("/rules", rulesHandler).Methods("GET")
	if hub != nil {
		s.router.HandleFunc("/ws/game/state/{gameID}", hub.GameWebSocketHandler)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler wraps the router with CORS and panic recovery.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(cors(s))
}

func StartAPI(addr string, handler http.Handler) error {
	log.Info().Str("addr", addr).Msg("Server started")
	return http.ListenAndServe(addr, handler)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func rulesHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, Rules)
}

func (s *Server) lookupGame(w http.ResponseWriter, r *http.Request) (*game.Game, bool) {
	gameID, ok := mux.Vars(r)["gameID"]
	if !ok || gameID == "" {
		http.Error(w, "Game ID is required", http.StatusBadRequest)
		return nil, false
	}
	g := s.games.Get(gameID)
	if g == nil {
		http.Error(w, "Game not found", http.StatusNotFound)
		return nil, false
	}
	return g, true
}

func (s *Server) createGameHandler(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("Attempting to create New game")

	playerID := r.URL.Query().Get("playerID")
	if playerID == "" {
		http.Error(w, "Player ID is required", http.StatusBadRequest)
		return
	}

	gameID := utils.GenerateUUIDString()
	newGame := game.NewGame(gameID, playerID)
	s.games.Add(newGame)
	newGame.PublishState()
	log.Info().Str("gameID", gameID).Str("playerID", playerID).Msg("Game created")

	writeJSON(w, http.StatusOK, map[string]string{"gameID": gameID})
}

func (s *Server) joinGameHandler(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerID")
	if playerID == "" {
		http.Error(w, "Player ID is required", http.StatusBadRequest)
		return
	}
	g, ok := s.lookupGame(w, r)
	if !ok {
		return
	}

	if err := g.AddSecondPlayer(playerID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Player %s successfully joined the game!", playerID)})
}

func (s *Server) makeMoveHandler(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookupGame(w, r)
	if !ok {
		return
	}

	move, err := extractMove(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := g.MakeMove(move.Username, move.Row, move.Col)
	if err != nil {
		http.Error(w, err.Error(), moveErrorStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func moveErrorStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrNotYourTurn):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInvalidMove),
		errors.Is(err, game.ErrUnknownPlayer),
		errors.Is(err, game.ErrNotActive):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func extractMove(r *http.Request) (*Move, error) {
	var move Move
	if err := json.NewDecoder(r.Body).Decode(&move); err != nil {
		return nil, fmt.Errorf("error decoding JSON: %v", err)
	}
	if move.Username == "" {
		return nil, fmt.Errorf("no username in JSON")
	}
	return &move, nil
}

func (s *Server) getGameStateHandler(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookupGame(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, g.Snapshot())
}

func (s *Server) getBoardHandler(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookupGame(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, g.String())
}

func (s *Server) requestRestartHandler(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerID")
	if playerID == "" {
		http.Error(w, "Player ID is required", http.StatusBadRequest)
		return
	}
	g, ok := s.lookupGame(w, r)
	if !ok {
		return
	}
	if !g.IsValidPlayer(playerID) {
		http.Error(w, "Invalid player", http.StatusBadRequest)
		return
	}

	message := "Restart request acknowledged."
	if g.RequestRestart(playerID) {
		message = "Game restarted."
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}
