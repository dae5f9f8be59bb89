package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/cameroncuttingedge/dots_and_boxes/events"
	"github.com/cameroncuttingedge/dots_and_boxes/utils"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// client serialises writes; gorilla connections allow one writer at a time.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

type Hub struct {
	lock            sync.Mutex
	gameConnections map[string][]*client
	games           *utils.Store
	upgrader        websocket.Upgrader
}

func NewHub(games *utils.Store, checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		gameConnections: make(map[string][]*client),
		games:           games,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// OriginChecker allows requests whose Origin header exactly matches one of
// allowed. "*" allows everything. Requests without an Origin header are not
// from browsers and are let through.
func OriginChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(r *http.Request) bool { return true }
		}
		set[origin] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if !set[origin] {
			log.Warn().Str("origin", origin).Msg("WebSocket origin not allowed")
			return false
		}
		return true
	}
}

func (h *Hub) GameWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID, ok := vars["gameID"]
	if !ok {
		http.Error(w, "Game ID is required", http.StatusBadRequest)
		return
	}
	if h.games.Get(gameID) == nil {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("gameID", gameID).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	// Broadcasts wait on c.mu, so the snapshot is always the first message.
	c := &client{conn: conn}
	c.mu.Lock()
	h.registerConnection(gameID, c)
	h.sendGameState(c, gameID)
	c.mu.Unlock()
	defer h.deregisterConnection(gameID, c)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error().Err(err).Str("gameID", gameID).Msg("WebSocket closed unexpectedly")
			}
			break
		}
	}
}

// sendGameState must be called with c.mu held.
func (h *Hub) sendGameState(c *client, gameID string) {
	game := h.games.Get(gameID)
	if game == nil {
		log.Error().Str("gameID", gameID).Msg("Game not found, cannot send game state")
		return
	}

	state := game.Snapshot()
	if err := c.conn.WriteJSON(events.GameEvent{Type: events.StateEvent, GameID: gameID, State: &state}); err != nil {
		log.Error().Err(err).Str("gameID", gameID).Msg("Error sending game state")
	}
}

func (h *Hub) Broadcast(gameEvent events.GameEvent) {
	h.lock.Lock()
	connections := append([]*client(nil), h.gameConnections[gameEvent.GameID]...)
	h.lock.Unlock()

	if len(connections) == 0 {
		log.Debug().Str("gameID", gameEvent.GameID).Msg("No connections to broadcast")
		return
	}

	log.Debug().
		Str("gameID", gameEvent.GameID).
		Str("type", string(gameEvent.Type)).
		Int("connectionsCount", len(connections)).
		Msg("Broadcasting game event")
	for i, c := range connections {
		if err := c.writeJSON(gameEvent); err != nil {
			log.Error().Err(err).Str("gameID", gameEvent.GameID).Msgf("Failed to broadcast game event to connection %d", i)
		}
	}
}

func (h *Hub) ConnectionCount(gameID string) int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.gameConnections[gameID])
}

func (h *Hub) registerConnection(gameID string, c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.gameConnections[gameID] = append(h.gameConnections[gameID], c)
	log.Info().
		Str("gameID", gameID).
		Str("remote", c.conn.RemoteAddr().String()).
		Int("connectionsCount", len(h.gameConnections[gameID])).
		Msg("WebSocket connection registered")
}

func (h *Hub) deregisterConnection(gameID string, c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	connections := h.gameConnections[gameID]
	for i, existing := range connections {
		if existing == c {
			h.gameConnections[gameID] = append(connections[:i], connections[i+1:]...)
			break
		}
	}
	if len(h.gameConnections[gameID]) == 0 {
		delete(h.gameConnections, gameID)
	}
	log.Info().Str("gameID", gameID).Int("remainingConnections", len(h.gameConnections[gameID])).Msg("WebSocket connection deregistered")
}

// StartEventListening broadcasts every event read from ch until ch is closed.
func (h *Hub) StartEventListening(ch <-chan events.GameEvent) {
	log.Info().Msg("Event listener starting...")
	go func() {
		for gameEvent := range ch {
			if e := log.Debug(); e.Enabled() {
				data, err := json.Marshal(gameEvent)
				if err != nil {
					e.Discard()
					log.Error().Err(err).Msg("Failed to marshal game event to JSON")
					continue
				}
				e.Str("gameID", gameEvent.GameID).RawJSON("gameEvent", data).Msg("Received game event, broadcasting update")
			}
			h.Broadcast(gameEvent)
		}
		log.Info().Msg("Event listener goroutine exited.")
	}()
}
