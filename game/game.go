package game

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cameroncuttingedge/dots_and_boxes/engine"
	"github.com/cameroncuttingedge/dots_and_boxes/events"
	"github.com/rs/zerolog/log"
)

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusOver    Status = "over"
)

var (
	ErrUnknownPlayer = errors.New("invalid player")
	ErrNotActive     = errors.New("game is not active")
	ErrNotYourTurn   = errors.New("it's not your turn")
	ErrCannotJoin    = errors.New("game not waiting or same player")
)

// Game is a two player session around an engine.Board.
// Players[0] plays blue and always moves first.
type Game struct {
	mu             sync.Mutex
	ID             string
	Board          *engine.Board
	Players        [2]string
	Status         Status
	RestartRequest map[string]bool

	publish func(events.GameEvent)
}

// NewGame initializes a new game with the first player
func NewGame(gameID string, player1ID string) *Game {
	g := &Game{
		ID:             gameID,
		Players:        [2]string{player1ID, ""},
		Status:         StatusWaiting,
		RestartRequest: make(map[string]bool),
		publish:        events.Publish,
	}
	g.Board = engine.New(engine.WithListener(g))
	return g
}

func (g *Game) AddSecondPlayer(player2ID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Players[1] != "" || g.Status != StatusWaiting || g.Players[0] == player2ID {
		return ErrCannotJoin
	}
	g.Players[1] = player2ID
	g.Status = StatusActive
	log.Info().Str("gameID", g.ID).Str("playerID", player2ID).Msg("Second player joined")
	g.publishState()
	return nil
}

// MakeMove claims the edge at (row, col) for username.
func (g *Game) MakeMove(username string, row, col int) (engine.ClaimResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.isValidPlayer(username) {
		return engine.ClaimResult{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, username)
	}
	if g.Status != StatusActive {
		return engine.ClaimResult{}, ErrNotActive
	}
	if g.colorOf(username) != g.Board.Turn() {
		return engine.ClaimResult{}, ErrNotYourTurn
	}

	result, err := g.Board.ClaimEdge(row, col)
	if err != nil {
		log.Info().Err(err).Str("gameID", g.ID).Str("playerID", username).Msg("Rejected move")
		return engine.ClaimResult{}, err
	}
	log.Info().
		Str("gameID", g.ID).
		Str("playerID", username).
		Stringer("edge", result.Edge).
		Int("boxes", len(result.Completed)).
		Msg("Edge claimed")

	if result.Outcome.Over {
		g.Status = StatusOver
	}
	g.publishState()
	return result, nil
}

// RequestRestart records playerID's wish for a new game and resets the board
// once both players have asked.
func (g *Game) RequestRestart(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.isValidPlayer(playerID) {
		log.Info().Str("playerID", playerID).Str("gameID", g.ID).Msg("Ignoring restart from unknown player")
		return false
	}
	g.RestartRequest[playerID] = true
	log.Info().Str("playerID", playerID).Str("gameID", g.ID).Msg("Restart requested")
	if len(g.RestartRequest) == 2 {
		g.RestartRequest = make(map[string]bool)
		g.Status = StatusActive
		g.Board.Reset()
		log.Info().Str("gameID", g.ID).Msg("Both players requested restart. Game state reset.")
		g.publishState()
		return true
	}
	log.Info().Str("gameID", g.ID).Int("restartRequests", len(g.RestartRequest)).Msg("Waiting for the other player to request restart")
	g.publishState()
	return false
}

func (g *Game) IsValidPlayer(username string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isValidPlayer(username)
}

func (g *Game) isValidPlayer(username string) bool {
	if username == "" {
		return false
	}
	for _, player := range g.Players {
		if player == username {
			return true
		}
	}
	return false
}

func (g *Game) colorOf(username string) engine.Player {
	switch username {
	case g.Players[0]:
		return engine.Blue
	case g.Players[1]:
		return engine.Red
	default:
		return engine.None
	}
}

func (g *Game) playerFor(color engine.Player) string {
	switch color {
	case engine.Blue:
		return g.Players[0]
	case engine.Red:
		return g.Players[1]
	default:
		return ""
	}
}

func (g *Game) PublishState() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.publishState()
}

func (g *Game) publishState() {
	state := g.snapshot()
	log.Debug().Str("gameID", g.ID).Msg("Publishing game state")
	g.publish(events.GameEvent{Type: events.StateEvent, GameID: g.ID, State: &state})
}

func (g *Game) Snapshot() events.GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

func (g *Game) snapshot() events.GameState {
	score := g.Board.Score()
	outcome := g.Board.Outcome()
	state := events.GameState{
		ID:             g.ID,
		Grid:           g.Board.Grid(),
		Score:          events.Score{Blue: score.Blue, Red: score.Red},
		Over:           outcome.Over,
		Tie:            outcome.Tie,
		Winner:         g.playerFor(outcome.Winner),
		Players:        g.Players,
		Status:         string(g.Status),
		RestartRequest: make(map[string]bool, len(g.RestartRequest)),
	}
	if !outcome.Over {
		state.Turn = g.playerFor(g.Board.Turn())
		state.TurnColor = g.Board.Turn().String()
	}
	for k, v := range g.RestartRequest {
		state.RestartRequest[k] = v
	}
	return state
}

// OnScoreChanged and the other engine.Listener methods run while the board is
// being updated, so they must not take g.mu.
func (g *Game) OnScoreChanged(score engine.Score) {
	g.publish(events.GameEvent{
		Type:   events.ScoreChangedEvent,
		GameID: g.ID,
		Score:  &events.Score{Blue: score.Blue, Red: score.Red},
	})
}

func (g *Game) OnBoxCompleted(box engine.Box, owner engine.Player) {
	g.publish(events.GameEvent{
		Type:   events.BoxCompletedEvent,
		GameID: g.ID,
		Box:    &events.BoxCompleted{Row: box.Row, Col: box.Col, Owner: owner.String()},
	})
}

func (g *Game) OnGameOver(outcome engine.Outcome) {
	log.Info().Str("gameID", g.ID).Str("winner", g.playerFor(outcome.Winner)).Bool("tie", outcome.Tie).Msg("Game over")
	g.publish(events.GameEvent{
		Type:   events.GameOverEvent,
		GameID: g.ID,
		Winner: g.playerFor(outcome.Winner),
		Tie:    outcome.Tie,
	})
}

func (g *Game) OnTurnChanged(next engine.Player) {
	g.publish(events.GameEvent{
		Type:   events.TurnChangedEvent,
		GameID: g.ID,
		Turn:   g.playerFor(next),
	})
}

// String returns a text representation of the current game state
func (g *Game) String() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var sb strings.Builder
	sb.WriteString(g.Board.String())
	sb.WriteString(fmt.Sprintf("Status: %s\n", g.Status))
	sb.WriteString(fmt.Sprintf("Player Blue: %s\n", g.Players[0]))
	sb.WriteString(fmt.Sprintf("Player Red: %s\n", g.Players[1]))
	return sb.String()
}
