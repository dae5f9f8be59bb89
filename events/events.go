package events

import "github.com/rs/zerolog/log"

type EventType string

const (
	StateEvent        EventType = "state"
	ScoreChangedEvent EventType = "score_changed"
	BoxCompletedEvent EventType = "box_completed"
	TurnChangedEvent  EventType = "turn_changed"
	GameOverEvent     EventType = "game_over"
)

type Score struct {
	Blue int `json:"blue"`
	Red  int `json:"red"`
}

type GameState struct {
	ID             string          `json:"id"`
	Grid           [][]string      `json:"grid"`
	Turn           string          `json:"turn"`
	TurnColor      string          `json:"turnColor"`
	Score          Score           `json:"score"`
	Winner         string          `json:"winner"`
	Tie            bool            `json:"tie"`
	Over           bool            `json:"over"`
	Players        [2]string       `json:"players"`
	Status         string          `json:"status"`
	RestartRequest map[string]bool `json:"restartRequest"`
}

type BoxCompleted struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Owner string `json:"owner"`
}

// GameEvent is what clients of a game receive. Only the fields belonging to
// Type are set.
type GameEvent struct {
	Type   EventType     `json:"type"`
	GameID string        `json:"gameId"`
	State  *GameState    `json:"state,omitempty"`
	Score  *Score        `json:"score,omitempty"`
	Box    *BoxCompleted `json:"box,omitempty"`
	Turn   string        `json:"turn,omitempty"`
	Winner string        `json:"winner,omitempty"`
	Tie    bool          `json:"tie,omitempty"`
}

var EventChannel = make(chan GameEvent, 100)

// Publish queues e on EventChannel. A full channel drops the event so a move
// never waits on slow clients.
func Publish(e GameEvent) {
	select {
	case EventChannel <- e:
	default:
		log.Warn().Str("gameID", e.GameID).Str("type", string(e.Type)).Msg("Event channel full, dropping event")
	}
}
