package engine

import (
	"errors"
	"fmt"
)

const (
	DefaultRows = 3
	DefaultCols = 3
)

// ErrInvalidMove is returned for out-of-range, non-edge or already claimed cells.
var ErrInvalidMove = errors.New("invalid move")

type Player int

const (
	None Player = iota
	Blue
	Red
)

func (p Player) String() string {
	switch p {
	case Blue:
		return "blue"
	case Red:
		return "red"
	default:
		return ""
	}
}

func (p Player) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Player) UnmarshalText(text []byte) error {
	switch string(text) {
	case "":
		*p = None
	case "blue":
		*p = Blue
	case "red":
		*p = Red
	default:
		return fmt.Errorf("unknown player %q", text)
	}
	return nil
}

// Other returns the opponent of p. None has no opponent.
func (p Player) Other() Player {
	switch p {
	case Blue:
		return Red
	case Red:
		return Blue
	default:
		return None
	}
}

type Orientation int

const (
	NotAnEdge Orientation = iota
	Horizontal
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "none"
	}
}

// Edge is addressed in grid coordinates, the same ones the client clicks on.
type Edge struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (e Edge) String() string {
	return fmt.Sprintf("(%d,%d)", e.Row, e.Col)
}

// Box is addressed in box coordinates; its centre cell sits at (2*Row+1, 2*Col+1).
type Box struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (b Box) center() (int, int) {
	return 2*b.Row + 1, 2*b.Col + 1
}

// Sides lists the four bounding edges: top, bottom, left, right.
func (b Box) Sides() [4]Edge {
	r, c := b.center()
	return [4]Edge{{r - 1, c}, {r + 1, c}, {r, c - 1}, {r, c + 1}}
}

func boxAt(row, col int) Box {
	return Box{Row: (row - 1) / 2, Col: (col - 1) / 2}
}

type Score struct {
	Blue int `json:"blue"`
	Red  int `json:"red"`
}

func (s Score) Total() int {
	return s.Blue + s.Red
}

func (s Score) Of(p Player) int {
	switch p {
	case Blue:
		return s.Blue
	case Red:
		return s.Red
	default:
		return 0
	}
}

func (s *Score) add(p Player, n int) {
	switch p {
	case Blue:
		s.Blue += n
	case Red:
		s.Red += n
	}
}

// Outcome describes a finished or running game. A tie has no winner.
type Outcome struct {
	Over   bool   `json:"over"`
	Winner Player `json:"winner"`
	Tie    bool   `json:"tie"`
}

type ClaimResult struct {
	Edge      Edge    `json:"edge"`
	Player    Player  `json:"player"`
	Completed []Box   `json:"completed"`
	Score     Score   `json:"score"`
	Next      Player  `json:"next"`
	Outcome   Outcome `json:"outcome"`
}

// Listener receives board notifications in the order they happen during a move.
type Listener interface {
	OnScoreChanged(score Score)
	OnBoxCompleted(box Box, owner Player)
	OnGameOver(outcome Outcome)
	OnTurnChanged(next Player)
}
