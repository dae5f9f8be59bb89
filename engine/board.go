package engine

import (
	"fmt"
	"strings"
)

type Option func(*Board)

// WithSize sets the number of box rows and columns. Values below one are ignored.
func WithSize(rows, cols int) Option {
	return func(b *Board) {
		if rows > 0 && cols > 0 {
			b.rows, b.cols = rows, cols
		}
	}
}

func WithListener(l Listener) Option {
	return func(b *Board) {
		b.listener = l
	}
}

// Board is the game state engine. Edges are stored by grid coordinate and
// box owners are recorded when the completing edge is claimed.
//
// A Board is not safe for concurrent use.
type Board struct {
	rows, cols int
	edges      map[Edge]Player
	boxes      map[Box]Player
	score      Score
	turn       Player
	listener   Listener
}

func New(opts ...Option) *Board {
	b := &Board{rows: DefaultRows, cols: DefaultCols}
	for _, opt := range opts {
		opt(b)
	}
	b.clear()
	return b
}

func (b *Board) clear() {
	b.edges = make(map[Edge]Player, b.EdgeCount())
	for _, e := range b.Edges() {
		b.edges[e] = None
	}
	b.boxes = make(map[Box]Player, b.TotalBoxes())
	b.score = Score{}
	b.turn = Blue
}

// Reset starts a new game on the same board.
func (b *Board) Reset() {
	b.clear()
	if b.listener != nil {
		b.listener.OnScoreChanged(b.score)
		b.listener.OnTurnChanged(b.turn)
	}
}

// GridSize returns the height and width of the cell grid.
func (b *Board) GridSize() (int, int) {
	return 2*b.rows + 1, 2*b.cols + 1
}

func (b *Board) Orientation(row, col int) Orientation {
	h, w := b.GridSize()
	if row < 0 || col < 0 || row >= h || col >= w {
		return NotAnEdge
	}
	switch {
	case row%2 == 0 && col%2 == 1:
		return Horizontal
	case row%2 == 1 && col%2 == 0:
		return Vertical
	default:
		return NotAnEdge
	}
}

func (b *Board) EdgeCount() int {
	return b.rows*(b.cols+1) + b.cols*(b.rows+1)
}

func (b *Board) TotalBoxes() int {
	return b.rows * b.cols
}

// Edges lists every edge in row-major grid order.
func (b *Board) Edges() []Edge {
	h, w := b.GridSize()
	edges := make([]Edge, 0, b.EdgeCount())
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			if b.Orientation(r, c) != NotAnEdge {
				edges = append(edges, Edge{r, c})
			}
		}
	}
	return edges
}

func (b *Board) OpenEdges() []Edge {
	var open []Edge
	for _, e := range b.Edges() {
		if b.edges[e] == None {
			open = append(open, e)
		}
	}
	return open
}

func (b *Board) EdgeOwner(e Edge) Player {
	return b.edges[e]
}

func (b *Board) BoxOwner(box Box) Player {
	return b.boxes[box]
}

func (b *Board) Turn() Player {
	return b.turn
}

func (b *Board) Score() Score {
	return b.score
}

func (b *Board) CompletedBoxes() int {
	return len(b.boxes)
}

func (b *Board) Outcome() Outcome {
	if len(b.boxes) < b.TotalBoxes() {
		return Outcome{}
	}
	switch {
	case b.score.Blue > b.score.Red:
		return Outcome{Over: true, Winner: Blue}
	case b.score.Red > b.score.Blue:
		return Outcome{Over: true, Winner: Red}
	default:
		return Outcome{Over: true, Tie: true}
	}
}

// ClaimEdge marks the edge at (row, col) for the player whose turn it is.
// Invalid claims are rejected before any state changes.
func (b *Board) ClaimEdge(row, col int) (ClaimResult, error) {
	orientation := b.Orientation(row, col)
	if orientation == NotAnEdge {
		return ClaimResult{}, fmt.Errorf("%w: (%d,%d) is not an edge", ErrInvalidMove, row, col)
	}
	edge := Edge{row, col}
	if owner := b.edges[edge]; owner != None {
		return ClaimResult{}, fmt.Errorf("%w: edge %s already claimed by %s", ErrInvalidMove, edge, owner)
	}

	mover := b.turn
	b.edges[edge] = mover

	completed := []Box{}
	for _, box := range b.adjacentBoxes(edge, orientation) {
		if b.isClosed(box) {
			b.boxes[box] = mover
			completed = append(completed, box)
		}
	}
	b.score.add(mover, len(completed))
	b.turn = mover.Other()

	result := ClaimResult{
		Edge:      edge,
		Player:    mover,
		Completed: completed,
		Score:     b.score,
		Next:      b.turn,
		Outcome:   b.Outcome(),
	}
	b.notify(result)
	return result, nil
}

// adjacentBoxes returns the boxes bordering e: top and bottom for a horizontal
// edge, left and right for a vertical one.
func (b *Board) adjacentBoxes(e Edge, o Orientation) []Box {
	h, w := b.GridSize()
	boxes := make([]Box, 0, 2)
	if o == Horizontal {
		if e.Row > 0 {
			boxes = append(boxes, boxAt(e.Row-1, e.Col))
		}
		if e.Row < h-1 {
			boxes = append(boxes, boxAt(e.Row+1, e.Col))
		}
		return boxes
	}
	if e.Col > 0 {
		boxes = append(boxes, boxAt(e.Row, e.Col-1))
	}
	if e.Col < w-1 {
		boxes = append(boxes, boxAt(e.Row, e.Col+1))
	}
	return boxes
}

func (b *Board) isClosed(box Box) bool {
	if _, done := b.boxes[box]; done {
		return false
	}
	for _, side := range box.Sides() {
		if b.edges[side] == None {
			return false
		}
	}
	return true
}

func (b *Board) notify(result ClaimResult) {
	if b.listener == nil {
		return
	}
	for _, box := range result.Completed {
		b.listener.OnBoxCompleted(box, result.Player)
	}
	if len(result.Completed) > 0 {
		b.listener.OnScoreChanged(result.Score)
	}
	if result.Outcome.Over {
		b.listener.OnGameOver(result.Outcome)
		return
	}
	b.listener.OnTurnChanged(result.Next)
}

// Grid returns the board as cell strings: "+" for dots, the owner's colour for
// claimed edges and completed boxes, and "" for anything still open.
func (b *Board) Grid() [][]string {
	h, w := b.GridSize()
	grid := make([][]string, h)
	for r := range grid {
		grid[r] = make([]string, w)
		for c := range grid[r] {
			switch {
			case r%2 == 0 && c%2 == 0:
				grid[r][c] = "+"
			case r%2 == 1 && c%2 == 1:
				grid[r][c] = b.boxes[boxAt(r, c)].String()
			default:
				grid[r][c] = b.edges[Edge{r, c}].String()
			}
		}
	}
	return grid
}

func (b *Board) String() string {
	var sb strings.Builder
	h, w := b.GridSize()
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			switch {
			case r%2 == 0 && c%2 == 0:
				sb.WriteString("+")
			case r%2 == 1 && c%2 == 1:
				sb.WriteString(" " + initial(b.boxes[boxAt(r, c)], true) + " ")
			case r%2 == 0:
				sb.WriteString(strings.Repeat(initial(b.edges[Edge{r, c}], false), 3))
			default:
				sb.WriteString(initial(b.edges[Edge{r, c}], false))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Blue: %d vs. Red: %d\n", b.score.Blue, b.score.Red))
	outcome := b.Outcome()
	switch {
	case outcome.Tie:
		sb.WriteString("Tie!\n")
	case outcome.Over:
		sb.WriteString(fmt.Sprintf("%s won!\n", title(outcome.Winner)))
	default:
		sb.WriteString(fmt.Sprintf("Turn: %s\n", title(b.turn)))
	}
	return sb.String()
}

func initial(p Player, upper bool) string {
	if p == None {
		return " "
	}
	s := p.String()[:1]
	if upper {
		return strings.ToUpper(s)
	}
	return s
}

func title(p Player) string {
	s := p.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
