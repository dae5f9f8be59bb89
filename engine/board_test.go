package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

type recorder struct {
	calls []string
	boxes []Box
	score Score
	over  *Outcome
	turns []Player
}

func (r *recorder) OnScoreChanged(score Score) {
	r.calls = append(r.calls, "score")
	r.score = score
}

func (r *recorder) OnBoxCompleted(box Box, owner Player) {
	r.calls = append(r.calls, "box:"+owner.String())
	r.boxes = append(r.boxes, box)
}

func (r *recorder) OnGameOver(outcome Outcome) {
	r.calls = append(r.calls, "over")
	r.over = &outcome
}

func (r *recorder) OnTurnChanged(next Player) {
	r.calls = append(r.calls, "turn:"+next.String())
	r.turns = append(r.turns, next)
}

func claimAll(t *testing.T, b *Board, edges ...Edge) []ClaimResult {
	t.Helper()
	results := make([]ClaimResult, 0, len(edges))
	for _, e := range edges {
		res, err := b.ClaimEdge(e.Row, e.Col)
		require.NoError(t, err, "claim %s", e)
		results = append(results, res)
	}
	return results
}

func permutations(edges []Edge) [][]Edge {
	if len(edges) <= 1 {
		return [][]Edge{append([]Edge(nil), edges...)}
	}
	var out [][]Edge
	for i := range edges {
		rest := make([]Edge, 0, len(edges)-1)
		rest = append(rest, edges[:i]...)
		rest = append(rest, edges[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]Edge{edges[i]}, p...))
		}
	}
	return out
}

func TestNewBoard(t *testing.T) {
	b := New()

	require.Equal(t, 24, b.EdgeCount())
	require.Len(t, b.Edges(), 24)
	require.Len(t, b.OpenEdges(), 24)
	require.Equal(t, 9, b.TotalBoxes())
	require.Equal(t, Blue, b.Turn())
	require.Equal(t, Score{}, b.Score())
	require.Equal(t, Outcome{}, b.Outcome())

	h, w := b.GridSize()
	require.Equal(t, 7, h)
	require.Equal(t, 7, w)

	placeholders := 0
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			if b.Orientation(r, c) == NotAnEdge {
				placeholders++
			}
		}
	}
	require.Equal(t, 25, placeholders)
}

func TestOrientation(t *testing.T) {
	b := New()
	tests := []struct {
		row, col int
		want     Orientation
	}{
		{0, 1, Horizontal},
		{6, 5, Horizontal},
		{1, 0, Vertical},
		{5, 6, Vertical},
		{0, 0, NotAnEdge},
		{3, 3, NotAnEdge},
		{-1, 1, NotAnEdge},
		{7, 1, NotAnEdge},
		{1, 7, NotAnEdge},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, b.Orientation(tt.row, tt.col), "(%d,%d)", tt.row, tt.col)
	}
}

func TestClaimEdgeRejectsInvalidMoves(t *testing.T) {
	t.Run("out of range", func(t *testing.T) {
		b := New()
		for _, e := range []Edge{{-1, 1}, {7, 1}, {1, -2}, {1, 8}} {
			_, err := b.ClaimEdge(e.Row, e.Col)
			require.ErrorIs(t, err, ErrInvalidMove)
		}
		require.Len(t, b.OpenEdges(), 24)
		require.Equal(t, Blue, b.Turn())
	})

	t.Run("dot and box interior", func(t *testing.T) {
		b := New()
		_, err := b.ClaimEdge(0, 0)
		require.ErrorIs(t, err, ErrInvalidMove)
		_, err = b.ClaimEdge(1, 1)
		require.ErrorIs(t, err, ErrInvalidMove)
		require.Equal(t, Blue, b.Turn())
	})

	t.Run("already claimed", func(t *testing.T) {
		rec := &recorder{}
		b := New(WithListener(rec))
		box := Box{0, 0}
		sides := box.Sides()
		claimAll(t, b, sides[:]...)
		require.Equal(t, Score{Red: 1}, b.Score())
		turn := b.Turn()
		calls := len(rec.calls)

		_, err := b.ClaimEdge(sides[3].Row, sides[3].Col)
		require.ErrorIs(t, err, ErrInvalidMove)
		require.Equal(t, Score{Red: 1}, b.Score())
		require.Equal(t, turn, b.Turn())
		require.Equal(t, Red, b.EdgeOwner(sides[3]))
		require.Len(t, rec.calls, calls, "rejected move must not notify")
	})
}

func TestTurnFlipsOncePerMove(t *testing.T) {
	b := New()
	res, err := b.ClaimEdge(0, 1)
	require.NoError(t, err)
	require.Equal(t, Blue, res.Player)
	require.Equal(t, Red, res.Next)
	require.Equal(t, Red, b.Turn())
	require.Empty(t, res.Completed)

	res, err = b.ClaimEdge(1, 0)
	require.NoError(t, err)
	require.Equal(t, Red, res.Player)
	require.Equal(t, Blue, b.Turn())
}

func TestSingleBoxAnyOrder(t *testing.T) {
	box := Box{1, 1}
	sides := box.Sides()
	for _, order := range permutations(sides[:]) {
		rec := &recorder{}
		b := New(WithListener(rec))
		results := claimAll(t, b, order...)

		for _, res := range results[:3] {
			require.Empty(t, res.Completed)
		}
		last := results[3]
		require.Equal(t, []Box{box}, last.Completed)
		require.Equal(t, Red, last.Player)
		require.Equal(t, Red, b.BoxOwner(box))
		require.Equal(t, Score{Red: 1}, b.Score())
		require.Equal(t, 1, b.CompletedBoxes())
		require.Equal(t, Blue, b.Turn(), "completing a box does not grant another turn")
		require.Equal(t, []Box{box}, rec.boxes)
		require.Equal(t, []string{"turn:red", "turn:blue", "turn:red", "box:red", "score", "turn:blue"}, rec.calls)
	}
}

func TestMoveCompletesTwoBoxes(t *testing.T) {
	rec := &recorder{}
	b := New(WithListener(rec))
	claimAll(t, b,
		Edge{0, 1}, Edge{2, 1}, Edge{1, 0},
		Edge{0, 3}, Edge{2, 3}, Edge{1, 4},
	)
	require.Equal(t, 0, b.CompletedBoxes())
	require.Equal(t, Blue, b.Turn())

	res, err := b.ClaimEdge(1, 2)
	require.NoError(t, err)
	require.ElementsMatch(t, []Box{{0, 0}, {0, 1}}, res.Completed)
	require.Equal(t, Blue, res.Player)
	require.Equal(t, Score{Blue: 2}, res.Score)
	require.Equal(t, Blue, b.BoxOwner(Box{0, 0}))
	require.Equal(t, Blue, b.BoxOwner(Box{0, 1}))
	require.Equal(t, Red, b.Turn())
	require.Equal(t, Score{Blue: 2}, rec.score)
}

func TestFullGame(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for game := 0; game < 50; game++ {
		rec := &recorder{}
		b := New(WithListener(rec))
		edges := b.Edges()
		rng.Shuffle(len(edges), func(i, j int) { edges[i], edges[j] = edges[j], edges[i] })

		for i, e := range edges {
			res, err := b.ClaimEdge(e.Row, e.Col)
			require.NoError(t, err)
			require.Equal(t, b.CompletedBoxes(), res.Score.Total())
			require.LessOrEqual(t, res.Score.Total(), 9)
			if i < len(edges)-1 {
				require.False(t, res.Outcome.Over)
			}
		}

		outcome := b.Outcome()
		require.True(t, outcome.Over)
		require.False(t, outcome.Tie, "nine boxes cannot split evenly")
		score := b.Score()
		require.Equal(t, 9, score.Total())
		if score.Blue > score.Red {
			require.Equal(t, Blue, outcome.Winner)
		} else {
			require.Equal(t, Red, outcome.Winner)
		}
		require.NotNil(t, rec.over)
		require.Equal(t, outcome, *rec.over)
		require.Equal(t, "over", rec.calls[len(rec.calls)-1])
		require.Empty(t, b.OpenEdges())

		for _, e := range edges {
			_, err := b.ClaimEdge(e.Row, e.Col)
			require.ErrorIs(t, err, ErrInvalidMove)
		}
	}
}

func TestTieOnEvenBoard(t *testing.T) {
	rec := &recorder{}
	b := New(WithSize(1, 2), WithListener(rec))
	require.Equal(t, 7, b.EdgeCount())

	results := claimAll(t, b,
		Edge{1, 0}, Edge{0, 1}, Edge{2, 1},
		Edge{1, 2},
		Edge{0, 3}, Edge{2, 3},
		Edge{1, 4},
	)
	require.Equal(t, []Box{{0, 0}}, results[3].Completed)
	require.Equal(t, Red, results[3].Player)
	require.Equal(t, []Box{{0, 1}}, results[6].Completed)
	require.Equal(t, Blue, results[6].Player)

	outcome := b.Outcome()
	require.Equal(t, Outcome{Over: true, Tie: true}, outcome)
	require.Equal(t, None, outcome.Winner)
	require.Equal(t, outcome, *rec.over)
}

func TestReset(t *testing.T) {
	rec := &recorder{}
	b := New(WithListener(rec))
	sides := Box{2, 2}.Sides()
	claimAll(t, b, sides[:]...)
	claimAll(t, b, Edge{0, 1})
	require.Equal(t, 1, b.CompletedBoxes())

	b.Reset()
	require.Len(t, b.OpenEdges(), 24)
	require.Equal(t, Score{}, b.Score())
	require.Equal(t, Blue, b.Turn())
	require.Equal(t, 0, b.CompletedBoxes())
	require.Equal(t, None, b.BoxOwner(Box{2, 2}))
	require.Equal(t, Score{}, rec.score)
	require.Equal(t, Blue, rec.turns[len(rec.turns)-1])

	_, err := b.ClaimEdge(0, 1)
	require.NoError(t, err)
}

func TestGridAndString(t *testing.T) {
	b := New()
	sides := Box{0, 0}.Sides()
	claimAll(t, b, sides[:]...)

	grid := b.Grid()
	require.Len(t, grid, 7)
	require.Equal(t, "+", grid[0][0])
	require.Equal(t, "blue", grid[0][1])
	require.Equal(t, "red", grid[2][1])
	require.Equal(t, "red", grid[1][1])
	require.Equal(t, "", grid[0][3])
	require.Equal(t, "", grid[3][3])

	out := b.String()
	require.Contains(t, out, "+bbb+   +")
	require.Contains(t, out, "Blue: 0 vs. Red: 1")
	require.Contains(t, out, "Turn: Blue")
}

func TestClaimResultCompletedIsNeverNull(t *testing.T) {
	b := New()
	res, err := b.ClaimEdge(0, 1)
	require.NoError(t, err)
	require.NotNil(t, res.Completed)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	require.Contains(t, string(data), `"completed":[]`)
}
