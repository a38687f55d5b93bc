package bot

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/game"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// Policy is the one-ply AI: win if it can, block if it must, otherwise
// move at random. It implements game.MoveSelector.
type Policy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPolicy creates a Policy drawing random moves from src.
func NewPolicy(src rand.Source) *Policy {
	return &Policy{rng: rand.New(src)}
}

// NewRandomPolicy creates a Policy seeded from the clock.
func NewRandomPolicy() *Policy {
	seed := uint64(time.Now().UnixNano())
	return NewPolicy(rand.NewPCG(seed, seed>>1|1))
}

// SelectMove picks the cell for side to play on board with run length k.
//
// The board is used as scratch space: each candidate is marked, tested and
// cleared again before the next one. Callers must not share the board with
// another goroutine while SelectMove runs.
func (p *Policy) SelectMove(board game.Board, side, opponent game.PlayerMark, k int) (row, col int, err error) {
	// 1. Win: take the first cell that completes a run for side
	if row, col, found := findWinningMove(board, side, k); found {
		return row, col, nil
	}

	// 2. Block: take the first cell that would complete a run for the opponent
	if row, col, found := findWinningMove(board, opponent, k); found {
		return row, col, nil
	}

	// 3. Random: any empty cell
	return p.randomMove(board)
}

// randomMove picks an empty cell uniformly at random.
func (p *Policy) randomMove(board game.Board) (row, col int, err error) {
	availableMoves := board.EmptyCells()
	if len(availableMoves) == 0 {
		return -1, -1, ErrNoAvailableMoves
	}

	p.mu.Lock()
	i := p.rng.IntN(len(availableMoves))
	p.mu.Unlock()

	move := availableMoves[i]
	return move.Row, move.Col, nil
}

// findWinningMove scans empty cells in row-major order and returns the first
// one where mark would complete a run of k. Every tentative mark is cleared
// before moving on, so the board is unchanged on return.
func findWinningMove(board game.Board, mark game.PlayerMark, k int) (row, col int, found bool) {
	for r, rowData := range board {
		for c, cell := range rowData {
			if cell != game.None {
				continue
			}
			board[r][c] = mark
			won := game.CheckWin(board, r, c, mark, k)
			board[r][c] = game.None
			if won {
				return r, c, true
			}
		}
	}
	return -1, -1, false
}
