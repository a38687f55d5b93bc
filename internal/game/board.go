package game

import "fmt"

// Board is a square grid of marks, indexed [row][col].
type Board [][]PlayerMark

// Cell is a board coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// directions are the four axes a run can lie on: horizontal, vertical,
// the main diagonal and the anti-diagonal. Each is walked both ways.
var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// NewBoard creates an empty n x n board.
func NewBoard(n int) Board {
	if n < 0 {
		n = 0
	}
	board := make(Board, n)
	for r := range board {
		board[r] = make([]PlayerMark, n)
	}
	return board
}

// Size returns the side length of the board.
func (b Board) Size() int {
	return len(b)
}

// InBounds reports whether (row, col) lies on the board.
func (b Board) InBounds(row, col int) bool {
	return row >= 0 && row < len(b) && col >= 0 && col < len(b[row])
}

// At returns the mark at (row, col), or None when out of bounds.
func (b Board) At(row, col int) PlayerMark {
	if !b.InBounds(row, col) {
		return None
	}
	return b[row][col]
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	if b == nil {
		return nil
	}
	board := make(Board, len(b))
	for r := range b {
		board[r] = make([]PlayerMark, len(b[r]))
		copy(board[r], b[r])
	}
	return board
}

// EmptyCells lists the empty cells in row-major order.
func (b Board) EmptyCells() []Cell {
	var cells []Cell
	for r, rowData := range b {
		for c, mark := range rowData {
			if mark == None {
				cells = append(cells, Cell{Row: r, Col: c})
			}
		}
	}
	return cells
}

// IsFull reports whether no empty cell remains.
func (b Board) IsFull() bool {
	for _, rowData := range b {
		for _, mark := range rowData {
			if mark == None {
				return false
			}
		}
	}
	return true
}

// ApplyMove places mark at (row, col). The board is left untouched when the
// cell is out of bounds or occupied, or when mark is not X or O.
func ApplyMove(b Board, row, col int, mark PlayerMark) error {
	if !mark.IsSide() {
		return fmt.Errorf("%w: %q is not a player mark", ErrInvalidMove, mark)
	}
	if !b.InBounds(row, col) {
		return fmt.Errorf("%w: cell (%d,%d) is out of bounds", ErrInvalidMove, row, col)
	}
	if b[row][col] != None {
		return fmt.Errorf("%w: cell (%d,%d) is already occupied", ErrInvalidMove, row, col)
	}
	b[row][col] = mark
	return nil
}

// CheckWin reports whether the mark at (row, col) completes a run of at
// least k cells of mark along any axis. Only runs through (row, col) are
// considered, so it must be called with the cell that was just played.
func CheckWin(b Board, row, col int, mark PlayerMark, k int) bool {
	if !mark.IsSide() || b.At(row, col) != mark {
		return false
	}
	for _, d := range directions {
		count := 1
		count += countConsecutive(b, row, col, d[0], d[1], mark, k)
		count += countConsecutive(b, row, col, -d[0], -d[1], mark, k)
		if count >= k {
			return true
		}
	}
	return false
}

// countConsecutive counts marks extending from (row, col) along (dr, dc),
// excluding the starting cell. It stops after k-1 steps since nothing past
// that can change the outcome.
func countConsecutive(b Board, row, col, dr, dc int, mark PlayerMark, k int) int {
	count := 0
	for i := 1; i < k; i++ {
		r, c := row+dr*i, col+dc*i
		if !b.InBounds(r, c) || b[r][c] != mark {
			break
		}
		count++
	}
	return count
}

// CheckDraw reports whether every cell is marked. Callers check for a win
// first; a full board with a winning run is a win, not a draw.
func CheckDraw(b Board) bool {
	return b.IsFull()
}
