package game

import (
	"errors"
	"fmt"
	"testing"
)

// boardFrom builds a board from rows of "X", "O" and "." characters.
func boardFrom(rows ...string) Board {
	board := NewBoard(len(rows))
	for r, line := range rows {
		for c, ch := range line {
			switch ch {
			case 'X':
				board[r][c] = PlayerX
			case 'O':
				board[r][c] = PlayerO
			}
		}
	}
	return board
}

func TestNewBoard(t *testing.T) {
	for n := 3; n <= 9; n++ {
		board := NewBoard(n)
		if board.Size() != n {
			t.Fatalf("NewBoard(%d).Size() = %d", n, board.Size())
		}
		for r := range board {
			if len(board[r]) != n {
				t.Fatalf("NewBoard(%d) row %d has %d cells", n, r, len(board[r]))
			}
		}
		if got := len(board.EmptyCells()); got != n*n {
			t.Errorf("NewBoard(%d) has %d empty cells, want %d", n, got, n*n)
		}
	}
}

func TestWinCondition(t *testing.T) {
	tests := []struct {
		level     int
		size      int
		winLength int
	}{
		{1, 3, 3},
		{2, 4, 4},
		{3, 5, 5},
		{4, 6, 5},
		{7, 9, 5},
	}
	for _, tt := range tests {
		size := BoardSizeForLevel(tt.level)
		if size != tt.size {
			t.Errorf("BoardSizeForLevel(%d) = %d, want %d", tt.level, size, tt.size)
		}
		if got := WinCondition(size); got != tt.winLength {
			t.Errorf("WinCondition(%d) = %d, want %d", size, got, tt.winLength)
		}
	}
}

func TestApplyMove(t *testing.T) {
	tests := []struct {
		name    string
		row     int
		col     int
		mark    PlayerMark
		wantErr error
	}{
		{name: "Valid move", row: 1, col: 1, mark: PlayerX},
		{name: "Occupied cell", row: 0, col: 0, mark: PlayerO, wantErr: ErrInvalidMove},
		{name: "Row out of bounds", row: 3, col: 0, mark: PlayerX, wantErr: ErrInvalidMove},
		{name: "Negative column", row: 0, col: -1, mark: PlayerX, wantErr: ErrInvalidMove},
		{name: "Empty mark", row: 2, col: 2, mark: None, wantErr: ErrInvalidMove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := boardFrom(
				"X..",
				"...",
				"...",
			)
			before := board.Clone()

			err := ApplyMove(board, tt.row, tt.col, tt.mark)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ApplyMove() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if fmt.Sprint(board) != fmt.Sprint(before) {
					t.Errorf("ApplyMove() changed the board on error: %v", board)
				}
				return
			}
			if board[tt.row][tt.col] != tt.mark {
				t.Errorf("ApplyMove() cell = %q, want %q", board[tt.row][tt.col], tt.mark)
			}
		})
	}
}

func TestCheckWin(t *testing.T) {
	tests := []struct {
		name     string
		board    Board
		row, col int
		mark     PlayerMark
		k        int
		want     bool
	}{
		{
			name:  "Row completed at the end",
			board: boardFrom("XXX", "OO.", "..."),
			row:   0, col: 2, mark: PlayerX, k: 3, want: true,
		},
		{
			name:  "Row completed in the middle",
			board: boardFrom("XXX", "OO.", "..."),
			row:   0, col: 1, mark: PlayerX, k: 3, want: true,
		},
		{
			name:  "Column",
			board: boardFrom("XO.", "XO.", ".O."),
			row:   2, col: 1, mark: PlayerO, k: 3, want: true,
		},
		{
			name:  "Main diagonal",
			board: boardFrom("X..", ".X.", "..X"),
			row:   1, col: 1, mark: PlayerX, k: 3, want: true,
		},
		{
			name:  "Anti-diagonal",
			board: boardFrom("..O", ".O.", "O.."),
			row:   2, col: 0, mark: PlayerO, k: 3, want: true,
		},
		{
			name:  "Two in a row is not a win",
			board: boardFrom("XX.", "OO.", "..."),
			row:   0, col: 1, mark: PlayerX, k: 3, want: false,
		},
		{
			name:  "Run broken by the opponent",
			board: boardFrom("XXOXX", ".....", ".....", ".....", "....."),
			row:   0, col: 4, mark: PlayerX, k: 5, want: false,
		},
		{
			name:  "Four on a 5x5 board is not enough",
			board: boardFrom("XXXX.", "OOO..", ".....", ".....", "....."),
			row:   0, col: 3, mark: PlayerX, k: 5, want: false,
		},
		{
			name:  "Cell does not hold the mark",
			board: boardFrom("XX.", "...", "..."),
			row:   0, col: 2, mark: PlayerX, k: 3, want: false,
		},
		{
			name:  "Runs longer than k still win",
			board: boardFrom("XXXXXX", "......", "......", "......", "......", "......"),
			row:   0, col: 0, mark: PlayerX, k: 5, want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckWin(tt.board, tt.row, tt.col, tt.mark, tt.k); got != tt.want {
				t.Errorf("CheckWin() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCheckWinAllSizes lays a run of exactly k marks along every axis of
// every board size and checks that any cell of the run detects the win,
// while a run of k-1 never does.
func TestCheckWinAllSizes(t *testing.T) {
	for n := 3; n <= 9; n++ {
		k := WinCondition(n)
		for _, d := range directions {
			dr, dc := d[0], d[1]
			startCol := 0
			if dc < 0 {
				startCol = n - 1
			}

			t.Run(fmt.Sprintf("n=%d/dir=%d,%d", n, dr, dc), func(t *testing.T) {
				full := NewBoard(n)
				for i := 0; i < k; i++ {
					full[dr*i][startCol+dc*i] = PlayerX
				}
				for i := 0; i < k; i++ {
					r, c := dr*i, startCol+dc*i
					if !CheckWin(full, r, c, PlayerX, k) {
						t.Errorf("run of %d not detected from (%d,%d)", k, r, c)
					}
				}

				short := NewBoard(n)
				for i := 0; i < k-1; i++ {
					short[dr*i][startCol+dc*i] = PlayerX
				}
				for i := 0; i < k-1; i++ {
					r, c := dr*i, startCol+dc*i
					if CheckWin(short, r, c, PlayerX, k) {
						t.Errorf("run of %d reported as a win from (%d,%d)", k-1, r, c)
					}
				}
			})
		}
	}
}

func TestCheckDraw(t *testing.T) {
	tests := []struct {
		name  string
		board Board
		want  bool
	}{
		{name: "Empty board", board: NewBoard(3), want: false},
		{name: "One empty cell", board: boardFrom("XOX", "XOO", "OX."), want: false},
		{name: "Full board", board: boardFrom("XOX", "XOO", "OXX"), want: true},
		{name: "Full board with a winner is still full", board: boardFrom("XXX", "OOX", "OXO"), want: true},
		{name: "Win with empty cells is not a draw", board: boardFrom("XXX", "OO.", "..."), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckDraw(tt.board); got != tt.want {
				t.Errorf("CheckDraw() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoardClone(t *testing.T) {
	board := boardFrom("X..", "...", "...")
	clone := board.Clone()
	clone[1][1] = PlayerO

	if board[1][1] != None {
		t.Errorf("Clone() shares cells with the original")
	}
	if clone[0][0] != PlayerX {
		t.Errorf("Clone() lost existing marks")
	}
}

func TestEmptyCellsRowMajor(t *testing.T) {
	board := boardFrom("X.O", ".X.", "OO.")
	want := []Cell{{0, 1}, {1, 0}, {1, 2}, {2, 2}}

	got := board.EmptyCells()
	if len(got) != len(want) {
		t.Fatalf("EmptyCells() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("EmptyCells()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
