package game

import "fmt"

// Phase is where a game stands in the level progression.
type Phase string

const (
	// PhasePlaying accepts moves.
	PhasePlaying Phase = "playing"
	// PhaseOver follows an AI win or a draw. The board stays as it is until
	// a new game is started.
	PhaseOver Phase = "over"
	// PhaseLevelCleared follows a player win below MaxLevel.
	PhaseLevelCleared Phase = "level_cleared"
	// PhaseConquered follows a player win at MaxLevel.
	PhaseConquered Phase = "conquered"
)

// Score is the running tally for a session. It survives level changes and
// is reset only by a new game or by conquering the last level.
type Score struct {
	Player int `json:"player"`
	AI     int `json:"ai"`
	Draws  int `json:"draws"`
}

// State is a complete, self-contained game. Operations take a State and
// return the next one; the input is never modified.
type State struct {
	Level       int        `json:"level"`
	Board       Board      `json:"board"`
	WinLength   int        `json:"win_length"`
	CurrentTurn PlayerMark `json:"current_turn"`
	Phase       Phase      `json:"phase"`
	Winner      GameResult `json:"winner"`
	Score       Score      `json:"score"`
	LastMove    *Cell      `json:"last_move,omitempty"`
}

// MoveResult describes an applied move.
type MoveResult struct {
	Accepted bool
	Row      int
	Col      int
	Mark     PlayerMark
	Winner   GameResult
	Next     State
}

// MoveSelector picks a cell for side to play. Implementations may use the
// board as scratch space but must hand it back unchanged.
type MoveSelector interface {
	SelectMove(board Board, side, opponent PlayerMark, k int) (row, col int, err error)
}

// NewGame starts a session at level with all tallies at zero.
func NewGame(level int) (State, error) {
	if !ValidLevel(level) {
		return State{}, fmt.Errorf("%w: %d is outside [%d, %d]", ErrInvalidLevel, level, MinLevel, MaxLevel)
	}
	return newLevel(level, Score{}), nil
}

func newLevel(level int, score Score) State {
	size := BoardSizeForLevel(level)
	return State{
		Level:       level,
		Board:       NewBoard(size),
		WinLength:   WinCondition(size),
		CurrentTurn: HumanMark,
		Phase:       PhasePlaying,
		Winner:      NoResult,
		Score:       score,
	}
}

// Active reports whether the game still accepts moves.
func (s State) Active() bool {
	return s.Phase == PhasePlaying
}

// BoardSize returns the side length of the board.
func (s State) BoardSize() int {
	return s.Board.Size()
}

// Clone returns a copy of s that shares no memory with it.
func (s State) Clone() State {
	next := s
	next.Board = s.Board.Clone()
	if s.LastMove != nil {
		lm := *s.LastMove
		next.LastMove = &lm
	}
	return next
}

// PlayerMove plays the human's mark at (row, col).
func PlayerMove(s State, row, col int) (MoveResult, error) {
	if err := checkTurn(s, HumanMark); err != nil {
		return MoveResult{Next: s}, err
	}
	return play(s, row, col, HumanMark)
}

// AIMove asks selector for the AI's move and plays it.
func AIMove(s State, selector MoveSelector) (MoveResult, error) {
	if err := checkTurn(s, AIMark); err != nil {
		return MoveResult{Next: s}, err
	}
	row, col, err := selector.SelectMove(s.Board.Clone(), AIMark, HumanMark, s.WinLength)
	if err != nil {
		return MoveResult{Next: s}, fmt.Errorf("selecting ai move: %w", err)
	}
	return play(s, row, col, AIMark)
}

func checkTurn(s State, mark PlayerMark) error {
	if !s.Active() {
		return fmt.Errorf("%w: game is not active", ErrInvalidState)
	}
	if s.CurrentTurn != mark {
		return fmt.Errorf("%w: it is %s's turn", ErrInvalidState, s.CurrentTurn)
	}
	return nil
}

func play(s State, row, col int, mark PlayerMark) (MoveResult, error) {
	next := s.Clone()
	if err := ApplyMove(next.Board, row, col, mark); err != nil {
		return MoveResult{Next: s}, err
	}
	next.LastMove = &Cell{Row: row, Col: col}

	switch {
	case CheckWin(next.Board, row, col, mark, next.WinLength):
		next.Winner = resultFor(mark)
		if mark == HumanMark {
			next.Score.Player++
			next.Phase = PhaseLevelCleared
			if next.Level >= MaxLevel {
				next.Phase = PhaseConquered
			}
		} else {
			next.Score.AI++
			next.Phase = PhaseOver
		}
	case CheckDraw(next.Board):
		next.Winner = Draw
		next.Score.Draws++
		next.Phase = PhaseOver
	default:
		next.CurrentTurn = mark.Opponent()
	}

	return MoveResult{
		Accepted: true,
		Row:      row,
		Col:      col,
		Mark:     mark,
		Winner:   next.Winner,
		Next:     next,
	}, nil
}

// Advance moves a won game on to what comes next: the following level with
// the same tallies, or level 1 with all tallies cleared after the last
// level. It reports false and returns s unchanged for any other phase.
func Advance(s State) (State, bool) {
	switch s.Phase {
	case PhaseLevelCleared:
		return newLevel(s.Level+1, s.Score), true
	case PhaseConquered:
		return newLevel(MinLevel, Score{}), true
	}
	return s, false
}
