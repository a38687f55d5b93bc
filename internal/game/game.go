package game

import "errors"

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

// GameResult is the outcome of a finished game.
type GameResult string

const (
	// Player marks
	None    PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"

	// Game results
	NoResult GameResult = ""
	XWins    GameResult = "X"
	OWins    GameResult = "O"
	Draw     GameResult = "Draw"
)

// The human always plays X and moves first; the AI plays O.
const (
	HumanMark = PlayerX
	AIMark    = PlayerO
)

// Levels
const (
	MinLevel = 1
	MaxLevel = 7

	// MaxWinLength caps the run length needed to win on large boards.
	MaxWinLength = 5
)

var (
	ErrInvalidMove  = errors.New("invalid move")
	ErrInvalidState = errors.New("invalid state")
	ErrInvalidLevel = errors.New("invalid level")
)

// Opponent returns the other side. None has no opponent.
func (m PlayerMark) Opponent() PlayerMark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	}
	return None
}

// IsSide reports whether m is one of the two playable marks.
func (m PlayerMark) IsSide() bool {
	return m == PlayerX || m == PlayerO
}

func resultFor(m PlayerMark) GameResult {
	if m == PlayerX {
		return XWins
	}
	return OWins
}
