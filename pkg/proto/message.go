package proto

import "ctchen222/Nexus-Tic-Tac-Toe/internal/game"

// Client message types
const (
	TypeMove    = "move"
	TypeNewGame = "new_game"
)

// Server message types
const (
	TypeState     = "state"
	TypeUpdate    = "update"
	TypeGameOver  = "game_over"
	TypeLevelUp   = "level_up"
	TypeConquered = "conquered"
	TypeError     = "error"
)

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type     string `json:"type" validate:"required,oneof=move new_game"`
	Position []int  `json:"position,omitempty" validate:"omitempty,len=2,dive,min=0"`
	Level    int    `json:"level,omitempty" validate:"omitempty,min=1,max=7"`
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type      string              `json:"type" validate:"required"`
	SessionID string              `json:"sessionId,omitempty"`
	Reason    string              `json:"reason,omitempty"`
	Board     [][]game.PlayerMark `json:"board,omitempty"`
	Next      game.PlayerMark     `json:"next,omitempty"`
	Winner    game.GameResult     `json:"winner,omitempty"`
	Active    bool                `json:"active"`
	Phase     game.Phase          `json:"phase,omitempty"`
	Level     int                 `json:"level,omitempty"`
	BoardSize int                 `json:"boardSize,omitempty"`
	WinLength int                 `json:"winLength,omitempty"`
	Score     *game.Score         `json:"score,omitempty"`
	LastMove  *game.Cell          `json:"lastMove,omitempty"`
}

// NewStateMessage renders a game state for the presentation layer.
func NewStateMessage(msgType, sessionID string, state game.State) *ServerToClientMessage {
	score := state.Score
	return &ServerToClientMessage{
		Type:      msgType,
		SessionID: sessionID,
		Board:     state.Board,
		Next:      state.CurrentTurn,
		Winner:    state.Winner,
		Active:    state.Active(),
		Phase:     state.Phase,
		Level:     state.Level,
		BoardSize: state.BoardSize(),
		WinLength: state.WinLength,
		Score:     &score,
		LastMove:  state.LastMove,
	}
}

// NewErrorMessage reports a rejected client message.
func NewErrorMessage(sessionID, reason string) *ServerToClientMessage {
	return &ServerToClientMessage{
		Type:      TypeError,
		SessionID: sessionID,
		Reason:    reason,
	}
}
