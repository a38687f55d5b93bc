package models

import "ctchen222/Nexus-Tic-Tac-Toe/pkg/proto"

// CreateSessionRequest defines the structure for a new session request.
// The body is optional; a zero level starts at level 1.
type CreateSessionRequest struct {
	Level int `json:"level" binding:"omitempty,min=1,max=7"`
}

// CreateSessionResponse carries the token that authorises every later call
// on the session.
type CreateSessionResponse struct {
	SessionID string                       `json:"session_id"`
	Token     string                       `json:"token"`
	State     *proto.ServerToClientMessage `json:"state"`
}

// MoveRequest defines the structure for a player move.
type MoveRequest struct {
	Row *int `json:"row" binding:"required,min=0"`
	Col *int `json:"col" binding:"required,min=0"`
}

// MoveResponse defines the structure for an accepted move.
type MoveResponse struct {
	Accepted bool                         `json:"accepted"`
	Winner   string                       `json:"winner,omitempty"`
	State    *proto.ServerToClientMessage `json:"state"`
}

// NewGameRequest defines the structure for a new game request.
type NewGameRequest struct {
	Level int `json:"level" binding:"omitempty,min=1,max=7"`
}
