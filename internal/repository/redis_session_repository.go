package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/game"

	"github.com/go-redis/redis/v8"
)

// Hash fields of a session key.
const (
	FieldBoard       = "board"
	FieldLevel       = "level"
	FieldWinLength   = "win_length"
	FieldCurrentTurn = "current_turn"
	FieldPhase       = "phase"
	FieldWinner      = "winner"
	FieldScorePlayer = "score_player"
	FieldScoreAI     = "score_ai"
	FieldScoreDraws  = "score_draws"
	FieldLastMove    = "last_move"
)

type redisSessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSessionRepository creates a Redis-based SessionRepository. Every
// write refreshes the key's expiry to ttl, so abandoned sessions disappear
// on their own. A ttl of zero keeps keys until they are deleted.
func NewRedisSessionRepository(rdb *redis.Client, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Create stores the initial state of a new session.
func (r *redisSessionRepository) Create(ctx context.Context, id string, state game.State) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Create")
	defer span.End()

	key := sessionKey(id)
	fields, err := encodeState(state)
	if err != nil {
		return err
	}

	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("session %s already exists", id)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			r.write(ctx, pipe, key, fields)
			return nil
		})
		return err
	}

	if err := r.rdb.Watch(ctx, txf, key); err != nil {
		return fmt.Errorf("failed to create session in redis: %w", err)
	}
	return nil
}

// FindByID loads a session's state.
func (r *redisSessionRepository) FindByID(ctx context.Context, id string) (*game.State, error) {
	ctx, span := tracer.Start(ctx, "SessionRepository.FindByID")
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}
	return decodeState(data)
}

// Save overwrites the state of an existing session.
func (r *redisSessionRepository) Save(ctx context.Context, id string, state game.State) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Save")
	defer span.End()

	key := sessionKey(id)
	fields, err := encodeState(state)
	if err != nil {
		return err
	}

	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrSessionNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			r.write(ctx, pipe, key, fields)
			return nil
		})
		return err
	}

	if err := r.rdb.Watch(ctx, txf, key); err != nil {
		return fmt.Errorf("failed to save session %s: %w", id, err)
	}
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Delete")
	defer span.End()

	return r.rdb.Del(ctx, sessionKey(id)).Err()
}

// Touch pushes the session's expiry back to the full ttl.
func (r *redisSessionRepository) Touch(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Touch")
	defer span.End()

	key := sessionKey(id)
	var (
		ok  bool
		err error
	)
	if r.ttl > 0 {
		ok, err = r.rdb.Expire(ctx, key, r.ttl).Result()
	} else {
		var n int64
		n, err = r.rdb.Exists(ctx, key).Result()
		ok = n > 0
	}
	if err != nil {
		return fmt.Errorf("failed to touch session %s: %w", id, err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

func (r *redisSessionRepository) write(ctx context.Context, pipe redis.Pipeliner, key string, fields map[string]interface{}) {
	pipe.HSet(ctx, key, fields)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
}

func encodeState(state game.State) (map[string]interface{}, error) {
	boardJSON, err := json.Marshal(state.Board)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal board: %w", err)
	}
	lastMove := ""
	if state.LastMove != nil {
		b, err := json.Marshal(state.LastMove)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal last move: %w", err)
		}
		lastMove = string(b)
	}

	return map[string]interface{}{
		FieldBoard:       string(boardJSON),
		FieldLevel:       state.Level,
		FieldWinLength:   state.WinLength,
		FieldCurrentTurn: string(state.CurrentTurn),
		FieldPhase:       string(state.Phase),
		FieldWinner:      string(state.Winner),
		FieldScorePlayer: state.Score.Player,
		FieldScoreAI:     state.Score.AI,
		FieldScoreDraws:  state.Score.Draws,
		FieldLastMove:    lastMove,
	}, nil
}

func decodeState(data map[string]string) (*game.State, error) {
	var board game.Board
	if err := json.Unmarshal([]byte(data[FieldBoard]), &board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}

	ints := make(map[string]int, 5)
	for _, field := range []string{FieldLevel, FieldWinLength, FieldScorePlayer, FieldScoreAI, FieldScoreDraws} {
		v, err := strconv.Atoi(data[field])
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", field, err)
		}
		ints[field] = v
	}

	var lastMove *game.Cell
	if raw := data[FieldLastMove]; raw != "" {
		lastMove = &game.Cell{}
		if err := json.Unmarshal([]byte(raw), lastMove); err != nil {
			return nil, fmt.Errorf("failed to unmarshal last move: %w", err)
		}
	}

	return &game.State{
		Level:       ints[FieldLevel],
		Board:       board,
		WinLength:   ints[FieldWinLength],
		CurrentTurn: game.PlayerMark(data[FieldCurrentTurn]),
		Phase:       game.Phase(data[FieldPhase]),
		Winner:      game.GameResult(data[FieldWinner]),
		Score: game.Score{
			Player: ints[FieldScorePlayer],
			AI:     ints[FieldScoreAI],
			Draws:  ints[FieldScoreDraws],
		},
		LastMove: lastMove,
	}, nil
}
