package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/game"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/player"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/repository"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/telemetry"
	"ctchen222/Nexus-Tic-Tac-Toe/pkg/proto"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultHeartbeat = 10 * time.Second

var tracer = otel.Tracer("session")

// ErrClosed is returned for requests made after the session stopped.
var ErrClosed = errors.New("session closed")

// Options tunes the pacing of a session.
type Options struct {
	AIDelay      time.Duration
	LevelUpDelay time.Duration
	ConquerDelay time.Duration
	// Heartbeat is the interval between websocket pings, which also keep
	// the stored session from expiring. Zero means 10s.
	Heartbeat time.Duration
	Metrics   *telemetry.GameMetrics
}

// DefaultOptions mirrors the pacing of the browser game.
func DefaultOptions() Options {
	return Options{
		AIDelay:      700 * time.Millisecond,
		LevelUpDelay: 2 * time.Second,
		ConquerDelay: 3 * time.Second,
		Heartbeat:    defaultHeartbeat,
	}
}

type requestKind int

const (
	requestMove requestKind = iota
	requestNewGame
	requestSnapshot
	requestSubscribe
)

type request struct {
	ctx    context.Context
	kind   requestKind
	row    int
	col    int
	level  int
	player *player.Player
	reply  chan response
}

type response struct {
	result game.MoveResult
	state  game.State
	err    error
}

// Session serialises every transition of one game. Player requests, the AI
// timer and the advance timer are all handled by the run goroutine, so a
// human move is rejected with game.ErrInvalidState while the AI is pending.
type Session struct {
	ID       string
	repo     repository.SessionRepository
	selector game.MoveSelector
	opts     Options

	requests chan request

	mu      sync.RWMutex
	players map[string]*player.Player

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	started   atomic.Bool

	lastActivity atomic.Int64
}

// New creates a session. Start must be called before any request.
func New(id string, repo repository.SessionRepository, selector game.MoveSelector, opts Options) *Session {
	s := &Session{
		ID:       id,
		repo:     repo,
		selector: selector,
		opts:     opts,
		requests: make(chan request),
		players:  make(map[string]*player.Player),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	s.touch()
	return s
}

// Start launches the run loop resuming from initial. Pending AI moves and
// level transitions implied by initial are re-armed.
func (s *Session) Start(initial game.State) {
	s.started.Store(true)
	go s.run(initial)
}

// Close stops the run loop, waits for it to finish its current transition
// and disconnects every subscriber. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.started.Load() {
			<-s.stopped
		}

		s.mu.Lock()
		for id, p := range s.players {
			_ = p.Conn.Close()
			delete(s.players, id)
		}
		s.mu.Unlock()
	})
}

// Done is closed once Close has been called.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// IdleFor reports how long ago the last request reached the session.
func (s *Session) IdleFor() time.Duration {
	return time.Since(time.Unix(0, s.lastActivity.Load()))
}

// Subscribers returns the number of attached players.
func (s *Session) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

func (s *Session) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// PlayerMove submits the human's move.
func (s *Session) PlayerMove(ctx context.Context, row, col int) (game.MoveResult, error) {
	resp, err := s.do(ctx, request{kind: requestMove, row: row, col: col})
	if err != nil {
		return game.MoveResult{}, err
	}
	return resp.result, resp.err
}

// NewGame abandons the current game and starts over at level with zero
// scores. A zero level means the first level.
func (s *Session) NewGame(ctx context.Context, level int) (game.State, error) {
	resp, err := s.do(ctx, request{kind: requestNewGame, level: level})
	if err != nil {
		return game.State{}, err
	}
	return resp.state, resp.err
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot(ctx context.Context) (game.State, error) {
	resp, err := s.do(ctx, request{kind: requestSnapshot})
	if err != nil {
		return game.State{}, err
	}
	return resp.state, resp.err
}

// Subscribe attaches p and sends it the current state before any later
// broadcast.
func (s *Session) Subscribe(ctx context.Context, p *player.Player) error {
	resp, err := s.do(ctx, request{kind: requestSubscribe, player: p})
	if err != nil {
		return err
	}
	return resp.err
}

// Unsubscribe detaches p without closing its connection.
func (s *Session) Unsubscribe(p *player.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, p.ID)
}

func (s *Session) do(ctx context.Context, req request) (response, error) {
	select {
	case <-s.done:
		return response{}, ErrClosed
	default:
	}

	s.touch()
	req.ctx = ctx
	req.reply = make(chan response, 1)

	select {
	case s.requests <- req:
	case <-s.done:
		return response{}, ErrClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp, nil
	case <-s.stopped:
		return response{}, ErrClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

// run is the main loop for the session. It is the only goroutine that reads
// or replaces state.
func (s *Session) run(state game.State) {
	defer close(s.stopped)

	var aiTimer, advanceTimer *time.Timer
	var aiC, advanceC <-chan time.Time
	heartbeat := s.opts.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	pingTicker := time.NewTicker(heartbeat)

	stopTimers := func() {
		if aiTimer != nil {
			aiTimer.Stop()
		}
		if advanceTimer != nil {
			advanceTimer.Stop()
		}
		aiC, advanceC = nil, nil
	}
	// schedule arms whichever timer state calls for. A nil channel never
	// fires, so only one of the timers is live at a time.
	schedule := func(st game.State) {
		stopTimers()
		switch {
		case st.Active() && st.CurrentTurn == game.AIMark:
			aiTimer = time.NewTimer(s.opts.AIDelay)
			aiC = aiTimer.C
		case st.Phase == game.PhaseLevelCleared:
			advanceTimer = time.NewTimer(s.opts.LevelUpDelay)
			advanceC = advanceTimer.C
		case st.Phase == game.PhaseConquered:
			advanceTimer = time.NewTimer(s.opts.ConquerDelay)
			advanceC = advanceTimer.C
		}
	}

	defer func() {
		stopTimers()
		pingTicker.Stop()
	}()

	schedule(state)

	for {
		select {
		case <-s.done:
			slog.Info("Session run goroutine stopping.", "session.id", s.ID)
			return

		case req := <-s.requests:
			next, changed := s.handle(req, state)
			if changed {
				state = next
				schedule(state)
			}

		// A failed AI move or advance leaves state as it was, so schedule
		// re-arms the same timer and the transition is retried.
		case <-aiC:
			aiC = nil
			if next, ok := s.playAI(state); ok {
				state = next
			}
			schedule(state)

		case <-advanceC:
			advanceC = nil
			if next, ok := s.advance(state); ok {
				state = next
			}
			schedule(state)

		case <-pingTicker.C:
			s.ping(state)
		}
	}
}

func (s *Session) handle(req request, state game.State) (game.State, bool) {
	switch req.kind {
	case requestMove:
		result, err := s.playerMove(req.ctx, state, req.row, req.col)
		req.reply <- response{result: result, state: result.Next.Clone(), err: err}
		if err != nil {
			return state, false
		}
		return result.Next, true

	case requestNewGame:
		next, err := s.newGame(req.ctx, req.level)
		req.reply <- response{state: next.Clone(), err: err}
		if err != nil {
			return state, false
		}
		return next, true

	case requestSubscribe:
		err := s.subscribe(req.ctx, req.player, state)
		req.reply <- response{state: state.Clone(), err: err}

	default:
		req.reply <- response{state: state.Clone()}
	}
	return state, false
}

func (s *Session) playerMove(ctx context.Context, state game.State, row, col int) (game.MoveResult, error) {
	ctx, span := tracer.Start(ctx, "session.PlayerMove", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.Int("move.row", row),
		attribute.Int("move.col", col),
	))
	defer span.End()

	result, err := game.PlayerMove(state, row, col)
	if err != nil {
		slog.WarnContext(ctx, "rejected player move", "session.id", s.ID, "move.row", row, "move.col", col, "error", err)
		span.SetAttributes(attribute.Bool("move.valid", false))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid move")
		return result, err
	}
	span.SetAttributes(attribute.Bool("move.valid", true))

	if err := s.persist(ctx, result.Next); err != nil {
		slog.ErrorContext(ctx, "failed to save session after player move", "session.id", s.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save session")
		return game.MoveResult{Next: state}, err
	}

	s.opts.Metrics.RecordMove(ctx, result, state.Level)
	s.Broadcast(ctx, proto.NewStateMessage(messageTypeFor(result), s.ID, result.Next))
	return result, nil
}

func (s *Session) playAI(state game.State) (game.State, bool) {
	ctx, span := tracer.Start(context.Background(), "session.AIMove", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.Int("game.level", state.Level),
	))
	defer span.End()

	result, err := game.AIMove(state, s.selector)
	if err != nil {
		slog.ErrorContext(ctx, "AI could not move", "session.id", s.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "AI could not move")
		return state, false
	}
	span.SetAttributes(attribute.Int("move.row", result.Row), attribute.Int("move.col", result.Col))

	if err := s.persist(ctx, result.Next); err != nil {
		slog.ErrorContext(ctx, "failed to save session after AI move, retrying", "session.id", s.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save session")
		return state, false
	}

	s.opts.Metrics.RecordMove(ctx, result, state.Level)
	s.Broadcast(ctx, proto.NewStateMessage(messageTypeFor(result), s.ID, result.Next))
	return result.Next, true
}

func (s *Session) advance(state game.State) (game.State, bool) {
	ctx, span := tracer.Start(context.Background(), "session.Advance", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("game.phase", string(state.Phase)),
	))
	defer span.End()

	next, ok := game.Advance(state)
	if !ok {
		return state, false
	}
	slog.InfoContext(ctx, "Advancing session", "session.id", s.ID, "game.level", next.Level)

	if err := s.persist(ctx, next); err != nil {
		slog.ErrorContext(ctx, "failed to save session after advance, retrying", "session.id", s.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save session")
		return state, false
	}

	s.Broadcast(ctx, proto.NewStateMessage(proto.TypeState, s.ID, next))
	return next, true
}

func (s *Session) newGame(ctx context.Context, level int) (game.State, error) {
	ctx, span := tracer.Start(ctx, "session.NewGame", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.Int("game.level", level),
	))
	defer span.End()

	if level == 0 {
		level = game.MinLevel
	}
	next, err := game.NewGame(level)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid level")
		return game.State{}, err
	}

	if err := s.persist(ctx, next); err != nil {
		slog.ErrorContext(ctx, "failed to save session for new game", "session.id", s.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save session")
		return game.State{}, err
	}

	slog.InfoContext(ctx, "New game started", "session.id", s.ID, "game.level", next.Level)
	s.Broadcast(ctx, proto.NewStateMessage(proto.TypeState, s.ID, next))
	return next, nil
}

func (s *Session) subscribe(ctx context.Context, p *player.Player, state game.State) error {
	if err := s.sendTo(ctx, p, proto.NewStateMessage(proto.TypeState, s.ID, state)); err != nil {
		return err
	}
	s.mu.Lock()
	s.players[p.ID] = p
	s.mu.Unlock()
	slog.InfoContext(ctx, "Player subscribed", "session.id", s.ID, "player.id", p.ID)
	return nil
}

// persist stores state. The live session is the source of truth, so a
// record that expired or was evicted underneath it is written again.
func (s *Session) persist(ctx context.Context, state game.State) error {
	err := s.repo.Save(ctx, s.ID, state)
	if errors.Is(err, repository.ErrSessionNotFound) {
		slog.WarnContext(ctx, "Stored session missing, recreating it", "session.id", s.ID)
		err = s.repo.Create(ctx, s.ID, state)
	}
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID, err)
	}
	return nil
}

// ping keeps subscribers' connections and the stored record alive.
func (s *Session) ping(state game.State) {
	s.mu.RLock()
	players := make([]*player.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	s.mu.RUnlock()

	if len(players) == 0 {
		return
	}
	for _, p := range players {
		if err := p.Send(websocket.PingMessage, nil); err != nil {
			slog.Warn("Failed to send ping to player", "session.id", s.ID, "player.id", p.ID, "error", err)
		}
	}

	ctx := context.Background()
	err := s.repo.Touch(ctx, s.ID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		err = s.persist(ctx, state)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to keep stored session alive", "session.id", s.ID, "error", err)
	}
}

// messageTypeFor picks the event type announcing result.
func messageTypeFor(result game.MoveResult) string {
	switch result.Next.Phase {
	case game.PhaseLevelCleared:
		return proto.TypeLevelUp
	case game.PhaseConquered:
		return proto.TypeConquered
	case game.PhaseOver:
		return proto.TypeGameOver
	default:
		return proto.TypeUpdate
	}
}
