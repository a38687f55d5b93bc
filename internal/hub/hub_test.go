package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/bot"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/game"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/player"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/repository"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/session"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConn struct {
	closed    chan struct{}
	closeOnce sync.Once
}

func newStubConn() *stubConn {
	return &stubConn{closed: make(chan struct{})}
}

func (c *stubConn) WriteMessage(int, []byte) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	default:
		return nil
	}
}

func (c *stubConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return websocket.CloseMessage, nil, errors.New("connection closed")
}

func (c *stubConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// gatedRepository holds every FindByID until release is closed.
type gatedRepository struct {
	repository.SessionRepository
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRepository) FindByID(ctx context.Context, id string) (*game.State, error) {
	r.entered <- struct{}{}
	<-r.release
	return r.SessionRepository.FindByID(ctx, id)
}

func newTestHub(t *testing.T, idleTimeout time.Duration) (*Hub, repository.SessionRepository) {
	t.Helper()
	repo := repository.NewMemorySessionRepository()
	opts := session.Options{
		AIDelay:      10 * time.Millisecond,
		LevelUpDelay: 10 * time.Millisecond,
		ConquerDelay: 10 * time.Millisecond,
	}
	h := NewHub(repo, bot.NewRandomPolicy(), opts, idleTimeout)
	t.Cleanup(h.closeAll)
	return h, repo
}

func TestHub_Create(t *testing.T) {
	ctx := context.Background()
	h, repo := newTestHub(t, time.Minute)

	t.Run("Default level", func(t *testing.T) {
		s, state, err := h.Create(ctx, 0)
		require.NoError(t, err)

		assert.Equal(t, game.MinLevel, state.Level)
		stored, err := repo.FindByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, state, *stored)
	})

	t.Run("Chosen level", func(t *testing.T) {
		_, state, err := h.Create(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, 6, state.BoardSize())
	})

	t.Run("Invalid level", func(t *testing.T) {
		_, _, err := h.Create(ctx, game.MaxLevel+1)
		require.ErrorIs(t, err, game.ErrInvalidLevel)
	})

	assert.Equal(t, 2, h.Len())
}

func TestHub_Get(t *testing.T) {
	ctx := context.Background()
	h, repo := newTestHub(t, time.Minute)

	t.Run("Live session", func(t *testing.T) {
		s, _, err := h.Create(ctx, 1)
		require.NoError(t, err)

		got, err := h.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.Same(t, s, got)
	})

	t.Run("Unknown session", func(t *testing.T) {
		_, err := h.Get(ctx, "missing")
		require.ErrorIs(t, err, repository.ErrSessionNotFound)
	})

	t.Run("Stored session is resumed", func(t *testing.T) {
		// Given: a game stored by another process
		state, err := game.NewGame(3)
		require.NoError(t, err)
		state.Score = game.Score{Player: 2}
		require.NoError(t, repo.Create(ctx, "stored", state))

		// When: it is looked up
		s, err := h.Get(ctx, "stored")
		require.NoError(t, err)

		// Then: the live session carries the stored state
		snap, err := s.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, state, snap)
	})
}

func TestHub_GetResumesOnce(t *testing.T) {
	ctx := context.Background()
	const callers = 4

	// Given: a stored game and a store that stalls on lookups
	repo := &gatedRepository{
		SessionRepository: repository.NewMemorySessionRepository(),
		entered:           make(chan struct{}, callers),
		release:           make(chan struct{}),
	}
	state, err := game.NewGame(2)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, "stored", state))

	h := NewHub(repo, bot.NewRandomPolicy(), session.DefaultOptions(), time.Minute)
	t.Cleanup(h.closeAll)

	// When: several callers resume it at once
	got := make([]*session.Session, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := h.Get(ctx, "stored")
			assert.NoError(t, err)
			got[i] = s
		}()
	}
	for range callers {
		<-repo.entered
	}

	// Then: the hub stays usable while the lookups are pending
	assert.Equal(t, 0, h.Len())

	close(repo.release)
	wg.Wait()

	// And: every caller shares one live session
	for _, s := range got {
		assert.Same(t, got[0], s)
	}
	assert.Equal(t, 1, h.Len())
}

func TestHub_Remove(t *testing.T) {
	ctx := context.Background()
	h, repo := newTestHub(t, time.Minute)

	s, _, err := h.Create(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, h.Remove(ctx, s.ID))

	assert.Equal(t, 0, h.Len())
	_, err = repo.FindByID(ctx, s.ID)
	require.ErrorIs(t, err, repository.ErrSessionNotFound)
	_, err = s.PlayerMove(ctx, 0, 0)
	require.ErrorIs(t, err, session.ErrClosed)
}

func TestHub_Attach(t *testing.T) {
	ctx := context.Background()
	h, _ := newTestHub(t, time.Minute)

	s, _, err := h.Create(ctx, 1)
	require.NoError(t, err)

	conn := newStubConn()
	require.NoError(t, h.Attach(ctx, s.ID, player.NewPlayer("p-1", conn)))
	assert.Equal(t, 1, s.Subscribers())

	// When: the client disconnects the read pump detaches it
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return s.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

	err = h.Attach(ctx, "missing", player.NewPlayer("p-2", newStubConn()))
	require.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestHub_Sweep(t *testing.T) {
	ctx := context.Background()
	h, _ := newTestHub(t, 20*time.Millisecond)

	idle, _, err := h.Create(ctx, 1)
	require.NoError(t, err)
	watched, _, err := h.Create(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, watched.Subscribe(ctx, player.NewPlayer("p-1", newStubConn())))

	time.Sleep(50 * time.Millisecond)

	// Then: only the session nobody is watching is evicted
	assert.Equal(t, 1, h.sweep(ctx))
	_, err = h.Get(ctx, idle.ID)
	require.ErrorIs(t, err, repository.ErrSessionNotFound)

	got, err := h.Get(ctx, watched.ID)
	require.NoError(t, err)
	assert.Same(t, watched, got)
}

func TestHub_RunStopsSessions(t *testing.T) {
	h, _ := newTestHub(t, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	s, _, err := h.Create(ctx, 1)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, 0, h.Len())
	select {
	case <-s.Done():
	default:
		t.Fatal("session left running")
	}
}
