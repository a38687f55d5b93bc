package player

import (
	"sync"
	"time"
)

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Player is one presentation client attached to a session, typically a
// browser tab holding a websocket.
type Player struct {
	ID        string
	Conn      Connection
	Connected time.Time

	writeMu sync.Mutex
}

// NewPlayer wraps conn as a player.
func NewPlayer(id string, conn Connection) *Player {
	return &Player{
		ID:        id,
		Conn:      conn,
		Connected: time.Now(),
	}
}

// Send writes one message. Writes from different goroutines are serialised
// because websocket connections allow only one concurrent writer.
func (p *Player) Send(messageType int, data []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.Conn.WriteMessage(messageType, data)
}
