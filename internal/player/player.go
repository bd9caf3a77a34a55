package player

import (
	"sync"
	"time"
)

// PlayerStatus is the connection state stored for a player.
type PlayerStatus string

const (
	StatusConnected    PlayerStatus = "connected"
	StatusDisconnected PlayerStatus = "disconnected"
)

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Player is a human connected to a session.
type Player struct {
	ID   string
	Conn Connection

	mu       sync.Mutex
	status   PlayerStatus
	lastSeen time.Time
}

// NewPlayer creates a connected player.
func NewPlayer(id string, conn Connection) *Player {
	return &Player{
		ID:       id,
		Conn:     conn,
		status:   StatusConnected,
		lastSeen: time.Now(),
	}
}

// Status returns the current connection status.
func (p *Player) Status() PlayerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// SetStatus updates the connection status and the last-seen time.
func (p *Player) SetStatus(status PlayerStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
	p.lastSeen = time.Now()
}

// LastSeen returns when the status last changed.
func (p *Player) LastSeen() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen
}

// Send writes a message if the player is connected.
func (p *Player) Send(messageType int, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusConnected || p.Conn == nil {
		return nil
	}
	return p.Conn.WriteMessage(messageType, data)
}
