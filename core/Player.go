package core

import (
	"sync"

	"github.com/google/uuid"
)

// Transport is the send side of a client connection, implemented by the
// gateway. Send must not block.
type Transport interface {
	Send(data []byte) error
	IsOpen() bool
}

// Player is one connected participant.
type Player struct {
	ID string

	conn Transport

	mu     sync.RWMutex
	side   Side
	isHost bool
	room   *Room
}

func NewPlayer(conn Transport) *Player {
	return &Player{
		ID:   uuid.NewString(),
		conn: conn,
	}
}

func (p *Player) Side() Side {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.side
}

func (p *Player) IsHost() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isHost
}

// Room returns the room the player is seated in, or nil.
func (p *Player) Room() *Room {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.room
}

func (p *Player) seat(room *Room, side Side, isHost bool) {
	p.mu.Lock()
	p.room = room
	p.side = side
	p.isHost = isHost
	p.mu.Unlock()
}

func (p *Player) unseat(room *Room) {
	p.mu.Lock()
	if p.room == room {
		p.room = nil
		p.side = SideNone
		p.isHost = false
	}
	p.mu.Unlock()
}

func (p *Player) send(payload []byte) error {
	return p.conn.Send(payload)
}

func (p *Player) isOpen() bool {
	return p.conn != nil && p.conn.IsOpen()
}
