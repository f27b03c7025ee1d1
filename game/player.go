package game

import (
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

// wsPlayer is one connected client. Its identity is connection-scoped:
// a new connection is a new player, even for the same person.
type wsPlayer struct {
	id          string
	username    string
	rateLimiter *rate.Limiter
	socket      NetworkSession
	outbox      chan []byte
	pingChan    chan struct{}
	done        chan struct{}
	closeOnce   sync.Once

	roomMu sync.RWMutex
	room   Room
}

func NewPlayer(id, username string, socket NetworkSession) *wsPlayer {
	return &wsPlayer{
		id:          id,
		username:    username,
		rateLimiter: rate.NewLimiter(4, 8),
		socket:      socket,
		outbox:      make(chan []byte, 256),
		pingChan:    make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
}

func (p *wsPlayer) ID() string { return p.id }

func (p *wsPlayer) Username() string { return p.username }

func (p *wsPlayer) SetRoom(r Room) {
	p.roomMu.Lock()
	p.room = r
	p.roomMu.Unlock()
}

func (p *wsPlayer) currentRoom() Room {
	p.roomMu.RLock()
	defer p.roomMu.RUnlock()
	return p.room
}

// Send enqueues for the write pump. A full outbox means the client has
// stopped draining; dropping is safer than blocking the room actor.
func (p *wsPlayer) Send(data []byte) error {
	select {
	case p.outbox <- data:
		return nil
	default:
		return errors.New("player outbox full")
	}
}

func (p *wsPlayer) Ping() error {
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
	return nil
}

func (p *wsPlayer) CancelAndRelease() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.socket.Close("")
	})
}
