package core

import (
	"PongOnline/logger"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// DefaultEvictInterval is how often closed rooms are dropped from the registry.
const DefaultEvictInterval = time.Minute

// Matchmaker owns the room registry and the sessions that are connected but
// not yet seated.
type Matchmaker struct {
	clock         clockwork.Clock
	tickInterval  time.Duration
	evictInterval time.Duration

	mu      sync.Mutex
	rooms   map[string]*Room
	order   []string // room ids in creation order
	players map[string]*Player
	pending map[string]*Player

	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type MatchmakerOption func(*Matchmaker)

func WithMatchmakerClock(clock clockwork.Clock) MatchmakerOption {
	return func(m *Matchmaker) { m.clock = clock }
}

func WithRoomTickInterval(d time.Duration) MatchmakerOption {
	return func(m *Matchmaker) { m.tickInterval = d }
}

// WithEvictInterval sets the sweep period. Zero disables the sweep.
func WithEvictInterval(d time.Duration) MatchmakerOption {
	return func(m *Matchmaker) { m.evictInterval = d }
}

func NewMatchmaker(opts ...MatchmakerOption) *Matchmaker {
	m := &Matchmaker{
		clock:         clockwork.NewRealClock(),
		tickInterval:  DefaultTickInterval,
		evictInterval: DefaultEvictInterval,
		rooms:         make(map[string]*Room),
		players:       make(map[string]*Player),
		pending:       make(map[string]*Player),
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.evictInterval > 0 {
		ticker := m.clock.NewTicker(m.evictInterval)
		m.wg.Add(1)
		go m.evictLoop(ticker)
	}
	return m
}

// Connect registers a new session for conn. It stays pending until it joins.
func (m *Matchmaker) Connect(conn Transport) *Player {
	p := NewPlayer(conn)

	m.mu.Lock()
	m.players[p.ID] = p
	m.pending[p.ID] = p
	m.mu.Unlock()

	logger.Log.WithField("player", p.ID).Info(logger.PlayerConnectedMsg)
	return p
}

// Join seats p in the first open room, in creation order, or in a new room.
// A player still seated in a live room stays there; one whose room has
// closed is detached and matched again.
func (m *Matchmaker) Join(p *Player) *Room {
	if current := p.Room(); current != nil {
		if current.Phase() != PhaseClosed {
			logger.Log.WithFields(logrus.Fields{"player": p.ID, "room": current.ID}).
				Debug(logger.PlayerAlreadySeatedMsg)
			return current
		}
		current.RemovePlayer(p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pending, p.ID)

	for _, id := range m.order {
		room := m.rooms[id]
		if room.AddPlayer(p) {
			logger.Log.WithFields(logrus.Fields{"player": p.ID, "room": room.ID}).
				Info(logger.PlayerJoinedRoomMsg)
			return room
		}
	}

	room := NewRoom(WithClock(m.clock), WithTickInterval(m.tickInterval))
	m.rooms[room.ID] = room
	m.order = append(m.order, room.ID)
	room.AddPlayer(p)

	logger.Log.WithFields(logrus.Fields{"player": p.ID, "room": room.ID}).
		Info(logger.PlayerCreatedRoomMsg)
	return room
}

// Leave forgets p and removes it from its room, if any.
func (m *Matchmaker) Leave(p *Player) {
	m.mu.Lock()
	delete(m.players, p.ID)
	delete(m.pending, p.ID)
	m.mu.Unlock()

	if room := p.Room(); room != nil {
		room.RemovePlayer(p)
	}

	logger.Log.WithField("player", p.ID).Info(logger.PlayerDisconnectedMsg)
}

// FindRoom looks a room up by id.
func (m *Matchmaker) FindRoom(id string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	return room, ok
}

// EvictClosed drops closed rooms from the registry and returns how many
// were removed. Players still pointing at an evicted room keep it alive
// until they leave or join again.
func (m *Matchmaker) EvictClosed() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.order[:0]
	evicted := 0
	for _, id := range m.order {
		if m.rooms[id].Phase() == PhaseClosed {
			delete(m.rooms, id)
			evicted++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept

	if evicted > 0 {
		logger.Log.WithField("count", evicted).Info(logger.RoomsEvictedMsg)
	}
	return evicted
}

func (m *Matchmaker) evictLoop(ticker clockwork.Ticker) {
	defer m.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			m.EvictClosed()
		case <-m.stopCh:
			return
		}
	}
}

type Stats struct {
	Rooms        int `json:"rooms"`
	WaitingRooms int `json:"waitingRooms"`
	ActiveRooms  int `json:"activeRooms"`
	ClosedRooms  int `json:"closedRooms"`
	Players      int `json:"players"`
	Pending      int `json:"pendingPlayers"`
}

func (m *Matchmaker) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{
		Rooms:   len(m.rooms),
		Players: len(m.players),
		Pending: len(m.pending),
	}
	for _, room := range m.rooms {
		switch room.Phase() {
		case PhaseWaiting:
			stats.WaitingRooms++
		case PhaseActive:
			stats.ActiveRooms++
		case PhaseClosed:
			stats.ClosedRooms++
		}
	}
	return stats
}

// Close stops the sweep and halts every room. Safe to call more than once.
func (m *Matchmaker) Close() {
	m.closeOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()

		m.mu.Lock()
		defer m.mu.Unlock()
		for _, room := range m.rooms {
			room.Close()
		}
	})
}
