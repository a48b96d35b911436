package core

import (
	"PongOnline/logger"
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const MaxRoomPlayers = 2

// DefaultTickInterval approximates 60 ticks per second.
const DefaultTickInterval = 16 * time.Millisecond

type Phase int

const (
	PhaseWaiting Phase = iota // 0-1 players
	PhaseActive               // 2 players, tick loop running
	PhaseClosed               // terminal, never reused
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseActive:
		return "active"
	case PhaseClosed:
		return "closed"
	}
	return "unknown"
}

// Room owns one match. All state below mu is only touched with mu held, so
// ticks, paddle input and membership changes never interleave.
type Room struct {
	ID        string
	CreatedAt time.Time

	clock    clockwork.Clock
	interval time.Duration

	mu       sync.Mutex
	players  []*Player
	state    GameState
	phase    Phase
	rng      *rand.Rand
	stopLoop context.CancelFunc
}

type RoomOption func(*Room)

func WithClock(clock clockwork.Clock) RoomOption {
	return func(r *Room) { r.clock = clock }
}

func WithTickInterval(d time.Duration) RoomOption {
	return func(r *Room) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRand fixes the source used by ball resets.
func WithRand(rng *rand.Rand) RoomOption {
	return func(r *Room) { r.rng = rng }
}

func NewRoom(opts ...RoomOption) *Room {
	r := &Room{
		ID:       uuid.NewString(),
		clock:    clockwork.NewRealClock(),
		interval: DefaultTickInterval,
		state:    NewGameState(),
		phase:    PhaseWaiting,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(r.clock.Now().UnixNano()))
	}
	r.CreatedAt = r.clock.Now()
	return r
}

// AddPlayer seats p on the next free side. It returns false when the room is
// full or closed; callers then try another room.
func (r *Room) AddPlayer(p *Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == PhaseClosed || len(r.players) >= MaxRoomPlayers {
		return false
	}

	r.players = append(r.players, p)
	first := len(r.players) == 1
	side := SideRight
	if first {
		side = SideLeft
	}
	p.seat(r, side, first)

	if payload, err := generatePlayerAssignedPayload(p); err != nil {
		r.log().WithError(err).Error(logger.EncodeFailedMsg)
	} else {
		r.sendTo(p, payload)
	}

	if len(r.players) == MaxRoomPlayers {
		r.startGame()
	}
	return true
}

// RemovePlayer detaches p, halts the loop and closes the room. The remaining
// player, if any, is told the opponent left. Unknown players are a no-op.
func (r *Room) RemovePlayer(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, player := range r.players {
		if player == p {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	r.players = append(r.players[:idx], r.players[idx+1:]...)
	p.unseat(r)
	r.close()

	r.log().WithField("player", p.ID).Info(logger.PlayerLeftRoomMsg)

	if len(r.players) == 1 {
		payload, err := generatePlayerLeftPayload()
		if err != nil {
			r.log().WithError(err).Error(logger.EncodeFailedMsg)
			return
		}
		r.sendTo(r.players[0], payload)
	}
}

// Close halts the room without notifying anyone. Used on shutdown.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.close()
}

func (r *Room) close() {
	if r.stopLoop != nil {
		r.stopLoop()
		r.stopLoop = nil
	}
	if r.phase != PhaseClosed {
		r.phase = PhaseClosed
		r.state.GameRunning = false
		r.log().Info(logger.RoomClosedMsg)
	}
}

func (r *Room) startGame() {
	r.phase = PhaseActive
	r.state.GameRunning = true

	payload, err := generateGameStatePayload(GameStartType, r.state)
	if err != nil {
		r.log().WithError(err).Error(logger.EncodeFailedMsg)
	} else {
		r.broadcast(payload, nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.stopLoop = cancel
	ticker := r.clock.NewTicker(r.interval)
	go r.runLoop(ctx, ticker)

	r.log().WithField("interval", r.interval).Info(logger.GameStartMsg)
}

func (r *Room) runLoop(ctx context.Context, ticker clockwork.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.Tick()
		}
	}
}

// Tick advances the simulation one step and broadcasts the snapshot. It does
// nothing unless the room is active, so a tick racing a removal is dropped.
func (r *Room) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseActive {
		return
	}

	r.updateBall()
	r.checkCollisions()

	payload, err := generateGameStatePayload(GameStateType, r.state)
	if err != nil {
		r.log().WithError(err).Error(logger.EncodeFailedMsg)
		return
	}
	r.broadcast(payload, nil)
}

func (r *Room) updateBall() {
	ball := &r.state.Ball
	ball.Move()

	if ball.touchesWall() {
		ball.DY = -ball.DY
	}

	if ball.X < 0 {
		r.state.Score.Right++
		r.resetBall()
	} else if ball.X > FieldWidth {
		r.state.Score.Left++
		r.resetBall()
	}
}

func (r *Room) checkCollisions() {
	ball := &r.state.Ball
	left := &r.state.Paddles.Left
	right := &r.state.Paddles.Right

	if ball.X-ball.Radius <= left.X+left.Width && left.coversY(ball.Y) && ball.DX < 0 {
		ball.DX = -ball.DX
		ball.X = left.X + left.Width + ball.Radius
	}

	if ball.X+ball.Radius >= right.X && right.coversY(ball.Y) && ball.DX > 0 {
		ball.DX = -ball.DX
		ball.X = right.X - ball.Radius
	}
}

func (r *Room) resetBall() {
	ball := &r.state.Ball
	ball.X = BallStartX
	ball.Y = BallStartY

	ball.DX = BallSpeed
	if r.rng.Intn(2) == 0 {
		ball.DX = -BallSpeed
	}
	ball.DY = (r.rng.Float64()*2 - 1) * BallSpin
}

// HandlePaddleMove stores the clamped y for p's side and relays it to the
// opponent right away, outside the tick cadence.
func (r *Room) HandlePaddleMove(p *Player, y float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == PhaseClosed || !r.seated(p) {
		return
	}
	side := p.Side()
	paddle := r.state.Paddles.Of(side)
	if paddle == nil {
		return
	}
	paddle.MoveTo(y)

	payload, err := generatePaddleMovePayload(side, paddle.Y)
	if err != nil {
		r.log().WithError(err).Error(logger.EncodeFailedMsg)
		return
	}
	r.broadcast(payload, p)
}

func (r *Room) seated(p *Player) bool {
	for _, player := range r.players {
		if player == p {
			return true
		}
	}
	return false
}

// broadcast sends payload to every open player except exclude.
func (r *Room) broadcast(payload []byte, exclude *Player) {
	for _, p := range r.players {
		if p == exclude {
			continue
		}
		r.sendTo(p, payload)
	}
}

func (r *Room) sendTo(p *Player, payload []byte) {
	if !p.isOpen() {
		return
	}
	if err := p.send(payload); err != nil {
		r.log().WithError(err).WithField("player", p.ID).Debug(logger.SendFailedMsg)
	}
}

func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Players returns the seated players in join order.
func (r *Room) Players() []*Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Player(nil), r.players...)
}

// Snapshot returns a copy of the current game state.
func (r *Room) Snapshot() GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Room) log() *logrus.Entry {
	return logger.Log.WithFields(logrus.Fields{"room": r.ID})
}
