package core

import (
	"math/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (r *Room) setBall(b Ball) {
	r.mu.Lock()
	r.state.Ball = b
	r.mu.Unlock()
}

func TestRoom_AddPlayer(t *testing.T) {
	room := NewRoom(WithClock(clockwork.NewFakeClock()))
	defer room.Close()

	c1, c2, c3 := newFakeConn(), newFakeConn(), newFakeConn()
	p1, p2, p3 := NewPlayer(c1), NewPlayer(c2), NewPlayer(c3)

	require.True(t, room.AddPlayer(p1))
	assert.Equal(t, PhaseWaiting, room.Phase())
	assert.Equal(t, SideLeft, p1.Side())
	assert.True(t, p1.IsHost())
	assert.Same(t, room, p1.Room())

	var assigned PlayerAssignedPayload
	c1.last(t, PlayerAssignedType, &assigned)
	assert.Equal(t, p1.ID, assigned.PlayerID)
	assert.Equal(t, SideLeft, assigned.Side)
	assert.True(t, assigned.IsHost)

	require.True(t, room.AddPlayer(p2))
	assert.Equal(t, SideRight, p2.Side())
	assert.False(t, p2.IsHost())
	c2.last(t, PlayerAssignedType, &assigned)
	assert.Equal(t, SideRight, assigned.Side)
	assert.False(t, assigned.IsHost)

	assert.False(t, room.AddPlayer(p3), "a full room rejects a third player")
	assert.Equal(t, 2, room.PlayerCount())
	assert.Nil(t, p3.Room())
	assert.Zero(t, c3.count(t, PlayerAssignedType))
	assert.Equal(t, []*Player{p1, p2}, room.Players())
}

func TestRoom_StartGame(t *testing.T) {
	room, _, _, _, c1, c2 := activeRoom(t)

	for _, conn := range []*fakeConn{c1, c2} {
		assert.Equal(t, 1, conn.count(t, GameStartType))

		var start GameStatePayload
		conn.last(t, GameStartType, &start)
		assert.True(t, start.GameState.GameRunning)
		assert.Equal(t, NewGameState().Ball, start.GameState.Ball)
		assert.Equal(t, NewGameState().Paddles, start.GameState.Paddles)
	}
	assert.True(t, room.Snapshot().GameRunning)
}

func TestRoom_ClosedRoomRejectsPlayers(t *testing.T) {
	room, _, p1, _, _, _ := activeRoom(t)
	room.RemovePlayer(p1)

	assert.Equal(t, PhaseClosed, room.Phase())
	assert.False(t, room.AddPlayer(NewPlayer(newFakeConn())))
}

func TestRoom_Tick(t *testing.T) {
	tests := []struct {
		name      string
		ball      Ball
		wantBall  Ball
		wantScore Score
	}{
		{
			name:     "moves ball by velocity",
			ball:     Ball{X: 400, Y: 200, DX: 5, DY: 3, Radius: BallRadius},
			wantBall: Ball{X: 405, Y: 203, DX: 5, DY: 3, Radius: BallRadius},
		},
		{
			name:     "bounces off top wall",
			ball:     Ball{X: 400, Y: 12, DX: 5, DY: -3, Radius: BallRadius},
			wantBall: Ball{X: 405, Y: 9, DX: 5, DY: 3, Radius: BallRadius},
		},
		{
			name:     "bounces off bottom wall",
			ball:     Ball{X: 400, Y: 388, DX: -5, DY: 3, Radius: BallRadius},
			wantBall: Ball{X: 395, Y: 391, DX: -5, DY: -3, Radius: BallRadius},
		},
		{
			name:     "reflects off left paddle",
			ball:     Ball{X: 35, Y: 200, DX: -5, DY: 0, Radius: BallRadius},
			wantBall: Ball{X: 40, Y: 200, DX: 5, DY: 0, Radius: BallRadius},
		},
		{
			name:     "reflects off right paddle",
			ball:     Ball{X: 755, Y: 200, DX: 5, DY: 0, Radius: BallRadius},
			wantBall: Ball{X: 760, Y: 200, DX: -5, DY: 0, Radius: BallRadius},
		},
		{
			name:     "misses left paddle above it",
			ball:     Ball{X: 35, Y: 50, DX: -5, DY: 0, Radius: BallRadius},
			wantBall: Ball{X: 30, Y: 50, DX: -5, DY: 0, Radius: BallRadius},
		},
		{
			name:     "ignores paddle when moving away",
			ball:     Ball{X: 35, Y: 200, DX: 5, DY: 0, Radius: BallRadius},
			wantBall: Ball{X: 40, Y: 200, DX: 5, DY: 0, Radius: BallRadius},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room, _, _, _, _, _ := activeRoom(t)
			room.setBall(tt.ball)

			room.Tick()

			state := room.Snapshot()
			assert.Equal(t, tt.wantBall, state.Ball)
			assert.Equal(t, tt.wantScore, state.Score)
		})
	}
}

func TestRoom_TickScoring(t *testing.T) {
	tests := []struct {
		name      string
		ball      Ball
		wantScore Score
	}{
		{
			name:      "ball past left edge scores for right",
			ball:      Ball{X: -1, Y: 200, DX: -5, DY: 0, Radius: BallRadius},
			wantScore: Score{Right: 1},
		},
		{
			name:      "ball past right edge scores for left",
			ball:      Ball{X: 801, Y: 200, DX: 5, DY: 0, Radius: BallRadius},
			wantScore: Score{Left: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room, _, _, _, _, _ := activeRoom(t)
			room.setBall(tt.ball)

			room.Tick()

			state := room.Snapshot()
			assert.Equal(t, tt.wantScore, state.Score)
			assert.Equal(t, BallStartX, state.Ball.X)
			assert.Equal(t, BallStartY, state.Ball.Y)
			assert.Equal(t, BallSpeed, abs(state.Ball.DX))
			assert.LessOrEqual(t, abs(state.Ball.DY), BallSpin)
		})
	}
}

func TestRoom_TickBroadcastsState(t *testing.T) {
	room, _, _, _, c1, c2 := activeRoom(t)

	room.Tick()

	for _, conn := range []*fakeConn{c1, c2} {
		require.Equal(t, 1, conn.count(t, GameStateType))
		var msg GameStatePayload
		conn.last(t, GameStateType, &msg)
		assert.Equal(t, room.Snapshot(), msg.GameState)
	}
}

func TestRoom_ResetBall(t *testing.T) {
	room := NewRoom(WithClock(clockwork.NewFakeClock()), WithRand(rand.New(rand.NewSource(7))))
	seen := map[float64]bool{}

	for i := 0; i < 200; i++ {
		room.resetBall()
		ball := room.state.Ball
		assert.Equal(t, BallStartX, ball.X)
		assert.Equal(t, BallStartY, ball.Y)
		assert.Contains(t, []float64{BallSpeed, -BallSpeed}, ball.DX)
		assert.GreaterOrEqual(t, ball.DY, -BallSpin)
		assert.LessOrEqual(t, ball.DY, BallSpin)
		seen[ball.DX] = true
	}
	assert.Len(t, seen, 2, "both serve directions occur")
}

func TestRoom_HandlePaddleMove(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{name: "inside range", input: 120, want: 120},
		{name: "above top", input: -40, want: 0},
		{name: "below bottom", input: 999, want: 300},
		{name: "upper bound", input: 300, want: 300},
		{name: "lower bound", input: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room, _, p1, p2, c1, c2 := activeRoom(t)

			room.HandlePaddleMove(p2, tt.input)

			assert.Equal(t, tt.want, room.Snapshot().Paddles.Right.Y)
			assert.Equal(t, PaddleStartY, room.Snapshot().Paddles.Left.Y)

			assert.Zero(t, c2.count(t, PaddleMoveType), "sender gets no echo")
			require.Equal(t, 1, c1.count(t, PaddleMoveType))
			var move PaddleMovePayload
			c1.last(t, PaddleMoveType, &move)
			assert.Equal(t, SideRight, move.Side)
			assert.Equal(t, tt.want, move.Y)

			room.HandlePaddleMove(p1, tt.input)
			assert.Equal(t, tt.want, room.Snapshot().Paddles.Left.Y)
			assert.Equal(t, 1, c2.count(t, PaddleMoveType))
			assert.Equal(t, 1, c1.count(t, PaddleMoveType))
		})
	}
}

func TestRoom_HandlePaddleMoveIgnoresStrangers(t *testing.T) {
	room, _, _, _, c1, c2 := activeRoom(t)
	stranger := NewPlayer(newFakeConn())

	room.HandlePaddleMove(stranger, 10)

	assert.Equal(t, NewGameState().Paddles, room.Snapshot().Paddles)
	assert.Zero(t, c1.count(t, PaddleMoveType))
	assert.Zero(t, c2.count(t, PaddleMoveType))
}

func TestRoom_BroadcastSkipsClosedTransport(t *testing.T) {
	room, _, _, _, c1, c2 := activeRoom(t)
	c2.close()

	room.Tick()

	assert.Equal(t, 1, c1.count(t, GameStateType))
	assert.Zero(t, c2.count(t, GameStateType))
}

func TestRoom_RemovePlayer(t *testing.T) {
	room, clock, p1, p2, _, c2 := activeRoom(t)

	clock.Advance(DefaultTickInterval)
	require.Eventually(t, func() bool {
		return c2.count(t, GameStateType) >= 1
	}, time.Second, time.Millisecond)

	room.RemovePlayer(p1)

	assert.Equal(t, PhaseClosed, room.Phase())
	assert.False(t, room.Snapshot().GameRunning)
	assert.Nil(t, p1.Room())
	assert.Equal(t, SideNone, p1.Side())
	assert.Equal(t, []*Player{p2}, room.Players())

	require.Equal(t, 1, c2.count(t, PlayerLeftType))
	var left PlayerLeftPayload
	c2.last(t, PlayerLeftType, &left)
	assert.Equal(t, OpponentLeftMessage, left.Message)

	ticks := c2.count(t, GameStateType)
	for i := 0; i < 5; i++ {
		clock.Advance(DefaultTickInterval)
	}
	assert.Never(t, func() bool {
		return c2.count(t, GameStateType) != ticks
	}, 50*time.Millisecond, 5*time.Millisecond)

	room.RemovePlayer(p1)
	assert.Equal(t, 1, c2.count(t, PlayerLeftType), "removing twice is a no-op")

	room.RemovePlayer(p2)
	assert.Zero(t, room.PlayerCount())
	assert.Equal(t, 1, c2.count(t, PlayerLeftType))
}

func TestRoom_RemoveFromWaitingRoom(t *testing.T) {
	room := NewRoom(WithClock(clockwork.NewFakeClock()))
	conn := newFakeConn()
	p := NewPlayer(conn)
	require.True(t, room.AddPlayer(p))

	room.RemovePlayer(p)

	assert.Equal(t, PhaseClosed, room.Phase())
	assert.Zero(t, conn.count(t, PlayerLeftType))
}

func TestRoom_LoopTicks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	room := NewRoom(WithClock(clock), WithTickInterval(20*time.Millisecond))
	defer room.Close()

	c1, c2 := newFakeConn(), newFakeConn()
	require.True(t, room.AddPlayer(NewPlayer(c1)))
	require.True(t, room.AddPlayer(NewPlayer(c2)))

	for i := 1; i <= 3; i++ {
		clock.Advance(20 * time.Millisecond)
		want := i
		require.Eventually(t, func() bool {
			return c1.count(t, GameStateType) == want && c2.count(t, GameStateType) == want
		}, time.Second, time.Millisecond)
	}

	assert.Equal(t, BallStartX+3*BallStartDX, room.Snapshot().Ball.X)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
