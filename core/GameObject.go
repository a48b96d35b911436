package core

// World constants shared with every client. Changing any of them breaks
// compatibility with the browser bundle.
const (
	FieldWidth  = 800.0
	FieldHeight = 400.0

	BallRadius = 10.0
	BallSpeed  = 5.0 // horizontal speed after a reset
	BallSpin   = 3.0 // max |dy| after a reset

	PaddleWidth  = 10.0
	PaddleHeight = 100.0
	PaddleMinY   = 0.0
	PaddleMaxY   = FieldHeight - PaddleHeight

	LeftPaddleX  = 20.0
	RightPaddleX = 770.0
	PaddleStartY = 150.0

	BallStartX  = FieldWidth / 2
	BallStartY  = FieldHeight / 2
	BallStartDX = 5.0
	BallStartDY = 3.0
)

type Side string

const (
	SideNone  Side = ""
	SideLeft  Side = "left"
	SideRight Side = "right"
)

type Ball struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Radius float64 `json:"radius"`
}

// Move integrates one tick of velocity.
func (b *Ball) Move() {
	b.X += b.DX
	b.Y += b.DY
}

func (b *Ball) touchesWall() bool {
	return b.Y <= b.Radius || b.Y >= FieldHeight-b.Radius
}

type Paddle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MoveTo places the paddle at y clamped to the playable range.
func (p *Paddle) MoveTo(y float64) {
	p.Y = ClampPaddleY(y)
}

func (p *Paddle) coversY(y float64) bool {
	return y >= p.Y && y <= p.Y+p.Height
}

// ClampPaddleY returns max(0, min(y, 300)).
func ClampPaddleY(y float64) float64 {
	if y > PaddleMaxY {
		return PaddleMaxY
	}
	if y < PaddleMinY {
		return PaddleMinY
	}
	return y
}

type Paddles struct {
	Left  Paddle `json:"left"`
	Right Paddle `json:"right"`
}

// Of returns the paddle controlled by side, or nil for an unassigned side.
func (p *Paddles) Of(side Side) *Paddle {
	switch side {
	case SideLeft:
		return &p.Left
	case SideRight:
		return &p.Right
	}
	return nil
}

type Score struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// GameState is the full snapshot sent on game start and on every tick.
type GameState struct {
	Ball        Ball    `json:"ball"`
	Paddles     Paddles `json:"paddles"`
	Score       Score   `json:"score"`
	GameRunning bool    `json:"gameRunning"`
}

func NewGameState() GameState {
	return GameState{
		Ball: Ball{X: BallStartX, Y: BallStartY, DX: BallStartDX, DY: BallStartDY, Radius: BallRadius},
		Paddles: Paddles{
			Left:  Paddle{X: LeftPaddleX, Y: PaddleStartY, Width: PaddleWidth, Height: PaddleHeight},
			Right: Paddle{X: RightPaddleX, Y: PaddleStartY, Width: PaddleWidth, Height: PaddleHeight},
		},
	}
}
