package client

import (
	"PongOnline/core"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/gdamore/tcell"
	"github.com/gorilla/websocket"
)

const PaddleSymbol = 0x2588 // full block
const BallSymbol = 0x25CF   // black circle
const NetSymbol = 0x2590    // right half block

// PaddleStep is how far one key press moves the paddle, in field units.
const PaddleStep = 20.0

// serverMessage is the union of every server -> client message.
type serverMessage struct {
	Type      string          `json:"type"`
	PlayerID  string          `json:"playerId"`
	Side      core.Side       `json:"side"`
	IsHost    bool            `json:"isHost"`
	GameState *core.GameState `json:"gameState"`
	Y         float64         `json:"y"`
	Message   string          `json:"message"`
}

// Client is a terminal front end for one player.
type Client struct {
	screen tcell.Screen
	ws     *websocket.Conn

	mu       sync.Mutex
	playerID string
	side     core.Side
	state    core.GameState
	status   string
}

func Dial(url string) (*websocket.Conn, error) {
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return ws, nil
}

func New(screen tcell.Screen, ws *websocket.Conn) *Client {
	return &Client{
		screen: screen,
		ws:     ws,
		state:  core.NewGameState(),
		status: "waiting for opponent",
	}
}

// Run joins a room and plays until the user quits or the server goes away.
// The screen must already be initialised; Run does not call Fini.
func (c *Client) Run() error {
	defaultStyle := tcell.StyleDefault.
		Background(tcell.ColorBlack).
		Foreground(tcell.ColorWhite)
	c.screen.SetStyle(defaultStyle)

	if err := c.sendJSON(core.ClientMessage{Type: core.JoinType}); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		for {
			_, data, err := c.ws.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			c.apply(data)
			c.draw()
		}
	}()

	events := make(chan tcell.Event)
	go func() {
		for {
			ev := c.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	c.draw()
	for {
		select {
		case err := <-done:
			return fmt.Errorf("server connection lost: %w", err)
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				c.screen.Sync()
				c.draw()
			case *tcell.EventKey:
				quit, err := c.handleKey(ev)
				if err != nil {
					return err
				}
				if quit {
					return c.ws.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				}
			}
		}
	}
}

func (c *Client) handleKey(ev *tcell.EventKey) (bool, error) {
	switch {
	case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC, ev.Rune() == 'q':
		return true, nil
	case ev.Key() == tcell.KeyUp, ev.Rune() == 'w':
		return false, c.movePaddle(-PaddleStep)
	case ev.Key() == tcell.KeyDown, ev.Rune() == 's':
		return false, c.movePaddle(PaddleStep)
	}
	return false, nil
}

// movePaddle moves our own paddle locally and tells the server.
func (c *Client) movePaddle(delta float64) error {
	c.mu.Lock()
	paddle := c.state.Paddles.Of(c.side)
	if paddle == nil {
		c.mu.Unlock()
		return nil
	}
	paddle.MoveTo(paddle.Y + delta)
	y := paddle.Y
	c.mu.Unlock()

	c.draw()
	return c.sendJSON(core.ClientMessage{Type: core.PaddleMoveType, Y: &y})
}

func (c *Client) sendJSON(msg core.ClientMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// apply folds one server message into the local view.
func (c *Client) apply(data []byte) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Type {
	case core.PlayerAssignedType:
		c.playerID = msg.PlayerID
		c.side = msg.Side
		c.status = fmt.Sprintf("you are %s, waiting for opponent", msg.Side)
	case core.GameStartType, core.GameStateType:
		if msg.GameState == nil {
			return
		}
		own := c.state.Paddles.Of(c.side)
		var ownY float64
		if own != nil {
			ownY = own.Y
		}
		c.state = *msg.GameState
		// keep local input authoritative for our own paddle between echoes
		if p := c.state.Paddles.Of(c.side); p != nil {
			p.Y = ownY
		}
		c.status = fmt.Sprintf("playing %s", c.side)
	case core.PaddleMoveType:
		if paddle := c.state.Paddles.Of(msg.Side); paddle != nil && msg.Side != c.side {
			paddle.Y = msg.Y
		}
	case core.PlayerLeftType:
		c.state.GameRunning = false
		c.status = msg.Message + ", press q to quit"
	}
}

func (c *Client) draw() {
	c.mu.Lock()
	state := c.state
	status := c.status
	c.mu.Unlock()

	c.screen.Clear()
	width, height := c.screen.Size()
	if width == 0 || height == 0 {
		return
	}

	// net
	col := width / 2
	for row := 0; row < height; row++ {
		c.screen.SetContent(col, row, NetSymbol, nil, tcell.StyleDefault)
	}

	for _, paddle := range []core.Paddle{state.Paddles.Left, state.Paddles.Right} {
		col, row := toCell(paddle.X, paddle.Y, width, height)
		rows := int(paddle.Height / core.FieldHeight * float64(height))
		if rows < 1 {
			rows = 1
		}
		for r := 0; r < rows && row+r < height; r++ {
			c.screen.SetContent(col, row+r, PaddleSymbol, nil, tcell.StyleDefault)
		}
	}

	col, row := toCell(state.Ball.X, state.Ball.Y, width, height)
	c.screen.SetContent(col, row, BallSymbol, nil, tcell.StyleDefault)

	drawText(c.screen, width/4, 0, strconv.Itoa(state.Score.Left))
	drawText(c.screen, (width/4)*3, 0, strconv.Itoa(state.Score.Right))
	drawText(c.screen, 0, height-1, status)

	c.screen.Show()
}

// toCell maps field coordinates onto the terminal grid.
func toCell(x, y float64, width, height int) (int, int) {
	col := int(x / core.FieldWidth * float64(width))
	row := int(y / core.FieldHeight * float64(height))
	if col >= width {
		col = width - 1
	}
	if row >= height {
		row = height - 1
	}
	if col < 0 {
		col = 0
	}
	if row < 0 {
		row = 0
	}
	return col, row
}

func drawText(screen tcell.Screen, x, y int, text string) {
	for i, r := range []rune(text) {
		screen.SetContent(x+i, y, r, nil, tcell.StyleDefault)
	}
}
