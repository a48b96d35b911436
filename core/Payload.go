package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client -> server message types
const JoinType = "join"             // request a seat in a room
const PaddleMoveType = "paddleMove" // requested paddle y, also echoed to the opponent

// Server -> client message types
const PlayerAssignedType = "playerAssigned"
const GameStartType = "gameStart"
const GameStateType = "gameState"
const PlayerLeftType = "playerLeft"

const OpponentLeftMessage = "Opponent disconnected"

var ErrMalformedMessage = errors.New("malformed message")

// ClientMessage is an inbound message. Y is only set for paddleMove.
type ClientMessage struct {
	Type string   `json:"type"`
	Y    *float64 `json:"y,omitempty"`
}

type PlayerAssignedPayload struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Side     Side   `json:"side"`
	IsHost   bool   `json:"isHost"`
}

type GameStatePayload struct {
	Type      string    `json:"type"`
	GameState GameState `json:"gameState"`
}

type PaddleMovePayload struct {
	Type string  `json:"type"`
	Side Side    `json:"side"`
	Y    float64 `json:"y"`
}

type PlayerLeftPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ParseClientMessage decodes one inbound frame. Unknown types are returned
// as-is so the caller can ignore them.
func ParseClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.Type == PaddleMoveType && msg.Y == nil {
		return ClientMessage{}, fmt.Errorf("%w: paddleMove without y", ErrMalformedMessage)
	}
	return msg, nil
}

func generatePlayerAssignedPayload(p *Player) ([]byte, error) {
	return json.Marshal(PlayerAssignedPayload{
		Type:     PlayerAssignedType,
		PlayerID: p.ID,
		Side:     p.Side(),
		IsHost:   p.IsHost(),
	})
}

func generateGameStatePayload(msgType string, state GameState) ([]byte, error) {
	return json.Marshal(GameStatePayload{Type: msgType, GameState: state})
}

func generatePaddleMovePayload(side Side, y float64) ([]byte, error) {
	return json.Marshal(PaddleMovePayload{Type: PaddleMoveType, Side: side, Y: y})
}

func generatePlayerLeftPayload() ([]byte, error) {
	return json.Marshal(PlayerLeftPayload{Type: PlayerLeftType, Message: OpponentLeftMessage})
}
