package server

import (
	"PongOnline/core"
	"PongOnline/logger"

	"github.com/sirupsen/logrus"
)

// Handler turns gateway events into matchmaker and room calls.
type Handler struct {
	matchmaker *core.Matchmaker
}

func NewHandler(matchmaker *core.Matchmaker) *Handler {
	return &Handler{matchmaker: matchmaker}
}

func (h *Handler) OnConnect(conn core.Transport) *core.Player {
	return h.matchmaker.Connect(conn)
}

// OnMessage handles one inbound frame. Malformed frames are logged and
// dropped; unknown types are ignored.
func (h *Handler) OnMessage(player *core.Player, data []byte) {
	msg, err := core.ParseClientMessage(data)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"player": player.ID}).WithError(err).
			Warn(logger.InvalidMessageMsg)
		return
	}

	switch msg.Type {
	case core.JoinType:
		h.matchmaker.Join(player)
	case core.PaddleMoveType:
		if room := player.Room(); room != nil {
			room.HandlePaddleMove(player, *msg.Y)
		}
	}
}

func (h *Handler) OnDisconnect(player *core.Player) {
	h.matchmaker.Leave(player)
}
