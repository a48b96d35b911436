package server

import (
	"PongOnline/core"
	"PongOnline/logger"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Gateway terminates client websockets and feeds their events to the
// Handler. It also serves health, stats and, optionally, the static client.
type Gateway struct {
	matchmaker *core.Matchmaker
	handler    *Handler
	upgrader   websocket.Upgrader
	sendBuffer int
	staticDir  string

	mu    sync.Mutex
	conns map[*Conn]struct{}

	httpServer *http.Server
}

type GatewayOption func(*Gateway)

func WithSendBuffer(n int) GatewayOption {
	return func(g *Gateway) { g.sendBuffer = n }
}

// WithStaticDir serves the browser client from dir at /.
func WithStaticDir(dir string) GatewayOption {
	return func(g *Gateway) { g.staticDir = dir }
}

func NewGateway(matchmaker *core.Matchmaker, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		matchmaker: matchmaker,
		handler:    NewHandler(matchmaker),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sendBuffer: 256,
		conns:      make(map[*Conn]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.ServeWS)
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/stats", g.handleStats)
	if g.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(g.staticDir)))
	}
	return mux
}

// ServeWS upgrades the request and runs the connection until it closes.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Error("websocket upgrade failed")
		return
	}

	conn := NewConn(ws, g.sendBuffer)
	g.track(conn)

	player := g.handler.OnConnect(conn)
	log := logger.Log.WithFields(logrus.Fields{"player": player.ID, "remote": r.RemoteAddr})
	log.Debug("websocket open")

	go conn.writePump()
	go conn.readPump(
		func(data []byte) { g.handler.OnMessage(player, data) },
		func() {
			g.untrack(conn)
			g.handler.OnDisconnect(player)
		},
	)
}

func (g *Gateway) track(conn *Conn) {
	g.mu.Lock()
	g.conns[conn] = struct{}{}
	g.mu.Unlock()
}

func (g *Gateway) untrack(conn *Conn) {
	g.mu.Lock()
	delete(g.conns, conn)
	g.mu.Unlock()
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (g *Gateway) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, g.matchmaker.Stats())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error(logger.EncodeFailedMsg)
	}
}

// ListenAndServe blocks until the server stops. It returns nil after a
// graceful Shutdown.
func (g *Gateway) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           g.Routes(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	g.mu.Lock()
	g.httpServer = srv
	g.mu.Unlock()
	logger.Log.WithField("addr", addr).Info(logger.ServerStartMsg)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, closes the open ones and halts
// every room.
func (g *Gateway) Shutdown(ctx context.Context) error {
	logger.Log.Info(logger.ServerStopMsg)

	g.mu.Lock()
	srv := g.httpServer
	g.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	g.mu.Lock()
	for conn := range g.conns {
		conn.Close()
	}
	g.mu.Unlock()

	g.matchmaker.Close()
	return err
}
