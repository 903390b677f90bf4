package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Clients connect from arbitrary origins; there is no auth layer.
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// Handler upgrades HTTP requests and hands the connections to the
// dispatcher.
type Handler struct {
	dispatcher   *Dispatcher
	bufferSize   int
	writeTimeout time.Duration
	pingInterval time.Duration
	readTimeout  time.Duration
}

func NewHandler(dispatcher *Dispatcher, bufferSize int, writeTimeout, pingInterval, readTimeout time.Duration) *Handler {
	return &Handler{
		dispatcher:   dispatcher,
		bufferSize:   bufferSize,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		readTimeout:  readTimeout,
	}
}

// HandleWebSocket upgrades the request and runs the protocol loop on the
// request's goroutine until the connection closes.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	// Pong resets the read deadline; writeLoop's ticker keeps pings going.
	_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	wsConn := NewConnection(conn, h.bufferSize, h.writeTimeout, h.pingInterval)
	h.dispatcher.Handle(wsConn)
}
