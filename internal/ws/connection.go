// Package ws carries lecture traffic over websocket connections: a
// single-writer connection wrapper and the dispatcher that drives the
// presenter, student and history protocol loops.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Firefly-HackGT/firefly-backend/internal/protocol"
)

// Connection wraps a websocket connection with a single writer goroutine.
// gorilla/websocket allows one concurrent writer, and session broadcasts
// arrive from other participants' goroutines, so every outbound event is
// funneled through a buffered channel owned by writeLoop.
type Connection struct {
	conn         *websocket.Conn
	writeCh      chan []byte
	writeTimeout time.Duration
	pingInterval time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	closeOnce    sync.Once
}

// NewConnection wraps conn and starts its writer. buffer sizes the outbound
// queue; a participant that stops draining for writeTimeout loses events
// with an error instead of stalling the session.
func NewConnection(conn *websocket.Conn, buffer int, writeTimeout, pingInterval time.Duration) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		conn:         conn,
		writeCh:      make(chan []byte, buffer),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		ctx:          ctx,
		cancel:       cancel,
	}

	go c.writeLoop()

	return c
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout)); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// Send marshals an outbound event and queues it for the writer.
// Implements lecture.EventSender.
func (c *Connection) Send(v any) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ErrInvalidJSON
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-time.After(c.writeTimeout):
		return ErrWriteTimeout
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

// ReadEvent blocks for the next inbound message and decodes it at the
// boundary. A decode failure is fatal to the connection, same as a
// transport error.
func (c *Connection) ReadEvent() (protocol.Event, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return protocol.Decode(data)
}

// Close shuts down the writer and the underlying connection. Safe to call
// from any goroutine, any number of times.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}
