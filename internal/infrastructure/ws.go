package infra

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebsocketOption timings of a websocket connection
type WebsocketOption struct {
	WriteWait        time.Duration
	PongWait         time.Duration
	HandshakeTimeout time.Duration
	CheckOrigin      func(r *http.Request) bool
}

// Websocket upgrades echo requests and keeps the connection alive with pings
type Websocket struct {
	upgrader     websocket.Upgrader
	writeWait    time.Duration
	pongWait     time.Duration
	pingInterval time.Duration
}

// WebsocketHandler called for every round of the connection until it returns an error
type WebsocketHandler func(ctx context.Context, conn *websocket.Conn) error

// NewWebsocket zero option fields fall back to defaults
func NewWebsocket(options ...*WebsocketOption) *Websocket {
	option := &WebsocketOption{
		WriteWait:        10 * time.Second,
		PongWait:         30 * time.Second,
		HandshakeTimeout: 3 * time.Second,
	}
	if len(options) > 0 {
		custom := options[0]
		if custom.WriteWait > 0 {
			option.WriteWait = custom.WriteWait
		}
		if custom.PongWait > 0 {
			option.PongWait = custom.PongWait
		}
		if custom.HandshakeTimeout > 0 {
			option.HandshakeTimeout = custom.HandshakeTimeout
		}
		option.CheckOrigin = custom.CheckOrigin
	}
	return &Websocket{
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			CheckOrigin:      option.CheckOrigin,
			HandshakeTimeout: option.HandshakeTimeout,
		},
		writeWait:    option.WriteWait,
		pongWait:     option.PongWait,
		pingInterval: option.PongWait * 9 / 10,
	}
}

// WriteWait deadline for a single write
func (ws *Websocket) WriteWait() time.Duration {
	return ws.writeWait
}

// WithHeartbeat wrap handler function with heartbeat probe, it blocks until the connection ends
func (ws *Websocket) WithHeartbeat(handler WebsocketHandler) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := ws.upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			// upgrader already replied with an error status
			return nil
		}

		done := make(chan struct{})
		go ws.heartbeatRoutine(conn, done)
		ws.processRoutine(c.Request().Context(), conn, handler)
		close(done)
		return nil
	}
}

func (ws *Websocket) heartbeatRoutine(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(ws.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ws.writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (ws *Websocket) processRoutine(ctx context.Context, conn *websocket.Conn, handler WebsocketHandler) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(ws.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(ws.pongWait))
	})
	for {
		if err := handler(ctx, conn); err != nil {
			if !errors.Is(err, context.Canceled) && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseInternalServerErr, ""),
					time.Now().Add(ws.writeWait))
			}
			return
		}
	}
}
