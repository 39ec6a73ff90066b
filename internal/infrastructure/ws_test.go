package infra

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsocket_WithHeartbeat(t *testing.T) {
	ws := NewWebsocket(&WebsocketOption{PongWait: 500 * time.Millisecond})
	app := echo.New()
	app.GET("/ws", ws.WithHeartbeat(func(ctx context.Context, conn *websocket.Conn) error {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, append([]byte("Echo: "), message...))
	}))
	srv := httptest.NewServer(app)
	defer srv.Close()

	pinged := make(chan struct{}, 1)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetPingHandler(func(data string) error {
		select {
		case pinged <- struct{}{}:
		default:
		}
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hi")))
	_, reply, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "Echo: hi", string(reply))

	// keep reading so control frames get processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("no ping received")
	}
}

func TestNewWebsocket_Defaults(t *testing.T) {
	ws := NewWebsocket()
	assert.Equal(t, 10*time.Second, ws.WriteWait())
	assert.Equal(t, 27*time.Second, ws.pingInterval)
}
