package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kode4food/flowrun/pkg/api"
	"github.com/kode4food/flowrun/pkg/log"
)

// Client is a WebSocket connection that runs a single flow once per
// incoming message and streams the run's events back
type Client struct {
	server *Server
	conn   *websocket.Conn
	flow   *api.Flow
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

const (
	writeWait          = 10 * time.Second
	maxMessageSize     = 64 * 1024
	wsBufferSize       = 1024
	incomingBufferSize = 16
)

var (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleWebSocket(c *gin.Context) {
	fl, ok := s.lookupFlow(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed",
			log.FlowID(fl.ID),
			log.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		server: s,
		conn:   conn,
		flow:   fl,
		ctx:    ctx,
		cancel: cancel,
	}
	s.registerWebSocket(client)

	go client.run()
}

// Close terminates the connection and aborts any run in progress
func (c *Client) Close() {
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
	)
	_ = c.conn.Close()
}

// run executes one flow run per incoming message, in arrival order. Reads
// happen on their own goroutine so pongs keep extending the read deadline
// while a run is in progress
func (c *Client) run() {
	defer func() {
		c.cancel()
		c.server.unregisterWebSocket(c)
		_ = c.conn.Close()
	}()

	pong, ping := pongWait, pingPeriod
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pong))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pong))
		return nil
	})

	go c.pingLoop(ping)

	incoming := make(chan []byte, incomingBufferSize)
	go c.readMessages(incoming)

	for message := range incoming {
		c.handleRun(message)
	}
}

func (c *Client) readMessages(incoming chan<- []byte) {
	defer close(incoming)
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case incoming <- message:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) handleRun(message []byte) {
	req := api.NewSimplifiedAPIRequest()
	if err := unmarshalBody(message, req); err != nil {
		c.send(&api.RunEvent{
			Event: api.EventError,
			Data: api.ErrorResponse{
				Error:  err.Error(),
				Status: decodeErrorStatus(err),
			},
		})
		return
	}

	_, err := c.server.runSimplified(c.ctx, c.flow, req,
		func(ev *api.RunEvent) { c.send(ev) },
	)
	if err != nil {
		slog.Warn("WebSocket run failed",
			log.FlowID(c.flow.ID),
			log.Error(err))
		c.send(&api.RunEvent{
			Event: api.EventError,
			Data: api.ErrorResponse{
				Error:  err.Error(),
				Status: runErrorStatus(err),
			},
		})
	}
}

func (c *Client) send(ev *api.RunEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(ev); err != nil {
		slog.Error("WebSocket write failed",
			slog.String("event", ev.Event),
			log.Error(err))
	}
}

func (c *Client) pingLoop(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if !c.sendPing() {
				return
			}
		}
	}
}

func (c *Client) sendPing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteMessage(websocket.PingMessage, nil)
	return err == nil
}
