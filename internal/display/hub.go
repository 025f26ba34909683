package display

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/rouletteai/roulette-client/internal/events"
	"github.com/rouletteai/roulette-client/internal/logger"
	"github.com/rouletteai/roulette-client/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16

	// MessageTypeState is the only message type pushed to display clients.
	MessageTypeState = "state"
)

// Message is pushed to every WebSocket client after each session change.
type Message struct {
	Type      string        `json:"type"`
	Event     events.Kind   `json:"event,omitempty"`
	State     StateResponse `json:"state"`
	Timestamp int64         `json:"timestamp"` // unix milliseconds
}

// Hub fans session state out to WebSocket clients. It implements
// events.Consumer; slow clients lose updates instead of blocking the bus.
type Hub struct {
	upgrader websocket.Upgrader
	state    func() session.State
	metrics  Metrics
	log      logger.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
	wg      sync.WaitGroup
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
		_ = c.conn.Close()
	})
}

// NewHub creates a hub that reads state from the given supplier.
func NewHub(state func() session.State, metrics Metrics, log logger.Logger) *Hub {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = GetLogger()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Origin policy is enforced by the CORS middleware.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		state:   state,
		metrics: metrics,
		log:     log.Module("ws"),
		clients: make(map[*wsClient]struct{}),
	}
}

// Name implements events.Consumer.
func (h *Hub) Name() string { return "display-ws" }

// ProcessEvent implements events.Consumer.
func (h *Hub) ProcessEvent(event events.Event) error {
	data, err := h.encode(event.Kind)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// Broadcast queues data for every connected client.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
			h.metrics.MessageSent()
		default:
			h.metrics.MessageDropped()
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) encode(kind events.Kind) ([]byte, error) {
	return json.Marshal(Message{
		Type:      MessageTypeState,
		Event:     kind,
		State:     newStateResponse(h.state()),
		Timestamp: time.Now().UnixMilli(),
	})
}

// ServeWS upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.log.Debug("WebSocket upgrade failed", logger.Error(err))
		return nil
	}

	client := &wsClient{conn: conn, send: make(chan []byte, sendBuffer), done: make(chan struct{})}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		client.close()
		return nil
	}
	h.clients[client] = struct{}{}
	h.wg.Add(2)
	h.mu.Unlock()

	h.metrics.ClientConnected()
	h.log.Debug("Display client connected", logger.String("remote", c.RealIP()))

	if data, err := h.encode(""); err == nil {
		client.send <- data
	}

	go func() {
		defer h.wg.Done()
		h.writePump(client)
	}()

	defer h.wg.Done()
	h.readPump(client)
	h.unregister(client)
	return nil
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	c.close()
	if ok {
		h.metrics.ClientDisconnected()
		h.log.Debug("Display client disconnected")
	}
}

// readPump discards client messages; it exists to process pongs and detect disconnects.
func (h *Hub) readPump(c *wsClient) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("WebSocket read error", logger.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close disconnects every client and waits for their goroutines to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	h.wg.Wait()
}
