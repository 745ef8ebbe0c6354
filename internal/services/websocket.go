package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/chachabrian/kwikliner/internal/models"
	"github.com/chachabrian/kwikliner/internal/negotiation"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var errHubStopped = errors.New("websocket hub stopped")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the driver app connects from native clients
	},
}

// WebSocket message types pushed to drivers
const (
	MessageDashboardUpdate = "dashboard_update"
	MessageMarketUpdate    = "market_data_update"
	MessageNotice          = "notice"
	MessageLoadUpdated     = "load_updated"
)

// WebSocketMessage is the envelope for every frame sent to a driver.
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client is one websocket connection belonging to a driver.
type Client struct {
	DriverID string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub

	done chan struct{}
}

// Done is closed once the connection has gone away.
func (c *Client) Done() <-chan struct{} { return c.done }

// Hub tracks connected drivers and pushes dashboard changes to them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	mutex      sync.RWMutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.quit)
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.Info("driver connected", zap.String("driverId", client.DriverID))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			h.logger.Info("driver disconnected", zap.String("driverId", client.DriverID))
		}
	}
}

// SendToDriver queues a message on every connection the driver has open.
// A connection whose buffer is full misses the message.
func (h *Hub) SendToDriver(driverID string, msgType string, data interface{}) {
	message, err := json.Marshal(WebSocketMessage{Type: msgType, Data: data})
	if err != nil {
		h.logger.Error("marshal websocket message", zap.String("type", msgType), zap.Error(err))
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if client.DriverID != driverID {
			continue
		}
		select {
		case client.Send <- message:
		default:
			h.logger.Warn("websocket buffer full", zap.String("driverId", driverID), zap.String("type", msgType))
		}
	}
}

// BroadcastToAll sends a message to every connected driver.
func (h *Hub) BroadcastToAll(msgType string, data interface{}) {
	message, err := json.Marshal(WebSocketMessage{Type: msgType, Data: data})
	if err != nil {
		h.logger.Error("marshal websocket message", zap.String("type", msgType), zap.Error(err))
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
			h.logger.Warn("websocket buffer full", zap.String("driverId", client.DriverID), zap.String("type", msgType))
		}
	}
}

// IsConnected reports whether the driver has at least one open connection.
func (h *Hub) IsConnected(driverID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for client := range h.clients {
		if client.DriverID == driverID {
			return true
		}
	}
	return false
}

func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// DashboardChanged pushes the driver's new dashboard snapshot.
func (h *Hub) DashboardChanged(driverID string, snap negotiation.Snapshot) {
	h.SendToDriver(driverID, MessageDashboardUpdate, snap)
}

// MarketChanged pushes the driver's merged market list.
func (h *Hub) MarketChanged(driverID string, listings []models.MarketListing) {
	h.SendToDriver(driverID, MessageMarketUpdate, listings)
}

// Notify pushes an outcome notice over the socket.
func (h *Hub) Notify(_ context.Context, driverID string, notice models.Notice) error {
	h.SendToDriver(driverID, MessageNotice, notice)
	return nil
}

// HandleWebSocket upgrades the request and attaches the connection to the
// driver. The returned client's Done channel closes on disconnect.
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, driverID string) (*Client, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade failed", zap.String("driverId", driverID), zap.Error(err))
		return nil, err
	}

	client := &Client{
		DriverID: driverID,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Hub:      hub,
		done:     make(chan struct{}),
	}

	select {
	case hub.register <- client:
	case <-hub.quit:
		conn.Close()
		return nil, errHubStopped
	}

	go client.writePump()
	go client.readPump()
	return client, nil
}

// readPump drains inbound frames; drivers act through the REST routes, so
// only connection state matters here.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.quit:
		}
		c.Conn.Close()
		close(c.done)
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("websocket read", zap.String("driverId", c.DriverID), zap.Error(err))
			}
			return
		}

		var msg WebSocketMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.Hub.logger.Debug("ignoring malformed frame", zap.String("driverId", c.DriverID))
			continue
		}
		c.Hub.logger.Debug("ignoring inbound frame", zap.String("driverId", c.DriverID), zap.String("type", msg.Type))
	}
}

func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.Hub.logger.Warn("websocket write", zap.String("driverId", c.DriverID), zap.Error(err))
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
