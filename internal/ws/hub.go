// Package ws bridges the event bus and WebSocket clients. Outbound bus
// events are broadcast to every connected client as JSON envelopes; inbound
// client envelopes are decoded and published onto the bus.
package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"dev.helix.deliberation/internal/events"
	"dev.helix.deliberation/internal/metrics"
)

// Envelope is the wire frame for every WebSocket message, both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// outboundTypes are the bus events forwarded to clients. start_agent_turn is
// included so clients observe the rotation advancing.
var outboundTypes = []events.Type{
	events.EventDebateStarted,
	events.EventNewMessage,
	events.EventNewIntervention,
	events.EventTypingStatus,
	events.EventError,
	events.EventStartAgentTurn,
}

// Config holds WebSocket tuning parameters.
type Config struct {
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
	MaxMessageSize  int64
	SendBufferSize  int
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		PingInterval:    54 * time.Second,
		PongWait:        60 * time.Second,
		WriteWait:       10 * time.Second,
		MaxMessageSize:  512 * 1024,
		SendBufferSize:  64,
	}
}

// Hub tracks connected clients and fans bus events out to them. Unlike the
// REST API, the realtime channel accepts any origin; the asymmetry mirrors
// the current deployment.
type Hub struct {
	config   *Config
	bus      *events.Bus
	log      *logrus.Logger
	upgrader websocket.Upgrader

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

// NewHub creates a hub wired to the bus. A nil config selects defaults.
func NewHub(bus *events.Bus, config *Config, log *logrus.Logger) *Hub {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logrus.New()
	}
	return &Hub{
		config: config,
		bus:    bus,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Stop is called. It also
// starts the bus-forwarding loop.
func (h *Hub) Run() {
	go h.forwardBusEvents()

	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			metrics.ConnectedClients.Inc()
			h.log.WithField("client_id", client.id).Info("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.ConnectedClients.Dec()
				h.log.WithField("client_id", client.id).Info("Client disconnected")
			}
		case data := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Slow client: drop it rather than stall the hub.
					delete(h.clients, client)
					close(client.send)
					metrics.ConnectedClients.Dec()
					h.log.WithField("client_id", client.id).Warn("Dropping slow client")
				}
			}
		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
				metrics.ConnectedClients.Dec()
			}
			return
		}
	}
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	close(h.done)
}

// forwardBusEvents serializes outbound bus events into wire envelopes.
func (h *Hub) forwardBusEvents() {
	ch := h.bus.Subscribe(outboundTypes...)
	for evt := range ch {
		data, err := json.Marshal(evt.Payload)
		if err != nil {
			h.log.WithError(err).WithField("event", evt.Type).Error("Failed to serialize event payload")
			continue
		}
		frame, err := json.Marshal(Envelope{Event: string(evt.Type), Data: data})
		if err != nil {
			h.log.WithError(err).WithField("event", evt.Type).Error("Failed to serialize envelope")
			continue
		}
		select {
		case h.broadcast <- frame:
		case <-h.done:
			return
		}
	}
}

// HandleWS upgrades a gin request to a WebSocket connection and starts the
// client's read and write pumps.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Error("WebSocket upgrade failed")
		return
	}
	client := newClient(h, conn)

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// handleInbound decodes a client envelope and publishes it onto the bus.
// Unknown or malformed events are logged and dropped.
func (h *Hub) handleInbound(clientID string, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.log.WithError(err).WithField("client_id", clientID).Warn("Malformed client frame")
		return
	}

	switch events.Type(env.Event) {
	case events.EventUserIntervention:
		var payload events.InterventionPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			h.log.WithError(err).WithField("client_id", clientID).Warn("Malformed user_intervention payload")
			return
		}
		h.bus.Publish(events.New(events.EventUserIntervention, clientID, payload))
	case events.EventStartAgentTurn:
		var payload events.StartAgentTurnPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			h.log.WithError(err).WithField("client_id", clientID).Warn("Malformed start_agent_turn payload")
			return
		}
		h.bus.Publish(events.New(events.EventStartAgentTurn, clientID, payload))
	default:
		h.log.WithFields(logrus.Fields{
			"client_id": clientID,
			"event":     env.Event,
		}).Debug("Ignoring unsupported client event")
	}
}
