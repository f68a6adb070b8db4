// Package handlers implements the REST endpoints of the debate server.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dev.helix.deliberation/internal/agents"
	"dev.helix.deliberation/internal/events"
	"dev.helix.deliberation/internal/metrics"
	"dev.helix.deliberation/internal/store"
)

const source = "api"

// DebateHandler handles debate lifecycle endpoints.
type DebateHandler struct {
	store *store.Store
	bus   *events.Bus
	log   *logrus.Logger
}

// NewDebateHandler creates the handler.
func NewDebateHandler(st *store.Store, bus *events.Bus, log *logrus.Logger) *DebateHandler {
	if log == nil {
		log = logrus.New()
	}
	return &DebateHandler{store: st, bus: bus, log: log}
}

// StartDebateRequest is the create-debate request body.
type StartDebateRequest struct {
	Topic string `json:"topic"`
}

// StartDebate handles POST /api/start_debate. A valid topic creates an
// active debate, announces it to all connected clients, and returns the id.
func (h *DebateHandler) StartDebate(c *gin.Context) {
	var req StartDebateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Topic is required"})
		return
	}

	id, err := h.store.Create(req.Topic)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Topic is required"})
		return
	}

	h.log.WithFields(logrus.Fields{
		"debate_id": id,
		"topic":     req.Topic,
	}).Info("Debate created")
	metrics.DebatesStarted.Inc()

	h.bus.Publish(events.New(events.EventDebateStarted, source, events.DebateStartedPayload{
		DebateID: id,
		Topic:    req.Topic,
		Agents:   agents.Roster(),
	}))

	c.JSON(http.StatusOK, gin.H{"debate_id": id})
}

// Health handles GET /health.
func (h *DebateHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
