package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.helix.deliberation/internal/events"
	"dev.helix.deliberation/internal/store"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func setup() (*gin.Engine, *store.Store, *events.Bus) {
	gin.SetMode(gin.TestMode)
	st := store.New()
	bus := events.NewBus(nil)
	h := NewDebateHandler(st, bus, testLogger())

	engine := gin.New()
	engine.POST("/api/start_debate", h.StartDebate)
	engine.GET("/health", h.Health)
	return engine, st, bus
}

func TestStartDebate_ValidTopic(t *testing.T) {
	engine, st, bus := setup()
	defer bus.Close()

	ch := bus.Subscribe(events.EventDebateStarted)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/start_debate", strings.NewReader(`{"topic":"rent control"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "debate_id")
	assert.Equal(t, 1, st.Len())

	select {
	case e := <-ch:
		payload := e.Payload.(events.DebateStartedPayload)
		assert.Equal(t, "rent control", payload.Topic)
		assert.NotEmpty(t, payload.DebateID)
		assert.Len(t, payload.Agents, 4)
		assert.True(t, st.Exists(payload.DebateID))
	case <-time.After(time.Second):
		t.Fatal("debate_started not published")
	}
}

func TestStartDebate_EmptyTopic(t *testing.T) {
	engine, st, bus := setup()
	defer bus.Close()

	for _, body := range []string{`{"topic":""}`, `{}`, `not json`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/start_debate", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.Contains(t, w.Body.String(), "Topic is required")
	}
	assert.Equal(t, 0, st.Len())
}

func TestHealth(t *testing.T) {
	engine, _, bus := setup()
	defer bus.Close()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
