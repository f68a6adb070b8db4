package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.helix.deliberation/internal/config"
	"dev.helix.deliberation/internal/events"
	"dev.helix.deliberation/internal/handlers"
	"dev.helix.deliberation/internal/store"
	"dev.helix.deliberation/internal/ws"
)

func testRouter() (*Router, *events.Bus) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	cfg := config.Load()
	bus := events.NewBus(nil)
	st := store.New()
	hub := ws.NewHub(bus, nil, log)
	h := handlers.NewDebateHandler(st, bus, log)
	return New(cfg, h, hub, log), bus
}

func TestRoutes_StartDebate(t *testing.T) {
	r, bus := testRouter()
	defer bus.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/start_debate", strings.NewReader(`{"topic":"tariffs"}`))
	req.Header.Set("Content-Type", "application/json")
	r.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "debate_id")
}

func TestAPICORS_PinnedOrigin(t *testing.T) {
	r, bus := testRouter()
	defer bus.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/start_debate", nil)
	req.Header.Set("Origin", "https://example.com")
	r.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://ai-deliberation.netlify.app", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	r, bus := testRouter()
	defer bus.Close()

	for _, path := range []string{"/health", "/metrics"} {
		w := httptest.NewRecorder()
		r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
