package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, handler gin.HandlerFunc) (int, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health/ready", handler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestReadinessProbe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ok := func() error { return nil }
	down := func() error { return errors.New("connection refused") }

	t.Run("all healthy", func(t *testing.T) {
		code, body := probe(t, ReadinessProbe("transit-ops", "1.0.0", map[string]func() error{
			"store": ok, "redis": ok,
		}, "redis"))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, StatusReady, body.Status)
		assert.Len(t, body.Checks, 2)
	})

	t.Run("optional dependency down", func(t *testing.T) {
		code, body := probe(t, ReadinessProbe("transit-ops", "1.0.0", map[string]func() error{
			"store": ok, "redis": down,
		}, "redis", "nats"))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, StatusDegraded, body.Status)
		assert.Equal(t, "unhealthy", body.Checks["redis"].Status)
		assert.Equal(t, "connection refused", body.Checks["redis"].Message)
	})

	t.Run("store down", func(t *testing.T) {
		code, body := probe(t, ReadinessProbe("transit-ops", "1.0.0", map[string]func() error{
			"store": down, "redis": down,
		}, "redis"))
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, StatusNotReady, body.Status)
	})

	t.Run("no checks", func(t *testing.T) {
		code, body := probe(t, ReadinessProbe("transit-ops", "1.0.0", nil))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, StatusReady, body.Status)
	})
}
