package common

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Timestamp string                 `json:"timestamp"`
	Uptime    string                 `json:"uptime,omitempty"`
	Checks    map[string]CheckStatus `json:"checks,omitempty"`
}

// CheckStatus represents the status of a single health check
type CheckStatus struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

var (
	startTime = time.Now()
)

// HealthCheck returns a health check handler
func HealthCheck(serviceName, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:    "healthy",
			Service:   serviceName,
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Uptime:    time.Since(startTime).String(),
		})
	}
}

// LivenessProbe returns a simple liveness check
func LivenessProbe(serviceName, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:    "alive",
			Service:   serviceName,
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Readiness statuses. Degraded means an optional dependency such as the
// snapshot cache or the event bus is down while the store still answers.
const (
	StatusReady    = "ready"
	StatusDegraded = "degraded"
	StatusNotReady = "not ready"
)

// ReadinessProbe runs checks in parallel. A failing check named in optional
// reports "degraded" and keeps the probe at 200. Any other failure answers
// 503 "not ready".
func ReadinessProbe(serviceName, version string, checks map[string]func() error, optional ...string) gin.HandlerFunc {
	soft := make(map[string]bool, len(optional))
	for _, name := range optional {
		soft[name] = true
	}

	return func(c *gin.Context) {
		results := runChecks(checks)
		status := readiness(results, soft)

		statusCode := http.StatusOK
		if status == StatusNotReady {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, HealthResponse{
			Status:    status,
			Service:   serviceName,
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Uptime:    time.Since(startTime).String(),
			Checks:    results,
		})
	}
}

func readiness(results map[string]CheckStatus, optional map[string]bool) string {
	status := StatusReady
	for name, result := range results {
		if result.Status == "healthy" {
			continue
		}
		if !optional[name] {
			return StatusNotReady
		}
		status = StatusDegraded
	}
	return status
}

func runChecks(checks map[string]func() error) map[string]CheckStatus {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckStatus, len(checks))
	)

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check func() error) {
			defer wg.Done()
			start := time.Now()
			err := check()
			result := CheckStatus{Status: "healthy", Duration: time.Since(start).String()}
			if err != nil {
				result.Status = "unhealthy"
				result.Message = err.Error()
			}
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, check)
	}

	wg.Wait()
	return results
}
