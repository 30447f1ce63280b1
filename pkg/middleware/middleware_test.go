package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/richxcame/transit-ops/pkg/common"
	"github.com/richxcame/transit-ops/pkg/config"
	"github.com/richxcame/transit-ops/pkg/logger"
	"github.com/richxcame/transit-ops/pkg/models"
	"github.com/richxcame/transit-ops/pkg/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, role models.UserRole, expiresIn time.Duration) string {
	t.Helper()
	claims := Claims{
		UserID: "user-1",
		Email:  "fm@example.com",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newAuthRouter() *gin.Engine {
	router := gin.New()
	router.Use(AuthMiddleware(testSecret))
	router.GET("/read", func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user": id})
	})
	router.POST("/write", RequireRole(models.RoleFleetManager, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body common.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"missing header", "", http.StatusUnauthorized, "authorization required"},
		{"bad format", "Token abc", http.StatusUnauthorized, "invalid authorization header format"},
		{"extra parts", "Bearer a b", http.StatusUnauthorized, "invalid authorization header format"},
		{"lowercase scheme", "bearer " + signToken(t, models.RoleSupervisor, time.Hour), http.StatusOK, ""},
		{"garbage token", "Bearer abc", http.StatusUnauthorized, "invalid or expired token"},
		{"valid token", "Bearer " + signToken(t, models.RoleRider, time.Hour), http.StatusOK, ""},
		{"expired token", "Bearer " + signToken(t, models.RoleRider, -time.Hour), http.StatusUnauthorized, "invalid or expired token"},
	}

	router := newAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/read", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, w))
			}
		})
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: models.RoleAdmin}).SignedString([]byte("other"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/read", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newAuthRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_Claims(t *testing.T) {
	sign := func(claims Claims) string {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return token
	}

	t.Run("subject fallback becomes actor", func(t *testing.T) {
		var actor string
		router := gin.New()
		router.Use(AuthMiddleware(testSecret))
		router.GET("/read", func(c *gin.Context) {
			actor = logger.ActorFromContext(c.Request.Context())
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/read", nil)
		req.Header.Set("Authorization", "Bearer "+sign(Claims{
			Role:             models.RoleFleetManager,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "fm-3"},
		}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "fm-3", actor)
	})

	t.Run("missing user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/read", nil)
		req.Header.Set("Authorization", "Bearer "+sign(Claims{Role: models.RoleAdmin}))
		w := httptest.NewRecorder()
		newAuthRouter().ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid token claims", decodeError(t, w))
	})

	t.Run("unknown role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/read", nil)
		req.Header.Set("Authorization", "Bearer "+sign(Claims{UserID: "u-1", Role: "dispatcher"}))
		w := httptest.NewRecorder()
		newAuthRouter().ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid token claims", decodeError(t, w))
	})
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		role       models.UserRole
		wantStatus int
	}{
		{models.RoleFleetManager, http.StatusNoContent},
		{models.RoleAdmin, http.StatusNoContent},
		{models.RoleDriver, http.StatusForbidden},
		{models.RoleRider, http.StatusForbidden},
	}

	router := newAuthRouter()
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/write", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, tt.role, time.Hour))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestCorrelationID(t *testing.T) {
	router := gin.New()
	router.Use(CorrelationID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetCorrelationID(c))
	})

	t.Run("generates when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		id := w.Header().Get(CorrelationIDHeader)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps valid header", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(CorrelationIDHeader, id)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps gateway style id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(CorrelationIDHeader, "gw-2024.03.15:0042")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, "gw-2024.03.15:0042", w.Body.String())
	})

	t.Run("falls back to legacy header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(LegacyCorrelationIDHeader, "console-7")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, "console-7", w.Body.String())
		assert.Equal(t, "console-7", w.Header().Get(CorrelationIDHeader))
	})

	t.Run("replaces unsafe header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(CorrelationIDHeader, "id with spaces")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.NotEqual(t, "id with spaces", w.Body.String())
		_, err := uuid.Parse(w.Body.String())
		assert.NoError(t, err)
	})
}

func TestRequestTimeout(t *testing.T) {
	t.Run("completes within timeout", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestTimeout(&config.TimeoutConfig{DefaultRequestTimeout: 2}))
		router.GET("/fast", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fast", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Timeout"))
	})

	t.Run("times out slow handler", func(t *testing.T) {
		if testing.Short() {
			t.Skip("skipping timeout test in short mode")
		}
		router := gin.New()
		router.Use(RequestTimeout(&config.TimeoutConfig{
			DefaultRequestTimeout: 30,
			RouteOverrides:        map[string]int{"GET:/slow": 1},
		}))
		router.GET("/slow", func(c *gin.Context) {
			time.Sleep(1500 * time.Millisecond)
			c.JSON(http.StatusOK, gin.H{"message": "late"})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.Equal(t, "true", w.Header().Get("X-Timeout"))
	})
}

func TestRecoveryWithSentry(t *testing.T) {
	router := gin.New()
	router.Use(RecoveryWithSentry())
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeError(t, w))
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS("http://ops.example.com, http://localhost:3000"))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://ops.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	router := gin.New()
	router.Use(Metrics("test-service"))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		path      string
		status    int
		hasErrors bool
		want      zapcore.Level
	}{
		{"/api/v1/analytics/reports", http.StatusOK, false, zapcore.InfoLevel},
		{"/healthz", http.StatusOK, false, zapcore.DebugLevel},
		{"/health/ready", http.StatusOK, false, zapcore.DebugLevel},
		{"/metrics", http.StatusOK, false, zapcore.DebugLevel},
		{"/health/ready", http.StatusServiceUnavailable, false, zapcore.ErrorLevel},
		{"/api/v1/maintenance/schedule/x", http.StatusNotFound, true, zapcore.WarnLevel},
		{"/api/v1/analytics/reports", http.StatusOK, true, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, requestLevel(tt.path, tt.status, tt.hasErrors), "%s %d", tt.path, tt.status)
	}
}

func TestRequestLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	restore := logger.SetForTest(zap.New(core))
	defer restore()

	router := gin.New()
	router.Use(RequestLogger("transit-ops"))
	router.GET("/api/v1/maintenance/schedule/:id", func(c *gin.Context) {
		c.Set("user_id", "manager-7")
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/maintenance/schedule/mnt-1?x=1", nil))

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/v1/maintenance/schedule/:id", fields["route"])
	assert.Equal(t, "manager-7", fields["user_id"])
	assert.Equal(t, "x=1", fields["query"])
}

func TestRequestAttributes(t *testing.T) {
	var attrs []attribute.KeyValue
	router := gin.New()
	router.GET("/analytics/leaderboards/:dimension", func(c *gin.Context) {
		attrs = requestAttributes(c)
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/analytics/leaderboards/driver?startDate=2024-01-01", nil))

	got := map[attribute.Key]string{}
	for _, kv := range attrs {
		got[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "driver", got[tracing.ReportDimensionKey])
	assert.Equal(t, "2024-01-01", got[tracing.FilterStartKey])
	assert.Equal(t, "/analytics/leaderboards/:dimension", got["http.route"])
	assert.NotContains(t, got, tracing.TicketIDKey)
}
