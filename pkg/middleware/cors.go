package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS configures Cross-Origin Resource Sharing from a comma-separated
// origins list. Falls back to http://localhost:3000 for development.
func CORS(origins string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	allowed := make([]string, 0)
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		allowed = []string{"http://localhost:3000"}
	}

	if len(allowed) == 1 && allowed[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowed
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", CorrelationIDHeader}
	corsConfig.ExposeHeaders = []string{CorrelationIDHeader, "X-Trace-ID"}
	corsConfig.MaxAge = 24 * time.Hour

	return cors.New(corsConfig)
}
