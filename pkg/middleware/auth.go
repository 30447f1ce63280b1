package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/richxcame/transit-ops/pkg/common"
	"github.com/richxcame/transit-ops/pkg/logger"
	"github.com/richxcame/transit-ops/pkg/models"
)

// gin context keys set by AuthMiddleware
const (
	userIDKey    = "user_id"
	userEmailKey = "user_email"
	userRoleKey  = "user_role"
)

// Claims are the JWT claims issued by the external identity service. Older
// tokens carry the user only in the standard subject claim.
type Claims struct {
	UserID string          `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor returns the id recorded against writes made with these claims.
func (c *Claims) Actor() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// AuthMiddleware validates HS256 bearer tokens signed with secret. The
// token's user becomes the actor on the request context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	keyFunc := func(*jwt.Token) (interface{}, error) { return key, nil }
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "authorization required")
			return
		}
		raw, ok := bearerToken(header)
		if !ok {
			unauthorized(c, "invalid authorization header format")
			return
		}

		claims := &Claims{}
		token, err := parser.ParseWithClaims(raw, claims, keyFunc)
		if err != nil || !token.Valid {
			unauthorized(c, "invalid or expired token")
			return
		}
		if claims.Actor() == "" || !knownRole(claims.Role) {
			unauthorized(c, "invalid token claims")
			return
		}

		c.Set(userIDKey, claims.Actor())
		c.Set(userEmailKey, claims.Email)
		c.Set(userRoleKey, claims.Role)
		c.Request = c.Request.WithContext(logger.ContextWithActor(c.Request.Context(), claims.Actor()))

		c.Next()
	}
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// case-insensitive.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func knownRole(role models.UserRole) bool {
	for _, r := range models.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func unauthorized(c *gin.Context, msg string) {
	common.AppErrorResponse(c, common.NewUnauthorizedError(msg))
	c.Abort()
}

// RequireRole admits only users holding one of roles.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRole(c)
		if err != nil {
			unauthorized(c, "user role not found")
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		common.ErrorResponse(c, http.StatusForbidden, "insufficient permissions")
		c.Abort()
	}
}

// GetUserID returns the authenticated user id.
func GetUserID(c *gin.Context) (string, error) {
	v, _ := c.Get(userIDKey)
	id, ok := v.(string)
	if !ok || id == "" {
		return "", common.ErrUnauthorized
	}
	return id, nil
}

// GetUserRole returns the authenticated user's role.
func GetUserRole(c *gin.Context) (models.UserRole, error) {
	v, _ := c.Get(userRoleKey)
	role, ok := v.(models.UserRole)
	if !ok {
		return "", common.ErrUnauthorized
	}
	return role, nil
}
