package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/glamspot/booking-backend/pkg/jwt"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UserContextKey is the key used to store user information in Gin context
const UserContextKey = "user"

// CronTriggerKey marks a request authenticated by the cron trigger secret
const CronTriggerKey = "cron_trigger"

// UserContext represents the authenticated user's information
type UserContext struct {
	UserID  uuid.UUID  `json:"user_id"`
	Email   string     `json:"email"`
	Roles   []string   `json:"roles"`
	SalonID *uuid.UUID `json:"salon_id,omitempty"`
}

// HasRole reports whether the user carries the given role
func (u UserContext) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user is a platform admin
func (u UserContext) IsAdmin() bool {
	return u.HasRole(jwt.RoleAdmin)
}

// AuthMiddleware creates a middleware that validates JWT tokens
func AuthMiddleware(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, code, message := authenticate(c, jwtService)
		if code != "" {
			logger.WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
				"code": code,
			}).Warn("Authentication failed")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": message,
				"code":    code,
			})
			c.Abort()
			return
		}

		c.Set(UserContextKey, userCtx)
		c.Next()
	}
}

// authenticate parses the bearer token. A non-empty code means failure.
func authenticate(c *gin.Context, jwtService *jwt.Service) (UserContext, string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return UserContext{}, "MISSING_AUTH_HEADER", "Authorization header is required"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return UserContext{}, "INVALID_AUTH_FORMAT", "Invalid authorization header format. Expected: Bearer <token>"
	}

	tokenString := strings.TrimSpace(parts[1])
	claims, err := jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		if jwtService.IsTokenExpired(tokenString) {
			return UserContext{}, "TOKEN_EXPIRED", "Access token has expired. Please refresh your token."
		}
		return UserContext{}, "INVALID_TOKEN", "Invalid access token"
	}

	return UserContext{
		UserID:  claims.UserID,
		Email:   claims.Email,
		Roles:   claims.Roles,
		SalonID: claims.SalonID,
	}, "", ""
}

// RequireRole creates a middleware that checks if user has required role
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "User context not found. Auth middleware may not be applied.",
				"code":    "MISSING_USER_CONTEXT",
			})
			c.Abort()
			return
		}

		for _, role := range roles {
			if userCtx.HasRole(role) {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You don't have permission to access this resource",
			"code":    "INSUFFICIENT_PERMISSIONS",
		})
		c.Abort()
	}
}

// CronOrAdmin lets the external scheduler in with the X-Cron-Secret header,
// otherwise falls back to an admin JWT.
func CronOrAdmin(secret string, jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-Cron-Secret")
		if secret != "" && provided != "" {
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) == 1 {
				c.Set(CronTriggerKey, true)
				c.Next()
				return
			}
			logger.WithField("ip", c.ClientIP()).Warn("Rejected cron trigger with bad secret")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid cron secret",
				"code":    "INVALID_CRON_SECRET",
			})
			c.Abort()
			return
		}

		userCtx, code, message := authenticate(c, jwtService)
		if code != "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": message,
				"code":    code,
			})
			c.Abort()
			return
		}
		if !userCtx.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "You don't have permission to access this resource",
				"code":    "INSUFFICIENT_PERMISSIONS",
			})
			c.Abort()
			return
		}

		c.Set(UserContextKey, userCtx)
		c.Next()
	}
}

// GetUserContext retrieves the user context from Gin context
func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}

	userCtx, ok := value.(UserContext)
	if !ok {
		return UserContext{}, false
	}

	return userCtx, true
}
