package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glamspot/booking-backend/internal/middleware"
	"github.com/glamspot/booking-backend/internal/services"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// statusForError maps a service error to an HTTP status.
// gatewayStatus is used for upstream gateway rejections.
func statusForError(err error, gatewayStatus int) int {
	var gwErr *services.GatewayError
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.As(err, &gwErr):
		return gatewayStatus
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body for err. Unexpected failures are
// logged and carry the error text in details.
func respondError(c *gin.Context, logger *logrus.Logger, operation string, err error, gatewayStatus int) {
	writeError(c, logger, operation, err, gatewayStatus, gin.H{})
}

// respondFailure is respondError for endpoints whose failure body always
// carries success:false
func respondFailure(c *gin.Context, logger *logrus.Logger, operation string, err error, gatewayStatus int) {
	writeError(c, logger, operation, err, gatewayStatus, gin.H{"success": false})
}

func writeError(c *gin.Context, logger *logrus.Logger, operation string, err error, gatewayStatus int, body gin.H) {
	status := statusForError(err, gatewayStatus)
	if status == http.StatusInternalServerError {
		logger.WithError(err).WithField("operation", operation).Error("Request failed")
		body["error"] = operation + " failed"
		body["details"] = err.Error()
		c.JSON(status, body)
		return
	}

	var gwErr *services.GatewayError
	if errors.As(err, &gwErr) {
		logger.WithError(err).WithFields(logrus.Fields{
			"operation":      operation,
			"gateway_status": gwErr.StatusCode,
			"gateway_code":   gwErr.Code,
		}).Warn("Payment gateway rejected request")
		body["success"] = false
	}

	body["error"] = err.Error()
	c.JSON(status, body)
}

// requireUser returns the authenticated caller or writes a 401
func requireUser(c *gin.Context) (middleware.UserContext, bool) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return middleware.UserContext{}, false
	}
	return userCtx, true
}

// actorFrom converts the JWT caller into a service actor
func actorFrom(userCtx middleware.UserContext) services.Actor {
	return services.Actor{UserID: userCtx.UserID, IsAdmin: userCtx.IsAdmin()}
}

// parseIDParam reads a uuid path parameter or writes a 400
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
