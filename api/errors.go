package api

import (
	"errors"
	"net/http"

	"chesswager/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrWagerNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrPreconditionFailed), errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrTransientFetch):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithField("path", c.FullPath()).WithError(err).Error("Request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
