package api

import (
	"net/http"
	"strings"

	"chesswager/service"

	"github.com/gin-gonic/gin"
)

// SettlementHandler serves settlement record lookups
type SettlementHandler struct {
	audit service.AuditService
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(audit service.AuditService) *SettlementHandler {
	return &SettlementHandler{audit: audit}
}

// GetByLink returns the record that claimed the given game link
func (h *SettlementHandler) GetByLink(c *gin.Context) {
	link := strings.TrimSpace(c.Query("link"))
	if link == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "link query parameter is required"})
		return
	}

	record, err := h.audit.GetSettlementByLink(c.Request.Context(), link)
	if err != nil {
		writeError(c, err)
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no settlement record for link"})
		return
	}
	c.JSON(http.StatusOK, record)
}
