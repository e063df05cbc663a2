package api

import (
	"fmt"
	"net/http"
	"strconv"

	"chesswager/models"
	"chesswager/service"

	"github.com/gin-gonic/gin"
)

// WagerHandler serves per-wager operations
type WagerHandler struct {
	resolution service.ResolutionService
	settlement service.SettlementService
	audit      service.AuditService
}

// NewWagerHandler creates a new wager handler
func NewWagerHandler(resolution service.ResolutionService, settlement service.SettlementService, audit service.AuditService) *WagerHandler {
	return &WagerHandler{resolution: resolution, settlement: settlement, audit: audit}
}

// SettleRequest is the body of a manual settlement
type SettleRequest struct {
	Outcome models.Outcome `json:"outcome" binding:"required"`
}

// Resolve runs the reconciliation pipeline for one wager
func (h *WagerHandler) Resolve(c *gin.Context) {
	wagerID, ok := wagerIDParam(c)
	if !ok {
		return
	}

	result, err := h.resolution.ResolveWager(c.Request.Context(), wagerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Settle applies an operator-chosen outcome
func (h *WagerHandler) Settle(c *gin.Context) {
	wagerID, ok := wagerIDParam(c)
	if !ok {
		return
	}

	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	receipt, err := h.settlement.SettleWager(c.Request.Context(), wagerID, req.Outcome)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// Ledger lists the ledger entries written for a wager
func (h *WagerHandler) Ledger(c *gin.Context) {
	wagerID, ok := wagerIDParam(c)
	if !ok {
		return
	}

	entries, err := h.audit.GetLedgerByWager(c.Request.Context(), wagerID)
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []*models.LedgerEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"wager_id": wagerID, "entries": entries})
}

func wagerIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wager id must be a positive integer"})
		return 0, false
	}
	return id, true
}
