package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"swarm/internal/executor"
	"swarm/internal/models"
	"swarm/internal/orchestrator"
)

// TradeHandler routes manual trades through the live run's executor so the
// max-open and duplicate-position checks apply to humans too.
type TradeHandler struct {
	Manager *orchestrator.Manager
}

func (h *TradeHandler) Register(r *gin.Engine) {
	api := r.Group("/api")
	api.POST("/buy", h.buy)
	api.POST("/sell", h.sell)
}

type buyRequest struct {
	TokenAddress string  `json:"tokenAddress" binding:"required"`
	SolAmount    float64 `json:"solAmount"`
}

type sellRequest struct {
	PositionID uint64 `json:"positionId" binding:"required"`
}

func (h *TradeHandler) buy(c *gin.Context) {
	run := h.Manager.Current()
	if run == nil {
		Error(c, http.StatusConflict, orchestrator.ErrNotRunning.Error(), nil)
		return
	}
	var req buyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	addr := strings.TrimSpace(req.TokenAddress)
	token, err := run.Market.ByAddress(c.Request.Context(), addr)
	if err != nil {
		Error(c, http.StatusBadGateway, "token lookup: "+err.Error(), nil)
		return
	}
	if token == nil {
		Error(c, http.StatusNotFound, "token not found", nil)
		return
	}
	outcome, err := run.Exec.Buy(c.Request.Context(), executor.BuyRequest{
		Token:     *token,
		Narrative: "Manual",
		SolAmount: decimal.NewFromFloat(req.SolAmount),
	})
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, outcome, nil)
}

func (h *TradeHandler) sell(c *gin.Context) {
	run := h.Manager.Current()
	if run == nil {
		Error(c, http.StatusConflict, orchestrator.ErrNotRunning.Error(), nil)
		return
	}
	var req sellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	outcome, err := run.Exec.Sell(c.Request.Context(), req.PositionID, models.PositionClosed)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if outcome.Skipped == executor.SkipNotFound {
		Error(c, http.StatusNotFound, "position not found", nil)
		return
	}
	Ok(c, outcome, nil)
}
