package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"swarm/internal/agent"
	"swarm/internal/config"
	"swarm/internal/hub"
	"swarm/internal/orchestrator"
)

// SwarmHandler controls the orchestrator lifecycle and serves the agent
// status table.
type SwarmHandler struct {
	Manager *orchestrator.Manager
	Agents  *agent.Registry
	Hub     *hub.Hub
}

func (h *SwarmHandler) Register(r *gin.Engine) {
	api := r.Group("/api")
	api.POST("/start", h.start)
	api.POST("/stop", h.stop)
	api.GET("/status", h.status)
}

// startRequest carries optional per-run tuning. Absent fields fall back to
// the loaded config.
type startRequest struct {
	MaxPositionSol  *float64 `json:"maxPositionSol"`
	StopLossPct     *float64 `json:"stopLossPct"`
	TakeProfitPct   *float64 `json:"takeProfitPct"`
	MaxConcurrent   *int     `json:"maxConcurrentTrades"`
	MinScoreToTrade *float64 `json:"minScoreToTrade"`
	ScanIntervalSec *int     `json:"scanIntervalSec"`
	SlippageBps     *int     `json:"slippageBps"`
}

func (h *SwarmHandler) start(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
			return
		}
	}
	err := h.Manager.Start(c.Request.Context(), func(cfg *config.SwarmConfig) {
		if req.MaxPositionSol != nil {
			cfg.MaxPositionSol = *req.MaxPositionSol
		}
		if req.StopLossPct != nil {
			cfg.StopLossPct = *req.StopLossPct
		}
		if req.TakeProfitPct != nil {
			cfg.TakeProfitPct = *req.TakeProfitPct
		}
		if req.MaxConcurrent != nil {
			cfg.MaxConcurrent = *req.MaxConcurrent
		}
		if req.MinScoreToTrade != nil {
			cfg.MinScoreToTrade = *req.MinScoreToTrade
		}
		if req.ScanIntervalSec != nil && *req.ScanIntervalSec > 0 {
			cfg.ScanInterval = time.Duration(*req.ScanIntervalSec) * time.Second
		}
		if req.SlippageBps != nil {
			cfg.SlippageBps = *req.SlippageBps
		}
	})
	switch {
	case errors.Is(err, orchestrator.ErrAlreadyRunning):
		Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, config.ErrMissingEndpoint), errors.Is(err, config.ErrMissingAPIKey):
		Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
	case err != nil:
		Error(c, http.StatusInternalServerError, err.Error(), nil)
	default:
		Ok(c, gin.H{"running": true, "agents": h.Agents.Snapshot()}, nil)
	}
}

func (h *SwarmHandler) stop(c *gin.Context) {
	if err := h.Manager.Stop(); err != nil {
		if errors.Is(err, orchestrator.ErrNotRunning) {
			Error(c, http.StatusConflict, err.Error(), nil)
			return
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"running": false}, nil)
}

func (h *SwarmHandler) status(c *gin.Context) {
	Ok(c, gin.H{
		"running": h.Manager.Running(),
		"agents":  h.Agents.Snapshot(),
		"clients": h.Hub.Subscribers(),
	}, nil)
}
