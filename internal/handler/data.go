package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"swarm/internal/repository"
)

// DataHandler serves the persisted state: positions, the scored-token
// cache, narratives, and the trade ledger.
type DataHandler struct {
	Repo repository.Repository
}

func (h *DataHandler) Register(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/positions", h.positions)
	api.GET("/positions/:id", h.position)
	api.GET("/tokens", h.tokens)
	api.GET("/narratives", h.narratives)
	api.GET("/history", h.history)
}

func (h *DataHandler) positions(c *gin.Context) {
	params := repository.ListPositionsParams{
		Limit:   intQuery(c, "limit", 100),
		Offset:  intQuery(c, "offset", 0),
		OrderBy: "entry_time",
	}
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		status := strings.ToUpper(v)
		params.Status = &status
	}
	items, err := h.Repo.ListPositions(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *DataHandler) position(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetPositionByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "position not found", nil)
		return
	}
	Ok(c, item, nil)
}

func (h *DataHandler) tokens(c *gin.Context) {
	params := repository.ListScannedTokensParams{
		Limit:  intQuery(c, "limit", 100),
		Offset: intQuery(c, "offset", 0),
	}
	if v := strings.TrimSpace(c.Query("signal")); v != "" {
		signal := strings.ToUpper(v)
		params.Signal = &signal
	}
	items, err := h.Repo.ListScannedTokens(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *DataHandler) narratives(c *gin.Context) {
	items, err := h.Repo.ListNarratives(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *DataHandler) history(c *gin.Context) {
	params := repository.ListTradeHistoryParams{
		Limit:  intQuery(c, "limit", 100),
		Offset: intQuery(c, "offset", 0),
	}
	if v := strings.TrimSpace(c.Query("token")); v != "" {
		params.TokenAddress = &v
	}
	if v := strings.TrimSpace(c.Query("side")); v != "" {
		side := strings.ToUpper(v)
		params.Side = &side
	}
	items, err := h.Repo.ListTradeHistory(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}
