package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"swarm/internal/gateway"
	"swarm/internal/logbuf"
)

// MarketHandler serves ad-hoc lookups that work whether or not a run is
// live: token search, wallet balance, and the recent log tail.
type MarketHandler struct {
	Market gateway.MarketDataGateway
	Wallet gateway.WalletGateway
	Logs   *logbuf.Buffer
}

func (h *MarketHandler) Register(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/search", h.search)
	api.GET("/balance", h.balance)
	api.GET("/logs", h.logs)
}

func (h *MarketHandler) search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		Error(c, http.StatusBadRequest, "q is required", nil)
		return
	}
	tokens, err := h.Market.Search(c.Request.Context(), q)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, tokens, nil)
}

func (h *MarketHandler) balance(c *gin.Context) {
	if h.Wallet == nil {
		Error(c, http.StatusUnprocessableEntity, "no wallet configured", nil)
		return
	}
	sol, err := h.Wallet.Balance(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"sol": sol}, nil)
}

func (h *MarketHandler) logs(c *gin.Context) {
	if h.Logs == nil {
		Ok(c, []logbuf.Entry{}, nil)
		return
	}
	Ok(c, h.Logs.Recent(intQuery(c, "limit", 100)), nil)
}
