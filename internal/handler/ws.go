package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"swarm/internal/agent"
	"swarm/internal/hub"
	"swarm/internal/logbuf"
	"swarm/internal/orchestrator"
)

const wsWriteTimeout = 10 * time.Second

// WSHandler streams hub events to dashboard clients. Each connection gets an
// init snapshot first, then the live feed until either side closes.
type WSHandler struct {
	Hub     *hub.Hub
	Agents  *agent.Registry
	Manager *orchestrator.Manager
	Logs    *logbuf.Buffer
	Logger  *zap.Logger
}

func (h *WSHandler) Register(r *gin.Engine) {
	r.GET("/ws", h.serve)
}

func (h *WSHandler) serve(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		// The dashboard is served from another origin in dev.
		InsecureSkipVerify: true,
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("websocket accept failed", zap.Error(err))
		}
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := c.Request.Context()
	events, cancel := h.Hub.Subscribe(256)
	defer cancel()

	var recentLogs []logbuf.Entry
	if h.Logs != nil {
		recentLogs = h.Logs.Recent(50)
	}
	init := hub.Event{
		Type: hub.EventInit,
		Data: gin.H{
			"running": h.Manager.Running(),
			"agents":  h.Agents.Snapshot(),
			"logs":    recentLogs,
		},
		Timestamp: time.Now().UTC(),
	}
	if err := h.write(ctx, conn, init); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(ctx, conn, evt); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, evt hub.Event) error {
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, evt)
}
