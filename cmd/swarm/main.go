package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"swarm/internal/agent"
	"swarm/internal/client/dexscreener"
	"swarm/internal/client/reasoning"
	"swarm/internal/client/solana"
	"swarm/internal/client/swapapi"
	"swarm/internal/config"
	"swarm/internal/db"
	"swarm/internal/executor"
	"swarm/internal/gateway"
	"swarm/internal/handler"
	"swarm/internal/hub"
	"swarm/internal/logbuf"
	"swarm/internal/logger"
	"swarm/internal/observability"
	"swarm/internal/orchestrator"
	"swarm/internal/priceupdate"
	gormrepository "swarm/internal/repository/gorm"
	"swarm/internal/risk"
)

func main() {
	// Optional .env for local development; real deployments use the
	// environment directly.
	_ = godotenv.Load()

	cfgPath := os.Getenv("SWARM_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	envOnly := false
	if raw := os.Getenv("SWARM_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	logRing := logbuf.New(500)
	log = logger.WithBuffer(log, logRing)

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	eventHub := hub.New(log)
	metrics := observability.NewMetrics("swarm")
	agents := agent.NewRegistry()

	// Every captured log line is also pushed to websocket clients.
	logRing.OnEntry(func(e logbuf.Entry) {
		eventHub.Publish(hub.EventLog, e)
	})

	httpClient := &http.Client{Timeout: 30 * time.Second}

	// Run-independent handles for ad-hoc lookups. Per-run copies are built
	// by the manager so start overrides take effect.
	staticMarket := dexscreener.NewClient(httpClient, cfg.Swarm.MarketBaseURL)
	var staticWallet gateway.WalletGateway
	if cfg.Swarm.HasWallet() && cfg.Swarm.RPCEndpoint != "" {
		if w, err := solana.NewClient(httpClient, cfg.Swarm.RPCEndpoint, cfg.Swarm.WalletAddress); err != nil {
			log.Warn("wallet client init failed, balance endpoint disabled", zap.Error(err))
		} else {
			staticWallet = w
		}
	}

	builder := func(runCfg config.SwarmConfig) (*orchestrator.Run, error) {
		market := dexscreener.NewClient(httpClient, runCfg.MarketBaseURL)
		reason := reasoning.NewClient(httpClient, runCfg.ReasoningBaseURL, runCfg.ReasoningAPIKey, runCfg.ReasoningModel)

		var wallet gateway.WalletGateway
		var swap gateway.SwapGateway
		if runCfg.HasWallet() {
			w, err := solana.NewClient(httpClient, runCfg.RPCEndpoint, runCfg.WalletAddress)
			if err != nil {
				return nil, err
			}
			wallet = w
			swap = swapapi.NewClient(httpClient, runCfg.SwapBaseURL, runCfg.WalletAddress)
		}

		exec := &executor.Executor{
			Repo:    store,
			Swap:    swap,
			Wallet:  wallet,
			Logger:  log,
			Hub:     eventHub,
			Metrics: metrics,
			Config:  runCfg,
		}
		orch := orchestrator.New(orchestrator.Deps{
			Config: runCfg,
			Agents: agents,
			Narrative: &agent.NarrativeScanner{
				Repo:      store,
				Market:    market,
				Reasoning: reason,
				Logger:    log,
			},
			Hunter: &agent.Hunter{
				Repo:      store,
				Market:    market,
				Reasoning: reason,
				Exec:      exec,
				Logger:    log,
				Metrics:   metrics,
				Config:    runCfg,
			},
			Risk: &risk.Manager{
				Repo:    store,
				Market:  market,
				Wallet:  wallet,
				Exec:    exec,
				Logger:  log,
				Metrics: metrics,
				Config:  runCfg,
			},
			Prices: &priceupdate.Updater{
				Repo:   store,
				Market: market,
				Logger: log,
			},
			Hub:     eventHub,
			Metrics: metrics,
			Logger:  log,
		})
		return &orchestrator.Run{
			Orch:   orch,
			Exec:   exec,
			Market: market,
			Wallet: wallet,
			Config: runCfg,
		}, nil
	}
	manager := orchestrator.NewManager(builder, cfg.Swarm)

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	(&handler.HealthHandler{DB: dbConn.Gorm}).Register(engine)
	(&handler.SwarmHandler{Manager: manager, Agents: agents, Hub: eventHub}).Register(engine)
	(&handler.TradeHandler{Manager: manager}).Register(engine)
	(&handler.DataHandler{Repo: store}).Register(engine)
	(&handler.MarketHandler{Market: staticMarket, Wallet: staticWallet, Logs: logRing}).Register(engine)
	(&handler.WSHandler{Hub: eventHub, Agents: agents, Manager: manager, Logs: logRing, Logger: log}).Register(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	if err := manager.Stop(); err == nil {
		log.Info("swarm stopped for shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
