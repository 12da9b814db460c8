package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Swarm  SwarmConfig  `mapstructure:"swarm"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// SwarmConfig is the full run configuration of the orchestrator. It is
// immutable for the lifetime of a run: POST /api/start snapshots it and the
// resulting orchestrator instance never re-reads it.
type SwarmConfig struct {
	ReasoningAPIKey  string        `mapstructure:"reasoning_api_key" json:"reasoningApiKey"`
	ReasoningBaseURL string        `mapstructure:"reasoning_base_url" json:"reasoningBaseUrl"`
	ReasoningModel   string        `mapstructure:"reasoning_model" json:"reasoningModel"`
	RPCEndpoint      string        `mapstructure:"rpc_endpoint" json:"rpcEndpoint"`
	MarketBaseURL    string        `mapstructure:"market_base_url" json:"marketBaseUrl"`
	SwapBaseURL      string        `mapstructure:"swap_base_url" json:"swapBaseUrl"`
	WalletAddress    string        `mapstructure:"wallet_address" json:"walletAddress"`
	WalletPrivateKey string        `mapstructure:"wallet_private_key" json:"-"`
	MaxPositionSol   float64       `mapstructure:"max_position_sol" json:"maxPositionSol"`
	StopLossPct      float64       `mapstructure:"stop_loss_pct" json:"stopLossPct"`
	TakeProfitPct    float64       `mapstructure:"take_profit_pct" json:"takeProfitPct"`
	MaxConcurrent    int           `mapstructure:"max_concurrent_trades" json:"maxConcurrentTrades"`
	MinScoreToTrade  float64       `mapstructure:"min_score_to_trade" json:"minScoreToTrade"`
	ScanInterval     time.Duration `mapstructure:"scan_interval" json:"scanInterval"`
	SlippageBps      int           `mapstructure:"slippage_bps" json:"slippageBps"`
}

var (
	ErrMissingEndpoint = errors.New("config: rpc endpoint is required")
	ErrMissingAPIKey   = errors.New("config: reasoning api key is required")
)

// Validate checks the fields the orchestrator cannot run without. A wallet is
// deliberately not required: without one the swarm scans and scores but never
// trades.
func (c SwarmConfig) Validate() error {
	if strings.TrimSpace(c.RPCEndpoint) == "" {
		return ErrMissingEndpoint
	}
	if strings.TrimSpace(c.ReasoningAPIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func (c SwarmConfig) HasWallet() bool {
	return strings.TrimSpace(c.WalletAddress) != "" && strings.TrimSpace(c.WalletPrivateKey) != ""
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SWARM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")

	v.SetDefault("swarm.reasoning_base_url", "https://api.openai.com/v1")
	v.SetDefault("swarm.reasoning_model", "gpt-4o-mini")
	v.SetDefault("swarm.market_base_url", "https://api.dexscreener.com")
	v.SetDefault("swarm.swap_base_url", "http://localhost:9300")
	v.SetDefault("swarm.max_position_sol", 0.1)
	v.SetDefault("swarm.stop_loss_pct", 30)
	v.SetDefault("swarm.take_profit_pct", 100)
	v.SetDefault("swarm.max_concurrent_trades", 3)
	v.SetDefault("swarm.min_score_to_trade", 75)
	v.SetDefault("swarm.scan_interval", "60s")
	v.SetDefault("swarm.slippage_bps", 300)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
