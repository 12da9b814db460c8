package orchestrator

import (
	"context"
	"errors"
	"sync"

	"swarm/internal/config"
	"swarm/internal/executor"
	"swarm/internal/gateway"
)

var (
	ErrAlreadyRunning = errors.New("swarm already running")
	ErrNotRunning     = errors.New("swarm not running")
)

// Run bundles one orchestrator instance with the handles the HTTP layer
// needs while that instance is live. Manual buys and sells go through the
// same executor as the agents so every invariant check applies to them too.
type Run struct {
	Orch   *Orchestrator
	Exec   *executor.Executor
	Market gateway.MarketDataGateway
	Wallet gateway.WalletGateway
	Config config.SwarmConfig
}

// Builder constructs a fresh run for the merged config. Called under the
// manager lock, once per start.
type Builder func(cfg config.SwarmConfig) (*Run, error)

// Manager serializes start/stop requests and holds the active run.
type Manager struct {
	mu      sync.Mutex
	build   Builder
	base    config.SwarmConfig
	current *Run
}

func NewManager(build Builder, base config.SwarmConfig) *Manager {
	return &Manager{build: build, base: base}
}

// Start merges overrides onto the base config, builds a fresh run, and
// starts it. A run that fails to start is discarded entirely.
func (m *Manager) Start(ctx context.Context, overrides func(*config.SwarmConfig)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.Orch.Running() {
		return ErrAlreadyRunning
	}
	cfg := m.base
	if overrides != nil {
		overrides(&cfg)
	}
	run, err := m.build(cfg)
	if err != nil {
		return err
	}
	if err := run.Orch.Start(ctx); err != nil {
		return err
	}
	m.current = run
	return nil
}

func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || !m.current.Orch.Running() {
		return ErrNotRunning
	}
	m.current.Orch.Stop()
	m.current = nil
	return nil
}

func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && m.current.Orch.Running()
}

// Current returns the live run, or nil when stopped.
func (m *Manager) Current() *Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || !m.current.Orch.Running() {
		return nil
	}
	return m.current
}
