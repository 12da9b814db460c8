package agent

import (
	"sync"
	"time"
)

const (
	StatusIdle    = "idle"
	StatusRunning = "running"
	StatusError   = "error"
	StatusWaiting = "waiting"
)

// Core agent ids. Watcher and sentiment are placeholders surfaced in the
// status table but not scheduled.
const (
	AgentNarrative = "narrative"
	AgentHunter    = "hunter"
	AgentRisk      = "risk"
	AgentExecutor  = "executor"
	AgentWatcher   = "watcher"
	AgentSentiment = "sentiment"
)

type Status struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	LastRun    time.Time `json:"lastRun"`
	LastResult string    `json:"lastResult"`
}

// Registry is the in-memory agent status table. It also owns the per-agent
// in-flight locks: a scheduled tick that cannot acquire its agent's lock is
// skipped rather than allowed to overlap a slow previous tick.
type Registry struct {
	mu       sync.RWMutex
	agents   map[string]*Status
	order    []string
	inflight map[string]*sync.Mutex
	onChange func(Status)
}

func NewRegistry() *Registry {
	r := &Registry{
		agents:   map[string]*Status{},
		inflight: map[string]*sync.Mutex{},
	}
	r.add(AgentNarrative, "Narrative Scanner")
	r.add(AgentHunter, "Token Hunter")
	r.add(AgentRisk, "Risk Manager")
	r.add(AgentExecutor, "Trade Executor")
	r.add(AgentWatcher, "Wallet Watcher")
	r.add(AgentSentiment, "Sentiment Monitor")
	return r
}

func (r *Registry) add(id, name string) {
	r.agents[id] = &Status{ID: id, Name: name, Status: StatusIdle}
	r.order = append(r.order, id)
	r.inflight[id] = &sync.Mutex{}
}

// OnChange registers a callback invoked with a copy of the row after every
// transition. Set before the orchestrator starts.
func (r *Registry) OnChange(fn func(Status)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// TryAcquire takes the agent's in-flight lock without blocking; the caller
// must Release on success.
func (r *Registry) TryAcquire(id string) bool {
	r.mu.RLock()
	mu := r.inflight[id]
	r.mu.RUnlock()
	if mu == nil {
		return false
	}
	return mu.TryLock()
}

func (r *Registry) Release(id string) {
	r.mu.RLock()
	mu := r.inflight[id]
	r.mu.RUnlock()
	if mu != nil {
		mu.Unlock()
	}
}

func (r *Registry) set(id string, fn func(*Status)) {
	r.mu.Lock()
	s, ok := r.agents[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	fn(s)
	snapshot := *s
	onChange := r.onChange
	r.mu.Unlock()
	if onChange != nil {
		onChange(snapshot)
	}
}

func (r *Registry) SetRunning(id string) {
	r.set(id, func(s *Status) {
		s.Status = StatusRunning
		s.LastRun = time.Now().UTC()
	})
}

// SetResult records a tick outcome. The agent stays running: only Stop moves
// agents back to idle.
func (r *Registry) SetResult(id, result string) {
	r.set(id, func(s *Status) {
		s.Status = StatusRunning
		s.LastResult = result
	})
}

func (r *Registry) SetError(id, msg string) {
	r.set(id, func(s *Status) {
		s.Status = StatusError
		s.LastResult = msg
	})
}

func (r *Registry) SetWaiting(id string) {
	r.set(id, func(s *Status) {
		s.Status = StatusWaiting
	})
}

// MarkAllRunning flips every core agent to running; placeholders go to
// waiting.
func (r *Registry) MarkAllRunning() {
	for _, id := range []string{AgentNarrative, AgentHunter, AgentRisk, AgentExecutor} {
		r.SetRunning(id)
	}
	r.SetWaiting(AgentWatcher)
	r.SetWaiting(AgentSentiment)
}

// ResetAll returns every agent to idle, clearing results. Called on stop.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	ids := append([]string(nil), r.order...)
	r.mu.Unlock()
	for _, id := range ids {
		r.set(id, func(s *Status) {
			s.Status = StatusIdle
			s.LastResult = ""
		})
	}
}

func (r *Registry) Snapshot() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Status, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.agents[id])
	}
	return out
}

func (r *Registry) Get(id string) (Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.agents[id]
	if !ok {
		return Status{}, false
	}
	return *s, true
}
