// Package health runs the campus server's health, readiness and liveness
// probes.
package health

import (
	"maps"
	"sync"
	"time"
)

// Status of one check or of a whole probe
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

var severity = map[Status]int{
	StatusHealthy:   0,
	StatusDegraded:  1,
	StatusUnhealthy: 2,
}

// Check is the result of one check
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration_ms"`
}

type CheckFunc func() Check

// Kind selects the probe a check feeds
type Kind int

const (
	KindHealth Kind = iota
	KindReadiness
	KindLiveness
	numKinds
)

// Response is the body of every probe endpoint
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version,omitempty"`
	Checks    map[string]Check `json:"checks"`
	Uptime    float64          `json:"uptime_seconds"`
}

// HealthChecker holds the registered checks. Checks run outside the
// registry lock, so a slow store ping never blocks registration.
type HealthChecker struct {
	mu        sync.RWMutex
	checks    [numKinds]map[string]CheckFunc
	version   string
	startedAt time.Time
}

type Option func(*HealthChecker)

// WithVersion reports the server build in every response
func WithVersion(v string) Option {
	return func(hc *HealthChecker) { hc.version = v }
}

func NewHealthChecker(opts ...Option) *HealthChecker {
	hc := &HealthChecker{startedAt: time.Now()}
	for k := range hc.checks {
		hc.checks[k] = make(map[string]CheckFunc)
	}
	for _, opt := range opts {
		opt(hc)
	}
	return hc
}

// Register adds or replaces the named check of a probe
func (hc *HealthChecker) Register(kind Kind, name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[kind][name] = check
}

func (hc *HealthChecker) RegisterCheck(name string, check CheckFunc) {
	hc.Register(KindHealth, name, check)
}

func (hc *HealthChecker) RegisterReadinessCheck(name string, check CheckFunc) {
	hc.Register(KindReadiness, name, check)
}

func (hc *HealthChecker) RegisterLivenessCheck(name string, check CheckFunc) {
	hc.Register(KindLiveness, name, check)
}

func (hc *HealthChecker) Check() Response          { return hc.run(KindHealth) }
func (hc *HealthChecker) CheckReadiness() Response { return hc.run(KindReadiness) }
func (hc *HealthChecker) CheckLiveness() Response  { return hc.run(KindLiveness) }

// run executes every check of kind. The worst status wins.
func (hc *HealthChecker) run(kind Kind) Response {
	hc.mu.RLock()
	checks := maps.Clone(hc.checks[kind])
	hc.mu.RUnlock()

	resp := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Version:   hc.version,
		Checks:    make(map[string]Check, len(checks)),
		Uptime:    time.Since(hc.startedAt).Seconds(),
	}
	for name, fn := range checks {
		start := time.Now()
		check := fn()
		check.Duration = time.Since(start)
		check.LastChecked = start
		resp.Checks[name] = check

		if severity[check.Status] > severity[resp.Status] {
			resp.Status = check.Status
		}
	}
	return resp
}
