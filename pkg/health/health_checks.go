package health

import (
	"context"
	"time"
)

// SnapshotState describes the routing snapshot currently served
type SnapshotState struct {
	Loaded      bool
	Fingerprint string
	Source      string
	LoadedAt    time.Time
	Nodes       int
	Buildings   int
}

// SnapshotCheck reports unhealthy until a snapshot is loaded, and degraded
// when the snapshot has no buildings to route between.
func SnapshotCheck(getState func() SnapshotState) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "snapshot",
			Details: make(map[string]any),
		}

		state := getState()
		if !state.Loaded {
			check.Status = StatusUnhealthy
			check.Message = "No snapshot loaded"
			return check
		}

		check.Details["fingerprint"] = state.Fingerprint
		check.Details["source"] = state.Source
		check.Details["loaded_at"] = state.LoadedAt
		check.Details["nodes"] = state.Nodes
		check.Details["buildings"] = state.Buildings

		if state.Buildings == 0 {
			check.Status = StatusDegraded
			check.Message = "Snapshot has no buildings"
		} else {
			check.Status = StatusHealthy
			check.Message = "Snapshot loaded"
		}
		return check
	}
}

// StoreCheck creates a health check for snapshot store connectivity.
// A nil ping means the store has no connection to check.
func StoreCheck(kind string, ping func(ctx context.Context) error, timeout time.Duration) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "store",
			Details: map[string]any{"kind": kind},
		}

		if ping == nil {
			check.Status = StatusHealthy
			check.Message = "No connection to check"
			return check
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Connected"
		}

		return check
	}
}

// MemoryCheck creates a health check for memory usage
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()

		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		if sys == 0 {
			check.Status = StatusHealthy
			check.Message = "Memory usage unknown"
			return check
		}

		// Consider degraded if allocated memory > 90% of system memory
		usagePercent := float64(alloc) / float64(sys) * 100

		if usagePercent > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}
