package routing

import "github.com/dd0wney/campusnav/pkg/campus"

// CostFunction turns an edge into a traversal time in seconds.
// ok is false when the edge is excluded from routing.
type CostFunction interface {
	Time(e *campus.Edge, s campus.Settings, overrides map[string]struct{}) (seconds float64, ok bool)
}

// CostFunc adapts a plain function to CostFunction
type CostFunc func(e *campus.Edge, s campus.Settings, overrides map[string]struct{}) (float64, bool)

// Time calls f
func (f CostFunc) Time(e *campus.Edge, s campus.Settings, overrides map[string]struct{}) (float64, bool) {
	return f(e, s, overrides)
}

// WalkingTime is the default cost: walking time plus terrain penalties,
// never negative.
var WalkingTime CostFunction = CostFunc(walkingTime)

func walkingTime(e *campus.Edge, s campus.Settings, overrides map[string]struct{}) (float64, bool) {
	raw, ok := RawTime(e, s, overrides)
	if !ok {
		return 0, false
	}
	return max(raw, 0), true
}

// RawTime is the unclamped walking time. A large negative covered bonus can
// make it negative, which Dijkstra must never see.
func RawTime(e *campus.Edge, s campus.Settings, overrides map[string]struct{}) (float64, bool) {
	if e.Flags.Blocked {
		return 0, false
	}
	if _, blocked := overrides[e.ID]; blocked {
		return 0, false
	}

	t := e.LengthM/s.WalkingSpeedMPS + e.PenaltyS
	if e.Flags.Stairs {
		t += s.Penalties.StairsS
	}
	if e.Flags.Steep {
		t += s.Penalties.SteepS
	}
	if e.Flags.Covered {
		t += s.Penalties.CoveredS
	}
	return t, true
}

// AvoidStairs wraps a cost function and excludes every stairs edge
func AvoidStairs(next CostFunction) CostFunction {
	return CostFunc(func(e *campus.Edge, s campus.Settings, overrides map[string]struct{}) (float64, bool) {
		if e.Flags.Stairs {
			return 0, false
		}
		return next.Time(e, s, overrides)
	})
}

// AccessibleOnly wraps a cost function and excludes edges not flagged
// accessible.
func AccessibleOnly(next CostFunction) CostFunction {
	return CostFunc(func(e *campus.Edge, s campus.Settings, overrides map[string]struct{}) (float64, bool) {
		if !e.Flags.Accessible {
			return 0, false
		}
		return next.Time(e, s, overrides)
	})
}

// Preferences are the restrictions a route request may ask for
type Preferences struct {
	AvoidStairs    bool
	AccessibleOnly bool
}

// Cost wraps base with the exclusions p asks for
func (p Preferences) Cost(base CostFunction) CostFunction {
	c := base
	if p.AvoidStairs {
		c = AvoidStairs(c)
	}
	if p.AccessibleOnly {
		c = AccessibleOnly(c)
	}
	return c
}
