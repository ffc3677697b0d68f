package constraints

import (
	"fmt"
	"math"

	"github.com/dd0wney/campusnav/pkg/campus"
)

// DefaultShortSegmentM is the edge length below which an edge is suspicious,
// usually a double click in the editor.
const DefaultShortSegmentM = 1.0

// SettingsConstraint checks the calibration and walking model
type SettingsConstraint struct{}

// Name returns the constraint name
func (sc *SettingsConstraint) Name() string {
	return "Settings"
}

// Validate rejects non-positive or non-finite settings
func (sc *SettingsConstraint) Validate(doc *campus.Document) ([]Violation, error) {
	var violations []Violation
	checks := []struct {
		field string
		value float64
	}{
		{"px_per_meter", doc.Settings.PxPerMeter},
		{"walking_speed_mps", doc.Settings.WalkingSpeedMPS},
	}
	for _, c := range checks {
		if err := campus.CheckPositive(c.field, c.value); err != nil {
			violations = append(violations, Violation{
				Type:       InvalidSettings,
				Severity:   Error,
				Constraint: sc.Name(),
				Message:    err.Error(),
				Details:    map[string]any{"field": c.field},
			})
		}
	}
	return violations, nil
}

// ShortSegmentConstraint reports edges shorter than MinLengthM meters
type ShortSegmentConstraint struct {
	MinLengthM float64 // 0 uses DefaultShortSegmentM
}

// Name returns the constraint name
func (sc *ShortSegmentConstraint) Name() string {
	return fmt.Sprintf("ShortSegment(<%gm)", sc.threshold())
}

func (sc *ShortSegmentConstraint) threshold() float64 {
	if sc.MinLengthM <= 0 {
		return DefaultShortSegmentM
	}
	return sc.MinLengthM
}

// Validate checks the stored length_m of every edge. Self-loops are
// reported too since they have zero length.
func (sc *ShortSegmentConstraint) Validate(doc *campus.Document) ([]Violation, error) {
	limit := sc.threshold()
	var violations []Violation
	for _, e := range doc.Edges {
		if e.LengthM >= limit {
			continue
		}
		violations = append(violations, Violation{
			Type:       ShortSegment,
			Severity:   Warning,
			EdgeID:     e.ID,
			Constraint: sc.Name(),
			Message:    fmt.Sprintf("Edge %s is only %.2fm long", e.ID, e.LengthM),
			Details: map[string]any{
				"length_m":  e.LengthM,
				"threshold": limit,
			},
		})
	}
	return violations, nil
}

// LengthConsistencyConstraint reports edges whose stored lengths disagree
// with their endpoint coordinates or the calibration.
type LengthConsistencyConstraint struct{}

// Name returns the constraint name
func (lc *LengthConsistencyConstraint) Name() string {
	return "LengthConsistency"
}

const (
	pxTolerance  = 0.5
	relTolerance = 1e-6
)

// Validate recomputes both lengths of every edge with existing endpoints
func (lc *LengthConsistencyConstraint) Validate(doc *campus.Document) ([]Violation, error) {
	k := doc.Settings.PxPerMeter
	if campus.CheckPositive("px_per_meter", k) != nil {
		// SettingsConstraint reports this
		return nil, nil
	}

	nodes := make(map[string]*campus.Node, len(doc.Nodes))
	for i := range doc.Nodes {
		nodes[doc.Nodes[i].ID] = &doc.Nodes[i]
	}

	var violations []Violation
	for _, e := range doc.Edges {
		from, okFrom := nodes[e.From]
		to, okTo := nodes[e.To]
		if !okFrom || !okTo {
			continue
		}
		px := campus.Distance(from.X, from.Y, to.X, to.Y)
		m := e.LengthPx / k
		if math.Abs(px-e.LengthPx) <= pxTolerance && math.Abs(m-e.LengthM) <= relTolerance*math.Max(1, m) {
			continue
		}
		violations = append(violations, Violation{
			Type:       StaleLength,
			Severity:   Warning,
			EdgeID:     e.ID,
			Constraint: lc.Name(),
			Message:    fmt.Sprintf("Edge %s lengths are out of date", e.ID),
			Details: map[string]any{
				"length_px":          e.LengthPx,
				"expected_length_px": px,
				"length_m":           e.LengthM,
				"expected_length_m":  px / k,
			},
		})
	}
	return violations, nil
}
