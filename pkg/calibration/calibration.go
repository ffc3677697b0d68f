// Package calibration derives the pixel-to-meter ratio of a campus map from
// a measured reference segment.
package calibration

import (
	"github.com/dd0wney/campusnav/pkg/campus"
)

// Point is a pixel position picked on the map
type Point struct {
	X float64 `json:"x" validate:"min=0"`
	Y float64 `json:"y" validate:"min=0"`
}

// Ratio returns px_per_meter for two map points known to be knownMeters
// apart.
func Ratio(p1, p2 Point, knownMeters float64) (float64, error) {
	if err := campus.CheckPositive("known_meters", knownMeters); err != nil {
		return 0, err
	}
	px := campus.Distance(p1.X, p1.Y, p2.X, p2.Y)
	if px == 0 {
		return 0, &campus.InvalidCalibrationError{
			Field:  "reference_points",
			Value:  px,
			Reason: "points coincide",
		}
	}
	ratio := px / knownMeters
	if err := campus.CheckPositive("px_per_meter", ratio); err != nil {
		return 0, err
	}
	return ratio, nil
}

// FromTwoPoints calibrates g from a reference segment and returns the new
// ratio. Every edge's length_m is recomputed; length_px is unchanged.
func FromTwoPoints(g *campus.Graph, p1, p2 Point, knownMeters float64) (float64, error) {
	ratio, err := Ratio(p1, p2, knownMeters)
	if err != nil {
		return 0, err
	}
	if err := g.SetCalibration(ratio); err != nil {
		return 0, err
	}
	return ratio, nil
}
