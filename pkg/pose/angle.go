package pose

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

//LegSelection chooses which knee angle drives the repetition state machine
type LegSelection string

const (
	//LeftOnly uses the left hip-knee-ankle angle
	LeftOnly LegSelection = "left_only"
	//MinOfBoth uses the smaller of both knee angles (the deeper bent leg), tolerating an imperfect camera angle
	MinOfBoth LegSelection = "min_of_both"
)

//Valid reports whether l is a known leg selection mode
func (l LegSelection) Valid() bool {
	return l == LeftOnly || l == MinOfBoth
}

//Angle returns the interior angle at b formed by a-b-c in degrees, in [0, 180].
//It returns NaN when a or c coincides with b (no direction to measure from).
func Angle(a, b, c r2.Vec) float64 {
	ba, bc := r2.Sub(a, b), r2.Sub(c, b)
	if ba == (r2.Vec{}) || bc == (r2.Vec{}) {
		return math.NaN()
	}

	radians := math.Atan2(bc.Y, bc.X) - math.Atan2(ba.Y, ba.X)
	angle := math.Abs(radians * 180.0 / math.Pi)
	if angle > 180 {
		angle = 360 - angle
	}

	return angle
}

func point(lm Landmark) r2.Vec {
	return r2.Vec{X: lm.X, Y: lm.Y}
}

//legAngle returns hip-knee-ankle angle of one leg
func legAngle(obs Observation, hip, knee, ankle Name) float64 {
	h, okH := obs[hip]
	k, okK := obs[knee]
	a, okA := obs[ankle]
	if !okH || !okK || !okA {
		return math.NaN()
	}

	return Angle(point(h), point(k), point(a))
}

//KneeAngle returns the knee angle used for repetition segmentation. ok is false when there is no confident
//angle: no pose, a missing leg landmark or degenerate (coincident) points.
func KneeAngle(obs Observation, leg LegSelection) (angle float64, ok bool) {
	if !obs.Detected() {
		return 0, false
	}

	left := legAngle(obs, LeftHip, LeftKnee, LeftAnkle)
	switch leg {
	case MinOfBoth:
		right := legAngle(obs, RightHip, RightKnee, RightAnkle)
		angle = math.Min(left, right) //NaN if either is NaN
	default:
		angle = left
	}

	if math.IsNaN(angle) {
		return 0, false
	}

	return angle, true
}
