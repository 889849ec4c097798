//Package posetest builds synthetic pose observations for tests
package posetest

import (
	"math"

	"github.com/chenBenjamin97/squat-checker/pkg/pose"
)

const segment = 0.2

//Squat returns a fully visible observation whose knees are both bent to given angle (degrees).
//Every landmark's z is set to tag, so observations built with different tags give distinct keypoint vectors.
func Squat(angle, tag float64) pose.Observation {
	return Legs(angle, angle, tag)
}

//Legs is like Squat with a different angle for each knee
func Legs(leftAngle, rightAngle, tag float64) pose.Observation {
	obs := make(pose.Observation, pose.NumLandmarks)
	for n := pose.Name(0); n < pose.NumLandmarks; n++ {
		obs[n] = pose.Landmark{X: 0.5, Y: 0.2, Z: tag, Visibility: 1}
	}

	setLeg(obs, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle, pose.LeftHeel, pose.LeftFootIndex, 0.4, leftAngle, tag)
	setLeg(obs, pose.RightHip, pose.RightKnee, pose.RightAnkle, pose.RightHeel, pose.RightFootIndex, 0.6, rightAngle, tag)
	return obs
}

func setLeg(obs pose.Observation, hip, knee, ankle, heel, foot pose.Name, x, angle, tag float64) {
	rad := angle * math.Pi / 180
	kx, ky := x, 0.5
	ax, ay := kx+segment*math.Sin(rad), ky-segment*math.Cos(rad)

	obs[knee] = pose.Landmark{X: kx, Y: ky, Z: tag, Visibility: 1}
	obs[hip] = pose.Landmark{X: kx, Y: ky - segment, Z: tag, Visibility: 1}
	obs[ankle] = pose.Landmark{X: ax, Y: ay, Z: tag, Visibility: 1}
	obs[heel] = pose.Landmark{X: ax, Y: ay + 0.02, Z: tag, Visibility: 1}
	obs[foot] = pose.Landmark{X: ax + 0.05, Y: ay + 0.02, Z: tag, Visibility: 1}
}

//Occluded returns a copy of obs with given landmark's visibility lowered to v
func Occluded(obs pose.Observation, name pose.Name, v float64) pose.Observation {
	c := make(pose.Observation, len(obs))
	for k, lm := range obs {
		c[k] = lm
	}
	lm := c[name]
	lm.Visibility = v
	c[name] = lm
	return c
}
