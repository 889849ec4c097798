package pose

import (
	"errors"
	"fmt"

	"github.com/chenBenjamin97/squat-checker/pkg/utils"
)

//ErrMissingLandmark is returned when an observation lacks one of the important keypoints
var ErrMissingLandmark = errors.New("missing landmark")

//ImportantKeypoints is the fixed order of landmarks in a keypoint vector. The model depends on this exact order.
var ImportantKeypoints = [utils.KeypointsNum]Name{
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
	LeftShoulder, RightShoulder,
	LeftHeel, RightHeel,
	LeftFootIndex, RightFootIndex,
}

//ExtractKeypoints returns the keypoint vector of given observation: (x, y, z, visibility) for each of ImportantKeypoints
func ExtractKeypoints(obs Observation) ([]float64, error) {
	vec := make([]float64, 0, utils.FeaturesNum)
	for _, name := range ImportantKeypoints {
		lm, ok := obs[name]
		if !ok {
			return nil, fmt.Errorf("ExtractKeypoints: %w %s", ErrMissingLandmark, name)
		}
		vec = append(vec, lm.X, lm.Y, lm.Z, lm.Visibility)
	}

	return vec, nil
}
