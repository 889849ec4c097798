//Package pose holds body landmark types and the pure per-frame computations done on them:
//knee angle estimation, the visibility gate and keypoint vector extraction. It also contains
//the pose estimator backends, which treat the landmark detector itself as an external process.
package pose

import (
	"fmt"
	"strings"
)

//Name is a landmark index following the MediaPipe pose convention
type Name int

const (
	Nose Name = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex
	NumLandmarks
)

var names = [NumLandmarks]string{
	"NOSE", "LEFT_EYE_INNER", "LEFT_EYE", "LEFT_EYE_OUTER", "RIGHT_EYE_INNER", "RIGHT_EYE", "RIGHT_EYE_OUTER",
	"LEFT_EAR", "RIGHT_EAR", "MOUTH_LEFT", "MOUTH_RIGHT", "LEFT_SHOULDER", "RIGHT_SHOULDER", "LEFT_ELBOW",
	"RIGHT_ELBOW", "LEFT_WRIST", "RIGHT_WRIST", "LEFT_PINKY", "RIGHT_PINKY", "LEFT_INDEX", "RIGHT_INDEX",
	"LEFT_THUMB", "RIGHT_THUMB", "LEFT_HIP", "RIGHT_HIP", "LEFT_KNEE", "RIGHT_KNEE", "LEFT_ANKLE",
	"RIGHT_ANKLE", "LEFT_HEEL", "RIGHT_HEEL", "LEFT_FOOT_INDEX", "RIGHT_FOOT_INDEX",
}

func (n Name) String() string {
	if n < 0 || n >= NumLandmarks {
		return fmt.Sprintf("Name(%d)", int(n))
	}
	return names[n]
}

//ParseName accepts both "LEFT_HIP" and "left_hip" spellings
func ParseName(s string) (Name, bool) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == upper {
			return Name(i), true
		}
	}
	return 0, false
}

//Landmark is one detected body point. X and Y are normalized image coordinates, ideally in [0,1].
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

//Observation is the set of landmarks detected in one frame. A nil (or empty) observation means no pose was detected.
type Observation map[Name]Landmark

//Detected reports whether the observation carries a pose
func (o Observation) Detected() bool {
	return len(o) > 0
}
