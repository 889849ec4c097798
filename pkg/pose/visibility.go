package pose

//MinVisibility is the lowest accepted visibility of a gated landmark
const MinVisibility = 0.5

//GatedLandmarks must all be confidently visible and inside the frame for a frame to be usable
var GatedLandmarks = []Name{LeftHip, LeftKnee, LeftAnkle, RightHip, RightKnee, RightAnkle}

//IsFullyVisible is the visibility gate: false when no pose was detected or any gated landmark is missing,
//has visibility below MinVisibility or lies outside the [0,1] image square
func IsFullyVisible(obs Observation) bool {
	if !obs.Detected() {
		return false
	}

	for _, name := range GatedLandmarks {
		lm, ok := obs[name]
		if !ok {
			return false
		}

		if lm.Visibility < MinVisibility || lm.X < 0 || lm.X > 1 || lm.Y < 0 || lm.Y > 1 {
			return false
		}
	}

	return true
}
