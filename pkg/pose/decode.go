package pose

import (
	"encoding/json"
	"fmt"
)

//landmarksMessage is one frame as printed by the python pose scripts: landmarks indexed by Name, or null when no pose was found
type landmarksMessage struct {
	Landmarks []Landmark `json:"landmarks"`
}

//DecodeLandmarks parses a landmarks JSON line. A null or empty landmarks list is returned as a nil Observation.
func DecodeLandmarks(line []byte) (Observation, error) {
	var msg landmarksMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("DecodeLandmarks: Could not parse landmarks, got '%w'", err)
	}

	if len(msg.Landmarks) == 0 {
		return nil, nil
	}

	if len(msg.Landmarks) > int(NumLandmarks) {
		return nil, fmt.Errorf("DecodeLandmarks: Expected at most %d landmarks, got %d", NumLandmarks, len(msg.Landmarks))
	}

	obs := make(Observation, len(msg.Landmarks))
	for i, lm := range msg.Landmarks {
		obs[Name(i)] = lm
	}

	return obs, nil
}
