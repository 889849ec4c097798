//Package segment detects single squat repetitions in a stream of pose observations and turns each of them
//into a fixed size feature sequence.
package segment

import (
	"github.com/chenBenjamin97/squat-checker/pkg/pose"
	"github.com/chenBenjamin97/squat-checker/pkg/utils"
)

//Stage is the repetition stage shown to the user
type Stage string

const (
	StageNone Stage = ""
	StageDown Stage = "Down"
	StageUp   Stage = "Up"
)

//Status is the outcome of pushing one frame
type Status int

const (
	//StatusOK means the frame was usable and went through the transition rules
	StatusOK Status = iota
	//StatusAbsent means the frame carried no usable pose and was ignored
	StatusAbsent
	//StatusError means the frame passed the gate but its keypoints could not be extracted
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusAbsent:
		return "absent"
	case StatusError:
		return "error"
	}
	return "unknown"
}

//AbsentReason tells why a frame was ignored
type AbsentReason int

const (
	ReasonNone AbsentReason = iota
	ReasonNoDetection
	ReasonLowVisibility
	ReasonNoAngle
)

func (r AbsentReason) String() string {
	switch r {
	case ReasonNoDetection:
		return "no_detection"
	case ReasonLowVisibility:
		return "low_visibility"
	case ReasonNoAngle:
		return "no_angle"
	}
	return ""
}

//FeatureSequence is the model input of one repetition: SequenceLength rows of FeaturesNum values
type FeatureSequence [][]float64

//FrameResult describes what one pushed frame did to the segmenter
type FrameResult struct {
	Index  int
	Status Status
	Reason AbsentReason
	Err    error

	//Angle is the tracked knee angle, valid when Status is StatusOK
	Angle float64

	Stage     Stage
	Capturing bool

	//Started is true when this frame began a repetition
	Started bool
	//Ended is true when this frame ended a repetition, RepFrames then holds how many frames it captured
	Ended     bool
	RepFrames int
	//Sequence is the emitted feature sequence, nil unless a long enough repetition ended on this frame
	Sequence FeatureSequence
	//Aborted is true when the in-progress repetition was dropped for exceeding MaxSpanFrames
	Aborted bool
}

//Emitted reports whether a feature sequence was produced by this frame
func (r FrameResult) Emitted() bool {
	return r.Sequence != nil
}

//Segmenter is the repetition state machine. It is not safe for concurrent use; each frame stream owns one.
type Segmenter struct {
	cfg Config

	stage     Stage
	capturing bool
	buffer    [][]float64
	span      int //frames pushed since the current repetition started
	frames    int
}

//New returns a segmenter in the idle state. cfg is expected to be valid (see Config.Validate).
func New(cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg}
}

//Config returns the segmenter's configuration
func (s *Segmenter) Config() Config {
	return s.cfg
}

//Reset returns to the idle state dropping any unfinished repetition. It returns the number of dropped frames.
func (s *Segmenter) Reset() int {
	dropped := 0
	if s.capturing {
		dropped = len(s.buffer)
	}

	s.stage = StageNone
	s.capturing = false
	s.buffer = nil
	s.span = 0
	s.frames = 0
	return dropped
}

//Stage returns the current stage
func (s *Segmenter) Stage() Stage {
	return s.stage
}

//Capturing reports whether a repetition is in progress
func (s *Segmenter) Capturing() bool {
	return s.capturing
}

//Buffered returns the number of frames captured for the in-progress repetition
func (s *Segmenter) Buffered() int {
	if !s.capturing {
		return 0
	}
	return len(s.buffer)
}

//Push feeds the observation of the next frame (nil when no pose was detected)
func (s *Segmenter) Push(obs pose.Observation) FrameResult {
	res := FrameResult{Index: s.frames}
	s.frames++

	if s.capturing {
		s.span++
		if s.cfg.MaxSpanFrames > 0 && s.span > s.cfg.MaxSpanFrames {
			s.abort()
			res.Aborted = true
		}
	}

	if angle, ok := s.usable(obs, &res); ok {
		if vec, err := pose.ExtractKeypoints(obs); err != nil {
			res.Status = StatusError
			res.Err = err
		} else {
			res.Angle = angle
			s.step(angle, vec, &res)
		}
	}

	res.Stage = s.stage
	res.Capturing = s.capturing
	return res
}

//usable applies the visibility gate and angle estimation, marking res as absent when the frame can not be used
func (s *Segmenter) usable(obs pose.Observation, res *FrameResult) (float64, bool) {
	if !obs.Detected() {
		res.Status, res.Reason = StatusAbsent, ReasonNoDetection
		return 0, false
	}

	if !pose.IsFullyVisible(obs) {
		res.Status, res.Reason = StatusAbsent, ReasonLowVisibility
		return 0, false
	}

	angle, ok := pose.KneeAngle(obs, s.cfg.Leg)
	if !ok {
		res.Status, res.Reason = StatusAbsent, ReasonNoAngle
		return 0, false
	}

	return angle, true
}

//step runs the transition rules for a usable frame
func (s *Segmenter) step(angle float64, vec []float64, res *FrameResult) {
	if angle < s.cfg.DownThreshold && !s.capturing {
		s.buffer = make([][]float64, 0, s.cfg.SequenceLength)
		s.capturing = true
		s.stage = StageDown
		s.span = 1
		res.Started = true
	}

	if s.capturing {
		s.buffer = append(s.buffer, vec)
	}

	if angle > s.cfg.UpThreshold && s.stage == StageDown && s.capturing {
		s.stage = StageUp
		s.capturing = false

		res.Ended = true
		res.RepFrames = len(s.buffer)
		if seq := utils.PadSequence(s.buffer, s.cfg.SequenceLength, s.cfg.MinFrames); seq != nil {
			res.Sequence = seq
		}
		s.buffer = nil
	}
}

func (s *Segmenter) abort() {
	s.stage = StageNone
	s.capturing = false
	s.buffer = nil
	s.span = 0
}
