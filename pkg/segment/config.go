package segment

import (
	"fmt"
	"sort"

	"github.com/chenBenjamin97/squat-checker/pkg/pose"
	"github.com/chenBenjamin97/squat-checker/pkg/utils"
)

//Config parameterizes the repetition state machine
type Config struct {
	//DownThreshold starts a repetition when the knee angle drops below it (degrees)
	DownThreshold float64 `mapstructure:"down_threshold"`
	//UpThreshold ends a repetition when the knee angle rises above it (degrees)
	UpThreshold float64 `mapstructure:"up_threshold"`
	//Leg chooses which knee angle is tracked
	Leg pose.LegSelection `mapstructure:"leg_selection"`
	//MinFrames is the minimum captured frames for a repetition to be emitted
	MinFrames int `mapstructure:"min_frames"`
	//SequenceLength is the emitted feature sequence length
	SequenceLength int `mapstructure:"sequence_length"`
	//MaxSpanFrames aborts a repetition when more frames than this (including frames without a usable pose)
	//were pushed since it started. 0 disables the cap.
	MaxSpanFrames int `mapstructure:"max_span_frames"`
}

const (
	//PresetWebcam is the live camera variant: left leg only, deep squat required
	PresetWebcam = "webcam"
	//PresetVideo is the recorded video / dataset variant: deeper bent leg of both, shallower thresholds
	PresetVideo = "video"
)

var presets = map[string]Config{
	PresetWebcam: {DownThreshold: 90, UpThreshold: 160, Leg: pose.LeftOnly},
	PresetVideo:  {DownThreshold: 140, UpThreshold: 150, Leg: pose.MinOfBoth},
}

//Preset returns the named preset with default sequence length and minimum frames
func Preset(name string) (Config, error) {
	cfg, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("segment: unknown preset '%s' (known: %v)", name, PresetNames())
	}

	cfg.MinFrames = utils.MinFrames
	cfg.SequenceLength = utils.SequenceLength
	return cfg, nil
}

//PresetNames returns the known preset names, sorted
func PresetNames() []string {
	res := make([]string, 0, len(presets))
	for name := range presets {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

//Validate checks thresholds and sizes
func (c Config) Validate() error {
	if c.DownThreshold <= 0 || c.DownThreshold > 180 || c.UpThreshold <= 0 || c.UpThreshold > 180 {
		return fmt.Errorf("segment: thresholds must be in (0, 180], got down=%v up=%v", c.DownThreshold, c.UpThreshold)
	}

	if c.DownThreshold >= c.UpThreshold {
		return fmt.Errorf("segment: down threshold (%v) must be lower than up threshold (%v)", c.DownThreshold, c.UpThreshold)
	}

	if !c.Leg.Valid() {
		return fmt.Errorf("segment: unknown leg selection '%s'", c.Leg)
	}

	if c.SequenceLength <= 0 {
		return fmt.Errorf("segment: sequence length must be positive, got %d", c.SequenceLength)
	}

	if c.MinFrames <= 0 || c.MinFrames > c.SequenceLength {
		return fmt.Errorf("segment: min frames must be in [1, %d], got %d", c.SequenceLength, c.MinFrames)
	}

	if c.MaxSpanFrames < 0 {
		return fmt.Errorf("segment: max span frames must not be negative, got %d", c.MaxSpanFrames)
	}

	return nil
}
