package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chenBenjamin97/squat-checker/pkg/pose"
	"github.com/chenBenjamin97/squat-checker/pkg/segment"
	"github.com/chenBenjamin97/squat-checker/pkg/session"
	"github.com/chenBenjamin97/squat-checker/pkg/utils"
)

//SampleFile is the per-video JSON artifact
type SampleFile struct {
	Sequence segment.FeatureSequence `json:"sequence"`
}

//WriteSampleJSON saves a sequence as {"sequence": [...]}
func WriteSampleJSON(path string, seq segment.FeatureSequence) error {
	data, err := json.MarshalIndent(SampleFile{Sequence: seq}, "", "  ")
	if err != nil {
		return fmt.Errorf("WriteSampleJSON: Error, got '%w'", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("WriteSampleJSON: Could not write '%s', got '%w'", path, err)
	}
	return nil
}

//ReadSampleJSON loads a sample file
func ReadSampleJSON(path string) (SampleFile, error) {
	var s SampleFile
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("ReadSampleJSON: Error, got '%w'", err)
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("ReadSampleJSON: Could not parse '%s', got '%w'", path, err)
	}
	return s, nil
}

//FirstSequence builds a sample from the first SequenceLength frames with a detected pose, without repetition
//segmentation or the visibility gate. Short videos are padded by repeating the last row; a video without any
//detection gives an all-zero sequence. It returns the sequence and how many detected frames it used.
func FirstSequence(ctx context.Context, src session.Source) (segment.FeatureSequence, int, error) {
	rows := make([][]float64, 0, utils.SequenceLength)

	for len(rows) < utils.SequenceLength {
		obs, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, err
		}

		if !obs.Detected() {
			continue
		}

		vec, err := pose.ExtractKeypoints(obs)
		if err != nil { //partial pose, skip the frame
			continue
		}
		rows = append(rows, vec)
	}

	if len(rows) == 0 {
		return utils.ZeroSequence(utils.SequenceLength, utils.FeaturesNum), 0, nil
	}

	return utils.PadSequence(rows, utils.SequenceLength, 1), len(rows), nil
}
