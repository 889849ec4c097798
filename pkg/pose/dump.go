package pose

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

type dumpFrame struct {
	Mediapipe map[string]Landmark `json:"mediapipe"`
}

type dumpFile struct {
	Frames map[int]dumpFrame `json:"frames"`
}

//DumpSource replays a pose dump file: {"frames": {"<frame number>": {"mediapipe": {"left_hip": {x,y,z,visibility}, ...}}}}.
//Frames are returned ordered by frame number, frames without landmarks as nil observations.
type DumpSource struct {
	frames []Observation
	pos    int
}

//LoadDump reads a pose dump JSON file
func LoadDump(path string) (*DumpSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadDump: Error, got '%w'", err)
	}
	defer f.Close()

	return ReadDump(f)
}

//ReadDump decodes a pose dump from given reader
func ReadDump(r io.Reader) (*DumpSource, error) {
	var dump dumpFile
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return nil, fmt.Errorf("ReadDump: Could not decode json, got '%w'", err)
	}

	numbers := make([]int, 0, len(dump.Frames))
	for n := range dump.Frames {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	src := &DumpSource{frames: make([]Observation, 0, len(numbers))}
	for _, n := range numbers {
		var obs Observation
		for key, lm := range dump.Frames[n].Mediapipe {
			name, ok := ParseName(key)
			if !ok {
				continue
			}
			if obs == nil {
				obs = make(Observation)
			}
			obs[name] = lm
		}
		src.frames = append(src.frames, obs)
	}

	return src, nil
}

//Next returns the next frame's observation or io.EOF
func (d *DumpSource) Next(ctx context.Context) (Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if d.pos >= len(d.frames) {
		return nil, io.EOF
	}

	obs := d.frames[d.pos]
	d.pos++
	return obs, nil
}

//Len returns the number of frames in the dump
func (d *DumpSource) Len() int {
	return len(d.frames)
}
