package pose

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

const (
	frameHeaderPrefix = "Frame #:"
	fpsLogMarker      = "FPS: "
	endOfStreamLine   = "EOF"
	maxLineBytes      = 1 << 20
)

//Tracker runs a python pose tracking script over a whole video file and listens to its standard output.
//The script prints "Frame #: N" before each frame, then optionally one landmarks JSON line for that frame,
//and "EOF" after the last frame. Lines containing "FPS: " are log prints and skipped.
//Tracker is read synchronously, one frame per Next call.
type Tracker struct {
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	scanner *bufio.Scanner
	logger  *zap.Logger

	inFrame bool //a frame header was read and its frame was not returned yet
	done    bool
	frames  int
}

//StartTracker executes 'python script --video videoPath' and returns a Tracker reading its output
func StartTracker(ctx context.Context, python, script, videoPath string, logger *zap.Logger) (*Tracker, error) {
	cmd := exec.CommandContext(ctx, python, script, "--video", videoPath)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("StartTracker: Error, got '%w'", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("StartTracker: Error executing python's code, got '%w'", err)
	}

	t := newTracker(stdout, logger.With(zap.String("video", videoPath)))
	t.cmd = cmd
	t.stdout = stdout
	return t, nil
}

func newTracker(r io.Reader, logger *zap.Logger) *Tracker {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Tracker{scanner: scanner, logger: logger}
}

//Next returns the observation of the next frame (nil when no pose was detected in it), or io.EOF when the video ended
func (t *Tracker) Next(ctx context.Context) (Observation, error) {
	if t.done {
		return nil, io.EOF
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var obs Observation
	for t.scanner.Scan() {
		line := strings.TrimSpace(t.scanner.Text())

		switch {
		case strings.HasPrefix(line, frameHeaderPrefix):
			if t.inFrame { //header of the next frame closes the current one
				t.frames++
				return obs, nil
			}
			t.inFrame = true

		case line == endOfStreamLine:
			return t.finish(obs)

		case strings.Contains(line, fpsLogMarker): //this is a log print, skip it

		case strings.HasPrefix(line, "{"):
			if !t.inFrame {
				t.logger.Warn("Tracker: landmarks printed before any frame header, skipping")
				continue
			}

			decoded, err := DecodeLandmarks([]byte(line))
			if err != nil {
				t.logger.Warn("Tracker: could not decode frame landmarks, treating frame as undetected",
					zap.Int("frame", t.frames), zap.Error(err))
				continue
			}
			obs = decoded
		}
	}

	if err := t.scanner.Err(); err != nil {
		t.done = true
		return nil, fmt.Errorf("Tracker: Error reading python's output, got '%w'", err)
	}

	return t.finish(obs)
}

func (t *Tracker) finish(obs Observation) (Observation, error) {
	t.done = true
	if !t.inFrame {
		return nil, io.EOF
	}

	t.inFrame = false
	t.frames++
	return obs, nil
}

//Frames returns how many frames were returned so far
func (t *Tracker) Frames() int {
	return t.frames
}

//Close stops the python process. In case the video was not read to the end, the process is killed.
func (t *Tracker) Close() error {
	if t.cmd == nil {
		return nil
	}

	if !t.done && t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
		_ = t.cmd.Wait()
		return nil
	}

	//output after "EOF" must be read, otherwise the process blocks on a full pipe and never exits
	if t.stdout != nil {
		if _, err := io.Copy(io.Discard, t.stdout); err != nil {
			t.logger.Debug("Tracker: could not drain output", zap.Error(err))
		}
	}

	if err := t.cmd.Wait(); err != nil {
		return fmt.Errorf("Tracker: Error waiting python's process, got '%w'", err)
	}

	return nil
}
