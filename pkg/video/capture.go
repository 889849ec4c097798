//Package video reads camera / video frames with gocv, feeds them to the pose estimator and draws the live
//squat overlay (counters, stage, feedback, knee angle and skeleton) on them.
package video

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/chenBenjamin97/squat-checker/pkg/pose"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

//Capture is a session.Source over a camera or a video file: every frame read is JPEG encoded and sent to the
//pose estimator. The last frame stays available to sinks drawing on it.
type Capture struct {
	cap       *gocv.VideoCapture
	estimator pose.Estimator
	frame     gocv.Mat
	frames    int
	logger    *zap.Logger
}

//parseDevice turns "0" into camera index 0, anything else is used as a file path / stream url
func parseDevice(device string) interface{} {
	if id, err := strconv.Atoi(device); err == nil {
		return id
	}
	return device
}

//OpenCapture opens device (camera index or video path). The estimator is owned by the caller.
func OpenCapture(device string, estimator pose.Estimator, logger *zap.Logger) (*Capture, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cap, err := gocv.OpenVideoCapture(parseDevice(device))
	if err != nil {
		return nil, fmt.Errorf("OpenCapture: Error opening '%s', got '%w'", device, err)
	}

	c := &Capture{cap: cap, estimator: estimator, frame: gocv.NewMat(), logger: logger}
	logger.Info("Capture opened", zap.String("device", device), zap.Float64("fps", c.FPS()),
		zap.Int("width", c.Width()), zap.Int("height", c.Height()))
	return c, nil
}

//Next reads one frame and estimates its pose; io.EOF once the device has no more frames
func (c *Capture) Next(ctx context.Context) (pose.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ok := c.cap.Read(&c.frame); !ok || c.frame.Empty() {
		c.logger.Info("No more frames", zap.Int("frames", c.frames))
		return nil, io.EOF
	}
	c.frames++

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, c.frame)
	if err != nil {
		return nil, fmt.Errorf("Capture: Error encoding frame %d, got '%w'", c.frames, err)
	}
	image := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	return c.estimator.Estimate(ctx, image)
}

//Frame returns the last frame read, valid until the next call to Next
func (c *Capture) Frame() gocv.Mat {
	return c.frame
}

func (c *Capture) FPS() float64 {
	return c.cap.Get(gocv.VideoCaptureFPS)
}

func (c *Capture) Width() int {
	return int(c.cap.Get(gocv.VideoCaptureFrameWidth))
}

func (c *Capture) Height() int {
	return int(c.cap.Get(gocv.VideoCaptureFrameHeight))
}

func (c *Capture) Close() error {
	c.frame.Close()
	return c.cap.Close()
}
