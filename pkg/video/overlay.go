package video

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/chenBenjamin97/squat-checker/pkg/pose"
	"github.com/chenBenjamin97/squat-checker/pkg/segment"
	"github.com/chenBenjamin97/squat-checker/pkg/session"
	"github.com/chenBenjamin97/squat-checker/pkg/utils"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

//QuitKey closes the live window
const QuitKey = 'q'

var (
	panelColor    = color.RGBA{16, 117, 245, 0}
	textColor     = color.RGBA{0, 0, 0, 0}
	goodColor     = color.RGBA{0, 200, 0, 0}
	badColor      = color.RGBA{255, 0, 0, 0}
	skeletonColor = color.RGBA{255, 255, 255, 0}
	jointColor    = color.RGBA{245, 66, 230, 0}
)

//skeleton pairs the landmarks joined by a line
var skeleton = [][2]pose.Name{
	{pose.LeftShoulder, pose.RightShoulder},
	{pose.LeftShoulder, pose.LeftElbow}, {pose.LeftElbow, pose.LeftWrist},
	{pose.RightShoulder, pose.RightElbow}, {pose.RightElbow, pose.RightWrist},
	{pose.LeftShoulder, pose.LeftHip}, {pose.RightShoulder, pose.RightHip},
	{pose.LeftHip, pose.RightHip},
	{pose.LeftHip, pose.LeftKnee}, {pose.LeftKnee, pose.LeftAnkle},
	{pose.RightHip, pose.RightKnee}, {pose.RightKnee, pose.RightAnkle},
	{pose.LeftAnkle, pose.LeftHeel}, {pose.LeftHeel, pose.LeftFootIndex}, {pose.LeftAnkle, pose.LeftFootIndex},
	{pose.RightAnkle, pose.RightHeel}, {pose.RightHeel, pose.RightFootIndex}, {pose.RightAnkle, pose.RightFootIndex},
}

//Frames gives access to the image of the frame being processed
type Frames interface {
	Frame() gocv.Mat
}

//OverlayOptions configure the live output; an overlay with neither a window nor a record path only draws
type OverlayOptions struct {
	//Title of the window, no window is shown when empty
	Title        string
	WindowWidth  int
	WindowHeight int
	//Record writes the annotated frames to this file (MJPG) when set
	Record string
	FPS    float64
}

//Overlay is a session sink drawing the squat counters on every frame, showing it in a window and/or
//recording it. Pressing QuitKey in the window stops the session.
type Overlay struct {
	session.NopSink
	frames Frames
	window *gocv.Window
	writer *gocv.VideoWriter
	canvas gocv.Mat
	opts   OverlayOptions
	logger *zap.Logger

	//angle is the last knee angle measured, kept on frames without a usable pose
	angle float64
}

func NewOverlay(frames Frames, opts OverlayOptions, logger *zap.Logger) *Overlay {
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Overlay{frames: frames, canvas: gocv.NewMat(), opts: opts, logger: logger}
	if opts.Title != "" {
		o.window = gocv.NewWindow(opts.Title)
		if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
			o.window.ResizeWindow(opts.WindowWidth, opts.WindowHeight)
		}
	}
	return o
}

//Frame draws f on a copy of the current frame, then records and shows it
func (o *Overlay) Frame(ctx context.Context, f session.Frame) error {
	src := o.frames.Frame()
	if src.Empty() {
		return nil
	}
	src.CopyTo(&o.canvas)

	if f.Status == segment.StatusOK {
		o.angle = f.Angle
	}
	Draw(&o.canvas, f, o.angle)

	if o.opts.Record != "" {
		if err := o.record(); err != nil {
			return err
		}
	}

	if o.window != nil {
		o.window.IMShow(o.canvas)
		if o.window.WaitKey(10)&0xFF == QuitKey {
			o.logger.Info("Quit key pressed", zap.Int("frame", f.Index))
			return session.ErrQuit
		}
	}

	return nil
}

func (o *Overlay) record() error {
	if o.writer == nil {
		fps := o.opts.FPS
		if fps <= 0 {
			fps = 30
		}

		writer, err := gocv.VideoWriterFile(o.opts.Record, "MJPG", fps, o.canvas.Cols(), o.canvas.Rows(), true)
		if err != nil {
			return fmt.Errorf("Overlay: Error creating '%s', got '%w'", o.opts.Record, err)
		}
		o.writer = writer
		o.logger.Info("Recording annotated stream", zap.String("path", o.opts.Record), zap.Float64("fps", fps))
	}

	if err := o.writer.Write(o.canvas); err != nil {
		return fmt.Errorf("Overlay: Error writing frame, got '%w'", err)
	}
	return nil
}

func (o *Overlay) Close() error {
	var err error
	if o.writer != nil {
		err = o.writer.Close()
	}
	if o.window != nil {
		if werr := o.window.Close(); err == nil {
			err = werr
		}
	}
	if cerr := o.canvas.Close(); err == nil {
		err = cerr
	}
	return err
}

//Draw plots the skeleton, the REPS / STAGE panel, the feedback and given knee angle on img
func Draw(img *gocv.Mat, f session.Frame, angle float64) {
	w, h := img.Cols(), img.Rows()
	drawSkeleton(img, f.Observation, w, h)

	padding, spacing := int(float64(w)*0.02), int(float64(w)*0.12)
	textY := int(float64(h) * 0.05)
	valueY := textY + int(float64(h)*0.08)

	gocv.Rectangle(img, image.Rect(0, 0, int(float64(w)*0.43), int(float64(h)*0.17)), panelColor, -1) //thickness -1 == filled rectangle

	gocv.PutText(img, "REPS", image.Pt(padding, textY), gocv.FontHersheySimplex, 0.6, textColor, 2)
	gocv.PutText(img, fmt.Sprint(f.GoodReps), image.Pt(padding, valueY), gocv.FontHersheySimplex, 2, textColor, 2)

	gocv.PutText(img, "STAGE", image.Pt(padding+spacing, textY), gocv.FontHersheySimplex, 0.6, textColor, 2)
	gocv.PutText(img, string(f.Stage), image.Pt(padding+spacing, valueY), gocv.FontHersheySimplex, 1, textColor, 2)

	if f.Feedback != "" {
		c := badColor
		if f.Feedback == utils.GoodFeedback {
			c = goodColor
		}
		gocv.PutText(img, f.Feedback, image.Pt(padding+spacing*2, valueY), gocv.FontHersheySimplex, 1, c, 2)
	}

	if text := angleText(angle); text != "" {
		gocv.PutText(img, text, image.Pt(padding+spacing*2, textY+int(float64(h)*0.13)), gocv.FontHersheySimplex, 0.7, textColor, 2)
	}
}

//angleText is the knee angle caption, empty until a first angle was measured
func angleText(angle float64) string {
	if angle <= 0 {
		return ""
	}
	return fmt.Sprintf("Knee angle: %d deg", int(angle))
}

//toPixel converts a normalized landmark to image coordinates
func toPixel(lm pose.Landmark, w, h int) image.Point {
	return image.Pt(int(lm.X*float64(w)), int(lm.Y*float64(h)))
}

func drawSkeleton(img *gocv.Mat, obs pose.Observation, w, h int) {
	if !obs.Detected() {
		return
	}

	for _, edge := range skeleton {
		a, okA := obs[edge[0]]
		b, okB := obs[edge[1]]
		if !okA || !okB || a.Visibility < pose.MinVisibility || b.Visibility < pose.MinVisibility {
			continue
		}
		gocv.Line(img, toPixel(a, w, h), toPixel(b, w, h), skeletonColor, 2)
	}

	for _, lm := range obs {
		if lm.Visibility < pose.MinVisibility {
			continue
		}
		gocv.Circle(img, toPixel(lm, w, h), 3, jointColor, -1)
	}
}
