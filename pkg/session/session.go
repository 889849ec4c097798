//Package session is the driver loop: it pulls observations from a source one frame at a time, pushes them
//through the repetition segmenter and the classifier, and hands every outcome to its sinks.
//Everything runs on the caller's goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chenBenjamin97/squat-checker/pkg/classify"
	"github.com/chenBenjamin97/squat-checker/pkg/pose"
	"github.com/chenBenjamin97/squat-checker/pkg/segment"
	"github.com/chenBenjamin97/squat-checker/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//ErrQuit is returned by a sink to stop the session cleanly (e.g. the user pressed the quit key)
var ErrQuit = errors.New("session: quit requested")

//Source produces one pose observation per frame, nil when no pose was detected, and io.EOF when exhausted
type Source interface {
	Next(ctx context.Context) (pose.Observation, error)
}

//Frame is what happened on one frame, as seen by sinks
type Frame struct {
	segment.FrameResult
	Observation pose.Observation

	//Reps counts repetitions emitted so far, GoodReps those classified as good form
	Reps     int
	GoodReps int
	Feedback string

	//Repetition is set when a repetition was emitted on this frame
	Repetition *Repetition
}

//Repetition is one emitted feature sequence and, when the session has a classifier, its classification
type Repetition struct {
	SessionID string
	Index     int //1-based
	Frames    int //captured frames before padding/truncation
	Sequence  segment.FeatureSequence
	Result    *classify.Result
	Err       error //classification error, the repetition is then skipped by counters
}

//Sink consumes session output
type Sink interface {
	Frame(ctx context.Context, f Frame) error
	Repetition(ctx context.Context, rep Repetition) error
}

//Summary counts a whole run
type Summary struct {
	Frames      int
	Absent      int
	Errors      int
	Repetitions int
	GoodReps    int
	Discarded   int //repetitions too short to be emitted
	Aborted     int //repetitions dropped for spanning too many frames
	Dropped     int //frames of the unfinished repetition at stream end
	Failed      int //repetitions whose classification failed
}

//Options configure a session
type Options struct {
	//ID identifies the session in recorded data, a random UUID when empty
	ID         string
	Segment    segment.Config
	Classifier *classify.Adapter //optional, without it repetitions are emitted unclassified
	Sinks      []Sink
	Logger     *zap.Logger
}

//Session owns all per-stream state: the segmenter, counters and the last feedback
type Session struct {
	id         string
	seg        *segment.Segmenter
	classifier *classify.Adapter
	sinks      []Sink
	logger     *zap.Logger

	summary  Summary
	feedback string
}

//New validates the segment configuration and returns a session ready to run
func New(opts Options) (*Session, error) {
	if err := opts.Segment.Validate(); err != nil {
		return nil, err
	}

	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Session{
		id:         opts.ID,
		seg:        segment.New(opts.Segment),
		classifier: opts.Classifier,
		sinks:      opts.Sinks,
		logger:     opts.Logger.With(zap.String("session", opts.ID)),
	}, nil
}

//ID returns the session id
func (s *Session) ID() string {
	return s.id
}

//Summary returns the counters so far
func (s *Session) Summary() Summary {
	return s.summary
}

//Run reads the source until it is exhausted, ctx is done or a sink returns ErrQuit. All three are clean stops;
//an unfinished repetition is dropped. Source and sink failures are returned.
func (s *Session) Run(ctx context.Context, src Source) (Summary, error) {
	s.seg.Reset()
	s.logger.Info("Session started", zap.Float64("down_threshold", s.seg.Config().DownThreshold),
		zap.Float64("up_threshold", s.seg.Config().UpThreshold), zap.String("leg", string(s.seg.Config().Leg)))

	for {
		if err := ctx.Err(); err != nil {
			return s.finish("context done"), nil
		}

		obs, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return s.finish("source exhausted"), nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return s.finish("context done"), nil
			}
			sum := s.finish("source failed")
			return sum, fmt.Errorf("session: Error reading frame %d, got '%w'", sum.Frames, err)
		}

		if _, err := s.Step(ctx, obs); err != nil {
			if errors.Is(err, ErrQuit) {
				return s.finish("quit"), nil
			}
			s.finish("sink failed")
			return s.summary, err
		}
	}
}

func (s *Session) finish(reason string) Summary {
	if dropped := s.seg.Reset(); dropped > 0 {
		s.summary.Dropped = dropped
		s.logger.Info("Dropping unfinished repetition", zap.Int("frames", dropped))
	}

	s.logger.Info("Session finished", zap.String("reason", reason), zap.Int("frames", s.summary.Frames),
		zap.Int("repetitions", s.summary.Repetitions), zap.Int("good", s.summary.GoodReps))
	return s.summary
}

//Step processes one frame's observation and notifies the sinks
func (s *Session) Step(ctx context.Context, obs pose.Observation) (Frame, error) {
	res := s.seg.Push(obs)
	s.summary.Frames++

	switch res.Status {
	case segment.StatusAbsent:
		s.summary.Absent++
	case segment.StatusError:
		s.summary.Errors++
		s.logger.Debug("Frame skipped", zap.Int("frame", res.Index), zap.Error(res.Err))
	}

	if res.Aborted {
		s.summary.Aborted++
		s.logger.Warn("Repetition aborted, too many frames since it started", zap.Int("frame", res.Index),
			zap.Int("max_span_frames", s.seg.Config().MaxSpanFrames))
	}

	if res.Started {
		s.feedback = ""
	}

	frame := Frame{FrameResult: res, Observation: obs}

	if res.Ended && !res.Emitted() {
		s.summary.Discarded++
		s.logger.Debug("Repetition too short, discarded", zap.Int("frame", res.Index), zap.Int("frames", res.RepFrames))
	}

	if res.Emitted() {
		rep := s.repetition(ctx, res)
		frame.Repetition = &rep

		for _, sink := range s.sinks {
			if err := sink.Repetition(ctx, rep); err != nil {
				return frame, err
			}
		}
	}

	frame.Reps, frame.GoodReps, frame.Feedback = s.summary.Repetitions, s.summary.GoodReps, s.feedback

	for _, sink := range s.sinks {
		if err := sink.Frame(ctx, frame); err != nil {
			return frame, err
		}
	}

	return frame, nil
}

func (s *Session) repetition(ctx context.Context, res segment.FrameResult) Repetition {
	s.summary.Repetitions++
	rep := Repetition{
		SessionID: s.id,
		Index:     s.summary.Repetitions,
		Frames:    res.RepFrames,
		Sequence:  res.Sequence,
	}

	if s.classifier == nil {
		return rep
	}

	result, err := s.classifier.Classify(ctx, res.Sequence)
	if err != nil {
		s.summary.Failed++
		rep.Err = err
		s.logger.Warn("Could not classify repetition, skipping", zap.Int("repetition", rep.Index), zap.Error(err))
		return rep
	}

	rep.Result = &result
	if result.Good {
		s.summary.GoodReps++
		s.feedback = utils.GoodFeedback
	} else {
		s.feedback = utils.BadFeedback
	}

	s.logger.Info("Repetition classified", zap.Int("repetition", rep.Index), zap.Int("frames", rep.Frames),
		zap.Int("class", result.Class), zap.String("label", result.Label), zap.Float64("confidence", result.Confidence))
	return rep
}
