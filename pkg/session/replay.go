package session

import (
	"context"
	"io"

	"github.com/chenBenjamin97/squat-checker/pkg/pose"
)

//NopSink ignores everything, embed it to implement only one of the Sink methods
type NopSink struct{}

func (NopSink) Frame(ctx context.Context, f Frame) error { return nil }

func (NopSink) Repetition(ctx context.Context, rep Repetition) error { return nil }

//SliceSource replays given observations
type SliceSource struct {
	Observations []pose.Observation
	pos          int
}

func (s *SliceSource) Next(ctx context.Context) (pose.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.pos >= len(s.Observations) {
		return nil, io.EOF
	}

	obs := s.Observations[s.pos]
	s.pos++
	return obs, nil
}
