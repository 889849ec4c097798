package store

import (
	"context"

	"github.com/chenBenjamin97/squat-checker/pkg/session"
	"go.uber.org/zap"
)

//Recorder is a session sink persisting every classified repetition
type Recorder struct {
	session.NopSink
	repo   *Repository
	logger *zap.Logger
}

func NewRecorder(repo *Repository, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{repo: repo, logger: logger}
}

//Repetition stores rep; unclassified repetitions are skipped
func (r *Recorder) Repetition(ctx context.Context, rep session.Repetition) error {
	if rep.Result == nil {
		return nil
	}

	rec, err := r.repo.SaveRepetition(ctx, Record{
		SessionID:  rep.SessionID,
		Index:      rep.Index,
		Class:      rep.Result.Class,
		Label:      rep.Result.Label,
		Confidence: rep.Result.Confidence,
		Frames:     rep.Frames,
	}, rep.Sequence)
	if err != nil {
		return err
	}

	r.logger.Debug("Repetition recorded", zap.String("id", rec.ID), zap.String("session", rec.SessionID), zap.Int("repetition", rec.Index))
	return nil
}
