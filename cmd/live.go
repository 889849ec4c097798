package main

import (
	"context"

	"github.com/chenBenjamin97/squat-checker/pkg/classify"
	"github.com/chenBenjamin97/squat-checker/pkg/pose"
	"github.com/chenBenjamin97/squat-checker/pkg/segment"
	"github.com/chenBenjamin97/squat-checker/pkg/session"
	"github.com/chenBenjamin97/squat-checker/pkg/store"
	"github.com/chenBenjamin97/squat-checker/pkg/video"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Count and classify squats from a camera or video file in a live window",
	Long: `Reads live.device (camera index or video path), estimates the pose of every frame, counts good
repetitions with the live confidence threshold and shows the annotated stream. Press 'q' to quit.`,
	RunE: live,
}

func live(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	segCfg, err := cfg.SegmentConfig()
	if err != nil {
		return err
	}

	classifier, model, err := openClassifier(ctx)
	if err != nil {
		return err
	}
	defer model.Close()

	if classifier, err = classifier.WithThreshold(cfg.Classify.Threshold.Live); err != nil {
		return err
	}

	estimator, err := pose.StartStreamEstimator(ctx, cfg.Pose.Python, cfg.Pose.StreamScript)
	if err != nil {
		return err
	}
	defer estimator.Close()

	capture, err := video.OpenCapture(cfg.Live.Device, estimator, logger)
	if err != nil {
		return err
	}
	defer capture.Close()

	overlay := video.NewOverlay(capture, video.OverlayOptions{
		Title:        "Squat Checker",
		WindowWidth:  cfg.Live.WindowWidth,
		WindowHeight: cfg.Live.WindowHeight,
		Record:       cfg.Live.Record,
		FPS:          capture.FPS(),
	}, logger)
	defer overlay.Close()

	sinks := []session.Sink{overlay}
	repo, err := openStore(ctx)
	if err != nil {
		return err
	}
	if repo != nil {
		defer repo.Close()
		sinks = append(sinks, store.NewRecorder(repo, logger))
	}

	return runSession(ctx, segCfg, classifier, sinks, capture)
}

//runSession drives one session over src and logs its summary
func runSession(ctx context.Context, segCfg segment.Config, classifier *classify.Adapter, sinks []session.Sink, src session.Source) error {
	s, err := session.New(session.Options{Segment: segCfg, Classifier: classifier, Sinks: sinks, Logger: logger})
	if err != nil {
		return err
	}

	sum, err := s.Run(ctx, src)
	logger.Info("Summary", zap.String("session", s.ID()), zap.Int("frames", sum.Frames), zap.Int("absent", sum.Absent),
		zap.Int("repetitions", sum.Repetitions), zap.Int("good", sum.GoodReps), zap.Int("discarded", sum.Discarded),
		zap.Int("aborted", sum.Aborted), zap.Int("failed", sum.Failed))
	return err
}
