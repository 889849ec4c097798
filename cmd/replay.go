package main

import (
	"github.com/chenBenjamin97/squat-checker/pkg/pose"
	"github.com/chenBenjamin97/squat-checker/pkg/session"
	"github.com/chenBenjamin97/squat-checker/pkg/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var replayCmd = &cobra.Command{
	Use:   "replay [pose dump]",
	Short: "Segment and classify the repetitions of a recorded pose dump file",
	Args:  cobra.ExactArgs(1),
	RunE:  replay,
}

func replay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	segCfg, err := cfg.SegmentConfig()
	if err != nil {
		return err
	}

	src, err := pose.LoadDump(args[0])
	if err != nil {
		return err
	}
	logger.Info("Pose dump loaded", zap.String("path", args[0]), zap.Int("frames", src.Len()))

	classifier, model, err := openClassifier(ctx)
	if err != nil {
		return err
	}
	defer model.Close()

	sinks := make([]session.Sink, 0, 1)
	repo, err := openStore(ctx)
	if err != nil {
		return err
	}
	if repo != nil {
		defer repo.Close()
		sinks = append(sinks, store.NewRecorder(repo, logger))
	}

	return runSession(ctx, segCfg, classifier, sinks, src)
}
