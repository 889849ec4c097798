package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/chenBenjamin97/squat-checker/pkg/dataset"
	"github.com/chenBenjamin97/squat-checker/pkg/pose"
	"github.com/chenBenjamin97/squat-checker/pkg/segment"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var extractPreset string

var extractCSVCmd = &cobra.Command{
	Use:   "extract-csv",
	Short: "Build the training CSV from every video of directory.video",
	Long: `Every video of directory.video is pose-tracked and segmented into repetitions; each repetition becomes
one CSV row of 1440 keypoint values followed by its label (0 when the file name contains "incorrect", else 1).`,
	RunE: extractCSV,
}

var extractJSONCmd = &cobra.Command{
	Use:   "extract-json",
	Short: "Save one JSON sample (first 30 detected frames) per video of directory.video into directory.samples",
	RunE:  extractJSON,
}

func init() {
	extractCSVCmd.Flags().StringVar(&extractPreset, "preset", segment.PresetVideo, "segmenter preset for recorded videos")
}

func extractor() (*dataset.Extractor, error) {
	segCfg, err := cfg.SegmentConfigFor(extractPreset)
	if err != nil {
		return nil, err
	}

	return &dataset.Extractor{
		Segment: segCfg,
		Workers: cfg.Extract.Workers,
		Open: func(ctx context.Context, videoPath string) (dataset.SourceCloser, error) {
			tracker, err := pose.StartTracker(ctx, cfg.Pose.Python, cfg.Pose.TrackerScript, videoPath, logger)
			if err != nil {
				return nil, err
			}
			return tracker, nil
		},
		Progress: os.Stderr,
		Logger:   logger,
	}, nil
}

func extractCSV(cmd *cobra.Command, args []string) error {
	e, err := extractor()
	if err != nil {
		return err
	}

	f, err := os.Create(cfg.Extract.CSV)
	if err != nil {
		return fmt.Errorf("extract-csv: Could not create '%s', got '%w'", cfg.Extract.CSV, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	report, err := e.ExtractCSV(cmd.Context(), cfg.Directory.Video, w)
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	logger.Info("Dataset saved", zap.String("path", cfg.Extract.CSV), zap.Int("videos", report.Videos),
		zap.Int("rows", report.Rows), zap.Strings("failed", report.Failed))
	return nil
}

func extractJSON(cmd *cobra.Command, args []string) error {
	e, err := extractor()
	if err != nil {
		return err
	}

	report, err := e.ExtractSamples(cmd.Context(), cfg.Directory.Video, cfg.Directory.Samples)
	if err != nil {
		return err
	}

	logger.Info("Samples saved", zap.String("dir", cfg.Directory.Samples), zap.Int("videos", report.Videos),
		zap.Int("samples", report.Rows), zap.Strings("failed", report.Failed))
	return nil
}
