package dataset

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/chenBenjamin97/squat-checker/pkg/segment"
	"github.com/chenBenjamin97/squat-checker/pkg/session"
	"github.com/chenBenjamin97/squat-checker/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//VideoExt is the extension of source videos picked up by the extractor
const VideoExt = ".mp4"

//SourceCloser is a frame source backed by a resource (e.g. a pose tracking process)
type SourceCloser interface {
	session.Source
	Close() error
}

//OpenFunc opens the pose source of one video file
type OpenFunc func(ctx context.Context, videoPath string) (SourceCloser, error)

//Extractor turns a folder of labeled squat videos into dataset rows or sample files.
//Videos are processed in parallel, each with its own source and segmenter.
type Extractor struct {
	Segment segment.Config
	Open    OpenFunc
	Workers int
	//Progress receives the progress bar, nothing is shown when nil
	Progress io.Writer
	Logger   *zap.Logger
}

//Report summarizes one extraction run
type Report struct {
	Videos int
	Rows   int
	Failed []string
}

type videoResult struct {
	name    string
	label   int
	samples []segment.FeatureSequence
	err     error
}

//collector keeps every emitted repetition of one video
type collector struct {
	session.NopSink
	seqs []segment.FeatureSequence
}

func (c *collector) Repetition(ctx context.Context, rep session.Repetition) error {
	c.seqs = append(c.seqs, rep.Sequence)
	return nil
}

func (e *Extractor) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Extractor) videos(dir string) ([]string, error) {
	names, err := utils.ListFilesWithExt(dir, VideoExt)
	if err != nil {
		return nil, fmt.Errorf("dataset: Could not list videos, got '%w'", err)
	}
	return names, nil
}

//forEach runs fn on every video of dir with at most Workers in parallel, keeping results in file name order.
//A failing video is logged and reported, it does not stop the others; only ctx cancellation does.
func (e *Extractor) forEach(ctx context.Context, dir string, fn func(ctx context.Context, path string) videoResult) ([]videoResult, error) {
	names, err := e.videos(dir)
	if err != nil {
		return nil, err
	}

	bar := pb.New(len(names))
	if e.Progress != nil {
		bar.SetWriter(e.Progress)
	} else {
		bar.SetWriter(io.Discard)
	}
	bar.Start()
	defer bar.Finish()

	workers := e.Workers
	if workers <= 0 {
		workers = 1
	}

	results := make([]videoResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			defer bar.Increment()
			if err := gctx.Err(); err != nil {
				return err
			}

			res := fn(gctx, filepath.Join(dir, name))
			res.name = name
			if res.err != nil {
				e.logger().Warn("Could not extract video, skipping", zap.String("video", name), zap.Error(res.err))
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

//ExtractCSV segments every video of dir into repetitions and writes one labeled row per repetition to w
func (e *Extractor) ExtractCSV(ctx context.Context, dir string, w io.Writer) (Report, error) {
	if err := e.Segment.Validate(); err != nil {
		return Report{}, err
	}

	results, err := e.forEach(ctx, dir, func(ctx context.Context, path string) videoResult {
		seqs, err := e.segmentVideo(ctx, path)
		return videoResult{label: LabelFromName(filepath.Base(path)), samples: seqs, err: err}
	})
	if err != nil {
		return Report{}, err
	}

	report := Report{Videos: len(results)}
	writer := NewWriter(w)
	for _, res := range results {
		if res.err != nil {
			report.Failed = append(report.Failed, res.name)
			continue
		}

		for _, seq := range res.samples {
			if err := writer.Write(Sample{Sequence: seq, Label: res.label}); err != nil {
				return report, err
			}
		}
		e.logger().Info("Video extracted", zap.String("video", res.name), zap.Int("label", res.label), zap.Int("repetitions", len(res.samples)))
	}

	if err := writer.Flush(); err != nil {
		return report, fmt.Errorf("dataset: Could not flush rows, got '%w'", err)
	}
	report.Rows = writer.Rows()
	return report, nil
}

func (e *Extractor) segmentVideo(ctx context.Context, path string) ([]segment.FeatureSequence, error) {
	src, err := e.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	c := &collector{}
	s, err := session.New(session.Options{
		ID:      filepath.Base(path),
		Segment: e.Segment,
		Sinks:   []session.Sink{c},
		Logger:  e.logger(),
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.Run(ctx, src); err != nil {
		return nil, err
	}
	return c.seqs, nil
}

//ExtractSamples writes one JSON sample per video of dir into outDir (same base name, .json extension)
func (e *Extractor) ExtractSamples(ctx context.Context, dir, outDir string) (Report, error) {
	if err := utils.EnsureDir(outDir); err != nil {
		return Report{}, err
	}

	var mu sync.Mutex
	written := 0

	results, err := e.forEach(ctx, dir, func(ctx context.Context, path string) videoResult {
		src, err := e.Open(ctx, path)
		if err != nil {
			return videoResult{err: err}
		}
		defer src.Close()

		seq, detected, err := FirstSequence(ctx, src)
		if err != nil {
			return videoResult{err: err}
		}

		out := filepath.Join(outDir, utils.TrimExt(filepath.Base(path))+".json")
		if err := WriteSampleJSON(out, seq); err != nil {
			return videoResult{err: err}
		}

		mu.Lock()
		written++
		mu.Unlock()
		e.logger().Info("Sample saved", zap.String("path", out), zap.Int("detected_frames", detected))
		return videoResult{}
	})
	if err != nil {
		return Report{}, err
	}

	report := Report{Videos: len(results), Rows: written}
	for _, res := range results {
		if res.err != nil {
			report.Failed = append(report.Failed, res.name)
		}
	}
	return report, nil
}
