package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chenBenjamin97/squat-checker/pkg/classify"
	"github.com/chenBenjamin97/squat-checker/pkg/pose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(write(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 0.5, cfg.Classify.Threshold.Offline)
	assert.Equal(t, 0.8, cfg.Classify.Threshold.Live)
	assert.Equal(t, classify.BackendScript, cfg.Model.Backend)
	assert.Equal(t, 5*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 4, cfg.Extract.Workers)
	assert.NotEmpty(t, cfg.File)

	seg, err := cfg.SegmentConfig()
	require.NoError(t, err)
	assert.Equal(t, 90.0, seg.DownThreshold)
	assert.Equal(t, 160.0, seg.UpThreshold)
	assert.Equal(t, pose.LeftOnly, seg.Leg)
	assert.Equal(t, 30, seg.SequenceLength)
	assert.Equal(t, 10, seg.MinFrames)

	cc := cfg.ClassifyConfig()
	assert.Equal(t, classify.Binary, cc.Arity)
	assert.Equal(t, 0.5, cc.Threshold)
}

func TestPresetOverrides(t *testing.T) {
	cfg, err := Load(write(t, `
segment:
  preset: video
  up_threshold: 155
  max_span_frames: 300
model:
  backend: http
  url: http://localhost:8501
  name: squat
  timeout: 2s
live:
  device: 1
`))
	require.NoError(t, err)

	seg, err := cfg.SegmentConfig()
	require.NoError(t, err)
	assert.Equal(t, 140.0, seg.DownThreshold)
	assert.Equal(t, 155.0, seg.UpThreshold)
	assert.Equal(t, pose.MinOfBoth, seg.Leg)
	assert.Equal(t, 300, seg.MaxSpanFrames)

	assert.Equal(t, "http://localhost:8501/v1/models/squat:predict", cfg.Model.Endpoint())
	assert.Equal(t, 2*time.Second, cfg.Model.Timeout)
	assert.Equal(t, "1", cfg.Live.Device)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SQUAT_HTTP_PORT", "9090")
	t.Setenv("SQUAT_CLASSIFY_THRESHOLD_LIVE", "0.7")

	cfg, err := Load(write(t, "http:\n  port: 8081\n"))
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, 0.7, cfg.Classify.Threshold.Live)
}

func TestInvalid(t *testing.T) {
	for name, content := range map[string]string{
		"thresholds":   "segment:\n  down_threshold: 170\n",
		"preset":       "segment:\n  preset: gym\n",
		"leg":          "segment:\n  leg_selection: right_only\n",
		"arity":        "classify:\n  arity: ternary\n",
		"threshold":    "classify:\n  threshold:\n    live: 1.5\n",
		"backend":      "model:\n  backend: onnx\n",
		"store driver": "store:\n  enabled: true\n  driver: mysql\n",
		"workers":      "extract:\n  workers: 0\n",
	} {
		_, err := Load(write(t, content))
		assert.Error(t, err, name)
	}
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnsureDirectories(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	cfg := &Config{Directory: Directory{
		Root:    root,
		Video:   filepath.Join(root, "videos"),
		Samples: filepath.Join(root, "samples"),
		Output:  filepath.Join(root, "output"),
	}}

	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{cfg.Directory.Video, cfg.Directory.Samples, cfg.Directory.Output} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSegmentConfigFor(t *testing.T) {
	cfg, err := Load(write(t, `
segment:
  preset: webcam
  down_threshold: 100
  leg_selection: min_of_both
  max_span_frames: 120
`))
	require.NoError(t, err)

	same, err := cfg.SegmentConfigFor("webcam")
	require.NoError(t, err)
	assert.Equal(t, 100.0, same.DownThreshold)
	assert.Equal(t, pose.MinOfBoth, same.Leg)

	video, err := cfg.SegmentConfigFor("video")
	require.NoError(t, err)
	assert.Equal(t, 140.0, video.DownThreshold)
	assert.Equal(t, 150.0, video.UpThreshold)
	assert.Equal(t, pose.MinOfBoth, video.Leg)
	assert.Equal(t, 120, video.MaxSpanFrames)

	defaults, err := cfg.SegmentConfigFor("")
	require.NoError(t, err)
	assert.Equal(t, same, defaults)

	_, err = cfg.SegmentConfigFor("gym")
	assert.Error(t, err)
}
