//Package config loads the application configuration with viper: config.yaml in the working directory (or
//an explicit file), SQUAT_ prefixed environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chenBenjamin97/squat-checker/pkg/classify"
	"github.com/chenBenjamin97/squat-checker/pkg/pose"
	"github.com/chenBenjamin97/squat-checker/pkg/segment"
	"github.com/chenBenjamin97/squat-checker/pkg/store"
	"github.com/chenBenjamin97/squat-checker/pkg/utils"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

//EnvPrefix prefixes environment overrides, e.g. SQUAT_HTTP_PORT for http.port
const EnvPrefix = "SQUAT"

type HTTP struct {
	Port string `mapstructure:"port"`
}

type Directory struct {
	Root    string `mapstructure:"root"`
	Video   string `mapstructure:"video"`
	Samples string `mapstructure:"samples"`
	Output  string `mapstructure:"output"`
}

//Segment picks a preset and optionally overrides its thresholds and leg selection
type Segment struct {
	Preset        string  `mapstructure:"preset"`
	DownThreshold float64 `mapstructure:"down_threshold"`
	UpThreshold   float64 `mapstructure:"up_threshold"`
	LegSelection  string  `mapstructure:"leg_selection"`
	MaxSpanFrames int     `mapstructure:"max_span_frames"`
}

type Threshold struct {
	Offline float64 `mapstructure:"offline"`
	Live    float64 `mapstructure:"live"`
}

type Classify struct {
	Arity     string    `mapstructure:"arity"`
	Threshold Threshold `mapstructure:"threshold"`
	Labels    []string  `mapstructure:"labels"`
	GoodClass int       `mapstructure:"good_class"`
}

type Pose struct {
	Python        string `mapstructure:"python"`
	TrackerScript string `mapstructure:"tracker_script"`
	StreamScript  string `mapstructure:"stream_script"`
}

type Store struct {
	Enabled bool   `mapstructure:"enabled"`
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
}

type Live struct {
	//Device is a camera index ("0") or a video file path
	Device string `mapstructure:"device"`
	//Record saves the annotated stream to this file when set
	Record       string `mapstructure:"record"`
	WindowWidth  int    `mapstructure:"window_width"`
	WindowHeight int    `mapstructure:"window_height"`
}

type Extract struct {
	Workers int    `mapstructure:"workers"`
	CSV     string `mapstructure:"csv"`
}

//Config is the whole application configuration, built once at start-up and passed down
type Config struct {
	HTTP      HTTP                 `mapstructure:"http"`
	Directory Directory            `mapstructure:"directory"`
	Segment   Segment              `mapstructure:"segment"`
	Classify  Classify             `mapstructure:"classify"`
	Model     classify.ModelConfig `mapstructure:"model"`
	Pose      Pose                 `mapstructure:"pose"`
	Store     Store                `mapstructure:"store"`
	Live      Live                 `mapstructure:"live"`
	Extract   Extract              `mapstructure:"extract"`

	//File is the config file that was read, empty when running on defaults
	File string

	v *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "8080")

	v.SetDefault("directory.root", "./data")
	v.SetDefault("directory.video", "./data/videos")
	v.SetDefault("directory.samples", "./data/samples")
	v.SetDefault("directory.output", "./data/output")

	v.SetDefault("segment.preset", segment.PresetWebcam)
	v.SetDefault("segment.down_threshold", 0)
	v.SetDefault("segment.up_threshold", 0)
	v.SetDefault("segment.leg_selection", "")
	v.SetDefault("segment.max_span_frames", 0)

	v.SetDefault("classify.arity", string(classify.Binary))
	v.SetDefault("classify.threshold.offline", 0.5)
	v.SetDefault("classify.threshold.live", 0.8)
	v.SetDefault("classify.labels", []string{})
	v.SetDefault("classify.good_class", utils.GoodFormClass)

	v.SetDefault("model.backend", classify.BackendScript)
	v.SetDefault("model.python", "python3")
	v.SetDefault("model.script", "./scripts/predict.py")
	v.SetDefault("model.path", "./models/squat_model.h5")
	v.SetDefault("model.url", "")
	v.SetDefault("model.name", "")
	v.SetDefault("model.timeout", 5*time.Second)

	v.SetDefault("pose.python", "python3")
	v.SetDefault("pose.tracker_script", "./scripts/track_pose.py")
	v.SetDefault("pose.stream_script", "./scripts/stream_pose.py")

	v.SetDefault("store.enabled", false)
	v.SetDefault("store.driver", store.DriverSqlite)
	v.SetDefault("store.dsn", "./data/squats.db")

	v.SetDefault("live.device", "0")
	v.SetDefault("live.record", "")
	v.SetDefault("live.window_width", 1280)
	v.SetDefault("live.window_height", 720)

	v.SetDefault("extract.workers", 4)
	v.SetDefault("extract.csv", "./data/squat_dataset.csv")
}

//Load reads the configuration. With an empty path config.yaml is looked up in the working directory and may
//be missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: Could not read config file, got '%w'", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{v: v, File: v.ConfigFileUsed()}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: Could not decode configuration, got '%w'", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

//Watch calls fn with the reloaded configuration (or the reload error) every time the config file changes.
//It does nothing when no file was read.
func (c *Config) Watch(fn func(e fsnotify.Event, cfg *Config, err error)) {
	if c.v == nil || c.File == "" {
		return
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(c.v)
		fn(e, cfg, err)
	})
	c.v.WatchConfig()
}

//SegmentConfig resolves the preset and applies explicit overrides
func (c *Config) SegmentConfig() (segment.Config, error) {
	cfg, err := segment.Preset(c.Segment.Preset)
	if err != nil {
		return cfg, err
	}

	if c.Segment.DownThreshold != 0 {
		cfg.DownThreshold = c.Segment.DownThreshold
	}
	if c.Segment.UpThreshold != 0 {
		cfg.UpThreshold = c.Segment.UpThreshold
	}
	if c.Segment.LegSelection != "" {
		cfg.Leg = pose.LegSelection(c.Segment.LegSelection)
	}
	cfg.MaxSpanFrames = c.Segment.MaxSpanFrames

	return cfg, cfg.Validate()
}

//SegmentConfigFor resolves another preset than the configured one. Threshold and leg overrides are written for
//the configured preset, so they only apply when preset is the configured one; the span cap always applies.
func (c *Config) SegmentConfigFor(preset string) (segment.Config, error) {
	if preset == "" || preset == c.Segment.Preset {
		return c.SegmentConfig()
	}

	other := *c
	other.Segment = Segment{Preset: preset, MaxSpanFrames: c.Segment.MaxSpanFrames}
	return other.SegmentConfig()
}

//ClassifyConfig returns the output policy with the offline threshold; live callers switch with WithThreshold
func (c *Config) ClassifyConfig() classify.Config {
	return classify.Config{
		Arity:     classify.Arity(c.Classify.Arity),
		Threshold: c.Classify.Threshold.Offline,
		Labels:    c.Classify.Labels,
		GoodClass: c.Classify.GoodClass,
	}
}

//Validate checks every section; configuration errors are fatal at start-up
func (c *Config) Validate() error {
	if c.HTTP.Port == "" {
		return errors.New("config: http.port is required")
	}

	if _, err := c.SegmentConfig(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch classify.Arity(c.Classify.Arity) {
	case classify.Binary, classify.MultiClass:
	default:
		return fmt.Errorf("config: unknown classify.arity '%s'", c.Classify.Arity)
	}

	for name, t := range map[string]float64{"offline": c.Classify.Threshold.Offline, "live": c.Classify.Threshold.Live} {
		if t < 0 || t > 1 {
			return fmt.Errorf("config: classify.threshold.%s must be in [0, 1], got %v", name, t)
		}
	}

	if !utils.InSlice(c.Model.Backend, []string{classify.BackendScript, classify.BackendHTTP}) {
		return fmt.Errorf("config: unknown model.backend '%s'", c.Model.Backend)
	}

	if c.Model.Timeout < 0 {
		return fmt.Errorf("config: model.timeout must not be negative, got %v", c.Model.Timeout)
	}

	if c.Store.Enabled && !utils.InSlice(c.Store.Driver, []string{store.DriverPostgres, store.DriverSqlite}) {
		return fmt.Errorf("config: unknown store.driver '%s'", c.Store.Driver)
	}

	if c.Extract.Workers < 1 {
		return fmt.Errorf("config: extract.workers must be at least 1, got %d", c.Extract.Workers)
	}

	return nil
}

//EnsureDirectories creates every configured data directory that does not exist yet
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Directory.Root, c.Directory.Video, c.Directory.Samples, c.Directory.Output} {
		if dir == "" {
			continue
		}
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}
