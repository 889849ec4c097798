package classify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chenBenjamin97/squat-checker/pkg/utils"
)

const (
	//BackendScript runs the model in a python subprocess
	BackendScript = "script"
	//BackendHTTP calls a model server
	BackendHTTP = "http"
)

//ModelConfig selects and configures a model backend
type ModelConfig struct {
	Backend string        `mapstructure:"backend"`
	Python  string        `mapstructure:"python"`
	Script  string        `mapstructure:"script"`
	Path    string        `mapstructure:"path"`
	URL     string        `mapstructure:"url"`
	//Name is the served model name, appended to URL as /v1/models/<name>:predict when set
	Name    string        `mapstructure:"name"`
	Timeout time.Duration `mapstructure:"timeout"`
}

//Endpoint returns the prediction URL of the http backend
func (c ModelConfig) Endpoint() string {
	if c.Name == "" {
		return c.URL
	}
	return strings.TrimSuffix(c.URL, "/") + "/v1/models/" + c.Name + ":predict"
}

//Open starts the configured model backend. The model is loaded once and shared read-only afterwards.
func Open(ctx context.Context, cfg ModelConfig) (Model, error) {
	switch cfg.Backend {
	case BackendScript:
		if cfg.Script == "" || cfg.Path == "" {
			return nil, fmt.Errorf("classify: script backend needs model.script and model.path")
		}
		python := cfg.Python
		if python == "" {
			python = "python3"
		}
		return StartScriptModel(ctx, python, cfg.Script,
			"--model", cfg.Path,
			"--timestamps", strconv.Itoa(utils.SequenceLength),
			"--features", strconv.Itoa(utils.FeaturesNum))

	case BackendHTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("classify: http backend needs model.url")
		}
		return NewHTTPModel(cfg.Endpoint(), cfg.Timeout), nil
	}

	return nil, fmt.Errorf("classify: unknown model backend '%s'", cfg.Backend)
}
