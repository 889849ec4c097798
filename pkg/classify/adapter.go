package classify

import (
	"context"
	"fmt"

	"github.com/chenBenjamin97/squat-checker/pkg/segment"
	"github.com/chenBenjamin97/squat-checker/pkg/utils"
	"gonum.org/v1/gonum/floats"
)

//Arity is the kind of model output
type Arity string

const (
	//Binary models output one sigmoid score, class 1 means good form
	Binary Arity = "binary"
	//MultiClass models output one probability per class
	MultiClass Arity = "multiclass"
)

//Config describes how model output is interpreted
type Config struct {
	Arity Arity
	//Threshold is the binary decision threshold: class 1 iff score > Threshold
	Threshold float64
	//Labels names the classes by index. Defaults to incorrect/correct for binary models.
	Labels []string
	//GoodClass is the class index counted as a good repetition. Binary models always use class 1.
	GoodClass int
}

//Result is a classified repetition
type Result struct {
	Class      int       `json:"prediction"`
	Label      string    `json:"label,omitempty"`
	Confidence float64   `json:"confidence"`
	Scores     []float64 `json:"scores,omitempty"`
	Good       bool      `json:"-"`
}

//Adapter applies the configured output policy on top of a Model. It keeps no state between calls.
type Adapter struct {
	model Model
	cfg   Config
}

//NewAdapter validates cfg and returns an adapter over model
func NewAdapter(model Model, cfg Config) (*Adapter, error) {
	switch cfg.Arity {
	case Binary:
		if cfg.Threshold < 0 || cfg.Threshold > 1 {
			return nil, fmt.Errorf("classify: binary threshold must be in [0, 1], got %v", cfg.Threshold)
		}
		if len(cfg.Labels) == 0 {
			cfg.Labels = utils.DefaultBinaryLabels
		}
		if len(cfg.Labels) != 2 {
			return nil, fmt.Errorf("classify: binary model needs 2 labels, got %d", len(cfg.Labels))
		}
		cfg.GoodClass = utils.GoodFormClass
	case MultiClass:
		if len(cfg.Labels) == 1 {
			return nil, fmt.Errorf("classify: multi-class model needs at least 2 labels")
		}
	default:
		return nil, fmt.Errorf("classify: unknown model arity '%s'", cfg.Arity)
	}

	if cfg.GoodClass < 0 || (len(cfg.Labels) > 0 && cfg.GoodClass >= len(cfg.Labels)) {
		return nil, fmt.Errorf("classify: good class %d out of range", cfg.GoodClass)
	}

	return &Adapter{model: model, cfg: cfg}, nil
}

//WithThreshold returns an adapter sharing the same model with another binary threshold
func (a *Adapter) WithThreshold(threshold float64) (*Adapter, error) {
	cfg := a.cfg
	cfg.Threshold = threshold
	return NewAdapter(a.model, cfg)
}

//Config returns the adapter's configuration
func (a *Adapter) Config() Config {
	return a.cfg
}

//Classify checks the sequence shape, runs the model once and applies the output policy
func (a *Adapter) Classify(ctx context.Context, seq segment.FeatureSequence) (Result, error) {
	if err := CheckShape(seq); err != nil {
		return Result{}, err
	}

	scores, err := a.model.Predict(ctx, seq)
	if err != nil {
		return Result{}, fmt.Errorf("classify: model prediction failed: %w", err)
	}

	return a.interpret(scores)
}

func (a *Adapter) interpret(scores []float64) (Result, error) {
	res := Result{Scores: scores}

	switch a.cfg.Arity {
	case Binary:
		if len(scores) != 1 {
			return Result{}, fmt.Errorf("classify: %w: binary model returned %d scores", ErrOutputArity, len(scores))
		}
		res.Confidence = scores[0]
		res.Class = utils.BadFormClass
		if scores[0] > a.cfg.Threshold {
			res.Class = utils.GoodFormClass
		}
		res.Scores = nil

	case MultiClass:
		if len(scores) < 2 || (len(a.cfg.Labels) > 0 && len(scores) != len(a.cfg.Labels)) {
			return Result{}, fmt.Errorf("classify: %w: multi-class model returned %d scores for %d labels", ErrOutputArity, len(scores), len(a.cfg.Labels))
		}
		res.Class = floats.MaxIdx(scores)
		res.Confidence = scores[res.Class]
	}

	if res.Class < len(a.cfg.Labels) {
		res.Label = a.cfg.Labels[res.Class]
	}
	res.Good = res.Class == a.cfg.GoodClass
	return res, nil
}
