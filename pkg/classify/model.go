//Package classify turns feature sequences into form labels using an external classifier model
package classify

import (
	"context"
	"errors"
	"fmt"

	"github.com/chenBenjamin97/squat-checker/pkg/segment"
	"github.com/chenBenjamin97/squat-checker/pkg/utils"
)

//Model is the classifier: given one feature sequence it returns its raw output scores
//(one sigmoid score for a binary model, one probability per class for a multi-class model).
//Implementations must be safe for concurrent use.
type Model interface {
	Predict(ctx context.Context, seq segment.FeatureSequence) ([]float64, error)
	Close() error
}

var (
	//ErrShapeMismatch is returned when a sequence does not match the model's input shape
	ErrShapeMismatch = errors.New("shape mismatch")
	//ErrOutputArity is returned when the model output size does not fit the configured arity
	ErrOutputArity = errors.New("unexpected model output size")
)

//ShapeError describes a sequence with the wrong shape
type ShapeError struct {
	Rows   int
	Cols   int
	Ragged bool //rows have different lengths, Cols is the first row's length
}

func (e *ShapeError) Error() string {
	if e.Ragged {
		return fmt.Sprintf("Invalid input shape: expected (%d, %d), got %d rows of uneven length", utils.SequenceLength, utils.FeaturesNum, e.Rows)
	}
	return fmt.Sprintf("Invalid input shape: expected (%d, %d), got (%d, %d)", utils.SequenceLength, utils.FeaturesNum, e.Rows, e.Cols)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

//CheckShape returns a *ShapeError unless seq is exactly SequenceLength x FeaturesNum
func CheckShape(seq [][]float64) error {
	rows, cols := len(seq), 0
	if rows > 0 {
		cols = len(seq[0])
	}

	for _, row := range seq {
		if len(row) != cols {
			return &ShapeError{Rows: rows, Cols: cols, Ragged: true}
		}
	}

	if rows != utils.SequenceLength || cols != utils.FeaturesNum {
		return &ShapeError{Rows: rows, Cols: cols}
	}

	return nil
}
