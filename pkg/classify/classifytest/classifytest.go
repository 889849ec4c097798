//Package classifytest provides in-memory classifier models for tests
package classifytest

import (
	"context"
	"sync"

	"github.com/chenBenjamin97/squat-checker/pkg/segment"
)

//Model returns fixed scores (or a fixed error) and records every sequence it was given
type Model struct {
	Scores []float64
	Err    error

	mu     sync.Mutex
	seen   []segment.FeatureSequence
	closed bool
}

//NewModel returns a model answering every prediction with scores
func NewModel(scores ...float64) *Model {
	return &Model{Scores: scores}
}

func (m *Model) Predict(ctx context.Context, seq segment.FeatureSequence) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seen = append(m.seen, seq)
	if m.Err != nil {
		return nil, m.Err
	}

	out := make([]float64, len(m.Scores))
	copy(out, m.Scores)
	return out, nil
}

func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

//Seen returns the sequences given to Predict so far
func (m *Model) Seen() []segment.FeatureSequence {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]segment.FeatureSequence(nil), m.seen...)
}

//Closed reports whether Close was called
func (m *Model) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
