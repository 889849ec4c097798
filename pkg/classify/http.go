package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chenBenjamin97/squat-checker/pkg/segment"
)

//HTTPModel calls a model served over REST in the TensorFlow Serving format:
//POST {"instances": [sequence]} and read {"predictions": [scores]}
type HTTPModel struct {
	endpoint string
	client   *http.Client
}

//NewHTTPModel returns a model calling endpoint (e.g. http://localhost:8501/v1/models/squat_tcn:predict)
func NewHTTPModel(endpoint string, timeout time.Duration) *HTTPModel {
	return &HTTPModel{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type predictRequest struct {
	Instances []segment.FeatureSequence `json:"instances"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
	Error       string            `json:"error"`
}

//Predict posts one sequence and returns the scores of its single prediction
func (m *HTTPModel) Predict(ctx context.Context, seq segment.FeatureSequence) ([]float64, error) {
	body, err := json.Marshal(predictRequest{Instances: []segment.FeatureSequence{seq}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model service request failed: %w", err)
	}
	defer resp.Body.Close()

	var predResp predictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&predResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("model service returned status: %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model service returned status %d: %s", resp.StatusCode, predResp.Error)
	}

	if len(predResp.Predictions) != 1 {
		return nil, fmt.Errorf("model service returned %d predictions for 1 instance", len(predResp.Predictions))
	}

	return decodePrediction(predResp.Predictions[0])
}

//decodePrediction accepts both [0.91, ...] and a bare 0.91
func decodePrediction(raw json.RawMessage) ([]float64, error) {
	var scores []float64
	if err := json.Unmarshal(raw, &scores); err == nil {
		return scores, nil
	}

	var score float64
	if err := json.Unmarshal(raw, &score); err != nil {
		return nil, fmt.Errorf("failed to decode prediction '%s': %w", string(raw), err)
	}
	return []float64{score}, nil
}

//Close releases idle connections
func (m *HTTPModel) Close() error {
	m.client.CloseIdleConnections()
	return nil
}
