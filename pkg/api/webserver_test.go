package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chenBenjamin97/squat-checker/pkg/classify"
	"github.com/chenBenjamin97/squat-checker/pkg/classify/classifytest"
	"github.com/chenBenjamin97/squat-checker/pkg/dataset"
	"github.com/chenBenjamin97/squat-checker/pkg/store"
	"github.com/chenBenjamin97/squat-checker/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func router(t *testing.T, model classify.Model, opts Options) *gin.Engine {
	t.Helper()
	if model != nil {
		a, err := classify.NewAdapter(model, classify.Config{Arity: classify.Binary, Threshold: 0.5})
		require.NoError(t, err)
		opts.Classifier = a
	}
	return SetRouter(opts)
}

func do(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func payload(t *testing.T, rows, cols int) string {
	t.Helper()
	seq := utils.ZeroSequence(rows, cols)
	data, err := json.Marshal(map[string]interface{}{"sequence": seq})
	require.NoError(t, err)
	return string(data)
}

func TestPredict(t *testing.T) {
	model := classifytest.NewModel(0.91)
	r := router(t, model, Options{})

	w := do(r, http.MethodPost, "/predict", payload(t, 30, 48))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"prediction":1,"confidence":0.91}`, w.Body.String())
	assert.Len(t, model.Seen(), 1)
}

func TestPredictLowScore(t *testing.T) {
	r := router(t, classifytest.NewModel(0.3), Options{})

	w := do(r, http.MethodPost, "/predict", payload(t, 30, 48))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"prediction":0,"confidence":0.3}`, w.Body.String())
}

func TestPredictWrongShape(t *testing.T) {
	model := classifytest.NewModel(0.91)
	r := router(t, model, Options{})

	w := do(r, http.MethodPost, "/predict", payload(t, 29, 48))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "(29, 48)")
	assert.Empty(t, model.Seen())
}

func TestPredictMissingSequence(t *testing.T) {
	r := router(t, classifytest.NewModel(0.91), Options{})

	w := do(r, http.MethodPost, "/predict", `{"frames": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Missing 'sequence' key")

	w = do(r, http.MethodPost, "/predict", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictModelError(t *testing.T) {
	model := classifytest.NewModel()
	model.Err = errors.New("model crashed")
	r := router(t, model, Options{})

	w := do(r, http.MethodPost, "/predict", payload(t, 30, 48))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "model crashed")
}

func TestPredictWithoutModel(t *testing.T) {
	r := router(t, nil, Options{})
	w := do(r, http.MethodPost, "/predict", payload(t, 30, 48))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealth(t *testing.T) {
	w := do(router(t, nil, Options{}), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSamples(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, dataset.WriteSampleJSON(filepath.Join(dir, "squat_correct.json"), utils.ZeroSequence(30, 48)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), nil, 0644))
	r := router(t, nil, Options{SamplesDir: dir})

	w := do(r, http.MethodGet, "/api/SamplesNames", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["squat_correct"]`, w.Body.String())

	w = do(r, http.MethodGet, "/api/Sample?name=squat_correct", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sample dataset.SampleFile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sample))
	assert.Len(t, sample.Sequence, 30)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/Sample?name=missing", "").Code)
	assert.Equal(t, http.StatusNotAcceptable, do(r, http.MethodGet, "/api/Sample", "").Code)

	missing := router(t, nil, Options{SamplesDir: filepath.Join(dir, "nope")})
	assert.Equal(t, http.StatusInternalServerError, do(missing, http.MethodGet, "/api/SamplesNames", "").Code)
}

func TestRepetitions(t *testing.T) {
	ctx := context.Background()
	repo, err := store.Open(ctx, store.DriverSqlite, ":memory:")
	require.NoError(t, err)
	defer repo.Close()
	require.NoError(t, repo.Migrate(ctx))

	for i := 1; i <= 3; i++ {
		_, err := repo.SaveRepetition(ctx, store.Record{SessionID: "s1", Index: i, Class: 1, Label: "correct", Confidence: 0.9}, utils.ZeroSequence(30, 48))
		require.NoError(t, err)
	}

	r := router(t, nil, Options{Repetitions: repo})
	w := do(r, http.MethodGet, "/api/Repetitions?session=s1&limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	var records []store.Record
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&records))
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Index)
	assert.Empty(t, records[0].Sequence)

	assert.Equal(t, http.StatusNotAcceptable, do(r, http.MethodGet, "/api/Repetitions?limit=x", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(router(t, nil, Options{}), http.MethodGet, "/api/Repetitions", "").Code)
}

func TestSessionSummary(t *testing.T) {
	ctx := context.Background()
	repo, err := store.Open(ctx, store.DriverSqlite, ":memory:")
	require.NoError(t, err)
	defer repo.Close()
	require.NoError(t, repo.Migrate(ctx))

	for i, class := range []int{1, 0, 1} {
		_, err := repo.SaveRepetition(ctx, store.Record{SessionID: "s1", Index: i + 1, Class: class}, utils.ZeroSequence(30, 48))
		require.NoError(t, err)
	}

	r := router(t, classifytest.NewModel(0.5), Options{Repetitions: repo})
	w := do(r, http.MethodGet, "/api/SessionSummary?session=s1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session":"s1","repetitions":3,"good":2}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/SessionSummary?session=other", "").Code)
	assert.Equal(t, http.StatusNotAcceptable, do(r, http.MethodGet, "/api/SessionSummary", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(router(t, nil, Options{}), http.MethodGet, "/api/SessionSummary?session=s1", "").Code)
}
