package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptModel(t *testing.T) {
	//answers with the number of comma separated values it got, errors on empty lines
	script := `while IFS= read -r line; do
  if [ -z "$line" ]; then echo "ERROR empty input"; continue; fi
  n=$(printf '%s' "$line" | tr ',' '\n' | wc -l)
  echo "0.25, $((n + 1))"
done`
	m, err := StartScriptModel(context.Background(), "sh", "-c", script)
	require.NoError(t, err)

	scores, err := m.Predict(context.Background(), validSequence())
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 1440}, scores)

	_, err = m.Predict(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty input")

	require.NoError(t, m.Close())
}

func TestEncodeDecode(t *testing.T) {
	assert.Equal(t, "1,0.5,-2,3e-07", encodeSequence([][]float64{{1, 0.5}, {-2, 3e-7}}))

	scores, err := decodeScores(" 0.1,0.9 \n")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.9}, scores)

	_, err = decodeScores("\n")
	assert.ErrorIs(t, err, errNotScores)
	_, err = decodeScores("0.1,abc")
	assert.ErrorIs(t, err, errNotScores)
	_, err = decodeScores("ERROR bad input")
	assert.ErrorIs(t, err, errScriptReported)
}

func TestScriptModelSkipsLogLines(t *testing.T) {
	//keras prints a progress bar before the first prediction
	script := `n=0
while IFS= read -r line; do
  n=$((n + 1))
  if [ "$n" -eq 1 ]; then echo "1/1 [==============================] - 0s 25ms/step"; echo ""; echo "0.1"; else echo "0.9"; fi
done`
	m, err := StartScriptModel(context.Background(), "sh", "-c", script)
	require.NoError(t, err)
	defer m.Close()

	scores, err := m.Predict(context.Background(), validSequence())
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1}, scores)

	scores, err = m.Predict(context.Background(), validSequence())
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9}, scores)
}

func TestScriptModelBrokenAfterExit(t *testing.T) {
	m, err := StartScriptModel(context.Background(), "sh", "-c", "read -r line; echo progress")
	require.NoError(t, err)

	_, err = m.Predict(context.Background(), validSequence())
	require.Error(t, err)

	_, again := m.Predict(context.Background(), validSequence())
	assert.Equal(t, err, again)
	m.Close()
}
