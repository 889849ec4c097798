package pose

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const hipLine = `{"landmarks":[{"x":0.1,"y":0.2,"z":0.3,"visibility":0.9}]}`

func TestTrackerNext(t *testing.T) {
	out := strings.Join([]string{
		"loading model...",
		"Frame #: 1",
		hipLine,
		"FPS: 12.5",
		"Frame #: 2",
		"Frame #: 3",
		`{"landmarks":null}`,
		"Frame #: 4",
		"not json {",
		"{broken",
		"EOF",
	}, "\n")

	tr := newTracker(strings.NewReader(out), zap.NewNop())
	ctx := context.Background()

	obs, err := tr.Next(ctx)
	require.NoError(t, err)
	require.True(t, obs.Detected())
	assert.Equal(t, Landmark{X: 0.1, Y: 0.2, Z: 0.3, Visibility: 0.9}, obs[Nose])

	for i := 2; i <= 4; i++ {
		obs, err = tr.Next(ctx)
		require.NoError(t, err, "frame %d", i)
		assert.False(t, obs.Detected(), "frame %d", i)
	}

	_, err = tr.Next(ctx)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 4, tr.Frames())
	assert.NoError(t, tr.Close())
}

func TestTrackerWithoutEOFLine(t *testing.T) {
	tr := newTracker(strings.NewReader("Frame #: 1\n"+hipLine+"\n"), zap.NewNop())

	obs, err := tr.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, obs.Detected())

	_, err = tr.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestTrackerCloseAfterTrailingOutput(t *testing.T) {
	//the script keeps printing well past the pipe buffer after its last frame
	script := filepath.Join(t.TempDir(), "track.sh")
	require.NoError(t, os.WriteFile(script, []byte(`echo "Frame #: 1"
echo "EOF"
head -c 300000 /dev/zero | tr '\0' 'x'
echo
`), 0644))

	tr, err := StartTracker(context.Background(), "sh", script, "squat.mp4", zap.NewNop())
	require.NoError(t, err)

	_, err = tr.Next(context.Background())
	require.NoError(t, err)
	_, err = tr.Next(context.Background())
	require.Equal(t, io.EOF, err)

	closed := make(chan error, 1)
	go func() { closed <- tr.Close() }()

	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Close did not return")
	}
}

func TestTrackerEmptyOutput(t *testing.T) {
	tr := newTracker(strings.NewReader("EOF\n"), zap.NewNop())
	_, err := tr.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestTrackerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := newTracker(strings.NewReader("Frame #: 1\n"), zap.NewNop())
	_, err := tr.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeLandmarks(t *testing.T) {
	obs, err := DecodeLandmarks([]byte(`{"landmarks":[]}`))
	require.NoError(t, err)
	assert.Nil(t, obs)

	_, err = DecodeLandmarks([]byte(`{"landmarks":` + strings.Repeat("x", 3) + `}`))
	assert.Error(t, err)

	many := "[" + strings.TrimSuffix(strings.Repeat(`{"x":0},`, int(NumLandmarks)+1), ",") + "]"
	_, err = DecodeLandmarks([]byte(`{"landmarks":` + many + `}`))
	assert.Error(t, err)
}
