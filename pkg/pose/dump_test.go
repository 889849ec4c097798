package pose

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDump(t *testing.T) {
	dump := `{"frames": {
		"10": {"mediapipe": {"left_hip": {"x": 0.3, "y": 0.4, "z": 0.1, "visibility": 0.8, "presence": 0.9}, "unknown": {"x": 1}}},
		"2":  {"mediapipe": {"RIGHT_KNEE": {"x": 0.6, "y": 0.5, "z": 0, "visibility": 1}}},
		"5":  {}
	}}`

	src, err := ReadDump(strings.NewReader(dump))
	require.NoError(t, err)
	require.Equal(t, 3, src.Len())

	ctx := context.Background()
	obs, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, Landmark{X: 0.6, Y: 0.5, Visibility: 1}, obs[RightKnee])

	obs, err = src.Next(ctx)
	require.NoError(t, err)
	assert.False(t, obs.Detected())

	obs, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Len(t, obs, 1)
	assert.Equal(t, 0.8, obs[LeftHip].Visibility)

	_, err = src.Next(ctx)
	assert.Equal(t, io.EOF, err)
}
