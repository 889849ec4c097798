package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func centered() Observation {
	obs := make(Observation)
	for _, n := range GatedLandmarks {
		obs[n] = Landmark{X: 0.5, Y: 0.5, Visibility: 1}
	}
	return obs
}

func TestIsFullyVisible(t *testing.T) {
	assert.True(t, IsFullyVisible(centered()))
	assert.False(t, IsFullyVisible(nil))
	assert.False(t, IsFullyVisible(Observation{}))

	for _, n := range GatedLandmarks {
		obs := centered()
		lm := obs[n]
		lm.Visibility = 0.49
		obs[n] = lm
		assert.False(t, IsFullyVisible(obs), "low visibility of %s", n)

		obs = centered()
		lm = obs[n]
		lm.X = 1.01
		obs[n] = lm
		assert.False(t, IsFullyVisible(obs), "%s out of frame", n)

		obs = centered()
		delete(obs, n)
		assert.False(t, IsFullyVisible(obs), "%s missing", n)
	}

	obs := centered()
	lm := obs[LeftKnee]
	lm.Visibility = MinVisibility
	lm.Y = 0
	obs[LeftKnee] = lm
	assert.True(t, IsFullyVisible(obs), "bounds are inclusive")
}
