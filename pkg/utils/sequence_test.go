package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(n int) [][]float64 {
	seq := make([][]float64, n)
	for i := range seq {
		seq[i] = []float64{float64(i + 1), float64(-(i + 1))}
	}
	return seq
}

func TestPadSequence(t *testing.T) {
	t.Run("pads by repeating last row", func(t *testing.T) {
		seq := rows(12)
		padded := PadSequence(seq, 30, 10)
		require.Len(t, padded, 30)
		assert.Equal(t, seq, padded[:12])
		for i := 12; i < 30; i++ {
			assert.Equal(t, seq[11], padded[i], "row %d", i)
		}
	})

	t.Run("truncates to the first rows", func(t *testing.T) {
		seq := rows(45)
		padded := PadSequence(seq, 30, 10)
		require.Len(t, padded, 30)
		assert.Equal(t, seq[:30], padded)
	})

	t.Run("exact length is kept", func(t *testing.T) {
		seq := rows(30)
		assert.Equal(t, seq, PadSequence(seq, 30, 10))
	})

	t.Run("too short is rejected", func(t *testing.T) {
		assert.Nil(t, PadSequence(rows(9), 30, 10))
		assert.Nil(t, PadSequence(nil, 30, 0))
	})

	t.Run("result does not share rows", func(t *testing.T) {
		seq := rows(10)
		padded := PadSequence(seq, 30, 10)
		padded[0][0] = 100
		padded[29][0] = 200
		assert.Equal(t, 1.0, seq[0][0])
		assert.Equal(t, 10.0, seq[9][0])
		assert.Equal(t, 10.0, padded[28][0])
	})
}

func TestZeroSequence(t *testing.T) {
	seq := ZeroSequence(SequenceLength, FeaturesNum)
	require.Len(t, seq, SequenceLength)
	for _, row := range seq {
		assert.Len(t, row, FeaturesNum)
		for _, v := range row {
			assert.Zero(t, v)
		}
	}
}
