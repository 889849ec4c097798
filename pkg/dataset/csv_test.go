package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chenBenjamin97/squat-checker/pkg/classify"
	"github.com/chenBenjamin97/squat-checker/pkg/segment"
	"github.com/chenBenjamin97/squat-checker/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(base float64) segment.FeatureSequence {
	seq := make(segment.FeatureSequence, utils.SequenceLength)
	for i := range seq {
		seq[i] = make([]float64, utils.FeaturesNum)
		for j := range seq[i] {
			seq[i][j] = base + float64(i*utils.FeaturesNum+j)/1000
		}
	}
	return seq
}

func TestLabelFromName(t *testing.T) {
	assert.Equal(t, utils.BadFormClass, LabelFromName("squat_incorrect_03.mp4"))
	assert.Equal(t, utils.BadFormClass, LabelFromName("Squat_INCORRECT.mp4"))
	assert.Equal(t, utils.GoodFormClass, LabelFromName("squat_correct_03.mp4"))
	assert.Equal(t, utils.GoodFormClass, LabelFromName("anything.mp4"))
}

func TestWriteReadCSV(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(Sample{Sequence: sequence(0), Label: 1}))
	require.NoError(t, w.Write(Sample{Sequence: sequence(0.5), Label: 0}))
	require.NoError(t, w.Flush())
	assert.Equal(t, 2, w.Rows())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Len(t, strings.Split(lines[0], ","), utils.CSVColumns)
	assert.True(t, strings.HasSuffix(lines[1], ",0"))

	samples, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 1, samples[0].Label)
	assert.Equal(t, 0, samples[1].Label)
	assert.Equal(t, sequence(0), samples[0].Sequence)
	assert.Equal(t, sequence(0.5), samples[1].Sequence)
}

func TestWriteRejectsBadShape(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	err := w.Write(Sample{Sequence: sequence(0)[:29], Label: 1})
	assert.ErrorIs(t, err, classify.ErrShapeMismatch)
	assert.Equal(t, 0, w.Rows())
}

func TestReadCSVFloatLabel(t *testing.T) {
	row := strings.Repeat("0,", utils.CSVColumns-1) + "1.0\n"
	samples, err := ReadCSV(strings.NewReader(row))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 1, samples[0].Label)
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("1,2,3\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader(strings.Repeat("0,", utils.CSVColumns-1) + "0.5\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("x," + strings.Repeat("0,", utils.CSVColumns-2) + "1\n"))
	assert.Error(t, err)

	samples, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, samples)
}
