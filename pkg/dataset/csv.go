//Package dataset builds and loads the offline training data: CSV rows of flattened feature sequences followed
//by an integer label, and per-video JSON sample files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chenBenjamin97/squat-checker/pkg/classify"
	"github.com/chenBenjamin97/squat-checker/pkg/segment"
	"github.com/chenBenjamin97/squat-checker/pkg/utils"
)

//Sample is one labeled feature sequence
type Sample struct {
	Sequence segment.FeatureSequence
	Label    int
}

//LabelFromName labels a source video by its file name: bad form when the name contains "incorrect"
func LabelFromName(name string) int {
	if strings.Contains(strings.ToLower(name), utils.IncorrectMarker) {
		return utils.BadFormClass
	}
	return utils.GoodFormClass
}

//Writer writes dataset rows: SequenceLength*FeaturesNum values and the label
type Writer struct {
	w    *csv.Writer
	rows int
}

//NewWriter returns a dataset writer over w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

//Write appends one sample as a row
func (w *Writer) Write(s Sample) error {
	if err := classify.CheckShape(s.Sequence); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}

	record := make([]string, 0, utils.CSVColumns)
	for _, row := range s.Sequence {
		for _, v := range row {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	record = append(record, strconv.Itoa(s.Label))

	if err := w.w.Write(record); err != nil {
		return fmt.Errorf("dataset: Could not write row, got '%w'", err)
	}
	w.rows++
	return nil
}

//Rows returns the number of rows written
func (w *Writer) Rows() int {
	return w.rows
}

//Flush writes buffered rows to the underlying writer
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

//ReadCSV loads all samples of a dataset, validating column count and labels
func ReadCSV(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = utils.CSVColumns
	reader.ReuseRecord = true

	samples := make([]Sample, 0)
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: Could not read row %d, got '%w'", line, err)
		}

		s, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("dataset: row %d: %w", line, err)
		}
		samples = append(samples, s)
	}
}

func parseRecord(record []string) (Sample, error) {
	values := make([]float64, utils.SequenceLength*utils.FeaturesNum)
	for i := range values {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return Sample{}, fmt.Errorf("column %d: %w", i+1, err)
		}
		values[i] = v
	}

	label, err := strconv.Atoi(strings.TrimSpace(record[len(record)-1]))
	if err != nil {
		//labels written by numpy/pandas may come as floats ("1.0")
		f, ferr := strconv.ParseFloat(strings.TrimSpace(record[len(record)-1]), 64)
		if ferr != nil || f != float64(int(f)) {
			return Sample{}, fmt.Errorf("label '%s' is not an integer", record[len(record)-1])
		}
		label = int(f)
	}

	seq := make(segment.FeatureSequence, utils.SequenceLength)
	for i := range seq {
		seq[i] = values[i*utils.FeaturesNum : (i+1)*utils.FeaturesNum]
	}

	return Sample{Sequence: seq, Label: label}, nil
}
