// Package dataset loads labelled examples for the perceptron from CSV files
// and prepares them for training and inference.
//
// The CSV layout is a header line followed by one example per line. The first
// field of each example is its integer class label, the remaining fields are
// numeric features.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
)

var (
	// ErrEmpty is returned for a file without data rows.
	ErrEmpty = errors.New("dataset has no examples")
	// ErrLabel is returned for a label that is not an integer within the
	// int32 range.
	ErrLabel = errors.New("invalid label")
	// ErrDivisor is returned by Normalizer.Validate.
	ErrDivisor = errors.New("input divisor must be positive")
)

// Dataset holds one example per row of Features and the matching one-hot
// row of Labels.
type Dataset struct {
	Features *matrix.Matrix
	Labels   *matrix.Matrix
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	if d.Features == nil {
		return 0
	}
	return d.Features.Rows()
}

// LoadCSV reads the file at path. Labels are one-hot encoded into
// outputSize columns.
func LoadCSV(path string, outputSize int) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	d, err := ReadCSV(file, outputSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// ReadCSV is LoadCSV for an already open reader.
func ReadCSV(r io.Reader, outputSize int) (*Dataset, error) {
	if outputSize <= 0 {
		return nil, fmt.Errorf("output size %d must be positive", outputSize)
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// header
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	var (
		features [][]float64
		labels   []int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) < 2 {
			return nil, fmt.Errorf("row %d: want a label and at least one feature, got %d fields", line, len(record))
		}

		label, err := parseLabel(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d, col 0: %w", line, err)
		}
		row := make([]float64, len(record)-1)
		for j, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, col %d: %w", line, j+1, err)
			}
			row[j] = v
		}
		features = append(features, row)
		labels = append(labels, label)
	}
	if len(features) == 0 {
		return nil, ErrEmpty
	}

	f, err := matrix.FromRows(features)
	if err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}
	l, err := OneHot(labels, outputSize)
	if err != nil {
		return nil, err
	}
	return &Dataset{Features: f, Labels: l}, nil
}

func parseLabel(field string) (int, error) {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrLabel, field, err)
	}
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w %q: not an integer", ErrLabel, field)
	}
	if math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("%w %q: out of range", ErrLabel, field)
	}
	return int(v), nil
}

// OneHot encodes every label as a row of size columns with a 1 in the label's
// column. Labels outside [0, size) give an all-zero row.
func OneHot(labels []int, size int) (*matrix.Matrix, error) {
	data := make([]float64, len(labels)*size)
	for i, v := range labels {
		if v >= 0 && v < size {
			data[i*size+v] = 1
		}
	}
	return matrix.New(data, len(labels), size)
}

// Split returns the first ratio of the examples and the rest, preserving
// order. The ratio is clamped to [0, 1]; an empty side is nil.
func (d *Dataset) Split(ratio float64) (train, test *Dataset, err error) {
	n := d.Len()
	switch {
	case ratio <= 0:
		return nil, d, nil
	case ratio >= 1:
		return d, nil, nil
	}
	idx := int(float64(n) * ratio)
	if idx == 0 {
		return nil, d, nil
	}
	if idx == n {
		return d, nil, nil
	}

	if train, err = d.rows(0, idx); err != nil {
		return nil, nil, err
	}
	if test, err = d.rows(idx, n); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

func (d *Dataset) rows(from, to int) (*Dataset, error) {
	f := d.Features.RowSlices()[from:to]
	l := d.Labels.RowSlices()[from:to]
	features, err := matrix.FromRows(f)
	if err != nil {
		return nil, err
	}
	labels, err := matrix.FromRows(l)
	if err != nil {
		return nil, err
	}
	return &Dataset{Features: features, Labels: labels}, nil
}
