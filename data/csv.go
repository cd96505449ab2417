package data

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LoadCSV reads a labelled dataset in the MNIST CSV layout: one sample per
// line, the class label first, then the features. A first line whose label
// column is not a number is skipped as a header.
func LoadCSV(path string) ([][]float64, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open dataset")
	}
	defer f.Close()

	samples, labels, err := ReadCSV(f)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read %s", path)
	}
	return samples, labels, nil
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader) ([][]float64, []int, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	var samples [][]float64
	var labels []int
	width := -1

	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrapf(err, "line %d", line)
		}

		label, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, nil, errors.Wrapf(err, "line %d: label", line)
		}
		if label < 0 {
			return nil, nil, errors.Errorf("line %d: negative label %d", line, label)
		}

		features := record[1:]
		if width == -1 {
			width = len(features)
		}
		if len(features) == 0 || len(features) != width {
			return nil, nil, errors.Errorf("line %d: %d features, want %d", line, len(features), width)
		}

		sample := make([]float64, len(features))
		for i, field := range features {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "line %d: column %d", line, i+2)
			}
			sample[i] = v
		}
		samples = append(samples, sample)
		labels = append(labels, label)
	}

	if len(samples) == 0 {
		return nil, nil, errors.New("no samples")
	}
	return samples, labels, nil
}

// NormalizePixels divides every feature by maxValue in place (255 for 8-bit
// images), mapping them into [0, 1].
func NormalizePixels(samples [][]float64, maxValue float64) {
	for _, s := range samples {
		for i := range s {
			s[i] /= maxValue
		}
	}
}

// OneHot encodes labels as numClasses-wide indicator vectors.
func OneHot(labels []int, numClasses int) ([][]float64, error) {
	if numClasses <= 0 {
		return nil, errors.Errorf("numClasses must be > 0 (got %d)", numClasses)
	}
	out := make([][]float64, len(labels))
	for i, l := range labels {
		if l < 0 || l >= numClasses {
			return nil, errors.Errorf("label %d at %d outside [0, %d)", l, i, numClasses)
		}
		out[i] = make([]float64, numClasses)
		out[i][l] = 1
	}
	return out, nil
}
