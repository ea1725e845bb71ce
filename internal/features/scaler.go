package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes the fixed numeric feature subset as (x - mean) / scale.
// Parameters are fitted once, on the training split only, and never
// recomputed at serving time.
type Scaler struct {
	Version  string    `json:"version"`
	Features []string  `json:"features"`
	Means    []float64 `json:"means"`
	Scales   []float64 `json:"scales"`
}

// FitScaler computes mean and scale for every numeric feature over the rows
// of x, which must be aligned to schema. Constant columns get scale 1 so that
// transforming them is a no-op.
func FitScaler(x [][]float64, schema *Schema) (*Scaler, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("cannot fit scaler on an empty dataset")
	}

	s := &Scaler{
		Features: append([]string{}, NumericFeatures...),
		Means:    make([]float64, len(NumericFeatures)),
		Scales:   make([]float64, len(NumericFeatures)),
	}

	column := make([]float64, len(x))
	for i, name := range NumericFeatures {
		idx := columnIndex(schema, name)
		if idx < 0 {
			return nil, fmt.Errorf("schema has no column %q", name)
		}
		for row := range x {
			column[row] = x[row][idx]
		}
		mean := stat.Mean(column, nil)

		// population variance, not the sample estimator
		variance := 0.0
		for _, v := range column {
			d := v - mean
			variance += d * d
		}
		variance /= float64(len(column))

		scale := math.Sqrt(variance)
		if scale == 0 {
			scale = 1
		}
		s.Means[i] = mean
		s.Scales[i] = scale
	}

	return s, nil
}

// Transform standardizes the numeric subset of a schema-aligned vector in
// place, leaving one-hot and passthrough columns untouched.
func (s *Scaler) Transform(vec []float64, schema *Schema) error {
	for i, name := range s.Features {
		idx := columnIndex(schema, name)
		if idx < 0 || idx >= len(vec) {
			return fmt.Errorf("schema has no column %q", name)
		}
		vec[idx] = (vec[idx] - s.Means[i]) / s.Scales[i]
	}
	return nil
}

// TransformAll standardizes every row of a schema-aligned matrix in place.
func (s *Scaler) TransformAll(x [][]float64, schema *Schema) error {
	for _, row := range x {
		if err := s.Transform(row, schema); err != nil {
			return err
		}
	}
	return nil
}

func columnIndex(schema *Schema, name string) int {
	for i, col := range schema.Columns {
		if col == name {
			return i
		}
	}
	return -1
}
