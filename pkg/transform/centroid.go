package transform

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/stepline/stepline/pkg/pipeline"
)

// NearestCentroid is a minimal classifier: Fit computes one centroid per
// class, Transform predicts the class of the nearest centroid for every row.
// Labels are needed only during Fit, so a fitted (or loaded) instance can
// transform inputs carrying features alone.
type NearestCentroid struct {
	xKey   string
	yKey   string
	outKey string

	classes   []float64
	centroids [][]float64
}

// NewNearestCentroid creates a classifier reading features under xKey and,
// during Fit, labels under yKey; predictions are produced under outKey.
func NewNearestCentroid(xKey, yKey, outKey string) *NearestCentroid {
	return &NearestCentroid{xKey: xKey, yKey: yKey, outKey: outKey}
}

func (c *NearestCentroid) InputKeys() []string { return []string{c.xKey} }

func (c *NearestCentroid) OutputKeys() []string { return []string{c.outKey} }

// FitKeys declares the label key required during Fit on top of InputKeys.
func (c *NearestCentroid) FitKeys() []string { return []string{c.yKey} }

// Fit computes per-class centroids. Fitting again replaces them.
func (c *NearestCentroid) Fit(ctx context.Context, in pipeline.Values) error {
	x, err := in.Matrix(c.xKey)
	if err != nil {
		return err
	}
	y, err := in.Floats(c.yKey)
	if err != nil {
		return err
	}

	rows, cols := x.Dims()
	if len(y) != rows {
		return errors.Errorf("nearest centroid: %d labels for %d rows", len(y), rows)
	}

	sums := make(map[float64][]float64)
	counts := make(map[float64]int)
	for i := 0; i < rows; i++ {
		label := y[i]
		if _, ok := sums[label]; !ok {
			sums[label] = make([]float64, cols)
		}
		for j := 0; j < cols; j++ {
			sums[label][j] += x.At(i, j)
		}
		counts[label]++
	}

	classes := make([]float64, 0, len(sums))
	for label := range sums {
		classes = append(classes, label)
	}
	sort.Float64s(classes)

	centroids := make([][]float64, len(classes))
	for k, label := range classes {
		centroid := sums[label]
		for j := range centroid {
			centroid[j] /= float64(counts[label])
		}
		centroids[k] = centroid
	}

	c.classes = classes
	c.centroids = centroids

	return nil
}

// Transform predicts one label per input row, aligned 1:1 with the rows.
func (c *NearestCentroid) Transform(ctx context.Context, in pipeline.Values) (pipeline.Values, error) {
	if c.centroids == nil {
		return nil, errors.Wrap(ErrNotFitted, "nearest centroid")
	}

	x, err := in.Matrix(c.xKey)
	if err != nil {
		return nil, err
	}

	rows, cols := x.Dims()
	if cols != len(c.centroids[0]) {
		return nil, errors.Errorf("nearest centroid: input has %d columns, fitted on %d", cols, len(c.centroids[0]))
	}

	preds := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, x)

		best := 0
		bestDist := math.Inf(1)
		for k, centroid := range c.centroids {
			dist := 0.0
			for j := range centroid {
				d := row[j] - centroid[j]
				dist += d * d
			}
			if dist < bestDist {
				bestDist = dist
				best = k
			}
		}
		preds[i] = c.classes[best]
	}

	return pipeline.Values{c.outKey: preds}, nil
}

type centroidState struct {
	Version   string      `json:"version"`
	Classes   []float64   `json:"classes"`
	Centroids [][]float64 `json:"centroids"`
}

func (c *NearestCentroid) Persist(dir string) error {
	if c.centroids == nil {
		return errors.Wrap(ErrNotFitted, "nearest centroid")
	}

	return saveState(dir, centroidState{Version: stateVersion, Classes: c.classes, Centroids: c.centroids})
}

func (c *NearestCentroid) Load(dir string) error {
	var state centroidState
	err := loadState(dir, &state)
	if err != nil {
		return err
	}

	c.classes = state.Classes
	c.centroids = state.Centroids

	return nil
}

// Fingerprint encodes the key configuration.
func (c *NearestCentroid) Fingerprint() []byte {
	return []byte(strings.Join([]string{"nearest_centroid", c.xKey, c.yKey, c.outKey}, "\x00"))
}

var (
	_ pipeline.Transformer   = (*NearestCentroid)(nil)
	_ pipeline.FitContract   = (*NearestCentroid)(nil)
	_ pipeline.Fingerprinter = (*NearestCentroid)(nil)
)
