package transform

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/stepline/stepline/pkg/pipeline"
)

// StandardScaler standardises each column of a matrix to zero mean and unit
// variance, with mean and scale learnt during Fit. Columns with zero variance
// are left unscaled.
type StandardScaler struct {
	inKey  string
	outKey string

	mean  []float64
	scale []float64
}

// NewStandardScaler creates a scaler reading the matrix under inKey and
// producing the scaled matrix under outKey.
func NewStandardScaler(inKey, outKey string) *StandardScaler {
	return &StandardScaler{inKey: inKey, outKey: outKey}
}

func (s *StandardScaler) InputKeys() []string { return []string{s.inKey} }

func (s *StandardScaler) OutputKeys() []string { return []string{s.outKey} }

// Fit learns per-column mean and standard deviation. Fitting again replaces
// the learnt parameters.
func (s *StandardScaler) Fit(ctx context.Context, in pipeline.Values) error {
	x, err := in.Matrix(s.inKey)
	if err != nil {
		return err
	}

	rows, cols := x.Dims()
	mean := make([]float64, cols)
	scale := make([]float64, cols)

	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		m, std := stat.MeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		mean[j] = m
		scale[j] = std
	}

	s.mean = mean
	s.scale = scale

	return nil
}

// Transform returns the standardised matrix. It does not mutate the learnt
// parameters or the input.
func (s *StandardScaler) Transform(ctx context.Context, in pipeline.Values) (pipeline.Values, error) {
	if s.mean == nil {
		return nil, errors.Wrap(ErrNotFitted, "standard scaler")
	}

	x, err := in.Matrix(s.inKey)
	if err != nil {
		return nil, err
	}

	rows, cols := x.Dims()
	if cols != len(s.mean) {
		return nil, errors.Errorf("standard scaler: input has %d columns, fitted on %d", cols, len(s.mean))
	}

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, (x.At(i, j)-s.mean[j])/s.scale[j])
		}
	}

	return pipeline.Values{s.outKey: out}, nil
}

type scalerState struct {
	Version string    `json:"version"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
}

func (s *StandardScaler) Persist(dir string) error {
	if s.mean == nil {
		return errors.Wrap(ErrNotFitted, "standard scaler")
	}

	return saveState(dir, scalerState{Version: stateVersion, Mean: s.mean, Scale: s.scale})
}

func (s *StandardScaler) Load(dir string) error {
	var state scalerState
	err := loadState(dir, &state)
	if err != nil {
		return err
	}

	s.mean = state.Mean
	s.scale = state.Scale

	return nil
}

// Fingerprint encodes the key configuration.
func (s *StandardScaler) Fingerprint() []byte {
	return []byte(strings.Join([]string{"standard_scaler", s.inKey, s.outKey}, "\x00"))
}

var (
	_ pipeline.Transformer   = (*StandardScaler)(nil)
	_ pipeline.Fingerprinter = (*StandardScaler)(nil)
)
