package pipeline

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Values is the dictionary exchanged between steps: named values of arbitrary
// type. The keys are the inter-step contract; transformers declare the keys
// they consume and produce, and the pipeline checks them.
type Values map[string]any

// RawInputs maps a logical dataset name to its values. Steps reference raw
// datasets by name through WithInputData, bypassing upstream steps.
type RawInputs map[string]Values

// Has reports whether key is present.
func (v Values) Has(key string) bool {
	_, ok := v[key]

	return ok
}

// Floats returns the []float64 stored under key.
func (v Values) Floats(key string) ([]float64, error) {
	raw, ok := v[key]
	if !ok {
		return nil, &MissingInputKeyError{Key: key}
	}

	f, ok := raw.([]float64)
	if !ok {
		return nil, &ContractError{Reason: fmt.Sprintf("key %q holds %T, want []float64", key, raw)}
	}

	return f, nil
}

// Matrix returns the mat.Matrix stored under key.
func (v Values) Matrix(key string) (mat.Matrix, error) {
	raw, ok := v[key]
	if !ok {
		return nil, &MissingInputKeyError{Key: key}
	}

	m, ok := raw.(mat.Matrix)
	if !ok {
		return nil, &ContractError{Reason: fmt.Sprintf("key %q holds %T, want mat.Matrix", key, raw)}
	}

	return m, nil
}

// Strings returns the []string stored under key.
func (v Values) Strings(key string) ([]string, error) {
	raw, ok := v[key]
	if !ok {
		return nil, &MissingInputKeyError{Key: key}
	}

	s, ok := raw.([]string)
	if !ok {
		return nil, &ContractError{Reason: fmt.Sprintf("key %q holds %T, want []string", key, raw)}
	}

	return s, nil
}
