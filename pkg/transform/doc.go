// Package transform provides ready-made transformers for the pipeline
// package: a standard scaler, a nearest-centroid classifier and a stateless
// function adapter. They exchange gonum matrices and float slices through
// the pipeline's value dictionaries and persist their fitted parameters as
// versioned JSON state files.
package transform
