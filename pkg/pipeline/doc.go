// Package pipeline provides a directed acyclic graph of named steps, each
// owning one transformer, with fit/transform dispatch and disk-backed
// memoization of fitted state.
//
// A step's FitTransform resolves every upstream step depth-first, exactly
// once per call even under diamond-shaped sharing, collects the upstream
// outputs together with any raw datasets the step references, and runs the
// transformer's fit followed by its transform. Transform performs the same
// resolution but never fits: persisted state, when present, is loaded
// instead, so a separate process can reuse previously fitted parameters.
//
// Trainable steps cache their fitted state under the experiment root, one
// directory per step. The cache check is presence-only: a stale cache at the
// same location is served as-is. Steps that want configuration-aware
// invalidation can opt in with WithFingerprint.
//
// Resolution is single-threaded and synchronous. The experiment root is
// shared by every trainable step of a pipeline; concurrent runs that write to
// one root race with each other, so concurrent fitting should use disjoint
// roots. Concurrent readers of a fitted root are safe across separate
// pipeline instances.
package pipeline
