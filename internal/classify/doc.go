// Package classify matches image colors against an active calibration
// table (single or merged LUT).
//
// Classification is a pure function of (table, color): no hidden state,
// deterministic, and safe to evaluate concurrently and out of order across
// an entire image. Ties between equally distant samples always break to
// the lowest sample index.
//
// The correctness baseline is Exhaustive, which compares a color against
// every sample. Index accelerates lookups with a kd-tree over the metric's
// embedding and is guaranteed to return identical results to the baseline
// for every input, ties included; metrics without a Euclidean embedding
// (CIEDE2000) transparently use the baseline.
//
// The color-distance metric is explicit configuration, not a built-in
// constant: plain RGB Euclidean, Euclidean in CIELAB (the default), or the
// CIEDE2000 perceptual difference.
package classify
