// Copyright ©2026 The Depthfield Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcorr computes windowed cross-correlation disparity maps on the
// CPU using a device-style execution model.
//
// The engine searches, for every destination cell, the horizontal offset
// whose correlation window against a reference window scores highest, and
// stores the winning offset. Two kernel variants are provided: a direct
// kernel that reads source matrices in place, and a tiled kernel that
// stages the rows each tile needs into a per-tile buffer before searching.
// Both produce bit-identical output.
//
// Work is expressed as kernels launched over a 2-D grid of tiles, with
// copies and launches ordered on streams and timed with events, so code
// written against a GPU runtime maps over with little friction:
//
//	dest, err := xcorr.Correlate[uint32](left, right, 9, rows, cols, cfg)
//
// The bench subpackage sweeps matrix sizes, tile shapes and window widths
// and records results; the gpu subpackage runs the same search on actual
// hardware through WebGPU.
package xcorr
