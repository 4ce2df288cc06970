// Copyright 2022 Peleiden
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ds

import (
	"errors"
	"fmt"
)

// ErrLengthMismatch is returned when paired coordinate slices differ in length.
var ErrLengthMismatch = errors.New("ds: x and y must have the same length")

func xOrIota(x, y []float64) ([]float64, []float64, error) {
	if y == nil {
		y = x
		x = make([]float64, len(y))
		for i := range x {
			x[i] = float64(i)
		}
	}
	if len(x) != len(y) {
		return nil, nil, ErrLengthMismatch
	}
	return x, y, nil
}

// MovingAvg computes a triangular moving average over evenly spaced data.
// If y is nil, x is taken as the values and indices are used as coordinates.
// The returned slices are 2*neighbors shorter than the input.
func MovingAvg(x, y []float64, neighbors int) ([]float64, []float64, error) {
	x, y, err := xOrIota(x, y)
	if err != nil {
		return nil, nil, err
	}
	if neighbors < 1 {
		return nil, nil, fmt.Errorf("ds: neighbors must be positive, got %d", neighbors)
	}
	if len(y) <= 2*neighbors {
		return nil, nil, fmt.Errorf("ds: need more than %d points for %d neighbors, got %d",
			2*neighbors, neighbors, len(y))
	}

	// Triangular kernel 1, 2, ..., n+1, n, ..., 1 normalized to sum 1.
	kernel := make([]float64, 2*neighbors+1)
	var ksum float64
	for i := range kernel {
		v := float64(i + 1)
		if i > neighbors {
			v = float64(2*neighbors + 1 - i)
		}
		kernel[i] = v
		ksum += v
	}
	for i := range kernel {
		kernel[i] /= ksum
	}

	out := make([]float64, len(y)-2*neighbors)
	for i := range out {
		var s float64
		for j, k := range kernel {
			s += k * y[i+j]
		}
		out[i] = s
	}
	return x[neighbors : len(x)-neighbors], out, nil
}

// ExpMovingAvg computes the exponential moving average of y. Lower alpha
// values give smoother curves. With reverse set, smoothing runs from the last
// point towards the first.
func ExpMovingAvg(x, y []float64, alpha float64, reverse bool) ([]float64, []float64, error) {
	x, y, err := xOrIota(x, y)
	if err != nil {
		return nil, nil, err
	}
	if alpha <= 0 || alpha > 1 {
		return nil, nil, fmt.Errorf("ds: alpha must be in (0, 1], got %g", alpha)
	}
	n := len(y)
	out := make([]float64, n)
	at := func(i int) int {
		if reverse {
			return n - 1 - i
		}
		return i
	}
	out[at(0)] = y[at(0)]
	for i := 1; i < n; i++ {
		out[at(i)] = alpha*y[at(i)] + (1-alpha)*out[at(i-1)]
	}
	return x, out, nil
}

// DoubleMovingAvg smooths twice: an initial triangular average with edge
// replication, resampling onto an even grid by linear interpolation, and a
// second triangular average over the samples. It handles unevenly spaced data
// better than MovingAvg and covers the full span of x, which must be sorted
// in ascending order when given.
func DoubleMovingAvg(x, y []float64, innerNeighbors, outerNeighbors, samples int) ([]float64, []float64, error) {
	x, y, err := xOrIota(x, y)
	if err != nil {
		return nil, nil, err
	}
	if innerNeighbors < 1 || outerNeighbors < 1 || samples < 2 {
		return nil, nil, fmt.Errorf("ds: invalid smoothing parameters (%d, %d, %d)",
			innerNeighbors, outerNeighbors, samples)
	}

	// Replicate edge values so the inner average keeps the original span.
	padded := make([]float64, 0, len(y)+2*innerNeighbors)
	for i := 0; i < innerNeighbors; i++ {
		padded = append(padded, y[0])
	}
	padded = append(padded, y...)
	for i := 0; i < innerNeighbors; i++ {
		padded = append(padded, y[len(y)-1])
	}
	paddedX := make([]float64, len(padded))
	copy(paddedX[innerNeighbors:], x)
	xs, ys, err := MovingAvg(paddedX, padded, innerNeighbors)
	if err != nil {
		return nil, nil, err
	}

	span := xs[len(xs)-1] - xs[0]
	extra := float64(outerNeighbors) / float64(samples) * span
	total := samples + 2*outerNeighbors
	xx := linspace(xs[0]-extra, xs[len(xs)-1]+extra, total)
	yy := make([]float64, total)
	for i := 0; i < outerNeighbors; i++ {
		yy[i] = ys[0]
		yy[total-1-i] = ys[len(ys)-1]
	}

	idx := 0
	for k := outerNeighbors; k < outerNeighbors+samples; k++ {
		xi := xx[k]
		for idx < len(xs)-2 && xi >= xs[idx+1] {
			idx++
		}
		a := (ys[idx+1] - ys[idx]) / (xs[idx+1] - xs[idx])
		b := ys[idx] - a*xs[idx]
		yy[k] = a*xi + b
	}

	return MovingAvg(xx, yy, outerNeighbors)
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
