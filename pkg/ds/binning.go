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
	"fmt"
	"math"
	"time"
)

// BinningFunc produces n bin edges covering the data.
type BinningFunc func(data []float64, n int) []float64

// LinearBinning returns evenly spaced edges from min to max of the data.
func LinearBinning(data []float64, n int) []float64 {
	lo, hi := minMax(data)
	return linspace(lo, hi, n)
}

// LogBinning returns logarithmically spaced edges from min to max of the
// data, which must be positive.
func LogBinning(data []float64, n int) []float64 {
	lo, hi := minMax(data)
	edges := linspace(math.Log10(lo), math.Log10(hi), n)
	for i, e := range edges {
		edges[i] = math.Pow(10, e)
	}
	return edges
}

// BinsOptions controls Bins.
type BinsOptions struct {
	// Binning produces the bin edges. Defaults to LinearBinning.
	Binning BinningFunc
	// Bins is the number of bins. Defaults to 25.
	Bins int
	// Density normalizes heights so the histogram integrates to 1.
	Density bool
	// IgnoreZeros drops empty bins from the output.
	IgnoreZeros bool
}

// Bins prepares a line histogram of the data: it returns bin centers and bin
// heights ready for plotting as a curve. The last bin includes its right
// edge.
func Bins(data []float64, opts BinsOptions) (xs, ys []float64, err error) {
	if len(data) == 0 {
		return nil, nil, ErrEmpty
	}
	if opts.Binning == nil {
		opts.Binning = LinearBinning
	}
	if opts.Bins == 0 {
		opts.Bins = 25
	}
	if opts.Bins < 1 {
		return nil, nil, fmt.Errorf("ds: number of bins must be positive, got %d", opts.Bins)
	}

	edges := opts.Binning(data, opts.Bins+1)
	counts := make([]float64, opts.Bins)
	for _, v := range data {
		i := searchBin(edges, v)
		if i >= 0 {
			counts[i]++
		}
	}
	xs = make([]float64, opts.Bins)
	ys = make([]float64, opts.Bins)
	for i := range counts {
		xs[i] = (edges[i] + edges[i+1]) / 2
		ys[i] = counts[i]
		if opts.Density {
			width := edges[i+1] - edges[i]
			ys[i] /= float64(len(data)) * width
		}
	}
	if opts.IgnoreZeros {
		fx, fy := xs[:0], ys[:0]
		for i := range ys {
			if counts[i] > 0 {
				fx = append(fx, xs[i])
				fy = append(fy, ys[i])
			}
		}
		xs, ys = fx, fy
	}
	return xs, ys, nil
}

// searchBin returns the bin index of v given ascending edges, with the last
// bin closed on the right. Values outside the edges give -1.
func searchBin(edges []float64, v float64) int {
	if v < edges[0] || v > edges[len(edges)-1] {
		return -1
	}
	if v == edges[len(edges)-1] {
		return len(edges) - 2
	}
	lo, hi := 0, len(edges)-1
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if edges[mid] <= v {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// DateTicks produces axis tick positions and labels for an array of epoch
// times in seconds. num must be at least 2.
func DateTicks(epochs []float64, num int, layout string) ([]float64, []string, error) {
	if num < 2 {
		return nil, nil, fmt.Errorf("ds: num must be 2 or greater, got %d", num)
	}
	if len(epochs) == 0 {
		return nil, nil, ErrEmpty
	}
	if layout == "" {
		layout = "06-01-02"
	}
	lo, hi := minMax(epochs)
	ticks := linspace(lo, hi, num)
	labels := make([]string, num)
	for i, t := range ticks {
		labels[i] = time.Unix(int64(t), 0).UTC().Format(layout)
	}
	return ticks, labels, nil
}

func minMax(xs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}
