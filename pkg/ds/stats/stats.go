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

// Package stats provides a few statistical conveniences used alongside the
// binning helpers in pkg/ds.
package stats

import (
	"errors"
	"fmt"
	"math"
)

// ErrInput is returned on invalid statistical inputs.
var ErrInput = errors.New("stats: invalid input")

// Z returns the standard normal quantile for significance level alpha, e.g.
// Z(0.05, true) is approximately 1.96.
func Z(alpha float64, twoSided bool) (float64, error) {
	if alpha < 0 || alpha > 1 {
		return 0, fmt.Errorf("%w: alpha must be between 0 and 1, got %g", ErrInput, alpha)
	}
	if twoSided {
		return normPPF(1 - alpha/2), nil
	}
	return normPPF(1 - alpha), nil
}

// CorrCI holds a Pearson correlation with its confidence interval.
type CorrCI struct {
	R    float64
	Low  float64
	High float64
	P    float64
}

func (c CorrCI) String() string {
	return fmt.Sprintf("Correlation %.3f in [%.3f, %.3f], with p=%.3f", c.R, c.Low, c.High, c.P)
}

// Corr computes the Pearson correlation of x and y along with a confidence
// interval at significance level alpha using the Fisher transformation,
// which is exact only when (X, Y) follow a bivariate normal. The p-value is
// computed from the normal approximation of the transformed coefficient.
func Corr(x, y []float64, alpha float64) (CorrCI, error) {
	if len(x) != len(y) {
		return CorrCI{}, fmt.Errorf("%w: length mismatch %d vs %d", ErrInput, len(x), len(y))
	}
	if len(x) < 4 {
		return CorrCI{}, fmt.Errorf("%w: need at least 4 points, got %d", ErrInput, len(x))
	}

	n := float64(len(x))
	var mx, my float64
	for i := range x {
		mx += x[i]
		my += y[i]
	}
	mx /= n
	my /= n
	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return CorrCI{}, fmt.Errorf("%w: constant input", ErrInput)
	}
	r := sxy / math.Sqrt(sxx*syy)

	rz := math.Atanh(r)
	se := 1 / math.Sqrt(n-3)
	z, err := Z(alpha, true)
	if err != nil {
		return CorrCI{}, err
	}
	p := 2 * (1 - normCDF(math.Abs(rz)/se))

	return CorrCI{
		R:    r,
		Low:  math.Tanh(rz - z*se),
		High: math.Tanh(rz + z*se),
		P:    p,
	}, nil
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normPPF inverts the standard normal CDF using Acklam's rational
// approximation, accurate to about 1e-9 over (0, 1).
func normPPF(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	if p >= 1 {
		return math.Inf(1)
	}

	a := [6]float64{-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00}
	b := [5]float64{-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01}
	c := [6]float64{-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00}
	d := [4]float64{7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00,
		3.754408661907416e+00}

	const pLow = 0.02425
	switch {
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p > 1-pLow:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	default:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	}
}
